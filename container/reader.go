// Copyright (C) 2024 MCStream Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package container

import (
	"bytes"
	"crypto/sha256"
	"io"
	"runtime"
	"sort"
	"sync"

	"github.com/mcstream/mcstream/chunkio"
	"github.com/mcstream/mcstream/compr"
	"github.com/mcstream/mcstream/mcserr"
)

// OpenOptions configures an Open call.
type OpenOptions struct {
	// Verifier, if non-nil, is used to check a signature block when
	// the header's signed flag is set. Verification is strictly
	// opt-in: Open never fails a signed file for lack of a Verifier,
	// and never fails an unsigned file for carrying one unused.
	Verifier Verifier
}

// Reader provides random access to the chunks of an opened MCS file,
// after having verified its structure and trailing digest.
type Reader struct {
	src     io.ReaderAt
	size    int64
	header  Header
	entries []IndexEntry
	digest  []byte
	sig     *Signature
}

// Open parses and validates an MCS file accessible through src, whose
// total length is size. It reads the header, chunk index, and trailer,
// recomputes the SHA-256 digest over everything preceding the trailer
// and compares it against the stored value, and — if the file is
// signed and opts.Verifier is supplied — checks the signature over
// that digest.
//
// Open does not decompress any chunk payload; that work happens lazily
// in Chunk or eagerly in DecodeAll.
func Open(src io.ReaderAt, size int64, opts OpenOptions) (*Reader, error) {
	if size < HeaderSize+DigestSize {
		return nil, mcserr.New(mcserr.TruncatedFile, "file too small to contain a header and trailer: %d bytes", size)
	}

	hdrBuf := make([]byte, HeaderSize)
	if _, err := src.ReadAt(hdrBuf, 0); err != nil {
		return nil, mcserr.Wrap(mcserr.IoError, err, "reading header")
	}
	header, err := DecodeHeader(hdrBuf)
	if err != nil {
		return nil, err
	}

	indexSize := int(header.ChunkCount) * IndexEntrySize
	idxBuf := make([]byte, indexSize)
	if indexSize > 0 {
		if _, err := src.ReadAt(idxBuf, HeaderSize); err != nil {
			return nil, mcserr.Wrap(mcserr.IoError, err, "reading chunk index")
		}
	}
	entries, err := decodeIndex(idxBuf, header.ChunkCount, size)
	if err != nil {
		return nil, err
	}

	var digestOffset int64 = HeaderSize + int64(indexSize)
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		digestOffset = int64(last.Offset) + int64(last.CompressedLen)
	}
	if digestOffset+DigestSize > size {
		return nil, mcserr.New(mcserr.TruncatedFile, "missing trailer digest")
	}

	storedDigest := make([]byte, DigestSize)
	if _, err := src.ReadAt(storedDigest, digestOffset); err != nil {
		return nil, mcserr.Wrap(mcserr.IoError, err, "reading trailer digest")
	}

	h := sha256.New()
	if _, err := io.Copy(h, io.NewSectionReader(src, 0, digestOffset)); err != nil {
		return nil, mcserr.Wrap(mcserr.IoError, err, "hashing file for digest verification")
	}
	if !bytes.Equal(h.Sum(nil), storedDigest) {
		return nil, mcserr.New(mcserr.IntegrityError, "trailer digest mismatch")
	}

	var sig *Signature
	if header.Signed() {
		sigStart := digestOffset + DigestSize
		if sigStart >= size {
			return nil, mcserr.New(mcserr.TruncatedFile, "signed flag set but no signature block present")
		}
		sigBuf := make([]byte, size-sigStart)
		if _, err := src.ReadAt(sigBuf, sigStart); err != nil {
			return nil, mcserr.Wrap(mcserr.IoError, err, "reading signature block")
		}
		parsed, _, err := decodeSignature(sigBuf)
		if err != nil {
			return nil, err
		}
		sig = &parsed
		if opts.Verifier != nil {
			if opts.Verifier.Algorithm() != parsed.Algorithm {
				return nil, mcserr.New(mcserr.SignatureError, "verifier handles algorithm %d, file uses %d", opts.Verifier.Algorithm(), parsed.Algorithm)
			}
			if err := opts.Verifier.Verify(parsed.PubKey, storedDigest, parsed.Sig); err != nil {
				return nil, err
			}
		}
	}

	return &Reader{
		src:     src,
		size:    size,
		header:  header,
		entries: entries,
		digest:  storedDigest,
		sig:     sig,
	}, nil
}

// Header returns the file's parsed header.
func (r *Reader) Header() Header { return r.header }

// Digest returns the trailing SHA-256 digest, already verified by Open.
func (r *Reader) Digest() []byte { return r.digest }

// Signature returns the file's signature block, if present.
func (r *Reader) Signature() (Signature, bool) {
	if r.sig == nil {
		return Signature{}, false
	}
	return *r.sig, true
}

// Keys returns every chunk key present in the file, in on-disk
// (ascending cx, cz) order.
func (r *Reader) Keys() []chunkio.Key {
	out := make([]chunkio.Key, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Key()
	}
	return out
}

func (r *Reader) entryFor(k chunkio.Key) (IndexEntry, bool) {
	i := sort.Search(len(r.entries), func(i int) bool {
		return !r.entries[i].Key().Less(k)
	})
	if i < len(r.entries) && r.entries[i].Key() == k {
		return r.entries[i], true
	}
	return IndexEntry{}, false
}

// chunkPayload reads and decompresses the chunk addressed by e.
func (r *Reader) chunkPayload(e IndexEntry) ([]byte, error) {
	compressed := make([]byte, e.CompressedLen)
	if _, err := r.src.ReadAt(compressed, int64(e.Offset)); err != nil {
		return nil, mcserr.Wrap(mcserr.IoError, err, "reading chunk %v", e.Key())
	}
	dec, err := compr.NewDecompressor(r.header.Compression)
	if err != nil {
		return nil, err
	}
	payload, err := dec.Decompress(compressed, nil)
	if err != nil {
		return nil, mcserr.Wrap(mcserr.CompressionError, err, "decompressing chunk %v", e.Key())
	}
	return payload, nil
}

// Chunk decompresses and decodes a single chunk by key, reading its
// compressed bytes directly from the backing source. Chunks may be
// decoded independently of one another.
func (r *Reader) Chunk(k chunkio.Key) (*chunkio.Decoded, error) {
	e, ok := r.entryFor(k)
	if !ok {
		return nil, mcserr.New(mcserr.MalformedChunk, "no such chunk %v", k)
	}
	payload, err := r.chunkPayload(e)
	if err != nil {
		return nil, err
	}
	return chunkio.DecodeChunk(k, payload)
}

// ChunkSummary is a chunk's accounting without its block-level detail:
// enough for `mcspack info -v` to report per-chunk sizes, palette size,
// and block count.
type ChunkSummary struct {
	Key             chunkio.Key
	PaletteLen      int
	BlockCount      int
	CompressedLen   uint32
	UncompressedLen uint64
}

// ChunkSummary decodes chunk k and returns its accounting. The
// decompressed payload is still produced in full — the format carries
// no separate length-prefix for the block records — but the summary
// itself never copies NBT payload bytes around beyond what DecodeChunk
// already references.
func (r *Reader) ChunkSummary(k chunkio.Key) (ChunkSummary, error) {
	e, ok := r.entryFor(k)
	if !ok {
		return ChunkSummary{}, mcserr.New(mcserr.MalformedChunk, "no such chunk %v", k)
	}
	payload, err := r.chunkPayload(e)
	if err != nil {
		return ChunkSummary{}, err
	}
	d, err := chunkio.DecodeChunk(k, payload)
	if err != nil {
		return ChunkSummary{}, err
	}
	return ChunkSummary{
		Key:             k,
		PaletteLen:      len(d.Palette),
		BlockCount:      len(d.Records),
		CompressedLen:   e.CompressedLen,
		UncompressedLen: uint64(len(payload)),
	}, nil
}

// DecodeAll decompresses and decodes every chunk in the file in
// parallel, returning results in on-disk key order. Parallelism of
// zero means runtime.GOMAXPROCS(0).
func (r *Reader) DecodeAll(parallelism int) ([]*chunkio.Decoded, error) {
	if len(r.entries) == 0 {
		return nil, nil
	}
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	if parallelism > len(r.entries) {
		parallelism = len(r.entries)
	}

	results := make([]*chunkio.Decoded, len(r.entries))
	jobs := make(chan int, len(r.entries))
	for i := range r.entries {
		jobs <- i
	}
	close(jobs)
	errc := make(chan error, parallelism)
	var wg sync.WaitGroup

	for i := 0; i < parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dec, err := compr.NewDecompressor(r.header.Compression)
			if err != nil {
				errc <- err
				return
			}
			for idx := range jobs {
				e := r.entries[idx]
				compressed := make([]byte, e.CompressedLen)
				if _, err := r.src.ReadAt(compressed, int64(e.Offset)); err != nil {
					errc <- mcserr.Wrap(mcserr.IoError, err, "reading chunk %v", e.Key())
					return
				}
				payload, err := dec.Decompress(compressed, nil)
				if err != nil {
					errc <- mcserr.Wrap(mcserr.CompressionError, err, "decompressing chunk %v", e.Key())
					return
				}
				d, err := chunkio.DecodeChunk(e.Key(), payload)
				if err != nil {
					errc <- err
					return
				}
				results[idx] = d
			}
		}()
	}

	wg.Wait()
	close(errc)
	if err := <-errc; err != nil {
		return nil, err
	}
	return results, nil
}
