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
	"crypto/sha256"
	"io"
	"runtime"
	"sort"
	"sync"

	"github.com/mcstream/mcstream/chunkio"
	"github.com/mcstream/mcstream/compr"
	"github.com/mcstream/mcstream/mcserr"
)

// ChunkSource supplies the uncompressed payload for each chunk a
// Write call will emit. (*chunkio.Builder) satisfies this interface
// via its Keys and FinalizeChunk methods.
type ChunkSource interface {
	Keys() []chunkio.Key
	FinalizeChunk(k chunkio.Key) []byte
}

// WriteOptions configures a Write call.
type WriteOptions struct {
	// Compression selects the per-chunk compression algorithm. Required.
	Compression compr.Algorithm
	// Parallelism bounds the number of chunks compressed concurrently.
	// Zero means runtime.GOMAXPROCS(0).
	Parallelism int
	// Signer, if non-nil, produces a signature block over the trailing
	// digest, the optional signature block appended after the trailer.
	Signer Signer
}

// Write serializes src's chunks to w as a complete MCS file: header,
// chunk index, chunk data region in (cx, cz)-ascending order, trailing
// SHA-256 digest, and optional signature block.
//
// Chunks are compressed in parallel, each worker owning its own
// Compressor instance, but written to w strictly in key order by a
// single goroutine that also owns the running digest — the same
// single-writer-owns-the-sink-and-hasher discipline used for
// serializing concurrent producers into one output stream.
func Write(w io.Writer, src ChunkSource, opts WriteOptions) error {
	keys := append([]chunkio.Key(nil), src.Keys()...)
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	if len(keys) == 0 {
		return mcserr.New(mcserr.EmptyInput, "no chunks to write")
	}
	if len(keys) > 1<<32-1 {
		return mcserr.New(mcserr.EmptyInput, "too many chunks: %d", len(keys))
	}

	compressed, err := compressAll(keys, src, opts.Compression, opts.Parallelism)
	if err != nil {
		return err
	}

	var flags Flags
	if opts.Signer != nil {
		flags |= FlagSigned
	}
	header := Header{
		Version:     Version{Major: CurrentMajor, Minor: CurrentMinor},
		Compression: opts.Compression,
		Flags:       flags,
		ChunkCount:  uint32(len(keys)),
	}

	indexBuf := make([]byte, 0, len(keys)*IndexEntrySize)
	offset := uint64(HeaderSize + len(keys)*IndexEntrySize)
	entries := make([]IndexEntry, len(keys))
	for i, k := range keys {
		entries[i] = IndexEntry{CX: k.CX, CZ: k.CZ, Offset: offset, CompressedLen: uint32(len(compressed[i]))}
		offset += uint64(len(compressed[i]))
	}
	for _, e := range entries {
		indexBuf = e.Encode(indexBuf)
	}

	h := sha256.New()
	mw := io.MultiWriter(w, h)

	if _, err := mw.Write(header.Encode()); err != nil {
		return mcserr.Wrap(mcserr.IoError, err, "writing header")
	}
	if _, err := mw.Write(indexBuf); err != nil {
		return mcserr.Wrap(mcserr.IoError, err, "writing chunk index")
	}
	for i, blob := range compressed {
		if _, err := mw.Write(blob); err != nil {
			return mcserr.Wrap(mcserr.IoError, err, "writing chunk %v", keys[i])
		}
	}

	digest := h.Sum(nil)
	if _, err := w.Write(digest); err != nil {
		return mcserr.Wrap(mcserr.IoError, err, "writing trailer digest")
	}

	if opts.Signer != nil {
		sig, pub, err := opts.Signer.Sign(digest)
		if err != nil {
			return mcserr.Wrap(mcserr.SignatureError, err, "signing digest")
		}
		sigBlock := Signature{Algorithm: opts.Signer.Algorithm(), Sig: sig, PubKey: pub}.Encode(nil)
		if _, err := w.Write(sigBlock); err != nil {
			return mcserr.Wrap(mcserr.IoError, err, "writing signature block")
		}
	}

	return nil
}

// compressAll compresses each keyed chunk's payload, returning results
// indexed identically to keys regardless of which worker finished
// first — on-disk order must be deterministic regardless of
// completion order.
func compressAll(keys []chunkio.Key, src ChunkSource, algo compr.Algorithm, parallelism int) ([][]byte, error) {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	if parallelism > len(keys) {
		parallelism = len(keys)
	}

	results := make([][]byte, len(keys))
	jobs := make(chan int, len(keys))
	for i := range keys {
		jobs <- i
	}
	close(jobs)
	errc := make(chan error, parallelism)
	var wg sync.WaitGroup

	for i := 0; i < parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := compr.NewCompressor(algo)
			if err != nil {
				errc <- err
				return
			}
			for idx := range jobs {
				payload := src.FinalizeChunk(keys[idx])
				out, err := c.Compress(payload, nil)
				if err != nil {
					errc <- mcserr.Wrap(mcserr.CompressionError, err, "compressing chunk %v", keys[idx])
					return
				}
				results[idx] = out
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
