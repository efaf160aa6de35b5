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

// Package mcstream is the public API for reading and writing MCS
// (MCStream) container files: a self-describing, chunk-partitioned,
// independently-compressed, hash-verified binary format for block
// placements.
//
// Encoder accumulates block placements and serializes them; Decoder
// opens a serialized file, verifies its trailer digest (and, if asked,
// its signature), and exposes its chunks for random or full access.
package mcstream

import (
	"io"
	"os"
	"sync"

	"github.com/mcstream/mcstream/chunkio"
	"github.com/mcstream/mcstream/compr"
	"github.com/mcstream/mcstream/container"
	"github.com/mcstream/mcstream/mcserr"
)

// DefaultAirID is the block id treated as "no block here" and elided
// from the stream, matching vanilla Minecraft's empty-space id.
const DefaultAirID = "minecraft:air"

// Encoder accumulates block placements and serializes them into an MCS
// file on demand. An Encoder is safe for concurrent AddBlock/AddBlocks
// calls; it seals itself permanently on the first WriteToSink call
// (WriteToFile makes that call once it has created the file), after
// which further mutation returns EncoderSealed.
type Encoder struct {
	mu          sync.Mutex
	b           *chunkio.Builder
	compression compr.Algorithm
	signer      container.Signer
	parallelism int
	sealed      bool
}

// NewEncoder returns an Encoder that drops placements of airID and
// compresses chunk payloads with the given algorithm on write.
func NewEncoder(airID string, compression compr.Algorithm) *Encoder {
	return &Encoder{
		b:           chunkio.NewBuilder(airID),
		compression: compression,
	}
}

// SignWith configures the Encoder to append a signature block over the
// trailer digest at write time. Must be called before
// WriteToSink/WriteToFile.
func (e *Encoder) SignWith(s container.Signer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.signer = s
}

// SetParallelism overrides the number of chunks compressed
// concurrently at write time. Zero (the default) means
// runtime.GOMAXPROCS(0).
func (e *Encoder) SetParallelism(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.parallelism = n
}

// AddBlock inserts one block placement at absolute coordinates. A nil
// nbt slice means "no NBT"; any non-nil slice, including an empty one,
// is recorded as present. DecodeChunk preserves the distinction on the
// wire via the nbt_flag bit alone, so callers that want a zero-length
// opaque payload should pass a non-nil empty slice.
func (e *Encoder) AddBlock(id string, x, y, z int32, nbt []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sealed {
		return mcserr.New(mcserr.EncoderSealed, "AddBlock called after WriteToSink")
	}
	return e.b.AddBlock(id, x, y, z, nbt)
}

// AddBlocks inserts repeated placements of the same block id across
// multiple positions. An empty positions slice is a no-op.
func (e *Encoder) AddBlocks(id string, positions [][3]int32, nbt []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sealed {
		return mcserr.New(mcserr.EncoderSealed, "AddBlocks called after WriteToSink")
	}
	return e.b.AddBlocks(id, positions, nbt)
}

// Empty reports whether no block survived air elision.
func (e *Encoder) Empty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.b.Empty()
}

// WriteToSink serializes the accumulated blocks to w and seals the
// Encoder. Subsequent calls return EncoderSealed.
func (e *Encoder) WriteToSink(w io.Writer) error {
	e.mu.Lock()
	if e.sealed {
		e.mu.Unlock()
		return mcserr.New(mcserr.EncoderSealed, "WriteToSink called more than once")
	}
	e.sealed = true
	opts := container.WriteOptions{
		Compression: e.compression,
		Parallelism: e.parallelism,
		Signer:      e.signer,
	}
	e.mu.Unlock()
	return container.Write(w, e.b, opts)
}

// WriteToFile is a convenience wrapper around WriteToSink that creates
// (or truncates) path and writes the file to it.
func (e *Encoder) WriteToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return mcserr.Wrap(mcserr.IoError, err, "creating %s", path)
	}
	defer f.Close()
	if err := e.WriteToSink(f); err != nil {
		return err
	}
	return f.Close()
}

// DecodeOptions configures OpenFromSource/OpenFile.
type DecodeOptions struct {
	// Verifier, if set, checks the file's signature block when the
	// header's signed flag is present. Verification is opt-in: a
	// signed file opened without a Verifier decodes normally.
	Verifier container.Verifier
}

// Decoder provides access to an opened MCS file's header and chunks,
// after verifying its trailer digest (and signature, if requested) at
// open time.
type Decoder struct {
	r *container.Reader
}

// OpenFromSource opens an MCS file backed by src, whose total byte
// length is size. src may be an *os.File, a *bytes.Reader, or any
// other io.ReaderAt — a file or an in-memory sink work identically.
func OpenFromSource(src io.ReaderAt, size int64, opts DecodeOptions) (*Decoder, error) {
	r, err := container.Open(src, size, container.OpenOptions{Verifier: opts.Verifier})
	if err != nil {
		return nil, err
	}
	return &Decoder{r: r}, nil
}

// OpenFile opens the MCS file at path. The caller must Close the
// returned io.Closer once done with the Decoder.
func OpenFile(path string, opts DecodeOptions) (*Decoder, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, mcserr.Wrap(mcserr.IoError, err, "opening %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, mcserr.Wrap(mcserr.IoError, err, "stat %s", path)
	}
	dec, err := OpenFromSource(f, info.Size(), opts)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return dec, f, nil
}

// Header returns the file's parsed header.
func (d *Decoder) Header() container.Header { return d.r.Header() }

// Signature returns the file's signature block, if present.
func (d *Decoder) Signature() (container.Signature, bool) { return d.r.Signature() }

// Chunks returns every chunk key present in the file, in on-disk
// (ascending cx, cz) order.
func (d *Decoder) Chunks() []chunkio.Key { return d.r.Keys() }

// ChunkView decompresses and decodes a single chunk by key, resolving
// palette indices into a slice of AbsoluteBlock.
func (d *Decoder) ChunkView(k chunkio.Key) ([]chunkio.AbsoluteBlock, error) {
	dec, err := d.r.Chunk(k)
	if err != nil {
		return nil, err
	}
	return absoluteBlocks(dec), nil
}

// ChunkSummary returns chunk k's palette size, block count, and
// compressed length without requiring the caller to hold on to its
// full decoded form.
func (d *Decoder) ChunkSummary(k chunkio.Key) (container.ChunkSummary, error) {
	return d.r.ChunkSummary(k)
}

// AllBlocks decodes every chunk, in parallel, and flattens the result
// into a single slice of resolved blocks in on-disk chunk order.
func (d *Decoder) AllBlocks() ([]chunkio.AbsoluteBlock, error) {
	chunks, err := d.r.DecodeAll(0)
	if err != nil {
		return nil, err
	}
	var out []chunkio.AbsoluteBlock
	for _, c := range chunks {
		out = append(out, absoluteBlocks(c)...)
	}
	return out, nil
}

func absoluteBlocks(d *chunkio.Decoded) []chunkio.AbsoluteBlock {
	out := make([]chunkio.AbsoluteBlock, len(d.Records))
	for i := range d.Records {
		out[i] = d.Absolute(i)
	}
	return out
}
