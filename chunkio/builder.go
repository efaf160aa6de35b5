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

package chunkio

import (
	"sort"

	"github.com/mcstream/mcstream/localpos"
	"github.com/mcstream/mcstream/mcserr"
	"github.com/mcstream/mcstream/varint"
)

type record struct {
	paletteIndex uint32
	lx, lz       uint8
	ly           uint16
	nbt          []byte
	hasNBT       bool
}

type chunkBuf struct {
	palette []string
	index   map[string]uint32
	records []record
}

func newChunkBuf() *chunkBuf {
	return &chunkBuf{index: make(map[string]uint32)}
}

// internBlock returns the palette index for id within this chunk,
// inserting it at the end of the palette (order of first appearance)
// if it hasn't been seen yet.
func (c *chunkBuf) internBlock(id string) uint32 {
	if i, ok := c.index[id]; ok {
		return i
	}
	i := uint32(len(c.palette))
	c.palette = append(c.palette, id)
	c.index[id] = i
	return i
}

// Builder accumulates block placements per chunk, in insertion order,
// ahead of serialization. It is the encoder-side half of the chunk
// engine.
//
// A Builder's buffers are private to it; concurrent AddBlock/AddBlocks
// calls from multiple callers must be serialized externally.
type Builder struct {
	airID  string
	chunks map[Key]*chunkBuf
	keys   []Key
}

// NewBuilder returns an empty Builder that drops placements whose id
// equals airID.
func NewBuilder(airID string) *Builder {
	return &Builder{
		airID:  airID,
		chunks: make(map[Key]*chunkBuf),
	}
}

func (b *Builder) chunkFor(x, z int32) *chunkBuf {
	k := KeyFor(x, z)
	c, ok := b.chunks[k]
	if !ok {
		c = newChunkBuf()
		b.chunks[k] = c
		b.keys = append(b.keys, k)
	}
	return c
}

// AddBlock inserts a single block placement. Placements whose id equals
// the configured air identifier are silently dropped. Duplicate
// (id, exact coordinates) pairs are permitted; both records are kept,
// verbatim and in insertion order.
func (b *Builder) AddBlock(id string, x, y, z int32, nbt []byte) error {
	if id == b.airID {
		return nil
	}
	if !localpos.InRange(y) {
		return mcserr.New(mcserr.CoordinateOutOfRange, "y=%d outside [%d,%d]", y, localpos.YMin, localpos.YMax)
	}
	c := b.chunkFor(x, z)
	k := KeyFor(x, z)
	lx, lz := k.Local(x, z)
	idx := c.internBlock(id)
	c.records = append(c.records, record{
		paletteIndex: idx,
		lx:           lx,
		lz:           lz,
		ly:           localpos.OffsetY(y),
		nbt:          nbt,
		hasNBT:       nbt != nil,
	})
	return nil
}

// AddBlocks inserts repeated placements of the same block id across
// multiple positions, batching the palette lookup into a single
// insertion per distinct chunk touched. An empty positions slice is a
// no-op, not an error.
func (b *Builder) AddBlocks(id string, positions [][3]int32, nbt []byte) error {
	if len(positions) == 0 {
		return nil
	}
	if id == b.airID {
		return nil
	}
	// group by chunk key so each chunk only does one palette lookup
	// per distinct key touched by this call, not per position.
	byChunk := make(map[Key][][3]int32)
	for _, p := range positions {
		if !localpos.InRange(p[1]) {
			return mcserr.New(mcserr.CoordinateOutOfRange, "y=%d outside [%d,%d]", p[1], localpos.YMin, localpos.YMax)
		}
		k := KeyFor(p[0], p[2])
		byChunk[k] = append(byChunk[k], p)
	}
	for k, pts := range byChunk {
		c, ok := b.chunks[k]
		if !ok {
			c = newChunkBuf()
			b.chunks[k] = c
			b.keys = append(b.keys, k)
		}
		idx := c.internBlock(id)
		for _, p := range pts {
			lx, lz := k.Local(p[0], p[2])
			c.records = append(c.records, record{
				paletteIndex: idx,
				lx:           lx,
				lz:           lz,
				ly:           localpos.OffsetY(p[1]),
				nbt:          nbt,
				hasNBT:       nbt != nil,
			})
		}
	}
	return nil
}

// Empty reports whether no block survived air elision.
func (b *Builder) Empty() bool {
	return len(b.keys) == 0
}

// Keys returns the set of populated chunk keys, sorted ascending by
// (cx, cz) — the normative on-disk chunk emission order.
func (b *Builder) Keys() []Key {
	out := append([]Key(nil), b.keys...)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// PaletteLen returns the number of distinct block ids in chunk k.
func (b *Builder) PaletteLen(k Key) int {
	c := b.chunks[k]
	if c == nil {
		return 0
	}
	return len(c.palette)
}

// BlockCount returns the number of block records in chunk k.
func (b *Builder) BlockCount(k Key) int {
	c := b.chunks[k]
	if c == nil {
		return 0
	}
	return len(c.records)
}

// FinalizeChunk serializes chunk k's uncompressed byte form:
//
//	palette_len:varuint
//	palette_len x string
//	block_count:varuint
//	block_count x { packed_local_pos:u32, palette_index:varuint,
//	                [nbt_len:varuint, nbt_bytes] if nbt_flag }
func (b *Builder) FinalizeChunk(k Key) []byte {
	c := b.chunks[k]
	if c == nil {
		return nil
	}
	buf := make([]byte, 0, 64+32*len(c.records))
	buf = varint.AppendUvarint(buf, uint64(len(c.palette)))
	for _, id := range c.palette {
		buf = varint.AppendString(buf, id)
	}
	buf = varint.AppendUvarint(buf, uint64(len(c.records)))
	for _, r := range c.records {
		word := localpos.Pack(r.lx, r.ly, r.lz, r.hasNBT)
		buf = append(buf, byte(word), byte(word>>8), byte(word>>16), byte(word>>24))
		buf = varint.AppendUvarint(buf, uint64(r.paletteIndex))
		if r.hasNBT {
			buf = varint.AppendBytes(buf, r.nbt)
		}
	}
	return buf
}
