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
	"encoding/binary"

	"github.com/mcstream/mcstream/localpos"
	"github.com/mcstream/mcstream/mcserr"
	"github.com/mcstream/mcstream/varint"
)

// Record is a single decoded block record, still expressed in terms of
// its palette index and local coordinates; Decoded.Absolute resolves a
// Record to an absolute-coordinate, resolved-id view.
type Record struct {
	PaletteIndex uint32
	LX, LZ       uint8
	LY           uint16
	NBT          []byte
	HasNBT       bool
}

// Decoded is the parsed form of one chunk's uncompressed payload.
type Decoded struct {
	Key     Key
	Palette []string
	Records []Record
}

// AbsoluteBlock is a fully resolved block: its namespaced id and
// absolute world coordinates, with NBT bytes if present.
type AbsoluteBlock struct {
	ID      string
	X, Y, Z int32
	NBT     []byte
}

// Absolute resolves record i of d into an AbsoluteBlock.
func (d *Decoded) Absolute(i int) AbsoluteBlock {
	r := d.Records[i]
	x, z := d.Key.Global(r.LX, r.LZ)
	return AbsoluteBlock{
		ID:  d.Palette[r.PaletteIndex],
		X:   x,
		Y:   localpos.AbsoluteY(r.LY),
		Z:   z,
		NBT: r.NBT,
	}
}

// DecodeChunk parses a chunk's uncompressed byte payload, as produced
// by (*Builder).FinalizeChunk, validating structure including that
// every palette_index < palette_len, else MalformedChunk.
func DecodeChunk(key Key, buf []byte) (*Decoded, error) {
	paletteLen, n, err := varint.Uvarint(buf)
	if err != nil {
		return nil, mcserr.Wrap(mcserr.MalformedInteger, err, "chunk %v: palette length", key)
	}
	buf = buf[n:]

	palette := make([]string, 0, paletteLen)
	for i := uint64(0); i < paletteLen; i++ {
		s, n, err := varint.String(buf)
		if err != nil {
			return nil, mcserr.Wrap(errKindFor(err), err, "chunk %v: palette entry %d", key, i)
		}
		palette = append(palette, s)
		buf = buf[n:]
	}

	blockCount, n, err := varint.Uvarint(buf)
	if err != nil {
		return nil, mcserr.Wrap(mcserr.MalformedInteger, err, "chunk %v: block count", key)
	}
	buf = buf[n:]

	records := make([]Record, 0, blockCount)
	for i := uint64(0); i < blockCount; i++ {
		if len(buf) < 4 {
			return nil, mcserr.New(mcserr.TruncatedFile, "chunk %v: record %d: truncated local position", key, i)
		}
		word := binary.LittleEndian.Uint32(buf)
		buf = buf[4:]
		if !localpos.Validate(word) {
			return nil, mcserr.New(mcserr.MalformedChunk, "chunk %v: record %d: nonzero reserved bits in local position", key, i)
		}
		lx, lz, ly, hasNBT := localpos.Unpack(word)
		if lx > 15 || lz > 15 {
			return nil, mcserr.New(mcserr.MalformedChunk, "chunk %v: record %d: local x/z out of range", key, i)
		}

		idx, n, err := varint.Uvarint(buf)
		if err != nil {
			return nil, mcserr.Wrap(mcserr.MalformedInteger, err, "chunk %v: record %d: palette index", key, i)
		}
		buf = buf[n:]
		if idx >= paletteLen {
			return nil, mcserr.New(mcserr.MalformedChunk, "chunk %v: record %d: palette index %d >= palette length %d", key, i, idx, paletteLen)
		}

		var nbt []byte
		if hasNBT {
			b, n, err := varint.Bytes(buf)
			if err != nil {
				return nil, mcserr.Wrap(mcserr.MalformedInteger, err, "chunk %v: record %d: nbt length", key, i)
			}
			nbt = b
			buf = buf[n:]
		}

		records = append(records, Record{
			PaletteIndex: uint32(idx),
			LX:           lx,
			LZ:           lz,
			LY:           ly,
			NBT:          nbt,
			HasNBT:       hasNBT,
		})
	}

	return &Decoded{Key: key, Palette: palette, Records: records}, nil
}

func errKindFor(err error) mcserr.Kind {
	if err == varint.ErrMalformedString {
		return mcserr.MalformedString
	}
	return mcserr.MalformedInteger
}
