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

// Package chunkio implements the chunk engine: grouping
// block placements into 16x16 horizontal chunks, building per-chunk
// palettes in insertion order, and serializing/deserializing the
// resulting byte stream for each chunk.
package chunkio

import "fmt"

// Key identifies a chunk by its horizontal cell: a pair
// (cx, cz) = (floor(x/16), floor(z/16)). Y is not chunked.
type Key struct {
	CX, CZ int32
}

func (k Key) String() string {
	return fmt.Sprintf("(%d,%d)", k.CX, k.CZ)
}

// KeyFor computes the chunk key containing the horizontal position (x, z).
func KeyFor(x, z int32) Key {
	return Key{CX: floorDiv16(x), CZ: floorDiv16(z)}
}

// floorDiv16 computes floor(v/16) using arithmetic shift, which is
// floor division for any integer (positive or negative) when the
// divisor is a power of two.
func floorDiv16(v int32) int32 {
	return v >> 4
}

// Less orders keys ascending, lexicographically by (CX, CZ). This is
// the normative on-disk chunk emission order.
func (k Key) Less(o Key) bool {
	if k.CX != o.CX {
		return k.CX < o.CX
	}
	return k.CZ < o.CZ
}

// Local converts an absolute horizontal position to its local offset
// within this chunk. The result is always in [0,15] for a position that
// genuinely belongs to this chunk.
func (k Key) Local(x, z int32) (lx, lz uint8) {
	return uint8(x - k.CX*16), uint8(z - k.CZ*16)
}

// Global converts a local offset back to an absolute horizontal
// position within this chunk.
func (k Key) Global(lx, lz uint8) (x, z int32) {
	return k.CX*16 + int32(lx), k.CZ*16 + int32(lz)
}
