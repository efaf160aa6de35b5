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

// Package localpos packs and unpacks the 32-bit local-coordinate word
// used by each block record within a chunk. The bit layout is fixed:
// x(4) | z(4) | y(16, offset from YMin) | nbtFlag(1) | reserved(7).
package localpos

import "fmt"

const (
	// YMin is the lowest representable absolute Y coordinate
	// (Minecraft's current world floor).
	YMin = -64
	// YMax is the highest representable absolute Y coordinate
	// (Minecraft's current world ceiling).
	YMax = 319

	xShift   = 0
	zShift   = 4
	yShift   = 8
	flagBit  = 24
	xMask    = 0xF
	zMask    = 0xF
	yMask    = 0xFFFF
	reserved = 0x7F // bits 25..31, must be zero on write
)

// Pack encodes (lx, ly, lz, nbt) into the 32-bit little-endian local
// position word. lx and lz must be in [0,15]; ly is the already-offset
// (gy - YMin) value and must fit in 16 bits (it is, in practice, always
// <= YMax-YMin == 383).
func Pack(lx uint8, ly uint16, lz uint8, nbt bool) uint32 {
	if lx > 15 || lz > 15 {
		panic(fmt.Sprintf("localpos: local x/z out of range: %d,%d", lx, lz))
	}
	w := uint32(lx&xMask)<<xShift | uint32(lz&zMask)<<zShift | uint32(ly)<<yShift
	if nbt {
		w |= 1 << flagBit
	}
	return w
}

// Unpack decodes a 32-bit local position word into its constituent
// fields. It does not itself check the reserved bits 25..31; callers
// that need strict format validation should use Validate. Neither
// Unpack nor Validate checks the unused high bits of y.
func Unpack(w uint32) (lx, lz uint8, ly uint16, nbt bool) {
	lx = uint8((w >> xShift) & xMask)
	lz = uint8((w >> zShift) & zMask)
	ly = uint16((w >> yShift) & yMask)
	nbt = (w>>flagBit)&1 != 0
	return
}

// Validate reports whether w has its reserved high bits (25..31) zeroed.
// A conforming writer always zeroes them; nonzero reserved bits are
// evidence of a malformed or foreign file, so readers reject them
// outright rather than silently ignoring them.
func Validate(w uint32) bool {
	return (w>>25)&reserved == 0
}

// OffsetY converts an absolute Y coordinate into the stored (ly) offset
// from YMin. The caller is responsible for bounds-checking y against
// [YMin, YMax] first.
func OffsetY(y int32) uint16 {
	return uint16(y - YMin)
}

// AbsoluteY converts a stored (ly) offset back into an absolute Y
// coordinate.
func AbsoluteY(ly uint16) int32 {
	return int32(ly) + YMin
}

// InRange reports whether y lies within [YMin, YMax], the legal range
// for a block placement's Y coordinate.
func InRange(y int32) bool {
	return y >= YMin && y <= YMax
}
