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
	"bytes"
	"testing"

	"github.com/mcstream/mcstream/mcserr"
)

func TestAirElided(t *testing.T) {
	b := NewBuilder("minecraft:air")
	if err := b.AddBlock("minecraft:air", 0, 0, 0, nil); err != nil {
		t.Fatal(err)
	}
	if !b.Empty() {
		t.Fatal("expected builder to be empty after air-only input")
	}
}

func TestCoordinateOutOfRange(t *testing.T) {
	b := NewBuilder("minecraft:air")
	err := b.AddBlock("minecraft:stone", 0, 1000, 0, nil)
	if !testIsKind(err, mcserr.CoordinateOutOfRange) {
		t.Fatalf("expected CoordinateOutOfRange, got %v", err)
	}
}

func TestChunkBoundary(t *testing.T) {
	b := NewBuilder("minecraft:air")
	must(t, b.AddBlock("minecraft:stone", 0, 0, 0, nil))
	must(t, b.AddBlock("minecraft:stone", 16, 0, 0, nil))
	keys := b.Keys()
	if len(keys) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(keys))
	}
	if keys[0] != (Key{0, 0}) || keys[1] != (Key{1, 0}) {
		t.Fatalf("unexpected chunk keys: %v", keys)
	}
	for _, k := range keys {
		if b.PaletteLen(k) != 1 || b.BlockCount(k) != 1 {
			t.Fatalf("chunk %v: palette/block count mismatch", k)
		}
	}
}

func TestNegativeCoordinates(t *testing.T) {
	b := NewBuilder("minecraft:air")
	must(t, b.AddBlock("minecraft:stone", -1, 0, -1, nil))
	keys := b.Keys()
	if len(keys) != 1 || keys[0] != (Key{-1, -1}) {
		t.Fatalf("expected chunk (-1,-1), got %v", keys)
	}
	buf := b.FinalizeChunk(keys[0])
	dec, err := DecodeChunk(keys[0], buf)
	if err != nil {
		t.Fatal(err)
	}
	abs := dec.Absolute(0)
	if abs.X != -1 || abs.Z != -1 {
		t.Fatalf("got (%d,%d), want (-1,-1)", abs.X, abs.Z)
	}
}

func TestFinalizeAndDecodeRoundTrip(t *testing.T) {
	b := NewBuilder("minecraft:air")
	must(t, b.AddBlock("minecraft:stone", 0, 0, 0, nil))
	must(t, b.AddBlock("minecraft:stone", 15, 0, 15, nil))
	must(t, b.AddBlock("minecraft:chest", 1, 5, 1, []byte("nbt-payload")))

	k := Key{0, 0}
	buf := b.FinalizeChunk(k)
	dec, err := DecodeChunk(k, buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(dec.Palette) != 2 {
		t.Fatalf("expected palette of 2, got %d: %v", len(dec.Palette), dec.Palette)
	}
	if len(dec.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(dec.Records))
	}
	last := dec.Absolute(2)
	if last.ID != "minecraft:chest" || !bytes.Equal(last.NBT, []byte("nbt-payload")) {
		t.Fatalf("nbt block mismatch: %+v", last)
	}
	if last.X != 1 || last.Y != 5 || last.Z != 1 {
		t.Fatalf("nbt block position mismatch: %+v", last)
	}
}

func TestAddBlocksEmptyIsNoOp(t *testing.T) {
	b := NewBuilder("minecraft:air")
	if err := b.AddBlocks("minecraft:stone", nil, nil); err != nil {
		t.Fatal(err)
	}
	if !b.Empty() {
		t.Fatal("expected no-op on empty positions")
	}
}

func TestAddBlocksBatches(t *testing.T) {
	b := NewBuilder("minecraft:air")
	positions := [][3]int32{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}
	must(t, b.AddBlocks("minecraft:stone", positions, nil))
	k := Key{0, 0}
	if b.PaletteLen(k) != 1 || b.BlockCount(k) != 3 {
		t.Fatalf("expected 1 palette entry, 3 blocks, got %d/%d", b.PaletteLen(k), b.BlockCount(k))
	}
}

func TestMalformedChunkPaletteIndexOutOfBounds(t *testing.T) {
	b := NewBuilder("minecraft:air")
	must(t, b.AddBlock("minecraft:stone", 0, 0, 0, nil))
	k := Key{0, 0}
	buf := b.FinalizeChunk(k)
	dec, err := DecodeChunk(k, buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(dec.Records) != 1 {
		t.Fatal("expected 1 record")
	}
	// manually construct a chunk with 1 palette entry and a record
	// referencing palette index 5.
	var corrupt []byte
	corrupt = append(corrupt, 1)                                 // palette_len=1
	corrupt = append(corrupt, 15)                                // string length
	corrupt = append(corrupt, "minecraft:stone"...)
	corrupt = append(corrupt, 1)          // block_count=1
	corrupt = append(corrupt, 0, 0, 0, 0) // local pos word
	corrupt = append(corrupt, 5)          // palette_index=5, out of bounds
	_, err = DecodeChunk(k, corrupt)
	if !testIsKind(err, mcserr.MalformedChunk) {
		t.Fatalf("expected MalformedChunk, got %v", err)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func testIsKind(err error, k mcserr.Kind) bool {
	me, ok := err.(*mcserr.Error)
	if !ok {
		return false
	}
	return me.Kind == k
}
