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

package mcsjson

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/mcstream/mcstream/chunkio"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	blocks := []Block{
		{ID: "minecraft:stone", Pos: [3]int32{0, 0, 0}},
		{ID: "minecraft:chest", Pos: [3]int32{1, 2, 3}, NBT: json.RawMessage(`{"items": [1, 2, 3]}`)},
	}
	var buf bytes.Buffer
	if err := Encode(&buf, blocks); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(got))
	}
	if got[0].ID != "minecraft:stone" || got[0].Pos != [3]int32{0, 0, 0} {
		t.Fatalf("unexpected first block: %+v", got[0])
	}
	nbt, err := got[1].ToNBTBytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(nbt) != `{"items":[1,2,3]}` {
		t.Fatalf("nbt compaction mismatch: %q", nbt)
	}
}

func TestDecodeRejectsWrongFormatTag(t *testing.T) {
	_, err := Decode(bytes.NewBufferString(`{"format":"something-else","version":"1.0","blocks":[]}`))
	if err == nil {
		t.Fatal("expected an error for a mismatched format tag")
	}
}

func TestNBTSurvivesContainerRoundTrip(t *testing.T) {
	in := Block{ID: "minecraft:chest", Pos: [3]int32{4, 5, 6}, NBT: json.RawMessage(`{"lock":"key","count":7}`)}
	raw, err := in.ToNBTBytes()
	if err != nil {
		t.Fatal(err)
	}
	out, err := FromAbsoluteBlocks([]chunkio.AbsoluteBlock{
		{ID: in.ID, X: 4, Y: 5, Z: 6, NBT: raw},
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(out[0].NBT) != `{"lock":"key","count":7}` {
		t.Fatalf("nbt JSON value did not survive the trip: %q", out[0].NBT)
	}
}

func TestFromAbsoluteBlocks(t *testing.T) {
	abs := []chunkio.AbsoluteBlock{
		{ID: "minecraft:stone", X: 1, Y: 2, Z: 3},
		{ID: "minecraft:chest", X: 4, Y: 5, Z: 6, NBT: []byte{0xff, 0xfe, 0x01}},
	}
	blocks, err := FromAbsoluteBlocks(abs)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].NBT != nil {
		t.Fatal("expected no NBT on the first block")
	}
	// non-JSON bytes from a foreign writer come out as a base64 string
	var s string
	if err := json.Unmarshal(blocks[1].NBT, &s); err != nil {
		t.Fatalf("expected a JSON string for non-JSON nbt bytes, got %q: %v", blocks[1].NBT, err)
	}
}
