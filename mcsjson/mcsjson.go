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

// Package mcsjson is the JSON bridge format: the human-editable,
// uncompressed sibling format that `mcspack pack` reads
// from and `mcspack unpack` writes to. It carries no chunking or
// compression of its own — that's what the binary container is for —
// it is just a flat list of block placements plus opaque NBT bytes
// passed through as a raw JSON value.
package mcsjson

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/mcstream/mcstream/chunkio"
	"github.com/mcstream/mcstream/mcserr"
)

// FormatName and the version this package reads/writes.
const (
	FormatName    = "mcs"
	DocumentMajor = 1
	DocumentMinor = 0
)

// Block is one placement in the JSON document: an id, a three-element
// [x, y, z] position, and an optional opaque NBT value carried as
// json.RawMessage so this package never has to understand NBT.
type Block struct {
	ID  string          `json:"id"`
	Pos [3]int32        `json:"pos"`
	NBT json.RawMessage `json:"nbt,omitempty"`
}

// Document is the top-level JSON document shape.
type Document struct {
	Format  string  `json:"format"`
	Version string  `json:"version"`
	Blocks  []Block `json:"blocks"`
}

// Encode writes blocks as a Document to w.
func Encode(w io.Writer, blocks []Block) error {
	doc := Document{
		Format:  FormatName,
		Version: versionString(),
		Blocks:  blocks,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return mcserr.Wrap(mcserr.IoError, err, "encoding mcsjson document")
	}
	return nil
}

// Decode reads a Document from r and returns its blocks, validating
// the format tag.
func Decode(r io.Reader) ([]Block, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, mcserr.Wrap(mcserr.MalformedString, err, "decoding mcsjson document")
	}
	if doc.Format != "" && doc.Format != FormatName {
		return nil, mcserr.New(mcserr.MalformedString, "unrecognized format tag %q", doc.Format)
	}
	return doc.Blocks, nil
}

// FromAbsoluteBlocks converts decoded container blocks into the JSON
// bridge's Block shape. NBT bytes written by this bridge are a stable
// compact JSON encoding (see ToNBTBytes), so they are surfaced as the
// JSON value they encode. NBT from a foreign writer that is not valid
// JSON is wrapped as a base64 string value instead of failing the
// whole document — this package is deliberately blind to NBT
// semantics, treating it as opaque bytes end to end.
func FromAbsoluteBlocks(blocks []chunkio.AbsoluteBlock) ([]Block, error) {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		jb := Block{ID: b.ID, Pos: [3]int32{b.X, b.Y, b.Z}}
		if b.NBT != nil {
			if json.Valid(b.NBT) {
				jb.NBT = json.RawMessage(b.NBT)
			} else {
				raw, err := json.Marshal(b.NBT)
				if err != nil {
					return nil, mcserr.Wrap(mcserr.IoError, err, "marshaling nbt bytes for block %d", i)
				}
				jb.NBT = raw
			}
		}
		out[i] = jb
	}
	return out, nil
}

// ToNBTBytes serializes a Block's NBT JSON value into the opaque byte
// form handed to the encoder: a compact rendering of the JSON, so
// semantically identical documents hand identical bytes to the
// container regardless of the document's whitespace. A nil/empty NBT
// field maps to nil, the container's no-NBT case.
func (b Block) ToNBTBytes() ([]byte, error) {
	if len(b.NBT) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b.NBT); err != nil {
		return nil, mcserr.Wrap(mcserr.MalformedString, err, "compacting nbt value")
	}
	return buf.Bytes(), nil
}

func versionString() string {
	return strconv.Itoa(DocumentMajor) + "." + strconv.Itoa(DocumentMinor)
}
