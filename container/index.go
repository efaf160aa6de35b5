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
	"encoding/binary"

	"github.com/mcstream/mcstream/chunkio"
	"github.com/mcstream/mcstream/mcserr"
)

// IndexEntry is one row of the chunk index table: the chunk's key,
// its byte offset from the start of the file, and the length of its
// compressed blob.
type IndexEntry struct {
	CX, CZ        int32
	Offset        uint64
	CompressedLen uint32
}

// Key returns the chunkio.Key this entry addresses.
func (e IndexEntry) Key() chunkio.Key {
	return chunkio.Key{CX: e.CX, CZ: e.CZ}
}

// Encode appends e's 20-byte on-disk form to dst.
func (e IndexEntry) Encode(dst []byte) []byte {
	var buf [IndexEntrySize]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(e.CX))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(e.CZ))
	binary.LittleEndian.PutUint64(buf[8:16], e.Offset)
	binary.LittleEndian.PutUint32(buf[16:20], e.CompressedLen)
	return append(dst, buf[:]...)
}

// decodeIndexEntry parses one 20-byte index entry from buf.
func decodeIndexEntry(buf []byte) IndexEntry {
	return IndexEntry{
		CX:            int32(binary.LittleEndian.Uint32(buf[0:4])),
		CZ:            int32(binary.LittleEndian.Uint32(buf[4:8])),
		Offset:        binary.LittleEndian.Uint64(buf[8:16]),
		CompressedLen: binary.LittleEndian.Uint32(buf[16:20]),
	}
}

// decodeIndex parses n consecutive index entries from buf, verifying
// each entry's byte range falls within the file and that entries do
// not overlap.
func decodeIndex(buf []byte, n uint32, fileSize int64) ([]IndexEntry, error) {
	need := int(n) * IndexEntrySize
	if len(buf) < need {
		return nil, mcserr.New(mcserr.TruncatedFile, "chunk index: need %d bytes, have %d", need, len(buf))
	}
	entries := make([]IndexEntry, n)
	dataStart := int64(HeaderSize + need)
	for i := range entries {
		e := decodeIndexEntry(buf[i*IndexEntrySize:])
		entries[i] = e
		end := int64(e.Offset) + int64(e.CompressedLen)
		if int64(e.Offset) < dataStart || end > fileSize-DigestSize {
			return nil, mcserr.New(mcserr.MalformedChunk, "chunk %v: index entry offset/length [%d,%d) out of bounds", e.Key(), e.Offset, end)
		}
	}
	for i := 1; i < len(entries); i++ {
		prevEnd := entries[i-1].Offset + uint64(entries[i-1].CompressedLen)
		if entries[i].Offset < prevEnd {
			return nil, mcserr.New(mcserr.MalformedChunk, "chunk index entries %d and %d overlap", i-1, i)
		}
		// key order is normative, and chunk lookup binary-searches on it
		if !entries[i-1].Key().Less(entries[i].Key()) {
			return nil, mcserr.New(mcserr.MalformedChunk, "chunk index not sorted: %v precedes %v", entries[i-1].Key(), entries[i].Key())
		}
	}
	return entries, nil
}
