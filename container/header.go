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

// Package container implements the MCS file layout: the fixed
// 16-byte header, the chunk index table, the chunk data
// region, the trailing SHA-256 digest, and the optional signature
// block. It owns parallel per-chunk compression on write and parallel
// or lazy per-chunk decompression on read.
package container

import (
	"encoding/binary"

	"github.com/mcstream/mcstream/compr"
	"github.com/mcstream/mcstream/mcserr"
)

// Magic is the fixed 8-byte sequence identifying an MCS file.
const Magic = "MCSTREAM"

// HeaderSize is the size, in bytes, of the fixed file header.
const HeaderSize = 16

// IndexEntrySize is the size, in bytes, of one chunk index entry.
const IndexEntrySize = 20

// DigestSize is the size, in bytes, of the trailing SHA-256 digest.
const DigestSize = 32

// CurrentMajor and CurrentMinor identify the format version this
// implementation writes and the major version it accepts on read.
const (
	CurrentMajor = 1
	CurrentMinor = 0
)

// Version is a major.minor format version, encoded as a single 16-bit
// number with the major byte high and the minor byte low.
type Version struct {
	Major, Minor uint8
}

func (v Version) encode() uint16 {
	return uint16(v.Major)<<8 | uint16(v.Minor)
}

func decodeVersion(u uint16) Version {
	return Version{Major: uint8(u >> 8), Minor: uint8(u)}
}

// Flags holds the single-byte flags field of the header.
type Flags uint8

// FlagSigned indicates the file carries a signature block after the
// trailing digest.
const FlagSigned Flags = 1 << 0

// Header is the parsed form of the file's fixed 16-byte header.
type Header struct {
	Version     Version
	Compression compr.Algorithm
	Flags       Flags
	ChunkCount  uint32
}

// Signed reports whether the header's signed flag is set.
func (h Header) Signed() bool {
	return h.Flags&FlagSigned != 0
}

// Encode renders h as the 16-byte on-disk header.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:8], Magic)
	binary.LittleEndian.PutUint16(buf[8:10], h.Version.encode())
	buf[10] = byte(h.Compression)
	buf[11] = byte(h.Flags)
	binary.LittleEndian.PutUint32(buf[12:16], h.ChunkCount)
	return buf
}

// DecodeHeader parses the fixed 16-byte header, verifying the magic
// and rejecting unknown major versions.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, mcserr.New(mcserr.TruncatedFile, "header: need %d bytes, have %d", HeaderSize, len(buf))
	}
	if string(buf[0:8]) != Magic {
		return Header{}, mcserr.New(mcserr.UnsupportedVersion, "bad magic %q", buf[0:8])
	}
	ver := decodeVersion(binary.LittleEndian.Uint16(buf[8:10]))
	if ver.Major != CurrentMajor {
		return Header{}, mcserr.New(mcserr.UnsupportedVersion, "unsupported major version %d (supported: %d)", ver.Major, CurrentMajor)
	}
	h := Header{
		Version:     ver,
		Compression: compr.Algorithm(buf[10]),
		Flags:       Flags(buf[11]),
		ChunkCount:  binary.LittleEndian.Uint32(buf[12:16]),
	}
	return h, nil
}
