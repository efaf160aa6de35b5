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

// Package varint implements the little-endian base-128 varuint encoding
// and length-prefixed UTF-8 string encoding used throughout the MCS
// container format.
package varint

import (
	"encoding/binary"
	"errors"
	"io"
	"unicode/utf8"
)

// MaxLen is the largest number of bytes the canonical encoding of a
// length field (palette length, block count, byte-string length) below
// LengthCap occupies. The decoders enforce LengthCap on the value, not
// this byte count: an overlong encoding of an in-range value is accepted.
const MaxLen = 5

// LengthCap is the exclusive upper bound for a length-prefix varuint:
// a value of LengthCap or more is reported as MalformedInteger.
const LengthCap = 1 << 32

// ErrMalformedInteger is returned when a varuint cannot be decoded:
// either the stream ended mid-value, or the decoded magnitude is
// LengthCap or more.
var ErrMalformedInteger = errors.New("mcstream: malformed varuint")

// ErrMalformedString is returned when a length-prefixed string's bytes
// are not valid UTF-8.
var ErrMalformedString = errors.New("mcstream: malformed utf-8 string")

// AppendUvarint appends the little-endian base-128 encoding of v to dst
// and returns the extended slice.
func AppendUvarint(dst []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(dst, buf[:n]...)
}

// Uvarint decodes a varuint from buf, enforcing LengthCap, and returns
// the value along with the number of bytes consumed.
func Uvarint(buf []byte) (uint64, int, error) {
	v, n := binary.Uvarint(buf)
	if n == 0 {
		return 0, 0, ErrMalformedInteger
	}
	if n < 0 {
		// binary.Uvarint signals overflow of uint64 with n < 0
		return 0, 0, ErrMalformedInteger
	}
	if v >= LengthCap {
		return 0, 0, ErrMalformedInteger
	}
	return v, n, nil
}

// ReadUvarint decodes a single varuint from r one byte at a time,
// the way an untrusted stream must be parsed: we cannot look ahead
// further than we need to.
func ReadUvarint(r io.ByteReader) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, ErrMalformedInteger
		}
		return 0, err
	}
	if v >= LengthCap {
		return 0, ErrMalformedInteger
	}
	return v, nil
}

// AppendString appends a varuint length prefix followed by the raw
// bytes of s.
func AppendString(dst []byte, s string) []byte {
	dst = AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

// AppendBytes appends a varuint length prefix followed by b.
func AppendBytes(dst []byte, b []byte) []byte {
	dst = AppendUvarint(dst, uint64(len(b)))
	return append(dst, b...)
}

// String decodes a length-prefixed, UTF-8-validated string from buf and
// returns it along with the number of bytes consumed.
func String(buf []byte) (string, int, error) {
	n, off, err := Uvarint(buf)
	if err != nil {
		return "", 0, err
	}
	if uint64(len(buf)-off) < n {
		return "", 0, ErrMalformedInteger
	}
	raw := buf[off : off+int(n)]
	if !utf8.Valid(raw) {
		return "", 0, ErrMalformedString
	}
	return string(raw), off + int(n), nil
}

// Bytes decodes a length-prefixed opaque byte string from buf.
func Bytes(buf []byte) ([]byte, int, error) {
	n, off, err := Uvarint(buf)
	if err != nil {
		return nil, 0, err
	}
	if uint64(len(buf)-off) < n {
		return nil, 0, ErrMalformedInteger
	}
	return buf[off : off+int(n)], off + int(n), nil
}
