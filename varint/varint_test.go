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

package varint

import (
	"bufio"
	"bytes"
	"testing"
)

func TestUvarintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 16384, 1 << 20, LengthCap - 1}
	for _, v := range cases {
		buf := AppendUvarint(nil, v)
		got, n, err := Uvarint(buf)
		if err != nil {
			t.Fatalf("Uvarint(%d): %v", v, err)
		}
		if got != v || n != len(buf) {
			t.Fatalf("Uvarint(%d) = (%d, %d), want (%d, %d)", v, got, n, v, len(buf))
		}
	}
}

func TestUvarintCap(t *testing.T) {
	buf := AppendUvarint(nil, LengthCap)
	_, _, err := Uvarint(buf)
	if err != ErrMalformedInteger {
		t.Fatalf("expected ErrMalformedInteger for value at cap, got %v", err)
	}
}

func TestUvarintTruncated(t *testing.T) {
	buf := AppendUvarint(nil, 1<<20)
	_, _, err := Uvarint(buf[:1])
	if err != ErrMalformedInteger {
		t.Fatalf("expected ErrMalformedInteger for truncated stream, got %v", err)
	}
}

func TestReadUvarint(t *testing.T) {
	buf := AppendUvarint(nil, 123456)
	r := bufio.NewReader(bytes.NewReader(buf))
	v, err := ReadUvarint(r)
	if err != nil {
		t.Fatal(err)
	}
	if v != 123456 {
		t.Fatalf("got %d, want 123456", v)
	}
}

func TestStringRoundTrip(t *testing.T) {
	const s = "minecraft:stone"
	buf := AppendString(nil, s)
	got, n, err := String(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != s || n != len(buf) {
		t.Fatalf("String() = (%q, %d), want (%q, %d)", got, n, s, len(buf))
	}
}

func TestStringInvalidUTF8(t *testing.T) {
	buf := AppendBytes(nil, []byte{0xff, 0xfe})
	_, _, err := String(buf)
	if err != ErrMalformedString {
		t.Fatalf("expected ErrMalformedString, got %v", err)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5}
	buf := AppendBytes(nil, b)
	got, n, err := Bytes(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, b) || n != len(buf) {
		t.Fatalf("Bytes() = (%v, %d), want (%v, %d)", got, n, b, len(buf))
	}
}
