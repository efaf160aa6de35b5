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

package compr

import (
	"bytes"
	"testing"
)

func TestRoundTripAllAlgorithms(t *testing.T) {
	src := bytes.Repeat([]byte("minecraft:stone minecraft:dirt "), 200)
	for _, algo := range []Algorithm{None, Zstd, LZ4, Brotli} {
		t.Run(algo.String(), func(t *testing.T) {
			c, err := NewCompressor(algo)
			if err != nil {
				t.Fatal(err)
			}
			compressed, err := c.Compress(src, nil)
			if err != nil {
				t.Fatal(err)
			}
			d, err := NewDecompressor(algo)
			if err != nil {
				t.Fatal(err)
			}
			got, err := d.Decompress(compressed, nil)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, src) {
				t.Fatalf("round trip mismatch for %s", algo)
			}
		})
	}
}

func TestUnsupportedAlgorithm(t *testing.T) {
	if _, err := NewCompressor(Algorithm(99)); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
	if _, err := NewDecompressor(Algorithm(99)); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestAppendsToExistingDst(t *testing.T) {
	c, _ := NewCompressor(None)
	dst := []byte("prefix:")
	out, err := c.Compress([]byte("payload"), dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "prefix:payload" {
		t.Fatalf("got %q", out)
	}
}
