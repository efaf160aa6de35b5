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

// Package compr provides a unified interface wrapping the third-party
// compression libraries used for per-chunk compression of MCS container
// payloads.
package compr

import (
	"fmt"

	"github.com/mcstream/mcstream/mcserr"
)

// Algorithm identifies one of the four per-chunk compression algorithms.
// Its numeric value is exactly the single byte stored in the file
// header's Compression field.
type Algorithm uint8

const (
	None Algorithm = iota
	Zstd
	LZ4
	Brotli
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	case Brotli:
		return "brotli"
	default:
		return fmt.Sprintf("Algorithm(%d)", uint8(a))
	}
}

// Compressor compresses one chunk's serialized payload at a time.
// Implementations must be safe to call concurrently on distinct
// Compressor values but need not be safe to share a single value across
// goroutines (the container writer allocates one Compressor per worker).
type Compressor interface {
	Algorithm() Algorithm
	// Compress appends the compressed contents of src to dst and
	// returns the result.
	Compress(src, dst []byte) ([]byte, error)
}

// Decompressor decompresses a chunk payload of a priori unknown
// decompressed size (the container index only records compressed
// length). Implementations must be safe for concurrent use from
// multiple goroutines, since the reader may decompress chunks in
// parallel.
type Decompressor interface {
	Algorithm() Algorithm
	// Decompress appends the decompressed contents of src to dst and
	// returns the result.
	Decompress(src, dst []byte) ([]byte, error)
}

// NewCompressor returns a Compressor for the given algorithm, or an
// UnsupportedCompression error if a is not one of the four known
// values.
func NewCompressor(a Algorithm) (Compressor, error) {
	switch a {
	case None:
		return noneCodec{}, nil
	case Zstd:
		return newZstdCompressor()
	case LZ4:
		return newLZ4Compressor(), nil
	case Brotli:
		return newBrotliCompressor(), nil
	default:
		return nil, mcserr.New(mcserr.UnsupportedCompression, "unknown compression algorithm byte %d", uint8(a))
	}
}

// NewDecompressor returns a Decompressor for the given algorithm, or an
// UnsupportedCompression error if a is not one of the four known
// values.
func NewDecompressor(a Algorithm) (Decompressor, error) {
	switch a {
	case None:
		return noneCodec{}, nil
	case Zstd:
		return newZstdDecompressor()
	case LZ4:
		return newLZ4Decompressor(), nil
	case Brotli:
		return newBrotliDecompressor(), nil
	default:
		return nil, mcserr.New(mcserr.UnsupportedCompression, "unknown compression algorithm byte %d", uint8(a))
	}
}

type noneCodec struct{}

func (noneCodec) Algorithm() Algorithm { return None }

func (noneCodec) Compress(src, dst []byte) ([]byte, error) {
	return append(dst, src...), nil
}

func (noneCodec) Decompress(src, dst []byte) ([]byte, error) {
	return append(dst, src...), nil
}
