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
	"runtime"

	"github.com/klauspost/compress/zstd"

	"github.com/mcstream/mcstream/mcserr"
)

type zstdCompressor struct {
	enc *zstd.Encoder
}

func newZstdCompressor() (Compressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, mcserr.Wrap(mcserr.CompressionError, err, "zstd")
	}
	return &zstdCompressor{enc: enc}, nil
}

func (z *zstdCompressor) Algorithm() Algorithm { return Zstd }

func (z *zstdCompressor) Compress(src, dst []byte) ([]byte, error) {
	return z.enc.EncodeAll(src, dst), nil
}

type zstdDecompressor struct {
	dec *zstd.Decoder
}

func newZstdDecompressor() (Decompressor, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)))
	if err != nil {
		return nil, mcserr.Wrap(mcserr.CompressionError, err, "zstd")
	}
	return &zstdDecompressor{dec: dec}, nil
}

func (z *zstdDecompressor) Algorithm() Algorithm { return Zstd }

func (z *zstdDecompressor) Decompress(src, dst []byte) ([]byte, error) {
	out, err := z.dec.DecodeAll(src, dst)
	if err != nil {
		return nil, mcserr.Wrap(mcserr.CompressionError, err, "zstd")
	}
	return out, nil
}
