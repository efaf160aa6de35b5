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
	"io"

	"github.com/andybalholm/brotli"

	"github.com/mcstream/mcstream/mcserr"
)

type brotliCompressor struct {
	buf bytes.Buffer
}

func newBrotliCompressor() Compressor {
	return &brotliCompressor{}
}

func (c *brotliCompressor) Algorithm() Algorithm { return Brotli }

func (c *brotliCompressor) Compress(src, dst []byte) ([]byte, error) {
	c.buf.Reset()
	w := brotli.NewWriter(&c.buf)
	if _, err := w.Write(src); err != nil {
		return nil, mcserr.Wrap(mcserr.CompressionError, err, "brotli")
	}
	if err := w.Close(); err != nil {
		return nil, mcserr.Wrap(mcserr.CompressionError, err, "brotli")
	}
	return append(dst, c.buf.Bytes()...), nil
}

type brotliDecompressor struct{}

func newBrotliDecompressor() Decompressor {
	return brotliDecompressor{}
}

func (brotliDecompressor) Algorithm() Algorithm { return Brotli }

func (brotliDecompressor) Decompress(src, dst []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(src))
	buf := bytes.NewBuffer(dst)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, mcserr.Wrap(mcserr.CompressionError, err, "brotli")
	}
	return buf.Bytes(), nil
}
