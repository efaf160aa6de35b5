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

	"github.com/pierrec/lz4/v4"

	"github.com/mcstream/mcstream/mcserr"
)

// lz4Compressor produces self-contained LZ4 frames, each delimited
// only by the chunk index's stored compressed length, never by a
// frame-internal content-size field we rely on.
type lz4Compressor struct {
	buf bytes.Buffer
}

func newLZ4Compressor() Compressor {
	return &lz4Compressor{}
}

func (c *lz4Compressor) Algorithm() Algorithm { return LZ4 }

func (c *lz4Compressor) Compress(src, dst []byte) ([]byte, error) {
	c.buf.Reset()
	w := lz4.NewWriter(&c.buf)
	if _, err := w.Write(src); err != nil {
		return nil, mcserr.Wrap(mcserr.CompressionError, err, "lz4")
	}
	if err := w.Close(); err != nil {
		return nil, mcserr.Wrap(mcserr.CompressionError, err, "lz4")
	}
	return append(dst, c.buf.Bytes()...), nil
}

type lz4Decompressor struct{}

func newLZ4Decompressor() Decompressor {
	return lz4Decompressor{}
}

func (lz4Decompressor) Algorithm() Algorithm { return LZ4 }

func (lz4Decompressor) Decompress(src, dst []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))
	buf := bytes.NewBuffer(dst)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, mcserr.Wrap(mcserr.CompressionError, err, "lz4")
	}
	return buf.Bytes(), nil
}
