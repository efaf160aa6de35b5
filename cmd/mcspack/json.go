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

package main

import (
	"io"

	"github.com/mcstream/mcstream/chunkio"
	"github.com/mcstream/mcstream/mcsjson"
)

func decodeJSONFile(r io.Reader) ([]mcsjson.Block, error) {
	return mcsjson.Decode(r)
}

func encodeJSONBlocks(blocks []chunkio.AbsoluteBlock) ([]mcsjson.Block, error) {
	return mcsjson.FromAbsoluteBlocks(blocks)
}

func writeJSONDocument(w io.Writer, blocks []mcsjson.Block) error {
	return mcsjson.Encode(w, blocks)
}
