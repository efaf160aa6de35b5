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

package mcserr

import (
	"errors"
	"io"
	"testing"
)

func TestIsDispatch(t *testing.T) {
	base := io.ErrUnexpectedEOF
	err := Wrap(TruncatedFile, base, "chunk index entry %d", 3)
	if !errors.Is(err, TruncatedFile) {
		t.Fatal("expected errors.Is to match TruncatedFile")
	}
	if errors.Is(err, IntegrityError) {
		t.Fatal("did not expect errors.Is to match a different Kind")
	}
	if !errors.Is(err, base) {
		t.Fatal("expected errors.Is to see through to the wrapped cause")
	}
}

func TestNewHasNoCause(t *testing.T) {
	err := New(EmptyInput, "no blocks remained after air elision")
	if err.Unwrap() != nil {
		t.Fatal("New should not wrap a cause")
	}
}
