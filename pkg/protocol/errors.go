// Tagbridge
// Copyright (c) 2026 The Tagbridge Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Tagbridge.
//
// Tagbridge is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Tagbridge is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Tagbridge.  If not, see <http://www.gnu.org/licenses/>.

package protocol

import (
	"errors"
	"fmt"
)

// ErrUnsupportedDataType is returned when palette or plane information is
// requested for a data type that has none.
var ErrUnsupportedDataType = errors.New("unsupported data type")

// ErrInvalidMacAddress is returned when a MAC string cannot be parsed.
var ErrInvalidMacAddress = errors.New("invalid mac address")

// FramingError reports a record buffer shorter than the record's fixed size.
type FramingError struct {
	Record string
	Want   int
	Got    int
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("%s: short record, want %d bytes, got %d", e.Record, e.Want, e.Got)
}

func checkLength(record string, data []byte, want int) error {
	if len(data) < want {
		return &FramingError{Record: record, Want: want, Got: len(data)}
	}
	return nil
}
