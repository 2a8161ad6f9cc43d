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
	"fmt"
	"image/color"
	"strings"
)

// DataType identifies the kind of payload announced to a tag.
type DataType uint8

const (
	DataTypeFirmwareUpdate DataType = 0x03
	DataTypeBlack          DataType = 0x20
	DataTypeBlackRed       DataType = 0x21
)

// LUT selects the waveform table a tag uses when drawing an image.
type LUT uint8

const (
	LUTDefault    LUT = 0
	LUTNoRepeats  LUT = 1
	LUTFastNoReds LUT = 2
	LUTFast       LUT = 3
)

// Palette colours understood by the tags. The index of a colour is its
// position in a data type's palette.
var (
	ColorBlack = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}
	ColorRed   = color.RGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF}
	ColorWhite = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

const (
	ColorIndexBlack = 0
	ColorIndexRed   = 1
	ColorIndexWhite = 2
)

// ParseDataType maps a config or API name to a DataType.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "black", "bw":
		return DataTypeBlack, nil
	case "black_red", "blackred", "bwr":
		return DataTypeBlackRed, nil
	case "firmware", "firmware_update":
		return DataTypeFirmwareUpdate, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDataType, s)
	}
}

func (d DataType) String() string {
	switch d {
	case DataTypeBlack:
		return "black"
	case DataTypeBlackRed:
		return "black_red"
	case DataTypeFirmwareUpdate:
		return "firmware"
	default:
		return fmt.Sprintf("unknown(0x%02X)", uint8(d))
	}
}

// IsImage reports whether the data type carries framebuffer planes.
func (d DataType) IsImage() bool {
	return d == DataTypeBlack || d == DataTypeBlackRed
}

// Palette returns the configured colours of an image data type, in index
// order. Filler white entries are not included.
func (d DataType) Palette() ([]color.RGBA, error) {
	switch d {
	case DataTypeBlack:
		return []color.RGBA{ColorBlack}, nil
	case DataTypeBlackRed:
		return []color.RGBA{ColorBlack, ColorRed}, nil
	default:
		return nil, fmt.Errorf("%w: %s has no palette", ErrUnsupportedDataType, d)
	}
}

// PlaneColors returns the palette index of each framebuffer plane, in the
// order the planes are transmitted.
func (d DataType) PlaneColors() ([]int, error) {
	switch d {
	case DataTypeBlack:
		return []int{ColorIndexBlack}, nil
	case DataTypeBlackRed:
		return []int{ColorIndexBlack, ColorIndexRed}, nil
	default:
		return nil, fmt.Errorf("%w: %s has no planes", ErrUnsupportedDataType, d)
	}
}

// ParseLUT maps a config name to a LUT.
func ParseLUT(s string) (LUT, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "default", "":
		return LUTDefault, nil
	case "no_repeats":
		return LUTNoRepeats, nil
	case "fast_no_reds":
		return LUTFastNoReds, nil
	case "fast":
		return LUTFast, nil
	default:
		return 0, fmt.Errorf("unknown lut: %q", s)
	}
}

// MarshalText encodes the data type by name.
func (d DataType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts the names ParseDataType does.
func (d *DataType) UnmarshalText(text []byte) error {
	dt, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*d = dt
	return nil
}
