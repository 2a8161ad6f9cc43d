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

package transcode

import (
	"fmt"
	"image"
	"image/color"

	"github.com/tagbridge/tagbridge/pkg/protocol"
)

// PaletteSize is the number of entries in a quantisation palette. Entries
// after the data type's own colours are white filler.
const PaletteSize = 256

// BuildPalette returns the data type's colours followed by white up to
// PaletteSize entries.
func BuildPalette(dt protocol.DataType) (color.Palette, error) {
	colours, err := dt.Palette()
	if err != nil {
		return nil, err
	}
	palette := make(color.Palette, PaletteSize)
	for i := range palette {
		if i < len(colours) {
			palette[i] = colours[i]
		} else {
			palette[i] = protocol.ColorWhite
		}
	}
	return palette, nil
}

// Quantize maps every pixel of img to the nearest entry of the data type's
// palette without dithering. Distance is squared RGB distance on the
// non-premultiplied colour, ties resolve to the lowest index.
func Quantize(img image.Image, dt protocol.DataType) (*image.Paletted, error) {
	palette, err := BuildPalette(dt)
	if err != nil {
		return nil, fmt.Errorf("quantize: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}

	colours, _ := dt.Palette()
	// filler entries are identical, only the first one can ever win
	candidates := len(colours) + 1

	out := image.NewPaletted(bounds, palette)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c, _ := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetColorIndex(x, y, nearest(palette[:candidates], c))
		}
	}
	return out, nil
}

func nearest(palette color.Palette, c color.NRGBA) uint8 {
	best := 0
	bestDist := -1
	for i, p := range palette {
		pc, _ := p.(color.RGBA)
		dr := int(c.R) - int(pc.R)
		dg := int(c.G) - int(pc.G)
		db := int(c.B) - int(pc.B)
		dist := dr*dr + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return uint8(best) //nolint:gosec // palette has at most 256 entries
}
