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
	"bytes"
	"fmt"
	"image"

	"github.com/icza/bitio"
	"github.com/tagbridge/tagbridge/pkg/protocol"
)

// FrameLen returns the number of bytes Encode produces for a w×h image with
// the given number of planes.
func FrameLen(w, h, planes int) int {
	return (w*h*planes + 7) / 8
}

// Encode quantises img and packs one bit plane per plane colour of dt, in
// plane order. Within a plane columns run from the right edge to the left
// and rows from top to bottom; a set bit means the pixel has the plane's
// colour. Bits are packed most significant first with no gap between
// planes, and the final byte is zero padded.
func Encode(img image.Image, dt protocol.DataType) ([]byte, error) {
	planes, err := dt.PlaneColors()
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	q, err := Quantize(img, dt)
	if err != nil {
		return nil, err
	}

	b := q.Bounds()
	buf := bytes.NewBuffer(make([]byte, 0, FrameLen(b.Dx(), b.Dy(), len(planes))))
	w := bitio.NewWriter(buf)
	for _, plane := range planes {
		idx := uint8(plane) //nolint:gosec // plane indexes are palette indexes
		for x := b.Max.X - 1; x >= b.Min.X; x-- {
			for y := b.Min.Y; y < b.Max.Y; y++ {
				w.TryWriteBool(q.ColorIndexAt(x, y) == idx)
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("encode: packing bits: %w", err)
	}
	if w.TryError != nil {
		return nil, fmt.Errorf("encode: packing bits: %w", w.TryError)
	}
	return buf.Bytes(), nil
}

// Decode rebuilds an image from a framebuffer produced by Encode. Pixels
// start white; each plane paints its colour over the previous ones.
func Decode(frame []byte, w, h int, dt protocol.DataType) (*image.RGBA, error) {
	planes, err := dt.PlaneColors()
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	colours, err := dt.Palette()
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyImage
	}
	if want := FrameLen(w, h, len(planes)); len(frame) < want {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrShortFrame, want, len(frame))
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range out.Pix {
		out.Pix[i] = 0xFF
	}

	r := bitio.NewReader(bytes.NewReader(frame))
	for _, plane := range planes {
		c := colours[plane]
		for x := w - 1; x >= 0; x-- {
			for y := range h {
				set := r.TryReadBool()
				if set {
					out.SetRGBA(x, y, c)
				}
			}
		}
	}
	if r.TryError != nil {
		return nil, fmt.Errorf("decode: reading bits: %w", r.TryError)
	}
	return out, nil
}
