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

	"github.com/tagbridge/tagbridge/pkg/protocol"
)

// DisplaySize is the panel resolution of a tag model, width × height.
type DisplaySize struct {
	Name   string
	Width  int
	Height int
}

// DisplaySizes lists the panels tags ship with.
var DisplaySizes = []DisplaySize{
	{Name: "small", Width: 152, Height: 152},
	{Name: "medium", Width: 296, Height: 128},
	{Name: "large", Width: 400, Height: 300},
	{Name: "extra_large", Width: 640, Height: 384},
}

func (d DisplaySize) String() string {
	return fmt.Sprintf("%s (%dx%d)", d.Name, d.Width, d.Height)
}

// MatchDisplay returns the display whose resolution equals w×h.
func MatchDisplay(w, h int) (DisplaySize, bool) {
	for _, d := range DisplaySizes {
		if d.Width == w && d.Height == h {
			return d, true
		}
	}
	return DisplaySize{}, false
}

// ValidateSize checks img against the known display sizes.
func ValidateSize(img image.Image) (DisplaySize, error) {
	b := img.Bounds()
	d, ok := MatchDisplay(b.Dx(), b.Dy())
	if !ok {
		return DisplaySize{}, fmt.Errorf("%w: %dx%d", ErrUnsupportedSize, b.Dx(), b.Dy())
	}
	return d, nil
}

// DisplayForFrame returns the display whose framebuffer for dt is n bytes
// long.
func DisplayForFrame(n int, dt protocol.DataType) (DisplaySize, bool) {
	planes, err := dt.PlaneColors()
	if err != nil {
		return DisplaySize{}, false
	}
	for _, d := range DisplaySizes {
		if FrameLen(d.Width, d.Height, len(planes)) == n {
			return d, true
		}
	}
	return DisplaySize{}, false
}
