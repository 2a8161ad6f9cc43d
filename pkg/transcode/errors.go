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

import "errors"

var (
	// ErrEmptyImage is returned for images with no pixels.
	ErrEmptyImage = errors.New("image has no pixels")
	// ErrUnsupportedSize is returned when an image does not match any
	// known display size.
	ErrUnsupportedSize = errors.New("image size does not match a display")
	// ErrShortFrame is returned when a framebuffer is too small for the
	// requested dimensions.
	ErrShortFrame = errors.New("framebuffer too short")
	// ErrEmptyFirmware is returned for zero-length firmware files.
	ErrEmptyFirmware = errors.New("firmware file is empty")
)
