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

// Package blocks serves payloads to the access point in fixed-size,
// checksummed and obfuscated frames.
//
// Every block-data frame carries a 4-byte header followed by a 4096-byte data
// region. Header and payload bytes are XORed with 0xAA; the unused tail of
// the data region is filled with raw 0xAA so that the firmware's own XOR
// step yields zero filler. The number of bytes following the block-data
// token never varies.
package blocks
