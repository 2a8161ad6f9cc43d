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

// Package protocol implements the binary records exchanged with an e-paper
// access point over its serial link.
//
// Every record has a fixed size and is tightly packed with little-endian
// integers. Records are encoded and decoded explicitly from byte slices so the
// wire layout never depends on host struct layout. Incoming checksums are not
// verified; the AP firmware validates radio traffic before forwarding it.
package protocol
