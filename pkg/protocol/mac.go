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
	"encoding/hex"
	"fmt"
	"strings"
)

// MacAddressSize is the number of raw bytes in a tag address.
const MacAddressSize = 8

// MacAddress is a tag address in wire order. The human readable forms print
// the bytes reversed, most significant first.
type MacAddress [MacAddressSize]byte

// reversed returns the address bytes most significant first.
func (m MacAddress) reversed() []byte {
	out := make([]byte, MacAddressSize)
	for i := range MacAddressSize {
		out[i] = m[MacAddressSize-1-i]
	}
	return out
}

// String returns the address as colon separated uppercase hex, most
// significant byte first, e.g. 00:00:02:1B:1A:D0:3B:17.
func (m MacAddress) String() string {
	parts := make([]string, MacAddressSize)
	for i, b := range m.reversed() {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":")
}

// Key returns the compact lowercase form used for lookups and storage, e.g.
// 0000021b1ad03b17.
func (m MacAddress) Key() string {
	return hex.EncodeToString(m.reversed())
}

// IsZero reports whether all address bytes are zero.
func (m MacAddress) IsZero() bool {
	return m == MacAddress{}
}

// ParseMacAddress parses either printed form of an address. Separators (":"
// or "-") are optional, case is ignored and short input is left padded with
// zeros to 16 hex digits.
func ParseMacAddress(s string) (MacAddress, error) {
	var mac MacAddress

	clean := strings.NewReplacer(":", "", "-", "", " ", "").Replace(strings.TrimSpace(s))
	if clean == "" || len(clean) > MacAddressSize*2 {
		return mac, fmt.Errorf("%w: %q", ErrInvalidMacAddress, s)
	}
	clean = strings.Repeat("0", MacAddressSize*2-len(clean)) + clean

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return mac, fmt.Errorf("%w: %q", ErrInvalidMacAddress, s)
	}

	for i := range MacAddressSize {
		mac[i] = raw[MacAddressSize-1-i]
	}
	return mac, nil
}

// MustParseMacAddress is like ParseMacAddress but panics on error.
func MustParseMacAddress(s string) MacAddress {
	mac, err := ParseMacAddress(s)
	if err != nil {
		panic(err)
	}
	return mac
}

// String returns the version as lowercase hex.
func (v DataVersion) String() string {
	return hex.EncodeToString(v[:])
}

// MarshalText encodes the address in its printed form.
func (m MacAddress) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText accepts any form ParseMacAddress does.
func (m *MacAddress) UnmarshalText(text []byte) error {
	mac, err := ParseMacAddress(string(text))
	if err != nil {
		return err
	}
	*m = mac
	return nil
}
