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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMacAddressForms(t *testing.T) {
	t.Parallel()

	mac := testMac()
	assert.Equal(t, "00:00:02:1B:1A:D0:3B:17", mac.String())
	assert.Equal(t, "0000021b1ad03b17", mac.Key())
	assert.False(t, mac.IsZero())
	assert.True(t, MacAddress{}.IsZero())
}

func TestParseMacAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "printed", input: "00:00:02:1B:1A:D0:3B:17"},
		{name: "key", input: "0000021b1ad03b17"},
		{name: "dashes", input: "00-00-02-1b-1a-d0-3b-17"},
		{name: "short is padded", input: "21B1AD03B17"},
		{name: "whitespace", input: "  0000021B1AD03B17 \n"},
		{name: "empty", input: "", wantErr: true},
		{name: "too long", input: "0000021b1ad03b1700", wantErr: true},
		{name: "not hex", input: "0000021b1ad03bzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mac, err := ParseMacAddress(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidMacAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testMac(), mac)
		})
	}
}

func TestMustParseMacAddressPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { MustParseMacAddress("nope") })
	assert.NotPanics(t, func() { MustParseMacAddress("0000021b1ad03b17") })
}

// TestPropertyMacRoundTrip verifies both printed forms parse back to the raw
// address.
func TestPropertyMacRoundTrip(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOfN(rapid.Byte(), MacAddressSize, MacAddressSize).Draw(t, "raw")
		var mac MacAddress
		copy(mac[:], raw)

		fromString, err := ParseMacAddress(mac.String())
		if err != nil || fromString != mac {
			t.Fatalf("String round trip failed for %x: %v", raw, err)
		}
		fromKey, err := ParseMacAddress(mac.Key())
		if err != nil || fromKey != mac {
			t.Fatalf("Key round trip failed for %x: %v", raw, err)
		}
	})
}

func TestMacAddressJSON(t *testing.T) {
	t.Parallel()

	type doc struct {
		MAC  MacAddress `json:"mac"`
		Type DataType   `json:"type"`
	}

	out, err := json.Marshal(doc{MAC: testMac(), Type: DataTypeBlackRed})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mac":"00:00:02:1B:1A:D0:3B:17","type":"black_red"}`, string(out))

	var back doc
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, testMac(), back.MAC)
	assert.Equal(t, DataTypeBlackRed, back.Type)

	require.Error(t, json.Unmarshal([]byte(`{"mac":"zz"}`), &back))
}
