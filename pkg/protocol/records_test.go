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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wire order of 00:00:02:1B:1A:D0:3B:17
var testMacWire = []byte{0x17, 0x3B, 0xD0, 0x1A, 0x1B, 0x02, 0x00, 0x00}

func testMac() MacAddress {
	var m MacAddress
	copy(m[:], testMacWire)
	return m
}

func TestDecodeAvailableDataRequest(t *testing.T) {
	t.Parallel()

	buf := []byte{
		0xA5,                                           // outer checksum
		0x17, 0x3B, 0xD0, 0x1A, 0x1B, 0x02, 0x00, 0x00, // mac
		0x5A,       // inner checksum
		0x7F,       // lqi
		0xC4,       // rssi -60
		0x15,       // temperature 21
		0xB8, 0x0B, // battery 3000
		0x33,       // hw type
		0x01,       // wakeup reason
		0x02,       // capabilities
		0x0A, 0x00, // software version 10
		0x0B,       // channel 11
		0x00,       // custom mode
		1, 2, 3, 4, 5, 6, 7, 8, // reserved
	}
	require.Len(t, buf, AvailableDataRequestSize)

	adr, err := DecodeAvailableDataRequest(buf)
	require.NoError(t, err)

	assert.Equal(t, uint8(0xA5), adr.OuterChecksum)
	assert.Equal(t, testMac(), adr.SourceMAC)
	assert.Equal(t, "00:00:02:1B:1A:D0:3B:17", adr.SourceMAC.String())
	assert.Equal(t, uint8(0x5A), adr.InnerChecksum)
	assert.Equal(t, uint8(0x7F), adr.LastPacketLQI)
	assert.Equal(t, int8(-60), adr.LastPacketRSSI)
	assert.Equal(t, int8(21), adr.Temperature)
	assert.Equal(t, uint16(3000), adr.BatteryMV)
	assert.Equal(t, uint8(0x33), adr.HWType)
	assert.Equal(t, uint8(0x01), adr.WakeupReason)
	assert.Equal(t, uint8(0x02), adr.Capabilities)
	assert.Equal(t, uint16(10), adr.TagSoftwareVersion)
	assert.Equal(t, uint8(11), adr.CurrentChannel)
	assert.Equal(t, [8]byte{1, 2, 3, 4, 5, 6, 7, 8}, adr.Reserved)

	assert.Equal(t, buf, adr.Encode(), "encode must reproduce the captured bytes")
}

func TestDecodeShortRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		decode func([]byte) error
		name   string
		want   int
	}{
		{
			name: "AvailableDataRequest",
			want: AvailableDataRequestSize,
			decode: func(b []byte) error {
				_, err := DecodeAvailableDataRequest(b)
				return err
			},
		},
		{
			name: "AvailDataInfo",
			want: AvailDataInfoSize,
			decode: func(b []byte) error {
				_, err := DecodeAvailDataInfo(b)
				return err
			},
		},
		{
			name: "BlockRequest",
			want: BlockRequestSize,
			decode: func(b []byte) error {
				_, err := DecodeBlockRequest(b)
				return err
			},
		},
		{
			name: "BlockHeader",
			want: BlockHeaderSize,
			decode: func(b []byte) error {
				_, err := DecodeBlockHeader(b)
				return err
			},
		},
		{
			name: "XferComplete",
			want: XferCompleteSize,
			decode: func(b []byte) error {
				_, err := DecodeXferComplete(b)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.decode(make([]byte, tt.want-1))
			require.Error(t, err)

			var fe *FramingError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.name, fe.Record)
			assert.Equal(t, tt.want, fe.Want)
			assert.Equal(t, tt.want-1, fe.Got)

			assert.NoError(t, tt.decode(make([]byte, tt.want)))
			assert.NoError(t, tt.decode(make([]byte, tt.want+3)), "trailing bytes are ignored")
		})
	}
}

func TestAvailDataInfoEncode(t *testing.T) {
	t.Parallel()

	info := AvailDataInfo{
		DataVersion:      DataVersion{1, 2, 3, 4, 5, 6, 7, 8},
		DataSize:         5000,
		DataType:         DataTypeBlackRed,
		DataTypeArgument: LUTNoRepeats,
		NextCheckIn:      0,
		AttemptsLeft:     1440,
		TargetMAC:        testMac(),
	}
	info.Seal()

	want := []byte{
		0xDF,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x88, 0x13, 0x00, 0x00,
		0x21,
		0x01,
		0x00, 0x00,
		0xA0, 0x05,
		0x17, 0x3B, 0xD0, 0x1A, 0x1B, 0x02, 0x00, 0x00,
	}
	assert.Equal(t, want, info.Encode())

	decoded, err := DecodeAvailDataInfo(want)
	require.NoError(t, err)
	assert.Equal(t, info, decoded)
}

func TestAvailDataInfoSealReproducible(t *testing.T) {
	t.Parallel()

	info := AvailDataInfo{
		DataVersion: DataVersionOf([]byte("hello")),
		DataSize:    5,
		DataType:    DataTypeBlack,
		TargetMAC:   testMac(),
	}
	info.Seal()
	first := info.Checksum

	// sealing again must not fold the old checksum into the new one
	info.Seal()
	assert.Equal(t, first, info.Checksum)

	info.Checksum = 0x99
	info.Seal()
	assert.Equal(t, first, info.Checksum)
}

func TestNewCancelInfo(t *testing.T) {
	t.Parallel()

	info := NewCancelInfo(testMac())
	buf := info.Encode()

	require.Len(t, buf, AvailDataInfoSize)
	assert.Equal(t, uint8(0x59), buf[0], "checksum is the sum of the mac bytes")
	assert.Equal(t, make([]byte, 18), buf[1:19])
	assert.Equal(t, testMacWire, buf[19:27])
}

func TestDecodeBlockRequest(t *testing.T) {
	t.Parallel()

	buf := append([]byte{0x10, 9, 8, 7, 6, 5, 4, 3, 2, 0x01}, testMacWire...)
	req, err := DecodeBlockRequest(buf)
	require.NoError(t, err)

	assert.Equal(t, uint8(0x10), req.Checksum)
	assert.Equal(t, DataVersion{9, 8, 7, 6, 5, 4, 3, 2}, req.DataVersion)
	assert.Equal(t, uint8(1), req.BlockID)
	assert.Equal(t, testMac(), req.SourceMAC)
	assert.Equal(t, buf, req.Encode())
}

func TestBlockHeader(t *testing.T) {
	t.Parallel()

	payload := []byte{0xFF, 0xFF, 0x01}
	h := NewBlockHeader(payload)
	assert.Equal(t, uint16(3), h.Length)
	assert.Equal(t, uint16(0x01FF), h.Checksum)
	assert.Equal(t, []byte{0x03, 0x00, 0xFF, 0x01}, h.Encode())

	decoded, err := DecodeBlockHeader(h.Encode())
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
}

func TestDecodeXferComplete(t *testing.T) {
	t.Parallel()

	buf := append([]byte{0x00}, testMacWire...)
	x, err := DecodeXferComplete(buf)
	require.NoError(t, err)
	assert.Equal(t, testMac(), x.SourceMAC)
	assert.Equal(t, buf, x.Encode())
}

func TestDataVersionOf(t *testing.T) {
	t.Parallel()

	// md5("") = d41d8cd98f00b204e9800998ecf8427e
	v := DataVersionOf(nil)
	assert.Equal(t, "d41d8cd98f00b204", v.String())
	assert.Equal(t, v, DataVersionOf([]byte{}))
	assert.NotEqual(t, v, DataVersionOf([]byte{0}))
}
