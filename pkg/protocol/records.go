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
	"crypto/md5" //nolint:gosec // data version only, not a security boundary
	"encoding/binary"
)

// Wire sizes of the fixed-layout records.
const (
	AvailableDataRequestSize = 30
	AvailDataInfoSize        = 27
	BlockRequestSize         = 18
	BlockHeaderSize          = 4
	XferCompleteSize         = 9
	DataVersionSize          = 8
)

// DataVersion identifies a payload; tags skip downloads whose version they
// already hold.
type DataVersion [DataVersionSize]byte

// DataVersionOf returns the first half of the payload's MD5 digest.
func DataVersionOf(payload []byte) DataVersion {
	var v DataVersion
	sum := md5.Sum(payload) //nolint:gosec // see import
	copy(v[:], sum[:DataVersionSize])
	return v
}

// AvailableDataRequest is the telemetry a tag reports when it checks in.
//
//	off size field
//	0   1    OuterChecksum
//	1   8    SourceMAC
//	9   1    InnerChecksum
//	10  1    LastPacketLQI
//	11  1    LastPacketRSSI
//	12  1    Temperature
//	13  2    BatteryMV
//	15  1    HWType
//	16  1    WakeupReason
//	17  1    Capabilities
//	18  2    TagSoftwareVersion
//	20  1    CurrentChannel
//	21  1    CustomMode
//	22  8    Reserved
type AvailableDataRequest struct {
	SourceMAC          MacAddress
	Reserved           [8]byte
	BatteryMV          uint16
	TagSoftwareVersion uint16
	OuterChecksum      uint8
	InnerChecksum      uint8
	LastPacketLQI      uint8
	LastPacketRSSI     int8
	Temperature        int8
	HWType             uint8
	WakeupReason       uint8
	Capabilities       uint8
	CurrentChannel     uint8
	CustomMode         uint8
}

// DecodeAvailableDataRequest decodes a check-in record.
func DecodeAvailableDataRequest(data []byte) (AvailableDataRequest, error) {
	var r AvailableDataRequest
	if err := checkLength("AvailableDataRequest", data, AvailableDataRequestSize); err != nil {
		return r, err
	}
	r.OuterChecksum = data[0]
	copy(r.SourceMAC[:], data[1:9])
	r.InnerChecksum = data[9]
	r.LastPacketLQI = data[10]
	r.LastPacketRSSI = int8(data[11])
	r.Temperature = int8(data[12])
	r.BatteryMV = binary.LittleEndian.Uint16(data[13:15])
	r.HWType = data[15]
	r.WakeupReason = data[16]
	r.Capabilities = data[17]
	r.TagSoftwareVersion = binary.LittleEndian.Uint16(data[18:20])
	r.CurrentChannel = data[20]
	r.CustomMode = data[21]
	copy(r.Reserved[:], data[22:30])
	return r, nil
}

// Encode serializes the record. The host never sends this record; encoding
// exists for simulators and tests.
func (r *AvailableDataRequest) Encode() []byte {
	buf := make([]byte, AvailableDataRequestSize)
	buf[0] = r.OuterChecksum
	copy(buf[1:9], r.SourceMAC[:])
	buf[9] = r.InnerChecksum
	buf[10] = r.LastPacketLQI
	buf[11] = byte(r.LastPacketRSSI)
	buf[12] = byte(r.Temperature)
	binary.LittleEndian.PutUint16(buf[13:15], r.BatteryMV)
	buf[15] = r.HWType
	buf[16] = r.WakeupReason
	buf[17] = r.Capabilities
	binary.LittleEndian.PutUint16(buf[18:20], r.TagSoftwareVersion)
	buf[20] = r.CurrentChannel
	buf[21] = r.CustomMode
	copy(buf[22:30], r.Reserved[:])
	return buf
}

// AvailDataInfo announces new data for a tag. The same shape, zeroed except
// for the target, is used to cancel a block transfer.
type AvailDataInfo struct {
	TargetMAC        MacAddress
	DataVersion      DataVersion
	DataSize         uint32
	NextCheckIn      uint16
	AttemptsLeft     uint16
	Checksum         uint8
	DataType         DataType
	DataTypeArgument LUT
}

// NewCancelInfo returns a sealed cancellation record for mac.
func NewCancelInfo(mac MacAddress) AvailDataInfo {
	info := AvailDataInfo{TargetMAC: mac}
	info.Seal()
	return info
}

// Encode serializes the record including its current checksum byte.
func (a *AvailDataInfo) Encode() []byte {
	buf := make([]byte, AvailDataInfoSize)
	buf[0] = a.Checksum
	copy(buf[1:9], a.DataVersion[:])
	binary.LittleEndian.PutUint32(buf[9:13], a.DataSize)
	buf[13] = byte(a.DataType)
	buf[14] = byte(a.DataTypeArgument)
	binary.LittleEndian.PutUint16(buf[15:17], a.NextCheckIn)
	binary.LittleEndian.PutUint16(buf[17:19], a.AttemptsLeft)
	copy(buf[19:27], a.TargetMAC[:])
	return buf
}

// Seal sets the checksum using the firmware's zero-then-sum rule: the
// checksum byte is zeroed, the record is serialized and the 8-bit sum of all
// serialized bytes is written back.
func (a *AvailDataInfo) Seal() {
	a.Checksum = 0
	a.Checksum = Checksum8(a.Encode())
}

// DecodeAvailDataInfo decodes an announce or cancel record.
func DecodeAvailDataInfo(data []byte) (AvailDataInfo, error) {
	var a AvailDataInfo
	if err := checkLength("AvailDataInfo", data, AvailDataInfoSize); err != nil {
		return a, err
	}
	a.Checksum = data[0]
	copy(a.DataVersion[:], data[1:9])
	a.DataSize = binary.LittleEndian.Uint32(data[9:13])
	a.DataType = DataType(data[13])
	a.DataTypeArgument = LUT(data[14])
	a.NextCheckIn = binary.LittleEndian.Uint16(data[15:17])
	a.AttemptsLeft = binary.LittleEndian.Uint16(data[17:19])
	copy(a.TargetMAC[:], data[19:27])
	return a, nil
}

// BlockRequest asks for one block of the announced data.
type BlockRequest struct {
	SourceMAC   MacAddress
	DataVersion DataVersion
	Checksum    uint8
	BlockID     uint8
}

// DecodeBlockRequest decodes a block request record.
func DecodeBlockRequest(data []byte) (BlockRequest, error) {
	var r BlockRequest
	if err := checkLength("BlockRequest", data, BlockRequestSize); err != nil {
		return r, err
	}
	r.Checksum = data[0]
	copy(r.DataVersion[:], data[1:9])
	r.BlockID = data[9]
	copy(r.SourceMAC[:], data[10:18])
	return r, nil
}

// Encode serializes the record.
func (r *BlockRequest) Encode() []byte {
	buf := make([]byte, BlockRequestSize)
	buf[0] = r.Checksum
	copy(buf[1:9], r.DataVersion[:])
	buf[9] = r.BlockID
	copy(buf[10:18], r.SourceMAC[:])
	return buf
}

// BlockHeader precedes every block payload inside a bulk frame.
type BlockHeader struct {
	Length   uint16
	Checksum uint16
}

// NewBlockHeader builds the header describing payload.
func NewBlockHeader(payload []byte) BlockHeader {
	return BlockHeader{
		Length:   uint16(len(payload)), //nolint:gosec // payload is at most one block
		Checksum: Checksum16(payload),
	}
}

// Encode serializes the header.
func (h BlockHeader) Encode() []byte {
	buf := make([]byte, BlockHeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.Length)
	binary.LittleEndian.PutUint16(buf[2:4], h.Checksum)
	return buf
}

// DecodeBlockHeader decodes a (de-obfuscated) block header.
func DecodeBlockHeader(data []byte) (BlockHeader, error) {
	var h BlockHeader
	if err := checkLength("BlockHeader", data, BlockHeaderSize); err != nil {
		return h, err
	}
	h.Length = binary.LittleEndian.Uint16(data[0:2])
	h.Checksum = binary.LittleEndian.Uint16(data[2:4])
	return h, nil
}

// XferComplete reports that a tag finished receiving its data.
type XferComplete struct {
	SourceMAC MacAddress
	Checksum  uint8
}

// DecodeXferComplete decodes a transfer-complete record.
func DecodeXferComplete(data []byte) (XferComplete, error) {
	var x XferComplete
	if err := checkLength("XferComplete", data, XferCompleteSize); err != nil {
		return x, err
	}
	x.Checksum = data[0]
	copy(x.SourceMAC[:], data[1:9])
	return x, nil
}

// Encode serializes the record.
func (x *XferComplete) Encode() []byte {
	buf := make([]byte, XferCompleteSize)
	buf[0] = x.Checksum
	copy(buf[1:9], x.SourceMAC[:])
	return buf
}
