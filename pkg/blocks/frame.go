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

package blocks

import (
	"errors"
	"fmt"

	"github.com/tagbridge/tagbridge/pkg/protocol"
)

const (
	// BlockSize is the payload capacity of one frame.
	BlockSize = 4096
	// HeaderSize is the size of the block header preceding the payload.
	HeaderSize = protocol.BlockHeaderSize
	// FrameSize is the number of bytes written after the block-data token.
	FrameSize = HeaderSize + BlockSize
	// ObfuscationKey is XORed into header and payload bytes.
	ObfuscationKey byte = 0xAA
	// PadByte fills the data region after a short final block. It is
	// written without obfuscation.
	PadByte byte = 0xAA
	// MaxBlocks is the number of blocks a one-byte block id can address.
	MaxBlocks = 256
	// MaxPayloadSize is the largest payload a tag can download.
	MaxPayloadSize = MaxBlocks * BlockSize
)

var (
	// ErrBlockOutOfRange is returned for block ids past the end of the payload.
	ErrBlockOutOfRange = errors.New("block out of range")
	// ErrPayloadTooLarge is returned for payloads with more blocks than a
	// tag can request.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// CheckSize returns ErrPayloadTooLarge when n bytes cannot be served.
func CheckSize(n int) error {
	if n > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLarge, n, MaxPayloadSize)
	}
	return nil
}

// BlockCount returns how many blocks a payload of size n occupies.
func BlockCount(n int) int {
	return (n + BlockSize - 1) / BlockSize
}

// Slice returns the payload bytes of block id. An empty payload yields one
// empty block 0.
func Slice(data []byte, id int) ([]byte, error) {
	offset := id * BlockSize
	if id < 0 || (offset >= len(data) && (len(data) > 0 || id > 0)) {
		return nil, fmt.Errorf("%w: block %d of %d bytes", ErrBlockOutOfRange, id, len(data))
	}
	end := min(offset+BlockSize, len(data))
	return data[offset:end], nil
}

// Obfuscate returns a copy of b with every byte XORed with ObfuscationKey.
func Obfuscate(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[i] = v ^ ObfuscationKey
	}
	return out
}

// Frame is one block ready for transmission, split into the pieces that
// are written separately.
type Frame struct {
	Header  []byte
	Payload []byte
	Padding []byte
}

// Bytes returns the frame as written after the token.
func (f Frame) Bytes() []byte {
	out := make([]byte, 0, FrameSize)
	out = append(out, f.Header...)
	out = append(out, f.Payload...)
	out = append(out, f.Padding...)
	return out
}

// NewFrame builds the frame for block id of data.
func NewFrame(data []byte, id int) (Frame, error) {
	slice, err := Slice(data, id)
	if err != nil {
		return Frame{}, err
	}
	header := protocol.NewBlockHeader(slice)
	padding := make([]byte, BlockSize-len(slice))
	for i := range padding {
		padding[i] = PadByte
	}
	return Frame{
		Header:  Obfuscate(header.Encode()),
		Payload: Obfuscate(slice),
		Padding: padding,
	}, nil
}

// BuildFrame returns the FrameSize bytes sent after the token for block id.
func BuildFrame(data []byte, id int) ([]byte, error) {
	f, err := NewFrame(data, id)
	if err != nil {
		return nil, err
	}
	return f.Bytes(), nil
}

// ErrBadFrame is returned by Reassemble for frames that fail validation.
var ErrBadFrame = errors.New("bad frame")

// Reassemble strips headers and padding from frames built by BuildFrame and
// returns the concatenated payload. Each header checksum is verified.
func Reassemble(frames [][]byte) ([]byte, error) {
	var out []byte
	for i, f := range frames {
		if len(f) != FrameSize {
			return nil, fmt.Errorf("%w %d: size %d", ErrBadFrame, i, len(f))
		}
		h, err := protocol.DecodeBlockHeader(Obfuscate(f[:HeaderSize]))
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if int(h.Length) > BlockSize {
			return nil, fmt.Errorf("%w %d: length %d", ErrBadFrame, i, h.Length)
		}
		payload := Obfuscate(f[HeaderSize : HeaderSize+int(h.Length)])
		if sum := protocol.Checksum16(payload); sum != h.Checksum {
			return nil, fmt.Errorf("%w %d: checksum %04x, header says %04x", ErrBadFrame, i, sum, h.Checksum)
		}
		out = append(out, payload...)
	}
	return out, nil
}
