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

// Token is a literal ASCII command marker written to or read from the serial
// stream. Tokens are not length prefixed.
type Token string

const (
	// TokenCheckIn precedes an AvailableDataRequest (device to host).
	TokenCheckIn Token = "ADR>"
	// TokenAnnounce precedes an AvailDataInfo (host to device).
	TokenAnnounce Token = "SDA>"
	// TokenBlockRequest precedes a BlockRequest (device to host).
	TokenBlockRequest Token = "RQB>"
	// TokenBlockData precedes a bulk block frame (host to device). The AP
	// firmware matches on three bytes only.
	TokenBlockData Token = ">D>"
	// TokenCancel precedes a zeroed AvailDataInfo (host to device).
	TokenCancel Token = "CXD>"
	// TokenTransferComplete precedes an XferComplete (device to host).
	TokenTransferComplete Token = "XFC>"
	// TokenAck carries no payload (device to host).
	TokenAck Token = "ACK>"
)

// TokenLength is the width of the dispatcher's matching window.
const TokenLength = 4

// IncomingTokens lists the tokens the AP sends to the host.
var IncomingTokens = []Token{
	TokenCheckIn,
	TokenBlockRequest,
	TokenTransferComplete,
	TokenAck,
}

// Bytes returns the token as written on the wire.
func (t Token) Bytes() []byte {
	return []byte(t)
}
