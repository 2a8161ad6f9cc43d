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

package station

import (
	"github.com/tagbridge/tagbridge/pkg/protocol"
)

// Payload is the data to send to a tag.
type Payload struct {
	Data []byte
	Type protocol.DataType
}

// DataProvider decides what, if anything, a tag should receive. Resolve is
// called on the dispatch loop and must return quickly; implementations that
// need I/O should prepare results ahead of time.
type DataProvider interface {
	Resolve(mac protocol.MacAddress) (Payload, bool)
}

// CompletionSink is told when a tag reports it received its data.
type CompletionSink interface {
	TransferComplete(mac protocol.MacAddress)
}

// ProviderFunc adapts a function to DataProvider.
type ProviderFunc func(mac protocol.MacAddress) (Payload, bool)

// Resolve calls f(mac).
func (f ProviderFunc) Resolve(mac protocol.MacAddress) (Payload, bool) {
	return f(mac)
}

// SinkFunc adapts a function to CompletionSink.
type SinkFunc func(mac protocol.MacAddress)

// TransferComplete calls f(mac).
func (f SinkFunc) TransferComplete(mac protocol.MacAddress) {
	f(mac)
}

// NopSink ignores completions.
var NopSink = SinkFunc(func(protocol.MacAddress) {})
