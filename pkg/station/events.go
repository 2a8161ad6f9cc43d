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
	"time"

	"github.com/tagbridge/tagbridge/pkg/protocol"
)

// EventKind names what happened on the link.
type EventKind string

const (
	EventCheckIn  EventKind = "check_in"
	EventAnnounce EventKind = "announce"
	EventBlock    EventKind = "block"
	EventCancel   EventKind = "cancel"
	EventComplete EventKind = "complete"
)

// Event describes one handled command. Only the fields relevant to Kind are
// set.
type Event struct {
	Time     time.Time                      `json:"time"`
	CheckIn  *protocol.AvailableDataRequest `json:"checkIn,omitempty"`
	Kind     EventKind                      `json:"kind"`
	Version  string                         `json:"version,omitempty"`
	MAC      protocol.MacAddress            `json:"mac"`
	BlockID  int                            `json:"blockId,omitempty"`
	Size     int                            `json:"size,omitempty"`
	DataType protocol.DataType              `json:"dataType,omitempty"`
}
