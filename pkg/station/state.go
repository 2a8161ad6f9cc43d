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

// State is the dispatcher's position in its command cycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingCommand
	StateCheckIn
	StateBlockRequest
	StateTransferComplete
	StateAcknowledge
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCommand:
		return "awaiting_command"
	case StateCheckIn:
		return "check_in"
	case StateBlockRequest:
		return "block_request"
	case StateTransferComplete:
		return "transfer_complete"
	case StateAcknowledge:
		return "acknowledge"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
