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

package provider

import (
	"github.com/rs/zerolog/log"
	"github.com/tagbridge/tagbridge/pkg/helpers/syncutil"
	"github.com/tagbridge/tagbridge/pkg/protocol"
	"github.com/tagbridge/tagbridge/pkg/station"
)

// Targeted serves one payload to a set of tags and is also their completion
// sink. Each tag is served until it reports a completed transfer; when the
// last one does, stop is called. With no tags listed every tag is served and
// stop is never called.
type Targeted struct {
	stop    func()
	pending map[protocol.MacAddress]struct{}
	payload station.Payload
	mu      syncutil.Mutex
	all     bool
	stopped bool
}

var (
	_ station.DataProvider   = (*Targeted)(nil)
	_ station.CompletionSink = (*Targeted)(nil)
)

// NewTargeted returns a provider for payload. stop may be nil.
func NewTargeted(payload station.Payload, macs []protocol.MacAddress, stop func()) *Targeted {
	t := &Targeted{
		payload: payload,
		stop:    stop,
		pending: make(map[protocol.MacAddress]struct{}, len(macs)),
		all:     len(macs) == 0,
	}
	for _, mac := range macs {
		t.pending[mac] = struct{}{}
	}
	return t
}

// NewFirmware serves a firmware image as a firmware update.
func NewFirmware(data []byte, macs []protocol.MacAddress, stop func()) *Targeted {
	return NewTargeted(station.Payload{Data: data, Type: protocol.DataTypeFirmwareUpdate}, macs, stop)
}

func (t *Targeted) Resolve(mac protocol.MacAddress) (station.Payload, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.all {
		return t.payload, true
	}
	if _, ok := t.pending[mac]; ok {
		return t.payload, true
	}
	return station.Payload{}, false
}

func (t *Targeted) TransferComplete(mac protocol.MacAddress) {
	t.mu.Lock()
	if t.all {
		t.mu.Unlock()
		log.Info().Str("mac", mac.String()).Msg("transfer complete")
		return
	}
	if _, ok := t.pending[mac]; !ok {
		t.mu.Unlock()
		return
	}
	delete(t.pending, mac)
	remaining := len(t.pending)
	fire := remaining == 0 && !t.stopped
	if fire {
		t.stopped = true
	}
	t.mu.Unlock()

	log.Info().Str("mac", mac.String()).Int("remaining", remaining).Msg("transfer complete")
	if fire && t.stop != nil {
		t.stop()
	}
}

// Remaining returns how many listed tags have not completed yet.
func (t *Targeted) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
