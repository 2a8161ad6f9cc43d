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
	"github.com/tagbridge/tagbridge/pkg/helpers/syncutil"
	"github.com/tagbridge/tagbridge/pkg/protocol"
	"github.com/tagbridge/tagbridge/pkg/station"
)

// Static serves payloads from an in-memory map.
type Static struct {
	payloads map[protocol.MacAddress]station.Payload
	mu       syncutil.RWMutex
}

func NewStatic() *Static {
	return &Static{payloads: make(map[protocol.MacAddress]station.Payload)}
}

func (s *Static) Set(mac protocol.MacAddress, p station.Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[mac] = p
}

func (s *Static) Remove(mac protocol.MacAddress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.payloads, mac)
}

func (s *Static) Resolve(mac protocol.MacAddress) (station.Payload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payloads[mac]
	return p, ok
}

// Chain asks each provider in turn and returns the first payload found.
type Chain []station.DataProvider

func (c Chain) Resolve(mac protocol.MacAddress) (station.Payload, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if payload, ok := p.Resolve(mac); ok {
			return payload, true
		}
	}
	return station.Payload{}, false
}
