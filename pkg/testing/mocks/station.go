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

package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/tagbridge/tagbridge/pkg/protocol"
	"github.com/tagbridge/tagbridge/pkg/station"
)

// MockDataProvider is a testify mock of station.DataProvider.
type MockDataProvider struct {
	mock.Mock
}

// Resolve returns the configured payload for mac.
func (m *MockDataProvider) Resolve(mac protocol.MacAddress) (station.Payload, bool) {
	args := m.Called(mac)
	if p, ok := args.Get(0).(station.Payload); ok {
		return p, args.Bool(1)
	}
	return station.Payload{}, args.Bool(1)
}

// MockCompletionSink is a testify mock of station.CompletionSink.
type MockCompletionSink struct {
	mock.Mock
}

// TransferComplete records the call.
func (m *MockCompletionSink) TransferComplete(mac protocol.MacAddress) {
	m.Called(mac)
}
