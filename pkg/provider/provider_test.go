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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tagbridge/tagbridge/pkg/database"
	"github.com/tagbridge/tagbridge/pkg/protocol"
	"github.com/tagbridge/tagbridge/pkg/station"
	"github.com/tagbridge/tagbridge/pkg/testing/helpers"
)

var (
	macA = protocol.MustParseMacAddress("00:00:02:1B:1A:D0:3B:17")
	macB = protocol.MustParseMacAddress("00:00:02:1B:1A:D0:3B:18")
	macC = protocol.MustParseMacAddress("00:00:02:1B:1A:D0:3B:19")
)

func TestStaticAndChain(t *testing.T) {
	t.Parallel()

	first := NewStatic()
	second := NewStatic()
	first.Set(macA, station.Payload{Data: []byte{1}, Type: protocol.DataTypeBlack})
	second.Set(macA, station.Payload{Data: []byte{2}, Type: protocol.DataTypeBlack})
	second.Set(macB, station.Payload{Data: []byte{3}, Type: protocol.DataTypeBlackRed})

	chain := Chain{nil, first, second}

	p, ok := chain.Resolve(macA)
	require.True(t, ok)
	assert.Equal(t, []byte{1}, p.Data)

	p, ok = chain.Resolve(macB)
	require.True(t, ok)
	assert.Equal(t, protocol.DataTypeBlackRed, p.Type)

	_, ok = chain.Resolve(macC)
	assert.False(t, ok)

	first.Remove(macA)
	p, ok = chain.Resolve(macA)
	require.True(t, ok)
	assert.Equal(t, []byte{2}, p.Data)
}

func TestTargeted_StopsAfterLastListedTag(t *testing.T) {
	t.Parallel()

	stops := 0
	fw := NewFirmware([]byte{0xAA}, []protocol.MacAddress{macA, macB}, func() { stops++ })

	p, ok := fw.Resolve(macA)
	require.True(t, ok)
	assert.Equal(t, protocol.DataTypeFirmwareUpdate, p.Type)
	_, ok = fw.Resolve(macC)
	assert.False(t, ok)

	fw.TransferComplete(macC)
	fw.TransferComplete(macA)
	assert.Equal(t, 0, stops)
	assert.Equal(t, 1, fw.Remaining())

	_, ok = fw.Resolve(macA)
	assert.False(t, ok, "completed tags are not served again")

	fw.TransferComplete(macB)
	fw.TransferComplete(macB)
	assert.Equal(t, 1, stops)
	assert.Zero(t, fw.Remaining())
}

func TestTargeted_AllModeNeverStops(t *testing.T) {
	t.Parallel()

	stopped := false
	fw := NewFirmware([]byte{0xAA}, nil, func() { stopped = true })

	for _, mac := range []protocol.MacAddress{macA, macB, macC} {
		_, ok := fw.Resolve(mac)
		assert.True(t, ok)
		fw.TransferComplete(mac)
	}
	_, ok := fw.Resolve(macA)
	assert.True(t, ok)
	assert.False(t, stopped)
}

func TestTargeted_NilStop(t *testing.T) {
	t.Parallel()

	push := NewTargeted(station.Payload{Data: []byte{1}, Type: protocol.DataTypeBlack}, []protocol.MacAddress{macA}, nil)
	assert.NotPanics(t, func() { push.TransferComplete(macA) })
}

func TestAssignments_Reload(t *testing.T) {
	t.Parallel()

	db := helpers.NewMockTagDBI()
	db.On("ListAssignments").Return([]database.Assignment{
		{MAC: macA.Key(), DataType: "black_red", Payload: []byte{1, 2}},
		{MAC: "not-a-mac", DataType: "black", Payload: []byte{3}},
		{MAC: macB.Key(), DataType: "sepia", Payload: []byte{4}},
	}, nil).Once()

	a := NewAssignments(db)
	_, ok := a.Resolve(macA)
	assert.False(t, ok)

	require.NoError(t, a.Reload())
	p, ok := a.Resolve(macA)
	require.True(t, ok)
	assert.Equal(t, protocol.DataTypeBlackRed, p.Type)
	assert.Equal(t, []byte{1, 2}, p.Data)
	_, ok = a.Resolve(macB)
	assert.False(t, ok)
	db.AssertExpectations(t)
}

func TestAssignments_ReloadErrorKeepsSnapshot(t *testing.T) {
	t.Parallel()

	db := helpers.NewMockTagDBI()
	db.On("ListAssignments").Return([]database.Assignment{
		{MAC: macA.Key(), DataType: "black", Payload: []byte{1}},
	}, nil).Once()
	db.On("ListAssignments").Return(nil, assert.AnError).Once()

	a := NewAssignments(db)
	require.NoError(t, a.Reload())
	require.ErrorIs(t, a.Reload(), assert.AnError)

	_, ok := a.Resolve(macA)
	assert.True(t, ok)
}
