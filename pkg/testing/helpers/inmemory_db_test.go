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

package helpers

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tagbridge/tagbridge/pkg/database"
)

//nolint:paralleltest // goose migrations share global state
func TestNewInMemoryTagDB(t *testing.T) {
	db := NewInMemoryTagDB(t)

	err := db.PutAssignment(&database.Assignment{
		MAC:       "0000021b1ad03b17",
		DataType:  "firmware",
		Payload:   []byte{0xAA},
		UpdatedAt: time.Now(),
	})
	require.NoError(t, err)

	list, err := db.ListAssignments()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []byte{0xAA}, list[0].Payload)
}

func TestMockTagDBI_WrapsErrors(t *testing.T) {
	t.Parallel()
	db := NewMockTagDBI()
	db.On("DeleteAssignment", "aa").Return(false, assert.AnError)
	db.On("LatestCheckIns", "aa", 1).Return([]database.CheckIn{{MAC: "aa"}}, nil)

	_, err := db.DeleteAssignment("aa")
	require.ErrorIs(t, err, assert.AnError)

	list, err := db.LatestCheckIns("aa", 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	db.AssertExpectations(t)
	db.AssertNotCalled(t, "AddTransfer", mock.Anything)
}

func TestFSHelper_WritePNG(t *testing.T) {
	t.Parallel()
	h := NewMemoryFS()
	require.NoError(t, h.WritePNG("/img/a.png", 2, 2, Solid(color.White)))
	assert.True(t, h.FileExists("/img/a.png"))
	names, err := h.ListFiles("/img")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, names)
}
