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

// Package helpers provides shared test doubles and fixtures.
//
// MockTagDBI stands in for the tag database where a test only cares about
// the calls made against it:
//
//	db := helpers.NewMockTagDBI()
//	db.On("AddTransfer", mock.AnythingOfType("*database.Transfer")).Return(nil)
//	...
//	db.AssertExpectations(t)
//
// NewInMemoryTagDB opens a real migrated sqlite database in a temp dir.
package helpers

import (
	"fmt"

	"github.com/stretchr/testify/mock"
	"github.com/tagbridge/tagbridge/pkg/database"
)

// MockTagDBI is a testify mock of database.TagDBI.
type MockTagDBI struct {
	mock.Mock
}

var _ database.TagDBI = (*MockTagDBI)(nil)

func NewMockTagDBI() *MockTagDBI {
	return &MockTagDBI{}
}

func (m *MockTagDBI) PutAssignment(a *database.Assignment) error {
	args := m.Called(a)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock TagDBI put assignment failed: %w", err)
	}
	return nil
}

func (m *MockTagDBI) GetAssignment(mac string) (database.Assignment, bool, error) {
	args := m.Called(mac)
	a, _ := args.Get(0).(database.Assignment)
	if err := args.Error(2); err != nil {
		return a, false, fmt.Errorf("mock TagDBI get assignment failed: %w", err)
	}
	return a, args.Bool(1), nil
}

func (m *MockTagDBI) ListAssignments() ([]database.Assignment, error) {
	args := m.Called()
	list, _ := args.Get(0).([]database.Assignment)
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock TagDBI list assignments failed: %w", err)
	}
	return list, nil
}

func (m *MockTagDBI) DeleteAssignment(mac string) (bool, error) {
	args := m.Called(mac)
	if err := args.Error(1); err != nil {
		return false, fmt.Errorf("mock TagDBI delete assignment failed: %w", err)
	}
	return args.Bool(0), nil
}

func (m *MockTagDBI) AddCheckIn(c *database.CheckIn) error {
	args := m.Called(c)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock TagDBI add check-in failed: %w", err)
	}
	return nil
}

func (m *MockTagDBI) LatestCheckIns(mac string, limit int) ([]database.CheckIn, error) {
	args := m.Called(mac, limit)
	list, _ := args.Get(0).([]database.CheckIn)
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock TagDBI latest check-ins failed: %w", err)
	}
	return list, nil
}

func (m *MockTagDBI) AddTransfer(t *database.Transfer) error {
	args := m.Called(t)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock TagDBI add transfer failed: %w", err)
	}
	return nil
}

func (m *MockTagDBI) ListTransfers(mac string, limit int) ([]database.Transfer, error) {
	args := m.Called(mac, limit)
	list, _ := args.Get(0).([]database.Transfer)
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock TagDBI list transfers failed: %w", err)
	}
	return list, nil
}

func (m *MockTagDBI) Close() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock TagDBI close failed: %w", err)
	}
	return nil
}
