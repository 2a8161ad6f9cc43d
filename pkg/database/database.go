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

package database

import (
	"time"
)

/*
 * Record structs shared by the database implementation and its consumers.
 * Concrete storage lives in tagdb.
 */

// Assignment is the payload currently assigned to a tag.
type Assignment struct {
	UpdatedAt   time.Time `json:"updatedAt"`
	MAC         string    `json:"mac"`
	DataType    string    `json:"dataType"`
	Source      string    `json:"source"`
	DataVersion string    `json:"dataVersion"`
	Payload     []byte    `json:"-"`
}

// CheckIn is one AvailableDataRequest seen from a tag.
type CheckIn struct {
	Time            time.Time `json:"time"`
	MAC             string    `json:"mac"`
	DBID            int64     `json:"id"`
	BatteryMV       int       `json:"batteryMv"`
	LQI             int       `json:"lqi"`
	RSSI            int       `json:"rssi"`
	Temperature     int       `json:"temperature"`
	HWType          int       `json:"hwType"`
	WakeupReason    int       `json:"wakeupReason"`
	SoftwareVersion int       `json:"softwareVersion"`
	Channel         int       `json:"channel"`
}

// Transfer is a completed transfer reported by a tag.
type Transfer struct {
	Time        time.Time `json:"time"`
	MAC         string    `json:"mac"`
	DataVersion string    `json:"dataVersion"`
	DBID        int64     `json:"id"`
}

// TagDBI is the storage surface used by providers, the recorder and the API.
type TagDBI interface {
	PutAssignment(a *Assignment) error
	GetAssignment(mac string) (Assignment, bool, error)
	ListAssignments() ([]Assignment, error)
	DeleteAssignment(mac string) (bool, error)
	AddCheckIn(c *CheckIn) error
	LatestCheckIns(mac string, limit int) ([]CheckIn, error)
	AddTransfer(t *Transfer) error
	ListTransfers(mac string, limit int) ([]Transfer, error)
	Close() error
}
