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

// Package models holds the JSON bodies of the HTTP API.
package models

import (
	"time"

	"github.com/tagbridge/tagbridge/pkg/database"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Tag is an assignment as returned by the API, without its payload.
type Tag struct {
	UpdatedAt   time.Time         `json:"updatedAt"`
	LastCheckIn *database.CheckIn `json:"lastCheckIn,omitempty"`
	MAC         string            `json:"mac"`
	DataType    string            `json:"dataType"`
	Source      string            `json:"source,omitempty"`
	DataVersion string            `json:"dataVersion"`
	Display     string            `json:"display,omitempty"`
	Size        int               `json:"size"`
}

type TagsResponse struct {
	Tags []Tag `json:"tags"`
}

type TagDetailResponse struct {
	CheckIns  []database.CheckIn  `json:"checkIns"`
	Transfers []database.Transfer `json:"transfers"`
	Tag       Tag                 `json:"tag"`
}
