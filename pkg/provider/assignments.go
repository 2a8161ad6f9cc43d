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
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tagbridge/tagbridge/pkg/database"
	"github.com/tagbridge/tagbridge/pkg/helpers/syncutil"
	"github.com/tagbridge/tagbridge/pkg/protocol"
	"github.com/tagbridge/tagbridge/pkg/station"
)

// Assignments serves the payloads stored in the tag database. Resolve reads
// a snapshot; call Reload after changing the table.
type Assignments struct {
	db       database.TagDBI
	snapshot map[protocol.MacAddress]station.Payload
	mu       syncutil.RWMutex
}

func NewAssignments(db database.TagDBI) *Assignments {
	return &Assignments{
		db:       db,
		snapshot: make(map[protocol.MacAddress]station.Payload),
	}
}

// Reload replaces the snapshot with the current table contents. Rows with an
// unparseable address or data type are skipped.
func (a *Assignments) Reload() error {
	rows, err := a.db.ListAssignments()
	if err != nil {
		return fmt.Errorf("loading assignments: %w", err)
	}

	snapshot := make(map[protocol.MacAddress]station.Payload, len(rows))
	for i := range rows {
		row := &rows[i]
		mac, err := protocol.ParseMacAddress(row.MAC)
		if err != nil {
			log.Warn().Err(err).Str("mac", row.MAC).Msg("skipping assignment")
			continue
		}
		dt, err := protocol.ParseDataType(row.DataType)
		if err != nil {
			log.Warn().Err(err).Str("mac", row.MAC).Msg("skipping assignment")
			continue
		}
		snapshot[mac] = station.Payload{Data: row.Payload, Type: dt}
	}

	a.mu.Lock()
	a.snapshot = snapshot
	a.mu.Unlock()

	log.Debug().Int("count", len(snapshot)).Msg("reloaded assignments")
	return nil
}

func (a *Assignments) Resolve(mac protocol.MacAddress) (station.Payload, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.snapshot[mac]
	return p, ok
}
