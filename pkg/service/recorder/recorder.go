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

// Package recorder persists station activity to the tag database. Check-ins
// arrive as events off the dispatch loop; completed transfers are reported
// through the dispatcher's completion sink so none are dropped.
package recorder

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/tagbridge/tagbridge/pkg/database"
	"github.com/tagbridge/tagbridge/pkg/protocol"
	"github.com/tagbridge/tagbridge/pkg/station"
)

type Recorder struct {
	db       database.TagDBI
	provider station.DataProvider
	clock    clockwork.Clock
}

// New returns a recorder writing to db. provider is asked for the payload a
// tag just finished downloading so its data version can be stored; it may
// be nil.
func New(db database.TagDBI, provider station.DataProvider, clock clockwork.Clock) *Recorder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Recorder{db: db, provider: provider, clock: clock}
}

// Run records events until the channel is closed. Storage errors are logged
// and do not stop the loop.
func (r *Recorder) Run(events <-chan station.Event) {
	for ev := range events {
		if err := r.Record(&ev); err != nil {
			log.Error().Err(err).
				Str("kind", string(ev.Kind)).
				Str("mac", ev.MAC.String()).
				Msg("failed to record event")
		}
	}
	log.Debug().Msg("recorder: event channel closed")
}

// Record stores check-ins; other kinds are ignored.
func (r *Recorder) Record(ev *station.Event) error {
	if ev.Kind != station.EventCheckIn || ev.CheckIn == nil {
		return nil
	}
	req := ev.CheckIn
	err := r.db.AddCheckIn(&database.CheckIn{
		Time:            ev.Time,
		MAC:             ev.MAC.Key(),
		LQI:             int(req.LastPacketLQI),
		RSSI:            int(req.LastPacketRSSI),
		Temperature:     int(req.Temperature),
		BatteryMV:       int(req.BatteryMV),
		HWType:          int(req.HWType),
		WakeupReason:    int(req.WakeupReason),
		SoftwareVersion: int(req.TagSoftwareVersion),
		Channel:         int(req.CurrentChannel),
	})
	if err != nil {
		return fmt.Errorf("recording check-in: %w", err)
	}
	return nil
}

// TransferComplete stores a completed transfer. It runs on the dispatch
// loop; storage errors are logged.
func (r *Recorder) TransferComplete(mac protocol.MacAddress) {
	t := &database.Transfer{
		Time: r.clock.Now(),
		MAC:  mac.Key(),
	}
	if r.provider != nil {
		if p, ok := r.provider.Resolve(mac); ok {
			t.DataVersion = protocol.DataVersionOf(p.Data).String()
		}
	}
	if err := r.db.AddTransfer(t); err != nil {
		log.Error().Err(err).Str("mac", mac.String()).Msg("failed to record transfer")
	}
}
