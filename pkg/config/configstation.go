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

package config

import (
	"time"

	"github.com/tagbridge/tagbridge/pkg/protocol"
)

const (
	DefaultBaudRate      = 115200
	DefaultReadTimeout   = 100 * time.Millisecond
	DefaultRecordTimeout = time.Second
	DefaultSettleDelay   = 50 * time.Millisecond
	DefaultAttemptsLeft  = 1440
)

type Station struct {
	// Port is the access point device; empty means auto-detect.
	Port          string   `toml:"port"`
	LUT           string   `toml:"lut" validate:"lut"`
	ReadTimeout   Duration `toml:"read_timeout"`
	RecordTimeout Duration `toml:"record_timeout"`
	SettleDelay   Duration `toml:"settle_delay"`
	BaudRate      int      `toml:"baud_rate" validate:"gt=0"`
	NextCheckIn   uint16   `toml:"next_checkin"`
	AttemptsLeft  uint16   `toml:"attempts_left"`
}

func (c *Instance) StationPort() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Station.Port
}

func (c *Instance) SetStationPort(port string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Station.Port = port
}

func (c *Instance) BaudRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Station.BaudRate
}

func (c *Instance) ReadTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Station.ReadTimeout.Std()
}

func (c *Instance) RecordTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Station.RecordTimeout.Std()
}

func (c *Instance) SettleDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Station.SettleDelay.Std()
}

// Announce returns the LUT, next check-in and attempts announced to tags.
// An unparseable LUT falls back to no-repeats; Load rejects those anyway.
func (c *Instance) Announce() (protocol.LUT, uint16, uint16) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	lut, err := protocol.ParseLUT(c.vals.Station.LUT)
	if err != nil {
		lut = protocol.LUTNoRepeats
	}
	return lut, c.vals.Station.NextCheckIn, c.vals.Station.AttemptsLeft
}
