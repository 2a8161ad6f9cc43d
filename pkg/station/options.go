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

package station

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tagbridge/tagbridge/pkg/blocks"
	"github.com/tagbridge/tagbridge/pkg/metrics"
	"github.com/tagbridge/tagbridge/pkg/protocol"
)

const (
	// DefaultRecordTimeout bounds how long a handler waits for the record
	// following a command token.
	DefaultRecordTimeout = time.Second
	// DefaultAttemptsLeft is announced to tags unless overridden.
	DefaultAttemptsLeft = 1440
)

// AnnounceDefaults are the fixed fields of every AvailDataInfo sent.
type AnnounceDefaults struct {
	LUT          protocol.LUT
	NextCheckIn  uint16
	AttemptsLeft uint16
}

type options struct {
	clock         clockwork.Clock
	metrics       *metrics.Collector
	events        chan<- Event
	announce      AnnounceDefaults
	settleDelay   time.Duration
	recordTimeout time.Duration
}

func defaultOptions() options {
	return options{
		clock:         clockwork.NewRealClock(),
		settleDelay:   blocks.DefaultSettleDelay,
		recordTimeout: DefaultRecordTimeout,
		announce: AnnounceDefaults{
			LUT:          protocol.LUTNoRepeats,
			NextCheckIn:  0,
			AttemptsLeft: DefaultAttemptsLeft,
		},
	}
}

// Option configures a Dispatcher.
type Option func(*options)

// WithSettleDelay sets the pause between the block-data token and the frame.
// Zero or negative disables it.
func WithSettleDelay(d time.Duration) Option {
	return func(o *options) { o.settleDelay = d }
}

// WithRecordTimeout sets how long to wait for a complete record.
func WithRecordTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.recordTimeout = d
		}
	}
}

// WithClock replaces the clock used for delays and timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithMetrics records dispatcher activity on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// WithEvents publishes an Event for each handled command. Sends never block;
// events are dropped when ch is full.
func WithEvents(ch chan<- Event) Option {
	return func(o *options) { o.events = ch }
}

// WithAnnounceDefaults sets the LUT, next check-in and attempts fields of
// announcements.
func WithAnnounceDefaults(lut protocol.LUT, nextCheckIn, attemptsLeft uint16) Option {
	return func(o *options) {
		o.announce = AnnounceDefaults{
			LUT:          lut,
			NextCheckIn:  nextCheckIn,
			AttemptsLeft: attemptsLeft,
		}
	}
}
