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

// Package metrics holds the prometheus collectors exported by the station.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector groups every metric the station reports. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	Commands       *prometheus.CounterVec
	FramingErrors  *prometheus.CounterVec
	Announces      prometheus.Counter
	Cancels        prometheus.Counter
	BlocksServed   prometheus.Counter
	BytesServed    prometheus.Counter
	Completions    prometheus.Counter
	Sessions       prometheus.Gauge
	BlockDurations prometheus.Histogram
	TagBattery     *prometheus.GaugeVec
	TagRSSI        *prometheus.GaugeVec
}

// New returns a Collector registered on a fresh registry that also carries
// the process and Go runtime collectors.
func New() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())

	return &Collector{
		registry: registry,

		Commands: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "tagbridge_commands_total",
			Help: "The total number of commands received from the access point",
		}, []string{"command"}),
		FramingErrors: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "tagbridge_framing_errors_total",
			Help: "The total number of short records read after a command token",
		}, []string{"record"}),
		Announces: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "tagbridge_announces_total",
			Help: "The total number of data announcements sent to tags",
		}),
		Cancels: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "tagbridge_cancels_total",
			Help: "The total number of block transfers cancelled",
		}),
		BlocksServed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "tagbridge_blocks_served_total",
			Help: "The total number of block frames written",
		}),
		BytesServed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "tagbridge_payload_bytes_served_total",
			Help: "The total amount of payload bytes written in block frames",
		}),
		Completions: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "tagbridge_transfers_completed_total",
			Help: "The total number of transfers reported complete by tags",
		}),
		Sessions: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "tagbridge_sessions",
			Help: "The number of tags with an announced payload",
		}),
		BlockDurations: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "tagbridge_block_duration_seconds",
			Help:    "Time spent writing one block frame including the settle delay",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		TagBattery: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "tagbridge_tag_battery_millivolts",
			Help: "Battery voltage last reported by a tag",
		}, []string{"mac"}),
		TagRSSI: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "tagbridge_tag_rssi",
			Help: "Signal strength of a tag's last check-in",
		}, []string{"mac"}),
	}
}

// GetRegistry returns the registry metrics are exported from.
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// Command counts one received command token.
func (c *Collector) Command(name string) {
	if c == nil {
		return
	}
	c.Commands.WithLabelValues(name).Inc()
}

// FramingError counts one short record.
func (c *Collector) FramingError(record string) {
	if c == nil {
		return
	}
	c.FramingErrors.WithLabelValues(record).Inc()
}

// Announce counts one announcement.
func (c *Collector) Announce() {
	if c == nil {
		return
	}
	c.Announces.Inc()
}

// Cancel counts one cancellation.
func (c *Collector) Cancel() {
	if c == nil {
		return
	}
	c.Cancels.Inc()
}

// Block records one served block.
func (c *Collector) Block(payloadLen int, seconds float64) {
	if c == nil {
		return
	}
	c.BlocksServed.Inc()
	c.BytesServed.Add(float64(payloadLen))
	c.BlockDurations.Observe(seconds)
}

// Complete counts one completed transfer.
func (c *Collector) Complete() {
	if c == nil {
		return
	}
	c.Completions.Inc()
}

// SetSessions sets the open session gauge.
func (c *Collector) SetSessions(n int) {
	if c == nil {
		return
	}
	c.Sessions.Set(float64(n))
}

// CheckIn records the telemetry of a tag check-in.
func (c *Collector) CheckIn(mac string, batteryMV uint16, rssi int8) {
	if c == nil {
		return
	}
	c.TagBattery.WithLabelValues(mac).Set(float64(batteryMV))
	c.TagRSSI.WithLabelValues(mac).Set(float64(rssi))
}
