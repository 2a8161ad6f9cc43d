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
	"net"
	"strconv"

	"github.com/tagbridge/tagbridge/pkg/protocol"
)

const (
	DefaultAPIListen     = ":8089"
	DefaultUploadLimitMB = 8
)

type Images struct {
	Dir         string `toml:"dir"`
	DefaultType string `toml:"default_type" validate:"imagetype"`
	Watch       bool   `toml:"watch"`
}

type API struct {
	Listen         string   `toml:"listen" validate:"required,hostname_port"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
	UploadLimitMB  int      `toml:"upload_limit_mb" validate:"gte=1,lte=64"`
}

type MQTT struct {
	Broker string `toml:"broker" validate:"omitempty,url"`
	Topic  string `toml:"topic"`
}

type Discovery struct {
	InstanceName string `toml:"instance_name,omitempty"`
	Enabled      bool   `toml:"enabled"`
}

type Metrics struct {
	Enabled bool `toml:"enabled"`
}

func (c *Instance) ImagesDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Images.Dir
}

func (c *Instance) WatchImages() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Images.Watch
}

// DefaultImageType returns the data type used for images without an
// explicit one.
func (c *Instance) DefaultImageType() protocol.DataType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dt, err := protocol.ParseDataType(c.vals.Images.DefaultType)
	if err != nil || !dt.IsImage() {
		return protocol.DataTypeBlackRed
	}
	return dt
}

func (c *Instance) APIListen() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.API.Listen == "" {
		return DefaultAPIListen
	}
	return c.vals.API.Listen
}

// APIPort returns the TCP port of the API listen address, or 0 when it
// cannot be parsed.
func (c *Instance) APIPort() int {
	_, port, err := net.SplitHostPort(c.APIListen())
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return 0
	}
	return n
}

func (c *Instance) SetAPIListen(listen string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.API.Listen = listen
}

func (c *Instance) AllowedOrigins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.API.AllowedOrigins
}

// UploadLimit returns the maximum upload size in bytes.
func (c *Instance) UploadLimit() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	mb := c.vals.API.UploadLimitMB
	if mb <= 0 {
		mb = DefaultUploadLimitMB
	}
	return int64(mb) << 20
}

func (c *Instance) MQTTBroker() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.MQTT.Broker
}

func (c *Instance) MQTTTopic() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.MQTT.Topic == "" {
		return "tagbridge"
	}
	return c.vals.MQTT.Topic
}

func (c *Instance) DiscoveryEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Discovery.Enabled
}

func (c *Instance) DiscoveryInstanceName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Discovery.InstanceName
}

func (c *Instance) MetricsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Metrics.Enabled
}
