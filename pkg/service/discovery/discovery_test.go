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

package discovery

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tagbridge/tagbridge/pkg/config"
	"github.com/tagbridge/tagbridge/pkg/protocol"
	"github.com/tagbridge/tagbridge/pkg/station"
)

var (
	macA = protocol.MustParseMacAddress("00:00:02:1B:1A:D0:3B:17")
	macB = protocol.MustParseMacAddress("00:00:02:1B:1A:D0:3B:18")
)

type fakeServer struct {
	texts     [][]string
	shutdowns int
}

func (f *fakeServer) SetText(text []string) {
	f.texts = append(f.texts, text)
}

func (f *fakeServer) Shutdown() {
	f.shutdowns++
}

type registration struct {
	instance string
	service  string
	text     []string
	port     int
}

func newTestService(t *testing.T, listen string, enabled bool) (*Service, *fakeServer, *registration) {
	t.Helper()

	defaults := config.BaseDefaults
	defaults.Discovery.Enabled = enabled
	defaults.Discovery.InstanceName = "front desk"
	cfg, err := config.NewConfig(t.TempDir(), defaults)
	require.NoError(t, err)
	cfg.SetAPIListen(listen)

	fake := &fakeServer{}
	reg := &registration{}
	svc := New(cfg, "/dev/ttyACM0")
	svc.register = func(instance, service, _ string, port int, text []string, _ []net.Interface) (server, error) {
		*reg = registration{instance: instance, service: service, port: port, text: text}
		return fake, nil
	}
	return svc, fake, reg
}

func TestServiceType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "_tagbridge._tcp", ServiceType)
}

func TestStartRegistersStation(t *testing.T) {
	t.Parallel()

	svc, _, reg := newTestService(t, "0.0.0.0:7497", true)
	require.NoError(t, svc.Start())

	assert.Equal(t, "front desk", svc.InstanceName())
	assert.Equal(t, "front desk", reg.instance)
	assert.Equal(t, ServiceType, reg.service)
	assert.Equal(t, 7497, reg.port)
	assert.Equal(t, []string{
		"version=" + config.AppVersion,
		"api=/api",
		"state=running",
		"tags=0",
		"station=/dev/ttyACM0",
	}, reg.text)
}

func TestStartDisabled(t *testing.T) {
	t.Parallel()

	svc, _, reg := newTestService(t, "0.0.0.0:7497", false)
	require.NoError(t, svc.Start())
	assert.Empty(t, svc.InstanceName())
	assert.Zero(t, reg.port)
	svc.Stop()
}

func TestStartWithoutFixedPort(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, "localhost", true)
	require.ErrorIs(t, svc.Start(), ErrNoAPIPort)
}

func TestStartRegisterError(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, "0.0.0.0:7497", true)
	svc.register = func(string, string, string, int, []string, []net.Interface) (server, error) {
		return nil, assert.AnError
	}
	require.ErrorIs(t, svc.Start(), assert.AnError)
	svc.Stop()
}

func TestRunFollowsStation(t *testing.T) {
	t.Parallel()

	svc, fake, _ := newTestService(t, "0.0.0.0:7497", true)
	require.NoError(t, svc.Start())

	events := make(chan station.Event, 8)
	events <- station.Event{Kind: station.EventCheckIn, MAC: macA}
	events <- station.Event{Kind: station.EventBlock, MAC: macA}
	events <- station.Event{Kind: station.EventCheckIn, MAC: macA}
	events <- station.Event{Kind: station.EventCheckIn, MAC: macB}
	close(events)
	svc.Run(events)

	require.Len(t, fake.texts, 3)
	assert.Contains(t, fake.texts[0], "tags=1")
	assert.Contains(t, fake.texts[1], "tags=2")
	assert.Contains(t, fake.texts[1], "state=running")
	assert.Contains(t, fake.texts[2], "state=stopped")
	assert.Contains(t, fake.texts[2], "station=/dev/ttyACM0")

	svc.Stop()
	svc.Stop()
	assert.Equal(t, 1, fake.shutdowns)
}

func TestRunWithoutRegistration(t *testing.T) {
	t.Parallel()

	svc, fake, _ := newTestService(t, "0.0.0.0:7497", false)
	require.NoError(t, svc.Start())

	events := make(chan station.Event, 1)
	events <- station.Event{Kind: station.EventCheckIn, MAC: macA}
	close(events)
	svc.Run(events)

	assert.Empty(t, fake.texts)
}
