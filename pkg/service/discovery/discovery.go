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

// Package discovery advertises the API over mDNS. The TXT record follows the
// station: the serial port in use, how many tags have checked in and
// whether the dispatcher is still running.
package discovery

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog/log"
	"github.com/tagbridge/tagbridge/pkg/config"
	"github.com/tagbridge/tagbridge/pkg/helpers/syncutil"
	"github.com/tagbridge/tagbridge/pkg/protocol"
	"github.com/tagbridge/tagbridge/pkg/station"
)

// ServiceType is the DNS-SD service type of the Tagbridge API.
const ServiceType = "_tagbridge._tcp"

const (
	stateRunning = "running"
	stateStopped = "stopped"
)

// ErrNoAPIPort is returned by Start when the API listen address has no
// fixed port to advertise.
var ErrNoAPIPort = errors.New("no API port to advertise")

// server is the part of *zeroconf.Server the service drives.
type server interface {
	SetText(text []string)
	Shutdown()
}

type registerFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (server, error)

func zeroconfRegister(
	instance, service, domain string,
	port int,
	text []string,
	ifaces []net.Interface,
) (server, error) {
	srv, err := zeroconf.Register(instance, service, domain, port, text, ifaces)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by Start
	}
	return srv, nil
}

type Service struct {
	register     registerFunc
	server       server
	cfg          *config.Instance
	tags         map[protocol.MacAddress]struct{}
	stationPort  string
	instanceName string
	state        string
	mu           syncutil.Mutex
}

// New creates a discovery service. stationPort is the serial device in use.
func New(cfg *config.Instance, stationPort string) *Service {
	return &Service{
		register:    zeroconfRegister,
		cfg:         cfg,
		stationPort: stationPort,
		tags:        make(map[protocol.MacAddress]struct{}),
		state:       stateRunning,
	}
}

// Start registers the service on every multicast interface. It does nothing
// when discovery is disabled.
func (s *Service) Start() error {
	if !s.cfg.DiscoveryEnabled() {
		log.Info().Msg("mDNS discovery disabled by configuration")
		return nil
	}
	port := s.cfg.APIPort()
	if port == 0 {
		return fmt.Errorf("%w: %s", ErrNoAPIPort, s.cfg.APIListen())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.instanceName = s.resolveInstanceName()
	srv, err := s.register(s.instanceName, ServiceType, "local.", port, s.txtLocked(), nil)
	if err != nil {
		return fmt.Errorf("registering mDNS service: %w", err)
	}
	s.server = srv

	log.Info().
		Str("instance", s.instanceName).
		Int("port", port).
		Str("station", s.stationPort).
		Msg("mDNS service advertising started")
	return nil
}

// Run republishes the TXT record whenever a new tag checks in, until events
// is closed. The station is then advertised as stopped.
func (s *Service) Run(events <-chan station.Event) {
	for ev := range events {
		if ev.Kind != station.EventCheckIn {
			continue
		}
		s.mu.Lock()
		if _, seen := s.tags[ev.MAC]; !seen {
			s.tags[ev.MAC] = struct{}{}
			s.publishLocked()
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.state = stateStopped
	s.publishLocked()
	s.mu.Unlock()
}

// Stop withdraws the advertisement. It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		log.Debug().Msg("stopping mDNS service advertising")
		s.server.Shutdown()
		s.server = nil
	}
}

// InstanceName returns the advertised instance name, empty before Start.
func (s *Service) InstanceName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instanceName
}

func (s *Service) publishLocked() {
	if s.server == nil {
		return
	}
	txt := s.txtLocked()
	s.server.SetText(txt)
	log.Debug().Strs("txt", txt).Msg("mDNS record updated")
}

func (s *Service) txtLocked() []string {
	records := []string{
		"version=" + config.AppVersion,
		"api=/api",
		"state=" + s.state,
		"tags=" + strconv.Itoa(len(s.tags)),
	}
	if s.stationPort != "" {
		records = append(records, "station="+s.stationPort)
	}
	return records
}

// resolveInstanceName prefers the configured name, then the host name.
func (s *Service) resolveInstanceName() string {
	if name := s.cfg.DiscoveryInstanceName(); name != "" {
		return name
	}
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		log.Warn().Err(err).Msg("failed to get hostname, using fallback")
		return "tagbridge"
	}
	return "tagbridge-" + hostname
}
