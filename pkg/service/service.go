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

// Package service wires the station, providers, storage and network
// surfaces into a running process.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/tagbridge/tagbridge/pkg/api"
	"github.com/tagbridge/tagbridge/pkg/config"
	"github.com/tagbridge/tagbridge/pkg/database/tagdb"
	"github.com/tagbridge/tagbridge/pkg/helpers"
	"github.com/tagbridge/tagbridge/pkg/metrics"
	"github.com/tagbridge/tagbridge/pkg/provider"
	"github.com/tagbridge/tagbridge/pkg/serialport"
	"github.com/tagbridge/tagbridge/pkg/service/broker"
	"github.com/tagbridge/tagbridge/pkg/service/discovery"
	"github.com/tagbridge/tagbridge/pkg/service/publishers"
	"github.com/tagbridge/tagbridge/pkg/service/recorder"
	"github.com/tagbridge/tagbridge/pkg/station"
	"golang.org/x/sync/errgroup"
)

const eventBuffer = 64

// ErrNoPort is returned when no serial device is configured or detected.
var ErrNoPort = errors.New("no access point serial port found")

// Options configures a run. Cfg is required.
type Options struct {
	Cfg     *config.Instance
	Factory serialport.Factory
	Fs      afero.Fs
	Clock   clockwork.Clock
	// PortPath overrides the configured serial device.
	PortPath string
	Dirs     helpers.Dirs
}

func (o Options) withDefaults() Options {
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Dirs == (helpers.Dirs{}) {
		o.Dirs = helpers.DefaultDirs()
	}
	return o
}

// resolvePort returns the flag override, the configured port or the first
// detected candidate, in that order.
func (o Options) resolvePort() (string, error) {
	if o.PortPath != "" {
		return o.PortPath, nil
	}
	if p := o.Cfg.StationPort(); p != "" {
		return p, nil
	}
	path, err := serialport.AutoDetect()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoPort, err)
	}
	log.Info().Str("path", path).Msg("auto-detected access point")
	return path, nil
}

func openPort(o Options) (serialport.Port, string, error) {
	path, err := o.resolvePort()
	if err != nil {
		return nil, "", err
	}
	port, err := serialport.Open(path, serialport.Options{
		Factory:     o.Factory,
		BaudRate:    o.Cfg.BaudRate(),
		ReadTimeout: o.Cfg.ReadTimeout(),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to open access point: %w", err)
	}
	return port, path, nil
}

func closePort(port serialport.Port) {
	if err := port.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing serial port")
	}
}

func stationOptions(o Options, collector *metrics.Collector, events chan<- station.Event) []station.Option {
	lut, nextCheckIn, attempts := o.Cfg.Announce()
	opts := []station.Option{
		station.WithClock(o.Clock),
		station.WithSettleDelay(o.Cfg.SettleDelay()),
		station.WithRecordTimeout(o.Cfg.RecordTimeout()),
		station.WithAnnounceDefaults(lut, nextCheckIn, attempts),
		station.WithMetrics(collector),
	}
	if events != nil {
		opts = append(opts, station.WithEvents(events))
	}
	return opts
}

// Serve runs the station with every configured surface until ctx is done
// or one of them fails.
func Serve(ctx context.Context, opts Options) error {
	opts = opts.withDefaults()
	cfg := opts.Cfg
	log.Info().Msgf("version: %s", config.AppVersion)

	if err := opts.Dirs.Ensure(); err != nil {
		return fmt.Errorf("error setting up directories: %w", err)
	}

	log.Info().Msg("opening tag database")
	db, err := tagdb.Open(ctx, opts.Dirs.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open tag database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing tag database")
		}
	}()

	assignments := provider.NewAssignments(db)
	if err := assignments.Reload(); err != nil {
		return fmt.Errorf("failed to load assignments: %w", err)
	}
	chain := provider.Chain{assignments}

	var images *provider.Directory
	if dir := cfg.ImagesDir(); dir != "" {
		images = provider.NewDirectory(opts.Fs, dir, cfg.DefaultImageType())
		if err := images.Load(); err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("error loading image directory")
		}
		chain = append(chain, images)
	}

	port, path, err := openPort(opts)
	if err != nil {
		return err
	}
	defer closePort(port)

	var collector *metrics.Collector
	if cfg.MetricsEnabled() {
		collector = metrics.New()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rec := recorder.New(db, chain, opts.Clock)
	events := make(chan station.Event, eventBuffer)
	disp := station.New(port, chain, rec, stationOptions(opts, collector, events)...)

	eventBroker := broker.NewBroker(ctx, events)
	eventBroker.Start()
	defer eventBroker.Stop()

	recorderEvents, _ := eventBroker.Subscribe(eventBuffer)
	apiEvents, _ := eventBroker.Subscribe(eventBuffer)

	if addr := cfg.MQTTBroker(); addr != "" {
		mqttEvents, _ := eventBroker.Subscribe(eventBuffer)
		pub := publishers.NewMQTTPublisher(addr, cfg.MQTTTopic(), nil)
		if err := pub.Start(mqttEvents); err != nil {
			log.Error().Err(err).Str("broker", addr).Msg("error starting mqtt publisher")
		} else {
			defer pub.Stop()
		}
	}

	mdnsEvents, _ := eventBroker.Subscribe(eventBuffer)
	mdns := discovery.New(cfg, path)
	if err := mdns.Start(); err != nil {
		log.Warn().Err(err).Msg("error starting mDNS discovery")
	}
	defer mdns.Stop()

	srv := api.NewServer(api.Options{
		Cfg:       cfg,
		DB:        db,
		Reloader:  assignments,
		Metrics:   collector,
		Fs:        opts.Fs,
		Clock:     opts.Clock,
		Sessions:  disp.Sessions,
		UploadDir: opts.Dirs.Uploads(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		defer close(events)
		return disp.Run(gctx)
	})
	g.Go(func() error {
		rec.Run(recorderEvents)
		return nil
	})
	g.Go(func() error {
		return srv.ListenAndServe(gctx, apiEvents)
	})
	g.Go(func() error {
		mdns.Run(mdnsEvents)
		return nil
	})
	if images != nil && cfg.WatchImages() {
		g.Go(func() error {
			return images.Watch(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("service stopped: %w", err)
	}
	log.Info().Msg("service stopped")
	return nil
}

// RunTargeted serves the provider built by newTargeted until every listed
// tag has completed its transfer or ctx is done. The provider receives the
// stop func and also acts as the completion sink.
func RunTargeted(
	ctx context.Context,
	opts Options,
	newTargeted func(stop func()) *provider.Targeted,
) error {
	opts = opts.withDefaults()

	port, _, err := openPort(opts)
	if err != nil {
		return err
	}
	defer closePort(port)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	target := newTargeted(cancel)
	disp := station.New(port, target, target, stationOptions(opts, nil, nil)...)
	if err := disp.Run(ctx); err != nil {
		return fmt.Errorf("station stopped: %w", err)
	}
	if n := target.Remaining(); n > 0 {
		log.Warn().Int("remaining", n).Msg("stopped before every tag completed")
	}
	return nil
}
