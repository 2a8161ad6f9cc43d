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

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/tagbridge/tagbridge/pkg/config"
	"github.com/tagbridge/tagbridge/pkg/helpers"
	"github.com/tagbridge/tagbridge/pkg/protocol"
	"github.com/tagbridge/tagbridge/pkg/provider"
	"github.com/tagbridge/tagbridge/pkg/serialport"
	"github.com/tagbridge/tagbridge/pkg/service"
	"github.com/tagbridge/tagbridge/pkg/station"
	"github.com/tagbridge/tagbridge/pkg/transcode"
)

type ServeCmd struct{}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, dirs, closeTelemetry, err := g.setup()
	if err != nil {
		return err
	}
	defer closeTelemetry()

	ctx, stop := signalContext()
	defer stop()

	if err := service.Serve(ctx, g.serviceOptions(cfg, dirs)); err != nil {
		log.Error().Err(err).Msg("serve failed")
		return err
	}
	return nil
}

type PushCmd struct {
	Image string `arg:"" help:"Image to send" type:"existingfile"`
	MAC   string `arg:"" name:"mac" help:"Tag address, e.g. 00:00:02:1B:1A:D0:3B:17"`
	Type  string `help:"Data type (black or black_red), defaults to the config" short:"t"`
}

func parseMACs(values []string) ([]protocol.MacAddress, error) {
	macs := make([]protocol.MacAddress, 0, len(values))
	for _, v := range values {
		mac, err := protocol.ParseMacAddress(v)
		if err != nil {
			return nil, err
		}
		macs = append(macs, mac)
	}
	return macs, nil
}

// imageType returns the parsed type, or fallback when name is empty.
func imageType(name string, fallback protocol.DataType) (protocol.DataType, error) {
	if name == "" {
		return fallback, nil
	}
	dt, err := protocol.ParseDataType(name)
	if err != nil {
		return 0, err
	}
	if !dt.IsImage() {
		return 0, fmt.Errorf("%w: %s is not an image type", protocol.ErrUnsupportedDataType, dt)
	}
	return dt, nil
}

// encodeImage loads path, checks it fits a display and encodes it.
func encodeImage(fs afero.Fs, path string, dt protocol.DataType) ([]byte, transcode.DisplaySize, error) {
	img, err := transcode.LoadImageFile(fs, path)
	if err != nil {
		return nil, transcode.DisplaySize{}, err
	}
	display, err := transcode.ValidateSize(img)
	if err != nil {
		return nil, display, fmt.Errorf("%s: %w", path, err)
	}
	data, err := transcode.Encode(img, dt)
	if err != nil {
		return nil, display, err
	}
	return data, display, nil
}

func (c *PushCmd) Run(g *Globals) error {
	macs, err := parseMACs([]string{c.MAC})
	if err != nil {
		return err
	}

	cfg, dirs, closeTelemetry, err := g.setup()
	if err != nil {
		return err
	}
	defer closeTelemetry()

	dt, err := imageType(c.Type, cfg.DefaultImageType())
	if err != nil {
		return err
	}
	data, display, err := encodeImage(afero.NewOsFs(), c.Image, dt)
	if err != nil {
		return err
	}
	log.Info().
		Str("mac", macs[0].String()).
		Str("display", display.String()).
		Str("type", dt.String()).
		Int("size", len(data)).
		Msg("waiting for tag to check in")

	ctx, stop := signalContext()
	defer stop()

	payload := station.Payload{Data: data, Type: dt}
	return service.RunTargeted(ctx, g.serviceOptions(cfg, dirs), func(done func()) *provider.Targeted {
		return provider.NewTargeted(payload, macs, done)
	})
}

type FirmwareCmd struct {
	File string   `arg:"" help:"Firmware binary" type:"existingfile"`
	MACs []string `arg:"" name:"macs" help:"Tags to update; every tag that checks in when omitted" optional:""`
}

func (c *FirmwareCmd) Run(g *Globals) error {
	macs, err := parseMACs(c.MACs)
	if err != nil {
		return err
	}
	data, err := transcode.LoadFirmwareFile(afero.NewOsFs(), c.File)
	if err != nil {
		return err
	}

	cfg, dirs, closeTelemetry, err := g.setup()
	if err != nil {
		return err
	}
	defer closeTelemetry()

	if len(macs) == 0 {
		log.Warn().Msg("no tags listed, serving firmware to every tag until interrupted")
	}
	log.Info().Int("size", len(data)).Int("tags", len(macs)).Msg("serving firmware")

	ctx, stop := signalContext()
	defer stop()

	return service.RunTargeted(ctx, g.serviceOptions(cfg, dirs), func(done func()) *provider.Targeted {
		return provider.NewFirmware(data, macs, done)
	})
}

type TranscodeCmd struct {
	Image string `arg:"" help:"Source image" type:"existingfile"`
	Out   string `arg:"" help:"Output file for the framebuffer"`
	Type  string `help:"Data type (black or black_red)" default:"black_red" short:"t"`

	fs afero.Fs `kong:"-"`
}

func (c *TranscodeCmd) Run(g *Globals) error {
	fs := c.fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	dt, err := imageType(c.Type, protocol.DataTypeBlackRed)
	if err != nil {
		return err
	}
	data, display, err := encodeImage(fs, c.Image, dt)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fs, c.Out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", c.Out, err)
	}
	_, err = fmt.Fprintf(g.Stdout, "%s: %s %s, %d bytes, version %s\n",
		c.Out, display, dt, len(data), protocol.DataVersionOf(data))
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

type PortsCmd struct {
	list func() ([]serialport.Device, error) `kong:"-"`
}

func (c *PortsCmd) Run(g *Globals) error {
	list := c.list
	if list == nil {
		list = serialport.ListDevices
	}
	devices, err := list()
	if err != nil {
		return fmt.Errorf("listing serial devices: %w", err)
	}
	if len(devices) == 0 {
		_, err := fmt.Fprintln(g.Stdout, "no candidate serial devices found")
		return err
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PATH\tVID:PID\tSERIAL\tPRODUCT")
	for _, d := range devices {
		id := ""
		if d.VID != "" {
			id = d.VID + ":" + d.PID
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Path, id, d.Serial, d.Product)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing device list: %w", err)
	}
	return nil
}

type VersionCmd struct{}

func (v *VersionCmd) Run(g *Globals) error {
	_, err := fmt.Fprintf(g.Stdout, "%s %s\n", helpers.AppName, config.AppVersion)
	return err
}
