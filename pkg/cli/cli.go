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

// Package cli holds the tagbridge command line: global flags, the shared
// setup of config and logging, and one command per subcommand.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tagbridge/tagbridge/internal/telemetry"
	"github.com/tagbridge/tagbridge/pkg/config"
	"github.com/tagbridge/tagbridge/pkg/helpers"
	"github.com/tagbridge/tagbridge/pkg/service"
)

type Globals struct {
	Stdout   io.Writer `kong:"-"`
	Config   string    `help:"Path to the config file" env:"TAGBRIDGE_CFG" type:"path"`
	LogLevel string    `help:"Minimum severity of log messages" default:"info" enum:"debug,info,warn,error"`
	Port     string    `help:"Access point serial device, overrides the config" short:"p"`
	Root     string    `help:"Keep config, data and logs under this directory" type:"path" hidden:""`
}

type CLI struct {
	Globals

	Serve     ServeCmd     `cmd:"" help:"Run the station with the API and event publishers" default:"1"`
	Push      PushCmd      `cmd:"" help:"Serve one image to one tag and exit once it has been received"`
	Firmware  FirmwareCmd  `cmd:"" help:"Serve a firmware update to the listed tags, or to every tag"`
	Transcode TranscodeCmd `cmd:"" help:"Write the framebuffer bytes of an image"`
	Ports     PortsCmd     `cmd:"" help:"List serial devices that could be an access point"`
	Version   VersionCmd   `cmd:"" help:"Print the version and exit"`
}

// Parse parses args into a new CLI. Options are passed to kong, tests use
// them to capture output and exits.
func Parse(args []string, options ...kong.Option) (*CLI, *kong.Context, error) {
	cli := &CLI{}
	options = append([]kong.Option{
		kong.Name(helpers.AppName),
		kong.Description("Serial bridge for e-paper tag access points"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Summary: true,
			Compact: true,
		}),
	}, options...)

	parser, err := kong.New(cli, options...)
	if err != nil {
		return nil, nil, fmt.Errorf("building parser: %w", err)
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return cli, nil, fmt.Errorf("parsing arguments: %w", err)
	}
	if cli.Stdout == nil {
		cli.Stdout = os.Stdout
	}
	return cli, ctx, nil
}

func (g *Globals) dirs() helpers.Dirs {
	if g.Root != "" {
		return helpers.RootedDirs(g.Root)
	}
	return helpers.DefaultDirs()
}

// setup loads the config, starts logging and opt-in error reporting. The
// returned func flushes error reporting.
func (g *Globals) setup() (*config.Instance, helpers.Dirs, func(), error) {
	dirs := g.dirs()
	if err := dirs.Ensure(); err != nil {
		return nil, dirs, nil, err
	}
	if g.Config != "" {
		if err := os.Setenv(config.CfgEnv, g.Config); err != nil {
			return nil, dirs, nil, fmt.Errorf("setting config path: %w", err)
		}
	}

	cfg, err := config.NewConfig(dirs.Config, config.BaseDefaults)
	if err != nil {
		return nil, dirs, nil, fmt.Errorf("error loading config: %w", err)
	}

	writers := []io.Writer{helpers.ConsoleWriter()}
	reporter, err := telemetry.Init(cfg.ErrorReporting(), os.Getenv(telemetry.DSNEnv), config.AppVersion)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error reporting not started: %v\n", err)
	} else if reporter != nil {
		writers = append(writers, reporter)
	}

	if err := helpers.InitLogging(dirs.LogDir(), cfg.DebugLogging(), writers...); err != nil {
		return nil, dirs, nil, fmt.Errorf("error initializing logging: %w", err)
	}
	if !cfg.DebugLogging() {
		zerolog.SetGlobalLevel(helpers.ParseLevel(g.LogLevel))
	}

	if g.Port != "" {
		cfg.SetStationPort(g.Port)
	}
	log.Debug().Str("config", cfg.Path()).Msg("config loaded")
	return cfg, dirs, telemetry.Close, nil
}

func (g *Globals) serviceOptions(cfg *config.Instance, dirs helpers.Dirs) service.Options {
	return service.Options{
		Cfg:      cfg,
		Dirs:     dirs,
		PortPath: g.Port,
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
