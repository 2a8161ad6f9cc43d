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

package serialport

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the access point UART speed.
	DefaultBaudRate = 115200
	// DefaultReadTimeout bounds a single Read call. A read that times out
	// returns zero bytes and no error.
	DefaultReadTimeout = 100 * time.Millisecond
)

// Port is the subset of a serial port the station uses.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// Factory opens a serial port. Tests swap it for one returning a fake.
type Factory func(path string, mode *serial.Mode) (Port, error)

// DefaultFactory opens real serial ports with go.bug.st/serial.
func DefaultFactory(path string, mode *serial.Mode) (Port, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

// Options configures Open.
type Options struct {
	Factory     Factory
	BaudRate    int
	ReadTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Factory == nil {
		o.Factory = DefaultFactory
	}
	if o.BaudRate <= 0 {
		o.BaudRate = DefaultBaudRate
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	return o
}

// Open opens the access point at path as 8N1, applies the read timeout and
// discards anything already buffered on the input side.
func Open(path string, opts Options) (Port, error) {
	opts = opts.withDefaults()

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := opts.Factory(path, mode)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
		closePort(port)
		return nil, fmt.Errorf("setting read timeout on %s: %w", path, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		closePort(port)
		return nil, fmt.Errorf("flushing input on %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("baud", opts.BaudRate).
		Dur("read_timeout", opts.ReadTimeout).
		Msg("opened access point serial port")
	return port, nil
}

func closePort(p Port) {
	if err := p.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close serial port")
	}
}
