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

package blocks

import (
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/tagbridge/tagbridge/pkg/protocol"
)

// DefaultSettleDelay is the pause between the block-data token and the
// frame. The access point switches its UART into bulk receive after seeing
// the token and drops bytes that arrive before that switch completes.
const DefaultSettleDelay = 50 * time.Millisecond

// Server writes block frames and cancellations to the access point.
type Server struct {
	w           io.Writer
	clock       clockwork.Clock
	SettleDelay time.Duration
}

// NewServer returns a Server writing to w using the real clock and the
// default settle delay.
func NewServer(w io.Writer) *Server {
	return &Server{
		w:           w,
		clock:       clockwork.NewRealClock(),
		SettleDelay: DefaultSettleDelay,
	}
}

// WithClock replaces the clock used for the settle delay.
func (s *Server) WithClock(c clockwork.Clock) *Server {
	s.clock = c
	return s
}

func (s *Server) write(what string, b []byte) error {
	if _, err := s.w.Write(b); err != nil {
		return fmt.Errorf("writing %s: %w", what, err)
	}
	return nil
}

// Serve transmits block id of data: token, settle delay, header, payload
// and padding. Serving the same id twice writes identical bytes.
func (s *Server) Serve(data []byte, id int) error {
	f, err := NewFrame(data, id)
	if err != nil {
		return err
	}

	if err := s.write("block token", protocol.TokenBlockData.Bytes()); err != nil {
		return err
	}
	if s.SettleDelay > 0 {
		s.clock.Sleep(s.SettleDelay)
	}
	if err := s.write("block header", f.Header); err != nil {
		return err
	}
	if err := s.write("block payload", f.Payload); err != nil {
		return err
	}
	if len(f.Padding) > 0 {
		if err := s.write("block padding", f.Padding); err != nil {
			return err
		}
	}

	log.Debug().
		Int("block", id).
		Int("length", len(f.Payload)).
		Msg("served block")
	return nil
}

// Cancel tells the access point there is no data for mac.
func (s *Server) Cancel(mac protocol.MacAddress) error {
	return Cancel(s.w, mac)
}

// Cancel writes the cancel token followed by a sealed, otherwise empty,
// AvailDataInfo for mac.
func Cancel(w io.Writer, mac protocol.MacAddress) error {
	info := protocol.NewCancelInfo(mac)
	msg := append(protocol.TokenCancel.Bytes(), info.Encode()...)
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("writing cancel: %w", err)
	}
	return nil
}
