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
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/tagbridge/tagbridge/pkg/blocks"
	"github.com/tagbridge/tagbridge/pkg/helpers/syncutil"
	"github.com/tagbridge/tagbridge/pkg/metrics"
	"github.com/tagbridge/tagbridge/pkg/protocol"
)

// Port is the serial link to the access point. Reads should return after a
// bounded timeout, with zero bytes if nothing arrived.
type Port interface {
	io.Reader
	io.Writer
}

type session struct {
	payload Payload
	version protocol.DataVersion
}

// Dispatcher owns one access point link and answers its commands.
type Dispatcher struct {
	port     Port
	provider DataProvider
	sink     CompletionSink
	clock    clockwork.Clock
	metrics  *metrics.Collector
	events   chan<- Event
	blocks   *blocks.Server
	sessions map[protocol.MacAddress]session
	handlers map[protocol.Token]func() error
	opts     options
	mu       syncutil.RWMutex
	state    State
	stopped  bool
}

// New returns a Dispatcher reading commands from port.
func New(port Port, provider DataProvider, sink CompletionSink, opts ...Option) *Dispatcher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if sink == nil {
		sink = NopSink
	}

	srv := blocks.NewServer(port).WithClock(o.clock)
	srv.SettleDelay = o.settleDelay

	d := &Dispatcher{
		port:     port,
		provider: provider,
		sink:     sink,
		clock:    o.clock,
		metrics:  o.metrics,
		events:   o.events,
		blocks:   srv,
		sessions: make(map[protocol.MacAddress]session),
		opts:     o,
		state:    StateIdle,
	}
	d.handlers = map[protocol.Token]func() error{
		protocol.TokenCheckIn:          d.handleCheckIn,
		protocol.TokenBlockRequest:     d.handleBlockRequest,
		protocol.TokenTransferComplete: d.handleTransferComplete,
		protocol.TokenAck:              d.handleAck,
	}
	return d
}

// Stop asks Run to return. It is observed between commands; a block
// transfer in progress is finished first.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
}

// State returns the dispatcher's current state.
func (d *Dispatcher) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Sessions returns how many tags currently have an announced payload.
func (d *Dispatcher) Sessions() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

func (d *Dispatcher) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

func (d *Dispatcher) shouldStop(ctx context.Context) bool {
	d.mu.RLock()
	stopped := d.stopped
	d.mu.RUnlock()
	return stopped || ctx.Err() != nil
}

// Run reads and handles commands until Stop is called or ctx is done, in
// which case it returns nil. Port read and write errors end the loop and
// are returned.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.setState(StateAwaitingCommand)
	defer d.setState(StateStopped)

	log.Info().Msg("station dispatcher started")
	defer log.Info().Msg("station dispatcher stopped")

	var window tokenWindow
	buf := make([]byte, 1)
	for {
		if d.shouldStop(ctx) {
			return nil
		}

		n, err := d.port.Read(buf)
		if err != nil {
			return fmt.Errorf("reading from access point: %w", err)
		}
		if n == 0 {
			continue
		}

		tok, ok := window.push(buf[0])
		if !ok {
			continue
		}
		window.reset()

		if err := d.dispatch(tok); err != nil {
			return err
		}
	}
}

func (d *Dispatcher) dispatch(tok protocol.Token) error {
	handler, ok := d.handlers[tok]
	if !ok {
		return nil
	}
	d.setState(stateFor(tok))
	defer d.setState(StateAwaitingCommand)

	d.metrics.Command(string(tok))
	return handler()
}

func stateFor(tok protocol.Token) State {
	switch tok {
	case protocol.TokenCheckIn:
		return StateCheckIn
	case protocol.TokenBlockRequest:
		return StateBlockRequest
	case protocol.TokenTransferComplete:
		return StateTransferComplete
	case protocol.TokenAck:
		return StateAcknowledge
	default:
		return StateAwaitingCommand
	}
}

// readRecord reads exactly size bytes unless the record timeout passes
// first, in which case the short buffer is returned without error.
func (d *Dispatcher) readRecord(size int) ([]byte, error) {
	buf := make([]byte, size)
	got := 0
	deadline := d.clock.Now().Add(d.opts.recordTimeout)
	for got < size {
		n, err := d.port.Read(buf[got:])
		got += n
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}
		if n == 0 && !d.clock.Now().Before(deadline) {
			break
		}
	}
	return buf[:got], nil
}

func (d *Dispatcher) write(b []byte) error {
	if _, err := d.port.Write(b); err != nil {
		return fmt.Errorf("writing to access point: %w", err)
	}
	return nil
}

// framingError logs and counts a short record. The loop carries on scanning
// for the next token.
func (d *Dispatcher) framingError(err error) {
	var fe *protocol.FramingError
	if errors.As(err, &fe) {
		d.metrics.FramingError(fe.Record)
	}
	log.Warn().Err(err).Msg("discarding short record")
}

func (d *Dispatcher) emit(ev Event) {
	if d.events == nil {
		return
	}
	ev.Time = d.clock.Now()
	select {
	case d.events <- ev:
	default:
		log.Debug().Str("kind", string(ev.Kind)).Msg("event channel full, dropping event")
	}
}

func (d *Dispatcher) session(mac protocol.MacAddress) (session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[mac]
	return s, ok
}

func (d *Dispatcher) openSession(mac protocol.MacAddress, p Payload) session {
	s := session{payload: p, version: protocol.DataVersionOf(p.Data)}
	d.mu.Lock()
	d.sessions[mac] = s
	n := len(d.sessions)
	d.mu.Unlock()
	d.metrics.SetSessions(n)
	return s
}

func (d *Dispatcher) closeSession(mac protocol.MacAddress) {
	d.mu.Lock()
	delete(d.sessions, mac)
	n := len(d.sessions)
	d.mu.Unlock()
	d.metrics.SetSessions(n)
}

// resolve asks the provider for mac's payload. Empty payloads count as
// nothing to send.
func (d *Dispatcher) resolve(mac protocol.MacAddress) (Payload, bool) {
	if d.provider == nil {
		return Payload{}, false
	}
	p, ok := d.provider.Resolve(mac)
	if !ok || len(p.Data) == 0 {
		return Payload{}, false
	}
	if err := blocks.CheckSize(len(p.Data)); err != nil {
		log.Error().Err(err).Str("mac", mac.String()).Str("type", p.Type.String()).
			Msg("payload cannot be downloaded, ignoring")
		return Payload{}, false
	}
	return p, true
}
