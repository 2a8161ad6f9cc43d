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

package mocks

import (
	"errors"
	"time"

	"github.com/tagbridge/tagbridge/pkg/helpers/syncutil"
)

// ErrPortClosed is returned by ScriptedPort after Close.
var ErrPortClosed = errors.New("port closed")

// ScriptedPort is a record/replay serial port. Bytes queued with Feed are
// returned by Read; everything written is recorded. When the queue is empty
// Read waits IdleDelay and returns zero bytes, like a real port hitting its
// read timeout.
type ScriptedPort struct {
	ReadError  error
	WriteError error

	// OnDrained runs once, the first time Read finds the queue empty after
	// data was fed.
	OnDrained func()

	// OnWrite runs after every successful write with the written bytes. It
	// may call Feed to script replies.
	OnWrite func(p []byte)

	// IdleDelay is how long an empty Read waits before returning.
	IdleDelay time.Duration

	// MaxChunk limits how many bytes one Read returns, 0 means no limit.
	MaxChunk int

	input    []byte
	writes   [][]byte
	timeouts []time.Duration
	flushed  int
	mu       syncutil.Mutex
	fed      bool
	drained  bool
	closed   bool
}

// NewScriptedPort returns a port that already holds the given input.
func NewScriptedPort(input ...[]byte) *ScriptedPort {
	p := &ScriptedPort{IdleDelay: time.Millisecond}
	for _, b := range input {
		p.Feed(b)
	}
	return p
}

// Feed queues bytes for Read.
func (p *ScriptedPort) Feed(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.input = append(p.input, b...)
	p.fed = true
	p.drained = false
}

// Read implements io.Reader.
func (p *ScriptedPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrPortClosed
	}
	if p.ReadError != nil {
		err := p.ReadError
		p.mu.Unlock()
		return 0, err
	}

	if len(p.input) == 0 {
		var hook func()
		if p.fed && !p.drained {
			p.drained = true
			hook = p.OnDrained
		}
		delay := p.IdleDelay
		p.mu.Unlock()

		if hook != nil {
			hook()
		}
		time.Sleep(delay)
		return 0, nil
	}

	limit := len(b)
	if p.MaxChunk > 0 && p.MaxChunk < limit {
		limit = p.MaxChunk
	}
	n := copy(b[:limit], p.input)
	p.input = p.input[n:]
	p.mu.Unlock()
	return n, nil
}

// Write implements io.Writer.
func (p *ScriptedPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrPortClosed
	}
	if p.WriteError != nil {
		err := p.WriteError
		p.mu.Unlock()
		return 0, err
	}
	cp := append([]byte(nil), b...)
	p.writes = append(p.writes, cp)
	hook := p.OnWrite
	p.mu.Unlock()

	if hook != nil {
		hook(cp)
	}
	return len(b), nil
}

// Close implements io.Closer.
func (p *ScriptedPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// SetReadTimeout records the timeout.
func (p *ScriptedPort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeouts = append(p.timeouts, t)
	return nil
}

// ResetInputBuffer discards queued input.
func (p *ScriptedPort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.input = nil
	p.flushed++
	return nil
}

// Writes returns every write in order.
func (p *ScriptedPort) Writes() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.writes...)
}

// Written returns all written bytes concatenated.
func (p *ScriptedPort) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []byte
	for _, w := range p.writes {
		out = append(out, w...)
	}
	return out
}

// Remaining returns how many fed bytes have not been read.
func (p *ScriptedPort) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.input)
}

// Flushes returns how many times ResetInputBuffer was called.
func (p *ScriptedPort) Flushes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushed
}

// ReadTimeouts returns every timeout passed to SetReadTimeout.
func (p *ScriptedPort) ReadTimeouts() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.timeouts...)
}

// IsClosed reports whether Close was called.
func (p *ScriptedPort) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
