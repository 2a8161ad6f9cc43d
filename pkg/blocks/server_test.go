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
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tagbridge/tagbridge/pkg/protocol"
)

type recordingWriter struct {
	writes [][]byte
	mu     sync.Mutex
}

func (r *recordingWriter) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (r *recordingWriter) snapshot() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.writes...)
}

func TestServerWaitsSettleDelay(t *testing.T) {
	t.Parallel()

	w := &recordingWriter{}
	fc := clockwork.NewFakeClock()
	s := NewServer(w).WithClock(fc)

	data := payload(5000)
	done := make(chan error, 1)
	go func() { done <- s.Serve(data, 1) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	writes := w.snapshot()
	require.Len(t, writes, 1, "only the token is written before the delay")
	assert.Equal(t, []byte(">D>"), writes[0])

	fc.Advance(DefaultSettleDelay)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("serve did not finish after the settle delay")
	}

	writes = w.snapshot()
	require.Len(t, writes, 4)
	frame := bytes.Join(writes[1:], nil)
	assert.Len(t, frame, FrameSize)

	want, err := BuildFrame(data, 1)
	require.NoError(t, err)
	assert.Equal(t, want, frame)
}

func TestServerFullBlockHasNoPaddingWrite(t *testing.T) {
	t.Parallel()

	w := &recordingWriter{}
	s := NewServer(w)
	s.SettleDelay = 0

	require.NoError(t, s.Serve(payload(4096), 0))
	writes := w.snapshot()
	require.Len(t, writes, 3)
	assert.Len(t, writes[2], BlockSize)
}

func TestServerOutOfRange(t *testing.T) {
	t.Parallel()

	w := &recordingWriter{}
	s := NewServer(w)
	s.SettleDelay = 0

	err := s.Serve(payload(10), 3)
	require.ErrorIs(t, err, ErrBlockOutOfRange)
	assert.Empty(t, w.snapshot(), "nothing is written for a bad block id")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("port gone") }

func TestServerWriteError(t *testing.T) {
	t.Parallel()

	s := NewServer(failingWriter{})
	s.SettleDelay = 0
	require.Error(t, s.Serve(payload(10), 0))
	require.Error(t, s.Cancel(protocol.MacAddress{}))
}

func TestCancel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mac := protocol.MustParseMacAddress("00:00:02:1B:1A:D0:3B:17")
	require.NoError(t, Cancel(&buf, mac))

	out := buf.Bytes()
	require.Len(t, out, 4+protocol.AvailDataInfoSize)
	assert.Equal(t, []byte("CXD>"), out[:4])

	info, err := protocol.DecodeAvailDataInfo(out[4:])
	require.NoError(t, err)
	assert.Equal(t, mac, info.TargetMAC)
	assert.Equal(t, uint8(0x59), info.Checksum)
	assert.Zero(t, info.DataSize)
}
