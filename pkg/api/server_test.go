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

package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tagbridge/tagbridge/pkg/config"
	"github.com/tagbridge/tagbridge/pkg/metrics"
	"github.com/tagbridge/tagbridge/pkg/protocol"
	"github.com/tagbridge/tagbridge/pkg/station"
	testhelpers "github.com/tagbridge/tagbridge/pkg/testing/helpers"
)

func TestEventStreamBroadcasts(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testhelpers.NewMockTagDBI(), nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan station.Event, 1)
	go s.Broadcast(ctx, events)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	_ = resp.Body.Close()

	require.Eventually(t, func() bool { return s.melody.Len() == 1 },
		time.Second, 10*time.Millisecond)

	mac := protocol.MustParseMacAddress(testMAC)
	events <- station.Event{Kind: station.EventComplete, MAC: mac, Version: "0102030405060708"}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got station.Event
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, station.EventComplete, got.Kind)
	assert.Equal(t, mac, got.MAC)
	assert.Equal(t, "0102030405060708", got.Version)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	collector := metrics.New()
	collector.Complete()

	s := NewServer(Options{
		Cfg:     newTestConfig(t, nil),
		DB:      testhelpers.NewMockTagDBI(),
		Metrics: collector,
	})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tagbridge_")
}

func TestMetricsEndpointDisabled(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, func(v *config.Values) { v.Metrics.Enabled = false })
	s := NewServer(Options{
		Cfg:     cfg,
		DB:      testhelpers.NewMockTagDBI(),
		Metrics: metrics.New(),
	})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitedAfterBurst(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testhelpers.NewMockTagDBI(), nil)
	limited := false
	for range 50 {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
			break
		}
	}
	assert.True(t, limited, "expected a 429 after the burst was spent")
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testhelpers.NewMockTagDBI(), nil)
	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln, nil) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		req, reqErr := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
		if reqErr != nil {
			return false
		}
		resp, getErr := http.DefaultClient.Do(req)
		if getErr != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
