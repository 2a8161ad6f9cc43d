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

package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tagbridge/tagbridge/pkg/protocol"
	"github.com/tagbridge/tagbridge/pkg/station"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testMAC = protocol.MustParseMacAddress("00:00:02:1B:1A:D0:3B:17")

func event(kind station.EventKind) station.Event {
	return station.Event{Kind: kind, MAC: testMAC, Time: time.Unix(0, 0)}
}

func TestBroker_Subscribe(t *testing.T) {
	t.Parallel()

	source := make(chan station.Event)
	broker := NewBroker(context.Background(), source)

	ch, id := broker.Subscribe(10)
	assert.NotNil(t, ch)
	assert.Equal(t, 0, id)

	ch2, id2 := broker.Subscribe(20)
	assert.NotNil(t, ch2)
	assert.Equal(t, 1, id2)
	assert.Len(t, broker.subscribers, 2)
}

func TestBroker_Unsubscribe(t *testing.T) {
	t.Parallel()

	broker := NewBroker(context.Background(), make(chan station.Event))
	ch, id := broker.Subscribe(10)

	broker.Unsubscribe(id)
	assert.Empty(t, broker.subscribers)

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")

	broker.Unsubscribe(id)
}

func TestBroker_BroadcastToMultipleSubscribers(t *testing.T) {
	t.Parallel()

	source := make(chan station.Event, 10)
	broker := NewBroker(context.Background(), source)
	sub1, _ := broker.Subscribe(10)
	sub2, _ := broker.Subscribe(10)

	done := make(chan struct{})
	go func() {
		broker.Run()
		close(done)
	}()

	source <- event(station.EventAnnounce)
	assert.Equal(t, station.EventAnnounce, (<-sub1).Kind)
	assert.Equal(t, station.EventAnnounce, (<-sub2).Kind)

	close(source)
	<-done
}

func TestBroker_NonBlockingSendDropsWhenFull(t *testing.T) {
	t.Parallel()

	source := make(chan station.Event, 100)
	broker := NewBroker(context.Background(), source)
	sub, _ := broker.Subscribe(2)

	for range 10 {
		source <- event(station.EventBlock)
	}
	close(source)
	broker.Run()

	received := 0
	for range sub {
		received++
	}
	assert.Equal(t, 2, received, "excess events are dropped")
}

func TestBroker_ContextCancellationStopsBroker(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	broker := NewBroker(ctx, make(chan station.Event))
	sub, _ := broker.Subscribe(10)
	broker.Start()

	cancel()

	select {
	case _, ok := <-sub:
		assert.False(t, ok, "subscriber channel should be closed on context cancellation")
	case <-time.After(2 * time.Second):
		require.Fail(t, "broker did not stop")
	}
}

func TestBroker_SubscribeAfterStop(t *testing.T) {
	t.Parallel()

	broker := NewBroker(context.Background(), make(chan station.Event))
	broker.Stop()

	ch, _ := broker.Subscribe(1)
	_, ok := <-ch
	assert.False(t, ok)
}
