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

// Package broker fans station events out to in-process consumers without
// letting a slow consumer stall the dispatch loop.
package broker

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/tagbridge/tagbridge/pkg/helpers/syncutil"
	"github.com/tagbridge/tagbridge/pkg/station"
)

// Broker reads events from a source channel and copies each one to every
// subscriber using non-blocking sends.
type Broker struct {
	ctx         context.Context
	source      <-chan station.Event
	subscribers map[int]chan station.Event
	mu          syncutil.RWMutex
	nextID      int
	closed      bool
}

// NewBroker creates a broker that reads from source until it closes or ctx
// is done.
func NewBroker(ctx context.Context, source <-chan station.Event) *Broker {
	return &Broker{
		ctx:         ctx,
		source:      source,
		subscribers: make(map[int]chan station.Event),
		nextID:      0,
	}
}

// Start runs the broadcast loop in a goroutine.
func (b *Broker) Start() {
	go b.Run()
}

// Run broadcasts events until the source channel closes or the context is
// cancelled, then closes every subscriber channel.
func (b *Broker) Run() {
	for {
		select {
		case ev, ok := <-b.source:
			if !ok {
				log.Debug().Msg("broker: source channel closed")
				b.closeAllSubscribers()
				return
			}
			b.broadcast(ev)
		case <-b.ctx.Done():
			log.Debug().Msg("broker: context cancelled, shutting down")
			b.closeAllSubscribers()
			return
		}
	}
}

// broadcast drops the event for any subscriber whose channel is full.
func (b *Broker) broadcast(ev station.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			log.Warn().
				Int("subscriber_id", id).
				Str("kind", string(ev.Kind)).
				Str("mac", ev.MAC.String()).
				Msg("subscriber channel full, dropping event")
		}
	}
}

// Subscribe registers a consumer with a channel buffered to bufferSize.
// After the broker has shut down the returned channel is already closed.
func (b *Broker) Subscribe(bufferSize int) (events <-chan station.Event, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id = b.nextID
	b.nextID++

	ch := make(chan station.Event, bufferSize)
	if b.closed {
		close(ch)
		return ch, id
	}
	b.subscribers[id] = ch

	log.Debug().
		Int("subscriber_id", id).
		Int("buffer_size", bufferSize).
		Msg("new subscriber registered")

	return ch, id
}

// Unsubscribe removes a subscription and closes its channel. Unknown ids
// are ignored.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
		log.Debug().Int("subscriber_id", id).Msg("subscriber unsubscribed")
	}
}

// Stop closes all subscriber channels.
func (b *Broker) Stop() {
	b.closeAllSubscribers()
}

func (b *Broker) closeAllSubscribers() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		close(ch)
		log.Debug().Int("subscriber_id", id).Msg("closed subscriber channel on shutdown")
	}
	b.subscribers = make(map[int]chan station.Event)
	b.closed = true
}
