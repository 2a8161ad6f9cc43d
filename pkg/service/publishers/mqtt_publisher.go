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

package publishers

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tagbridge/tagbridge/pkg/station"
)

// mqttClient is the part of mqtt.Client the publisher uses.
type mqttClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

func newPahoClient(opts *mqtt.ClientOptions) mqttClient {
	return mqtt.NewClient(opts)
}

// MQTTPublisher publishes station events to an MQTT broker, one message per
// event on <topic>/<mac>/<kind>.
type MQTTPublisher struct {
	client    mqttClient
	newClient func(*mqtt.ClientOptions) mqttClient
	stopCh    chan struct{}
	doneCh    chan struct{}
	broker    string
	topic     string
	filter    []station.EventKind
}

// NewMQTTPublisher creates a publisher for broker (a URL such as
// tcp://host:1883). An empty filter publishes every event kind.
func NewMQTTPublisher(broker, topic string, filter []station.EventKind) *MQTTPublisher {
	return &MQTTPublisher{
		broker:    broker,
		topic:     topic,
		filter:    filter,
		newClient: newPahoClient,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start connects to the broker and publishes events until Stop is called or
// events is closed.
func (p *MQTTPublisher) Start(events <-chan station.Event) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.broker)
	opts.SetClientID("tagbridge-" + uuid.New().String()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	opts.OnConnect = func(_ mqtt.Client) {
		log.Info().Msgf("mqtt publisher: connected to %s", p.broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt publisher: connection lost")
	}

	p.client = p.newClient(opts)

	token := p.client.Connect()
	if token.Wait() && token.Error() != nil {
		close(p.doneCh)
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Info().Msgf("mqtt publisher: publishing to %s (topic: %s)", p.broker, p.topic)

	go p.publishEvents(events)
	return nil
}

// Stop ends publishing and disconnects from the broker.
func (p *MQTTPublisher) Stop() {
	select {
	case <-p.stopCh:
		return
	default:
		close(p.stopCh)
	}
	<-p.doneCh

	if p.client != nil && p.client.IsConnected() {
		log.Debug().Msg("mqtt publisher: disconnecting")
		p.client.Disconnect(250)
	}
}

func (p *MQTTPublisher) publishEvents(events <-chan station.Event) {
	defer close(p.doneCh)

	for {
		select {
		case <-p.stopCh:
			log.Debug().Msg("mqtt publisher: stopping event publisher")
			return
		case ev, ok := <-events:
			if !ok {
				log.Debug().Msg("mqtt publisher: event channel closed")
				return
			}
			if !p.matchesFilter(ev.Kind) {
				continue
			}
			p.publish(&ev)
		}
	}
}

// EventTopic returns the topic an event is published on.
func (p *MQTTPublisher) EventTopic(ev *station.Event) string {
	return fmt.Sprintf("%s/%s/%s", p.topic, ev.MAC.Key(), ev.Kind)
}

func (p *MQTTPublisher) publish(ev *station.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("mqtt publisher: failed to marshal event")
		return
	}

	token := p.client.Publish(p.EventTopic(ev), 0, false, payload)
	if token.Wait() && token.Error() != nil {
		log.Error().Err(token.Error()).Msg("mqtt publisher: failed to publish message")
		return
	}
	log.Debug().Str("kind", string(ev.Kind)).Str("mac", ev.MAC.String()).Msg("mqtt publisher: published event")
}

// matchesFilter reports whether kind should be published.
func (p *MQTTPublisher) matchesFilter(kind station.EventKind) bool {
	return len(p.filter) == 0 || slices.Contains(p.filter, kind)
}
