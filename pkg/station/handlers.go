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
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/tagbridge/tagbridge/pkg/blocks"
	"github.com/tagbridge/tagbridge/pkg/protocol"
)

// handleCheckIn answers a tag's check-in with an announcement when the
// provider has data for it. Nothing is sent otherwise.
func (d *Dispatcher) handleCheckIn() error {
	raw, err := d.readRecord(protocol.AvailableDataRequestSize)
	if err != nil {
		return err
	}
	req, err := protocol.DecodeAvailableDataRequest(raw)
	if err != nil {
		d.framingError(err)
		return nil
	}

	mac := req.SourceMAC
	log.Debug().
		Str("mac", mac.String()).
		Uint16("battery_mv", req.BatteryMV).
		Int8("rssi", req.LastPacketRSSI).
		Int8("temperature", req.Temperature).
		Uint8("wakeup_reason", req.WakeupReason).
		Msg("tag checked in")
	d.metrics.CheckIn(mac.Key(), req.BatteryMV, req.LastPacketRSSI)
	d.emit(Event{Kind: EventCheckIn, MAC: mac, CheckIn: &req})

	payload, ok := d.resolve(mac)
	if !ok {
		log.Debug().Str("mac", mac.String()).Msg("no data for tag")
		d.closeSession(mac)
		return nil
	}

	sess := d.openSession(mac, payload)
	info := protocol.AvailDataInfo{
		DataVersion:      sess.version,
		DataSize:         uint32(len(payload.Data)), //nolint:gosec // payloads are far below 4 GiB
		DataType:         payload.Type,
		DataTypeArgument: d.opts.announce.LUT,
		NextCheckIn:      d.opts.announce.NextCheckIn,
		AttemptsLeft:     d.opts.announce.AttemptsLeft,
		TargetMAC:        mac,
	}
	info.Seal()

	msg := append(protocol.TokenAnnounce.Bytes(), info.Encode()...)
	if err := d.write(msg); err != nil {
		return err
	}

	log.Info().
		Str("mac", mac.String()).
		Str("type", payload.Type.String()).
		Int("size", len(payload.Data)).
		Str("version", sess.version.String()).
		Msg("announced data to tag")
	d.metrics.Announce()
	d.emit(Event{
		Kind:     EventAnnounce,
		MAC:      mac,
		Size:     len(payload.Data),
		DataType: payload.Type,
		Version:  sess.version.String(),
	})
	return nil
}

// handleBlockRequest serves one block of the tag's payload. If the tag has
// no session the provider is asked again, which covers a restart between
// check-in and the first request. With nothing to send the transfer is
// cancelled.
func (d *Dispatcher) handleBlockRequest() error {
	raw, err := d.readRecord(protocol.BlockRequestSize)
	if err != nil {
		return err
	}
	req, err := protocol.DecodeBlockRequest(raw)
	if err != nil {
		d.framingError(err)
		return nil
	}

	mac := req.SourceMAC
	id := int(req.BlockID)

	sess, ok := d.session(mac)
	if !ok {
		if payload, found := d.resolve(mac); found {
			sess = d.openSession(mac, payload)
			ok = true
		}
	}
	if !ok {
		log.Warn().Str("mac", mac.String()).Int("block", id).Msg("block requested without data, cancelling")
		return d.cancel(mac)
	}

	if req.DataVersion != sess.version {
		log.Warn().
			Str("mac", mac.String()).
			Str("requested", req.DataVersion.String()).
			Str("serving", sess.version.String()).
			Msg("block request version differs from announced data")
	}

	start := d.clock.Now()
	err = d.blocks.Serve(sess.payload.Data, id)
	if errors.Is(err, blocks.ErrBlockOutOfRange) {
		log.Warn().Err(err).Str("mac", mac.String()).Msg("cancelling out of range block request")
		return d.cancel(mac)
	}
	if err != nil {
		return err
	}

	slice, _ := blocks.Slice(sess.payload.Data, id)
	d.metrics.Block(len(slice), d.clock.Since(start).Seconds())
	log.Debug().
		Str("mac", mac.String()).
		Int("block", id).
		Int("of", blocks.BlockCount(len(sess.payload.Data))).
		Msg("sent block")
	d.emit(Event{
		Kind:     EventBlock,
		MAC:      mac,
		BlockID:  id,
		Size:     len(slice),
		DataType: sess.payload.Type,
	})
	return nil
}

func (d *Dispatcher) cancel(mac protocol.MacAddress) error {
	if err := d.blocks.Cancel(mac); err != nil {
		return err
	}
	d.metrics.Cancel()
	d.emit(Event{Kind: EventCancel, MAC: mac})
	return nil
}

// handleTransferComplete closes the tag's session and notifies the sink.
func (d *Dispatcher) handleTransferComplete() error {
	raw, err := d.readRecord(protocol.XferCompleteSize)
	if err != nil {
		return err
	}
	xfc, err := protocol.DecodeXferComplete(raw)
	if err != nil {
		d.framingError(err)
		return nil
	}

	mac := xfc.SourceMAC
	sess, _ := d.session(mac)
	d.closeSession(mac)

	log.Info().Str("mac", mac.String()).Msg("transfer complete")
	d.metrics.Complete()
	d.sink.TransferComplete(mac)
	d.emit(Event{
		Kind:     EventComplete,
		MAC:      mac,
		Size:     len(sess.payload.Data),
		DataType: sess.payload.Type,
		Version:  versionString(sess),
	})
	return nil
}

func versionString(s session) string {
	if s.payload.Data == nil {
		return ""
	}
	return s.version.String()
}

func (d *Dispatcher) handleAck() error {
	log.Debug().Msg("access point acknowledged")
	return nil
}
