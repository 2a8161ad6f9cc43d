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
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// ErrNoDevice is returned by AutoDetect when no candidate port exists.
var ErrNoDevice = errors.New("no serial device found")

// Device describes a candidate access point port.
type Device struct {
	Path    string `json:"path"`
	VID     string `json:"vid,omitempty"`
	PID     string `json:"pid,omitempty"`
	Serial  string `json:"serial,omitempty"`
	Product string `json:"product,omitempty"`
}

type usbID struct {
	Vid string
	Pid string
}

// Devices that enumerate as USB serial ports but are never an access point.
var ignoreDevices = []usbID{
	// Sinden Lightgun
	{Vid: "16c0", Pid: "0f38"},
	{Vid: "16c0", Pid: "0f39"},
	{Vid: "16d0", Pid: "0f38"},
	{Vid: "16d0", Pid: "0f39"},
}

func ignored(vid, pid string) bool {
	vid = strings.ToLower(vid)
	pid = strings.ToLower(pid)
	for _, d := range ignoreDevices {
		if d.Vid == vid && d.Pid == pid {
			return true
		}
	}
	return false
}

// candidateName reports whether a port name looks like a USB serial adapter
// on the current OS.
func candidateName(name string) bool {
	switch runtime.GOOS {
	case "linux":
		base := name[strings.LastIndex(name, "/")+1:]
		return strings.HasPrefix(base, "ttyUSB") || strings.HasPrefix(base, "ttyACM")
	case "darwin":
		return strings.HasPrefix(name, "/dev/tty.usbserial") ||
			strings.HasPrefix(name, "/dev/tty.usbmodem")
	case "windows":
		return strings.HasPrefix(name, "COM")
	default:
		return true
	}
}

// ListDevices returns USB serial ports that could be an access point.
func ListDevices() ([]Device, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		log.Debug().Err(err).Msg("detailed port list failed, using plain list")
		return listPlain()
	}

	devices := make([]Device, 0, len(details))
	for _, d := range details {
		if !candidateName(d.Name) {
			continue
		}
		if d.IsUSB && ignored(d.VID, d.PID) {
			continue
		}
		devices = append(devices, Device{
			Path:    d.Name,
			VID:     strings.ToLower(d.VID),
			PID:     strings.ToLower(d.PID),
			Serial:  d.SerialNumber,
			Product: d.Product,
		})
	}
	return devices, nil
}

func listPlain() ([]Device, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports list: %w", err)
	}
	devices := make([]Device, 0, len(ports))
	for _, p := range ports {
		if candidateName(p) {
			devices = append(devices, Device{Path: p})
		}
	}
	return devices, nil
}

// AutoDetect returns the path of the first candidate port.
func AutoDetect() (string, error) {
	devices, err := ListDevices()
	if err != nil {
		return "", err
	}
	if len(devices) == 0 {
		return "", ErrNoDevice
	}
	return devices[0].Path, nil
}
