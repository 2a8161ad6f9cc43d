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

package provider

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/tagbridge/tagbridge/pkg/blocks"
	"github.com/tagbridge/tagbridge/pkg/helpers/syncutil"
	"github.com/tagbridge/tagbridge/pkg/protocol"
	"github.com/tagbridge/tagbridge/pkg/station"
	"github.com/tagbridge/tagbridge/pkg/transcode"
)

var errSkipFile = errors.New("not a tag payload file")

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

const firmwareExt = ".bin"

// Directory serves files named after tags from one directory:
//
//	<mac>.<ext>         image encoded with the default type
//	<mac>.<type>.<ext>  image encoded with type
//	<mac>.bin           firmware update
//
// Files are encoded when loaded, so Resolve is a map lookup. When several
// files target one tag, the file whose name sorts last wins.
type Directory struct {
	fs          afero.Fs
	cache       map[protocol.MacAddress]station.Payload
	files       map[string]dirFile
	dir         string
	mu          syncutil.RWMutex
	defaultType protocol.DataType
}

func NewDirectory(fs afero.Fs, dir string, defaultType protocol.DataType) *Directory {
	return &Directory{
		fs:          fs,
		dir:         dir,
		defaultType: defaultType,
		cache:       make(map[protocol.MacAddress]station.Payload),
		files:       make(map[string]dirFile),
	}
}

type dirFile struct {
	payload station.Payload
	mac     protocol.MacAddress
}

// parseName splits a file name into the tag it targets and its data type.
func (d *Directory) parseName(name string) (protocol.MacAddress, protocol.DataType, error) {
	ext := strings.ToLower(filepath.Ext(name))
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	var dt protocol.DataType
	switch {
	case ext == firmwareExt:
		dt = protocol.DataTypeFirmwareUpdate
	case imageExts[ext]:
		dt = d.defaultType
		if i := strings.LastIndex(stem, "."); i >= 0 {
			parsed, err := protocol.ParseDataType(stem[i+1:])
			if err != nil {
				return protocol.MacAddress{}, 0, err
			}
			dt = parsed
			stem = stem[:i]
		}
	default:
		return protocol.MacAddress{}, 0, errSkipFile
	}

	mac, err := protocol.ParseMacAddress(stem)
	if err != nil {
		return protocol.MacAddress{}, 0, err
	}
	return mac, dt, nil
}

func (d *Directory) loadFile(name string) (protocol.MacAddress, station.Payload, error) {
	mac, dt, err := d.parseName(name)
	if err != nil {
		return mac, station.Payload{}, err
	}

	path := filepath.Join(d.dir, name)
	var data []byte
	if dt == protocol.DataTypeFirmwareUpdate {
		data, err = transcode.LoadFirmwareFile(d.fs, path)
	} else {
		data, err = transcode.EncodeFile(d.fs, path, dt)
	}
	if err != nil {
		return mac, station.Payload{}, err
	}
	if err := blocks.CheckSize(len(data)); err != nil {
		return mac, station.Payload{}, fmt.Errorf("%s: %w", name, err)
	}
	return mac, station.Payload{Data: data, Type: dt}, nil
}

// Load encodes every payload file in the directory, replacing the cache.
// Files that fail to load are logged and skipped.
func (d *Directory) Load() error {
	entries, err := afero.ReadDir(d.fs, d.dir)
	if err != nil {
		return fmt.Errorf("reading image directory: %w", err)
	}

	files := make(map[string]dirFile, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		mac, payload, err := d.loadFile(e.Name())
		if errors.Is(err, errSkipFile) {
			continue
		} else if err != nil {
			log.Warn().Err(err).Str("file", e.Name()).Msg("skipping image file")
			continue
		}
		files[e.Name()] = dirFile{mac: mac, payload: payload}
	}

	d.mu.Lock()
	d.files = files
	d.cache = make(map[protocol.MacAddress]station.Payload, len(files))
	for name, f := range files {
		if winner := d.winner(f.mac); winner != name {
			log.Warn().Str("file", name).Str("using", winner).Str("mac", f.mac.String()).
				Msg("several files target one tag")
			continue
		}
		d.cache[f.mac] = f.payload
	}
	tags := len(d.cache)
	d.mu.Unlock()

	log.Info().Str("dir", d.dir).Int("tags", tags).Msg("loaded image directory")
	return nil
}

// winner returns the file that serves mac, or "" when none does. Callers
// hold d.mu.
func (d *Directory) winner(mac protocol.MacAddress) string {
	var names []string
	for name, f := range d.files {
		if f.mac == mac {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return slices.Max(names)
}

// refresh points the cache entry for mac at its winning file. Callers hold
// d.mu.
func (d *Directory) refresh(mac protocol.MacAddress) {
	if name := d.winner(mac); name != "" {
		d.cache[mac] = d.files[name].payload
		return
	}
	delete(d.cache, mac)
}

func (d *Directory) Resolve(mac protocol.MacAddress) (station.Payload, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.cache[mac]
	return p, ok
}

// Len returns the number of tags with a payload.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.cache)
}

func (d *Directory) forget(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if f, ok := d.files[name]; ok {
		delete(d.files, name)
		d.refresh(f.mac)
		_, still := d.cache[f.mac]
		log.Info().Str("file", name).Str("mac", f.mac.String()).Bool("served", still).Msg("image removed")
	}
}

func (d *Directory) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		d.forget(name)
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	mac, payload, err := d.loadFile(name)
	if errors.Is(err, errSkipFile) {
		return
	} else if err != nil {
		// partially written files fail to decode until the final write
		log.Debug().Err(err).Str("file", name).Msg("image not loadable yet")
		return
	}

	d.mu.Lock()
	d.files[name] = dirFile{mac: mac, payload: payload}
	d.refresh(mac)
	d.mu.Unlock()
	log.Info().Str("file", name).Str("mac", mac.String()).Int("size", len(payload.Data)).Msg("image updated")
}

// Watch reloads files as they change on disk until ctx is done. It only sees
// changes made through the OS filesystem.
func (d *Directory) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Error().Err(err).Msg("error closing file watcher")
		}
	}()

	if err := watcher.Add(d.dir); err != nil {
		return fmt.Errorf("watching %s: %w", d.dir, err)
	}
	log.Info().Str("dir", d.dir).Msg("watching image directory")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			d.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("error in image watcher")
		}
	}
}
