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

package helpers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	AppName    = "tagbridge"
	LogFile    = "tagbridge.log"
	LogsDir    = "logs"
	UploadsDir = "uploads"
	DBFile     = "tagbridge.db"
)

// Dirs are the directories tagbridge reads and writes.
type Dirs struct {
	Config string
	Data   string
	State  string
}

// DefaultDirs returns the XDG locations for the current user.
func DefaultDirs() Dirs {
	return Dirs{
		Config: filepath.Join(xdg.ConfigHome, AppName),
		Data:   filepath.Join(xdg.DataHome, AppName),
		State:  filepath.Join(xdg.StateHome, AppName),
	}
}

// RootedDirs places every directory under root. Used for portable installs
// and tests.
func RootedDirs(root string) Dirs {
	return Dirs{
		Config: filepath.Join(root, "config"),
		Data:   filepath.Join(root, "data"),
		State:  filepath.Join(root, "state"),
	}
}

// LogDir holds rotated log files.
func (d Dirs) LogDir() string {
	return filepath.Join(d.State, LogsDir)
}

// Uploads holds source images received over the API.
func (d Dirs) Uploads() string {
	return filepath.Join(d.Data, UploadsDir)
}

// DatabasePath is the sqlite database location.
func (d Dirs) DatabasePath() string {
	return filepath.Join(d.Data, DBFile)
}

// Ensure creates every directory.
func (d Dirs) Ensure() error {
	for _, dir := range []string{d.Config, d.Data, d.LogDir(), d.Uploads()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
