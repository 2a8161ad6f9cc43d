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
	"fmt"

	"github.com/spf13/afero"
)

func writeFile(fs afero.Fs, path string, data []byte) error {
	if err := afero.WriteFile(fs, path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
