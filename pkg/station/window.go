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

import "github.com/tagbridge/tagbridge/pkg/protocol"

// tokenWindow holds the last TokenLength bytes read from the port.
type tokenWindow struct {
	buf [protocol.TokenLength]byte
	n   int
}

// push appends b and reports whether the window now spells an incoming
// command token.
func (w *tokenWindow) push(b byte) (protocol.Token, bool) {
	copy(w.buf[:], w.buf[1:])
	w.buf[len(w.buf)-1] = b
	if w.n < len(w.buf) {
		w.n++
	}
	if w.n < len(w.buf) {
		return "", false
	}
	s := protocol.Token(w.buf[:])
	for _, tok := range protocol.IncomingTokens {
		if s == tok {
			return tok, true
		}
	}
	return "", false
}

func (w *tokenWindow) reset() {
	w.n = 0
}
