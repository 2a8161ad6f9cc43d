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
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/tagbridge/tagbridge/pkg/config"
	"github.com/tagbridge/tagbridge/pkg/database"
)

const testMAC = "00:00:02:1B:1A:D0:3B:17"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type countingReloader struct {
	calls int
}

func (r *countingReloader) Reload() error {
	r.calls++
	return nil
}

type testServer struct {
	*Server
	fs       afero.Fs
	reloader *countingReloader
}

func newTestConfig(t *testing.T, mutate func(*config.Values)) *config.Instance {
	t.Helper()
	vals := config.BaseDefaults
	if mutate != nil {
		mutate(&vals)
	}
	cfg, err := config.NewConfig(t.TempDir(), vals)
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T, db database.TagDBI, cfg *config.Instance) *testServer {
	t.Helper()
	if cfg == nil {
		cfg = newTestConfig(t, nil)
	}
	fs := afero.NewMemMapFs()
	reloader := &countingReloader{}
	s := NewServer(Options{
		Cfg:       cfg,
		DB:        db,
		Reloader:  reloader,
		Fs:        fs,
		Clock:     clockwork.NewFakeClockAt(testNow),
		Sessions:  func() int { return 2 },
		UploadDir: "/uploads",
	})
	return &testServer{Server: s, fs: fs, reloader: reloader}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartImage(t *testing.T, data []byte, dataType string) (body *bytes.Buffer, contentType string) {
	t.Helper()
	body = &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if dataType != "" {
		require.NoError(t, mw.WriteField("type", dataType))
	}
	fw, err := mw.CreateFormFile("file", "image.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}
