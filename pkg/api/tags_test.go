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
	"encoding/json"
	"errors"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tagbridge/tagbridge/pkg/api/models"
	"github.com/tagbridge/tagbridge/pkg/blocks"
	"github.com/tagbridge/tagbridge/pkg/config"
	"github.com/tagbridge/tagbridge/pkg/database"
	"github.com/tagbridge/tagbridge/pkg/protocol"
	testhelpers "github.com/tagbridge/tagbridge/pkg/testing/helpers"
	"github.com/tagbridge/tagbridge/pkg/transcode"
)

func putImage(t *testing.T, s *testServer, mac string, data []byte, dataType string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartImage(t, data, dataType)
	req := httptest.NewRequest(http.MethodPut, "/api/tags/"+mac+"/image", body)
	req.Header.Set("Content-Type", contentType)
	return s.do(req)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testhelpers.NewMockTagDBI(), nil)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, config.AppVersion, resp.Version)
	assert.Equal(t, 2, resp.Sessions)
}

func TestListTagsIncludesLastCheckIn(t *testing.T) {
	t.Parallel()

	db := testhelpers.NewMockTagDBI()
	db.On("ListAssignments").Return([]database.Assignment{
		{MAC: "0000021b1ad03b17", DataType: "firmware", DataVersion: "0102030405060708", Payload: []byte{1, 2}},
		{MAC: "00000000000000aa", DataType: "black", Payload: make([]byte, 2888)},
	}, nil)
	db.On("LatestCheckIns", "0000021b1ad03b17", 1).
		Return([]database.CheckIn{{MAC: "0000021b1ad03b17", BatteryMV: 2900}}, nil)
	db.On("LatestCheckIns", "00000000000000aa", 1).Return([]database.CheckIn{}, nil)

	s := newTestServer(t, db, nil)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/tags", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.TagsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Tags, 2)

	assert.Equal(t, 2, resp.Tags[0].Size)
	require.NotNil(t, resp.Tags[0].LastCheckIn)
	assert.Equal(t, 2900, resp.Tags[0].LastCheckIn.BatteryMV)
	assert.Empty(t, resp.Tags[0].Display)

	assert.Nil(t, resp.Tags[1].LastCheckIn)
	assert.Equal(t, "small", resp.Tags[1].Display)
	db.AssertExpectations(t)
}

func TestListTagsDatabaseError(t *testing.T) {
	t.Parallel()

	db := testhelpers.NewMockTagDBI()
	db.On("ListAssignments").Return(nil, errors.New("disk gone"))

	s := newTestServer(t, db, nil)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/tags", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk gone")
}

func TestTagRoutesRejectBadMAC(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testhelpers.NewMockTagDBI(), nil)
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/tags/not-a-mac", http.NoBody),
		httptest.NewRequest(http.MethodDelete, "/api/tags/zz", http.NoBody),
		httptest.NewRequest(http.MethodPut, "/api/tags/00112233445566778899/firmware", strings.NewReader("x")),
		httptest.NewRequest(http.MethodGet, "/api/tags/xyz/preview.png", http.NoBody),
	} {
		rec := s.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, req.URL.Path)
	}
}

func TestGetTagNotFound(t *testing.T) {
	t.Parallel()

	db := testhelpers.NewMockTagDBI()
	db.On("GetAssignment", "0000021b1ad03b17").Return(database.Assignment{}, false, nil)

	s := newTestServer(t, db, nil)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/tags/"+testMAC, http.NoBody))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	db.AssertExpectations(t)
}

func TestPutImageStoresAssignment(t *testing.T) {
	t.Parallel()

	db := testhelpers.NewMockTagDBI()
	var stored *database.Assignment
	db.On("PutAssignment", mock.AnythingOfType("*database.Assignment")).
		Run(func(args mock.Arguments) {
			stored, _ = args.Get(0).(*database.Assignment)
		}).
		Return(nil)

	s := newTestServer(t, db, nil)
	rec := putImage(t, s, testMAC, pngBytes(t, 296, 128, color.Black), "black")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, stored)
	assert.Equal(t, "0000021b1ad03b17", stored.MAC)
	assert.Equal(t, "black", stored.DataType)
	assert.Equal(t, testNow, stored.UpdatedAt)
	assert.Len(t, stored.Payload, transcode.FrameLen(296, 128, 1))
	assert.Equal(t, protocol.DataVersionOf(stored.Payload).String(), stored.DataVersion)
	assert.Equal(t, 1, s.reloader.calls)

	uploads, err := afero.ReadDir(s.fs, "/uploads")
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, stored.Source, uploads[0].Name())
	assert.True(t, strings.HasSuffix(stored.Source, ".png"))

	var tag models.Tag
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tag))
	assert.Equal(t, "medium", tag.Display)
	assert.Equal(t, stored.DataVersion, tag.DataVersion)
}

func TestPutImageDefaultsType(t *testing.T) {
	t.Parallel()

	db := testhelpers.NewMockTagDBI()
	db.On("PutAssignment", mock.MatchedBy(func(a *database.Assignment) bool {
		return a.DataType == "black_red" && len(a.Payload) == transcode.FrameLen(152, 152, 2)
	})).Return(nil)

	s := newTestServer(t, db, nil)
	rec := putImage(t, s, testMAC, pngBytes(t, 152, 152, color.White), "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	db.AssertExpectations(t)
}

func TestPutImageRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     func(t *testing.T) []byte
		dataType string
		want     int
	}{
		{
			name:     "unsupported size",
			data:     func(t *testing.T) []byte { return pngBytes(t, 100, 100, color.Black) },
			dataType: "black",
			want:     http.StatusUnprocessableEntity,
		},
		{
			name:     "not an image",
			data:     func(*testing.T) []byte { return []byte("plain text") },
			dataType: "black",
			want:     http.StatusUnprocessableEntity,
		},
		{
			name:     "firmware type",
			data:     func(t *testing.T) []byte { return pngBytes(t, 152, 152, color.Black) },
			dataType: "firmware",
			want:     http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := testhelpers.NewMockTagDBI()
			s := newTestServer(t, db, nil)
			rec := putImage(t, s, testMAC, tt.data(t), tt.dataType)

			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			db.AssertNotCalled(t, "PutAssignment", mock.Anything)
			assert.Zero(t, s.reloader.calls)
		})
	}
}

func TestPutImageRequiresMultipart(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testhelpers.NewMockTagDBI(), nil)
	req := httptest.NewRequest(http.MethodPut, "/api/tags/"+testMAC+"/image", strings.NewReader("raw"))
	rec := s.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPutFirmware(t *testing.T) {
	t.Parallel()

	firmware := bytes.Repeat([]byte{0xAB}, 1024)
	db := testhelpers.NewMockTagDBI()
	db.On("PutAssignment", mock.MatchedBy(func(a *database.Assignment) bool {
		return a.DataType == "firmware" && bytes.Equal(a.Payload, firmware) && a.Source == ""
	})).Return(nil)

	s := newTestServer(t, db, nil)
	req := httptest.NewRequest(http.MethodPut, "/api/tags/"+testMAC+"/firmware", bytes.NewReader(firmware))
	rec := s.do(req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tag models.Tag
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tag))
	assert.Equal(t, 1024, tag.Size)
	assert.Equal(t, protocol.DataVersionOf(firmware).String(), tag.DataVersion)
	assert.Equal(t, 1, s.reloader.calls)
	db.AssertExpectations(t)
}

func TestPutFirmwareEmpty(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, testhelpers.NewMockTagDBI(), nil)
	req := httptest.NewRequest(http.MethodPut, "/api/tags/"+testMAC+"/firmware", http.NoBody)
	rec := s.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPutFirmwareTooLarge(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, func(v *config.Values) { v.API.UploadLimitMB = 1 })
	s := newTestServer(t, testhelpers.NewMockTagDBI(), cfg)
	req := httptest.NewRequest(http.MethodPut, "/api/tags/"+testMAC+"/firmware",
		bytes.NewReader(make([]byte, 1<<20+1)))
	rec := s.do(req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestPutFirmwarePastLastBlock(t *testing.T) {
	t.Parallel()

	db := testhelpers.NewMockTagDBI()
	s := newTestServer(t, db, nil)
	req := httptest.NewRequest(http.MethodPut, "/api/tags/"+testMAC+"/firmware",
		bytes.NewReader(make([]byte, blocks.MaxPayloadSize+1)))
	rec := s.do(req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "payload too large")
	db.AssertNotCalled(t, "PutAssignment", mock.Anything)
	assert.Zero(t, s.reloader.calls)
}

func TestPutAssignmentDatabaseError(t *testing.T) {
	t.Parallel()

	db := testhelpers.NewMockTagDBI()
	db.On("PutAssignment", mock.Anything).Return(errors.New("locked"))

	s := newTestServer(t, db, nil)
	req := httptest.NewRequest(http.MethodPut, "/api/tags/"+testMAC+"/firmware", strings.NewReader("fw"))
	rec := s.do(req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, s.reloader.calls)
}

func TestDeleteTag(t *testing.T) {
	t.Parallel()

	db := testhelpers.NewMockTagDBI()
	db.On("DeleteAssignment", "0000021b1ad03b17").Return(true, nil).Once()
	db.On("DeleteAssignment", "0000021b1ad03b17").Return(false, nil).Once()

	s := newTestServer(t, db, nil)

	rec := s.do(httptest.NewRequest(http.MethodDelete, "/api/tags/"+testMAC, http.NoBody))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, s.reloader.calls)

	rec = s.do(httptest.NewRequest(http.MethodDelete, "/api/tags/"+testMAC, http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, s.reloader.calls)
	db.AssertExpectations(t)
}

func TestPreviewRejectsFirmware(t *testing.T) {
	t.Parallel()

	db := testhelpers.NewMockTagDBI()
	db.On("GetAssignment", "0000021b1ad03b17").
		Return(database.Assignment{MAC: "0000021b1ad03b17", DataType: "firmware", Payload: []byte{1}}, true, nil)

	s := newTestServer(t, db, nil)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/tags/"+testMAC+"/preview.png", http.NoBody))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

//nolint:paralleltest // goose migrations share global state
func TestImageRoundTripWithDatabase(t *testing.T) {
	db := testhelpers.NewInMemoryTagDB(t)
	s := newTestServer(t, db, nil)

	rec := putImage(t, s, testMAC, pngBytes(t, 400, 300, color.RGBA{R: 255, A: 255}), "black_red")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, db.AddCheckIn(&database.CheckIn{
		Time:      testNow,
		MAC:       "0000021b1ad03b17",
		BatteryMV: 2750,
	}))

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/tags/"+testMAC, http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	var detail models.TagDetailResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Equal(t, "large", detail.Tag.Display)
	assert.Equal(t, "black_red", detail.Tag.DataType)
	require.Len(t, detail.CheckIns, 1)
	require.NotNil(t, detail.Tag.LastCheckIn)
	assert.Equal(t, 2750, detail.Tag.LastCheckIn.BatteryMV)
	assert.Empty(t, detail.Transfers)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/tags/"+testMAC+"/preview.png", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
	r, g, b, _ := img.At(10, 10).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
	assert.Zero(t, g)
	assert.Zero(t, b)

	rec = s.do(httptest.NewRequest(http.MethodDelete, "/api/tags/"+testMAC, http.NoBody))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, found, err := db.GetAssignment("0000021b1ad03b17")
	require.NoError(t, err)
	assert.False(t, found)
}
