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
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tagbridge/tagbridge/pkg/api/models"
	"github.com/tagbridge/tagbridge/pkg/api/validation"
	"github.com/tagbridge/tagbridge/pkg/blocks"
	"github.com/tagbridge/tagbridge/pkg/database"
	"github.com/tagbridge/tagbridge/pkg/protocol"
	"github.com/tagbridge/tagbridge/pkg/transcode"
)

const historyLimit = 20

type tagParams struct {
	MAC string `validate:"required,mac"`
}

type imageParams struct {
	MAC  string `validate:"required,mac"`
	Type string `validate:"omitempty,imagetype"`
}

// parseMAC validates the {mac} URL parameter and writes a 400 on failure.
func parseMAC(w http.ResponseWriter, r *http.Request) (protocol.MacAddress, bool) {
	params := tagParams{MAC: chi.URLParam(r, "mac")}
	if err := validation.DefaultValidator.Validate(&params); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return protocol.MacAddress{}, false
	}
	mac, err := protocol.ParseMacAddress(params.MAC)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return protocol.MacAddress{}, false
	}
	return mac, true
}

func toTag(a *database.Assignment) models.Tag {
	tag := models.Tag{
		MAC:         a.MAC,
		DataType:    a.DataType,
		Source:      a.Source,
		DataVersion: a.DataVersion,
		UpdatedAt:   a.UpdatedAt,
		Size:        len(a.Payload),
	}
	if dt, err := protocol.ParseDataType(a.DataType); err == nil {
		if d, ok := transcode.DisplayForFrame(len(a.Payload), dt); ok {
			tag.Display = d.Name
		}
	}
	return tag
}

func (s *Server) handleListTags(w http.ResponseWriter, _ *http.Request) {
	rows, err := s.opts.DB.ListAssignments()
	if err != nil {
		log.Error().Err(err).Msg("listing assignments")
		writeError(w, http.StatusInternalServerError, "failed to list tags")
		return
	}

	tags := make([]models.Tag, 0, len(rows))
	for i := range rows {
		tag := toTag(&rows[i])
		latest, err := s.opts.DB.LatestCheckIns(rows[i].MAC, 1)
		if err != nil {
			log.Warn().Err(err).Str("mac", rows[i].MAC).Msg("loading last check-in")
		} else if len(latest) > 0 {
			tag.LastCheckIn = &latest[0]
		}
		tags = append(tags, tag)
	}
	writeJSON(w, http.StatusOK, models.TagsResponse{Tags: tags})
}

func (s *Server) handleGetTag(w http.ResponseWriter, r *http.Request) {
	mac, ok := parseMAC(w, r)
	if !ok {
		return
	}

	a, found, err := s.opts.DB.GetAssignment(mac.Key())
	if err != nil {
		log.Error().Err(err).Str("mac", mac.String()).Msg("loading assignment")
		writeError(w, http.StatusInternalServerError, "failed to load tag")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no assignment for "+mac.String())
		return
	}

	checkIns, err := s.opts.DB.LatestCheckIns(mac.Key(), historyLimit)
	if err != nil {
		log.Error().Err(err).Str("mac", mac.String()).Msg("loading check-ins")
		writeError(w, http.StatusInternalServerError, "failed to load tag")
		return
	}
	transfers, err := s.opts.DB.ListTransfers(mac.Key(), historyLimit)
	if err != nil {
		log.Error().Err(err).Str("mac", mac.String()).Msg("loading transfers")
		writeError(w, http.StatusInternalServerError, "failed to load tag")
		return
	}

	tag := toTag(&a)
	if len(checkIns) > 0 {
		tag.LastCheckIn = &checkIns[0]
	}
	writeJSON(w, http.StatusOK, models.TagDetailResponse{
		Tag:       tag,
		CheckIns:  checkIns,
		Transfers: transfers,
	})
}

// readLimited reads at most limit bytes of the request body. The bool is
// false when a 413 has been written.
func readLimited(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	data, err := io.ReadAll(r.Body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("body exceeds %d bytes", limit))
		return nil, false
	} else if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return nil, false
	}
	return data, true
}

func (s *Server) handlePutImage(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.Cfg.UploadLimit()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", limit))
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form")
		return
	}

	params := imageParams{
		MAC:  chi.URLParam(r, "mac"),
		Type: r.FormValue("type"),
	}
	if err := validation.DefaultValidator.Validate(&params); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mac, err := protocol.ParseMacAddress(params.MAC)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dt := s.opts.Cfg.DefaultImageType()
	if params.Type != "" {
		dt, err = protocol.ParseDataType(params.Type)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()
	source, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	img, format, err := transcode.LoadImage(bytes.NewReader(source))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	display, err := transcode.ValidateSize(img)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	payload, err := transcode.Encode(img, dt)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	name, err := s.saveUpload(source, format)
	if err != nil {
		log.Error().Err(err).Msg("saving upload")
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	a := &database.Assignment{
		MAC:         mac.Key(),
		DataType:    dt.String(),
		Source:      name,
		Payload:     payload,
		DataVersion: protocol.DataVersionOf(payload).String(),
		UpdatedAt:   s.opts.Clock.Now(),
	}
	if !s.storeAssignment(w, a) {
		return
	}
	log.Info().
		Str("mac", mac.String()).
		Str("display", display.Name).
		Str("type", dt.String()).
		Int("size", len(payload)).
		Msg("image assigned")
	writeJSON(w, http.StatusOK, toTag(a))
}

func (s *Server) saveUpload(data []byte, format string) (string, error) {
	ext := strings.ToLower(format)
	if ext == "jpeg" {
		ext = "jpg"
	}
	name := uuid.New().String() + "." + ext
	if err := s.opts.Fs.MkdirAll(s.opts.UploadDir, 0o750); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}
	path := filepath.Join(s.opts.UploadDir, name)
	if err := writeFile(s.opts.Fs, path, data); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Server) handlePutFirmware(w http.ResponseWriter, r *http.Request) {
	mac, ok := parseMAC(w, r)
	if !ok {
		return
	}
	data, ok := readLimited(w, r, s.opts.Cfg.UploadLimit())
	if !ok {
		return
	}
	if err := transcode.CheckFirmware(data); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, blocks.ErrPayloadTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, err.Error())
		return
	}

	a := &database.Assignment{
		MAC:         mac.Key(),
		DataType:    protocol.DataTypeFirmwareUpdate.String(),
		Payload:     data,
		DataVersion: protocol.DataVersionOf(data).String(),
		UpdatedAt:   s.opts.Clock.Now(),
	}
	if !s.storeAssignment(w, a) {
		return
	}
	log.Info().Str("mac", mac.String()).Int("size", len(data)).Msg("firmware assigned")
	writeJSON(w, http.StatusOK, toTag(a))
}

func (s *Server) storeAssignment(w http.ResponseWriter, a *database.Assignment) bool {
	if err := s.opts.DB.PutAssignment(a); err != nil {
		log.Error().Err(err).Str("mac", a.MAC).Msg("storing assignment")
		writeError(w, http.StatusInternalServerError, "failed to store assignment")
		return false
	}
	s.reload()
	return true
}

func (s *Server) reload() {
	if s.opts.Reloader == nil {
		return
	}
	if err := s.opts.Reloader.Reload(); err != nil {
		log.Error().Err(err).Msg("reloading assignments")
	}
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	mac, ok := parseMAC(w, r)
	if !ok {
		return
	}
	deleted, err := s.opts.DB.DeleteAssignment(mac.Key())
	if err != nil {
		log.Error().Err(err).Str("mac", mac.String()).Msg("deleting assignment")
		writeError(w, http.StatusInternalServerError, "failed to delete assignment")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "no assignment for "+mac.String())
		return
	}
	s.reload()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	mac, ok := parseMAC(w, r)
	if !ok {
		return
	}
	a, found, err := s.opts.DB.GetAssignment(mac.Key())
	if err != nil {
		log.Error().Err(err).Str("mac", mac.String()).Msg("loading assignment")
		writeError(w, http.StatusInternalServerError, "failed to load tag")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no assignment for "+mac.String())
		return
	}

	dt, err := protocol.ParseDataType(a.DataType)
	if err != nil || !dt.IsImage() {
		writeError(w, http.StatusUnprocessableEntity, "assignment is not an image")
		return
	}
	display, ok := transcode.DisplayForFrame(len(a.Payload), dt)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "framebuffer matches no display size")
		return
	}
	img, err := transcode.Decode(a.Payload, display.Width, display.Height, dt)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Error().Err(err).Msg("encoding preview")
		writeError(w, http.StatusInternalServerError, "failed to render preview")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Debug().Err(err).Msg("writing preview")
	}
}
