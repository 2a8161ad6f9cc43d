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

// Package api serves the HTTP interface: tag assignments, uploads, previews,
// a websocket event stream and the metrics endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	apimiddleware "github.com/tagbridge/tagbridge/pkg/api/middleware"
	"github.com/tagbridge/tagbridge/pkg/api/models"
	"github.com/tagbridge/tagbridge/pkg/config"
	"github.com/tagbridge/tagbridge/pkg/database"
	"github.com/tagbridge/tagbridge/pkg/metrics"
	"github.com/tagbridge/tagbridge/pkg/station"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Reloader refreshes a provider after its backing table changed.
type Reloader interface {
	Reload() error
}

// Options wires the server to the rest of the process. Cfg and DB are
// required.
type Options struct {
	Cfg      *config.Instance
	DB       database.TagDBI
	Reloader Reloader
	Metrics  *metrics.Collector
	Fs       afero.Fs
	Clock    clockwork.Clock
	Sessions func() int
	// UploadDir receives the source file of every uploaded image.
	UploadDir string
}

type Server struct {
	opts    Options
	router  chi.Router
	melody  *melody.Melody
	limiter *apimiddleware.IPRateLimiter
}

func NewServer(opts Options) *Server {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Sessions == nil {
		opts.Sessions = func() int { return 0 }
	}

	s := &Server{
		opts:    opts,
		melody:  melody.New(),
		limiter: apimiddleware.NewIPRateLimiter(),
	}
	s.melody.Upgrader.CheckOrigin = func(*http.Request) bool { return true }
	s.melody.HandleConnect(func(session *melody.Session) {
		log.Debug().Str("remote", session.Request.RemoteAddr).Msg("event stream client connected")
	})
	s.melody.HandleDisconnect(func(session *melody.Session) {
		log.Debug().Str("remote", session.Request.RemoteAddr).Msg("event stream client disconnected")
	})
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(apimiddleware.HTTPRateLimitMiddleware(s.limiter))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.Cfg.AllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Get("/tags", s.handleListTags)
			r.Get("/tags/{mac}", s.handleGetTag)
			r.Put("/tags/{mac}/image", s.handlePutImage)
			r.Put("/tags/{mac}/firmware", s.handlePutFirmware)
			r.Delete("/tags/{mac}", s.handleDeleteTag)
			r.Get("/tags/{mac}/preview.png", s.handlePreview)
		})
	})

	if s.opts.Metrics != nil && s.opts.Cfg.MetricsEnabled() {
		registry := s.opts.Metrics.GetRegistry()
		r.Handle("/metrics", promhttp.InstrumentMetricHandler(
			registry,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		))
	}

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:   "ok",
		Version:  config.AppVersion,
		Sessions: s.opts.Sessions(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if err := s.melody.HandleRequest(w, r); err != nil {
		log.Error().Err(err).Msg("handling websocket request")
	}
}

// Broadcast sends every event to all websocket clients until events is
// closed or ctx is done.
func (s *Server) Broadcast(ctx context.Context, events <-chan station.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(err).Msg("marshalling event")
				continue
			}
			if err := s.melody.Broadcast(data); err != nil && !errors.Is(err, melody.ErrClosed) {
				log.Error().Err(err).Msg("broadcasting event")
			}
		}
	}
}

// Serve accepts connections on ln until ctx is done, broadcasting events to
// websocket clients meanwhile.
func (s *Server) Serve(ctx context.Context, ln net.Listener, events <-chan station.Event) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.limiter.StartCleanup(ctx)
	if events != nil {
		go s.Broadcast(ctx, events)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("api server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.melody.Close(); err != nil && !errors.Is(err, melody.ErrClosed) {
		log.Warn().Err(err).Msg("closing websocket sessions")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	log.Info().Msg("api server stopped")
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, events <-chan station.Event) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Cfg.APIListen())
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	return s.Serve(ctx, ln, events)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("writing response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}
