// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/tokenrelay/lib/access"
	"github.com/bureau-foundation/tokenrelay/lib/registry"
	"github.com/bureau-foundation/tokenrelay/lib/session"
	"github.com/bureau-foundation/tokenrelay/lib/token"
)

// Config configures a Server.
type Config struct {
	// Codec opens and mints tokens. Required.
	Codec *token.Codec

	// Registry is shared with Sessions. Required.
	Registry *registry.Registry

	// Sessions runs upgraded websocket connections. Required.
	Sessions *session.Manager

	// Metrics defaults to a fresh NewMetrics.
	Metrics *Metrics

	// Logger is the structured logger. Required.
	Logger *slog.Logger

	// MaxMessageBytes caps an ingest body. Defaults to
	// session.DefaultMaxMessageBytes.
	MaxMessageBytes int64
}

// Server holds the handlers' dependencies. It has no per-request state.
type Server struct {
	codec           *token.Codec
	registry        *registry.Registry
	sessions        *session.Manager
	metrics         *Metrics
	logger          *slog.Logger
	maxMessageBytes int64
	upgrader        websocket.Upgrader
}

// New creates a Server from config.
func New(config Config) *Server {
	if config.Codec == nil {
		panic("relay.Server: Codec is required")
	}
	if config.Registry == nil {
		panic("relay.Server: Registry is required")
	}
	if config.Sessions == nil {
		panic("relay.Server: Sessions is required")
	}
	if config.Logger == nil {
		panic("relay.Server: Logger is required")
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	maxMessageBytes := config.MaxMessageBytes
	if maxMessageBytes <= 0 {
		maxMessageBytes = session.DefaultMaxMessageBytes
	}
	return &Server{
		codec:           config.Codec,
		registry:        config.Registry,
		sessions:        config.Sessions,
		metrics:         metrics,
		logger:          config.Logger,
		maxMessageBytes: maxMessageBytes,
		upgrader: websocket.Upgrader{
			// Tokens are bearer capabilities; the browser origin
			// grants nothing extra.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the router for every relay endpoint.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(accessLog(s.logger))
	router.Use(middleware.Recoverer)

	router.Route("/v1", func(v1 chi.Router) {
		v1.Get("/", s.handleLiveness)
		v1.Get("/ws/{token}", s.handleSession)
		v1.Post("/post/{token}", s.handleIngest)
		v1.Get("/create", s.handleMint)
	})
	return router
}

func (s *Server) handleLiveness(writer http.ResponseWriter, request *http.Request) {
	writeText(writer, http.StatusOK, "OK")
}

// handleSession opens the token before upgrading, so a bad token is
// refused with a plain 404 and never costs a websocket.
func (s *Server) handleSession(writer http.ResponseWriter, request *http.Request) {
	id, err := s.codec.Open(chi.URLParam(request, "token"))
	if err != nil {
		s.logger.Debug("session rejected", "error", err)
		writeStatus(writer, http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.logger.Debug("websocket upgrade failed", "session", access.Fingerprint(id), "error", err)
		return
	}
	s.sessions.Run(request.Context(), conn, id)
}

func (s *Server) handleIngest(writer http.ResponseWriter, request *http.Request) {
	id, err := s.codec.Open(chi.URLParam(request, "token"))
	if err != nil {
		s.logger.Debug("ingest rejected", "error", err)
		s.ingestResult(writer, http.StatusNotFound, outcomeInvalidToken)
		return
	}
	logger := s.logger.With("session", access.Fingerprint(id))
	if id.IsRead() {
		logger.Debug("ingest with read-role token")
		s.ingestResult(writer, http.StatusForbidden, outcomeForbidden)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(writer, request.Body, s.maxMessageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.ingestResult(writer, http.StatusRequestEntityTooLarge, outcomeTooLarge)
			return
		}
		logger.Debug("reading ingest body", "error", err)
		s.ingestResult(writer, http.StatusBadRequest, outcomeInvalidBody)
		return
	}
	if !utf8.Valid(body) {
		s.ingestResult(writer, http.StatusBadRequest, outcomeInvalidBody)
		return
	}

	if !s.registry.Route(id.Base(), string(body)) {
		logger.Debug("ingest dropped, no recipient")
		s.ingestResult(writer, http.StatusNotFound, outcomeNoRecipient)
		return
	}
	s.ingestResult(writer, http.StatusAccepted, outcomeDelivered)
}

func (s *Server) ingestResult(writer http.ResponseWriter, status int, outcome string) {
	s.metrics.ingested(outcome)
	writeStatus(writer, status)
}

func (s *Server) handleMint(writer http.ResponseWriter, request *http.Request) {
	pair := s.codec.Mint()
	s.metrics.tokenMinted()
	writeText(writer, http.StatusOK, pair.Read+"\n"+pair.Write)
}

// writeStatus replies with the bare status text as the body.
func writeStatus(writer http.ResponseWriter, status int) {
	writeText(writer, status, http.StatusText(status))
}

func writeText(writer http.ResponseWriter, status int, body string) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	writer.Header().Set("X-Content-Type-Options", "nosniff")
	writer.WriteHeader(status)
	io.WriteString(writer, body)
}
