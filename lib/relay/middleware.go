// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// accessLog logs one line per request once it completes. The route
// pattern is logged instead of the raw path so tokens never reach the
// log. For websocket sessions the line is written when the session
// ends, and duration is the session's lifetime.
func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			wrapped := middleware.NewWrapResponseWriter(writer, request.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(wrapped, request)

			route := "unmatched"
			if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
				if pattern := routeContext.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			// A hijacked connection's handshake bypasses the wrapper.
			status := wrapped.Status()
			switch {
			case status != 0:
			case request.Header.Get("Upgrade") != "":
				status = http.StatusSwitchingProtocols
			default:
				status = http.StatusOK
			}
			logger.Info("request",
				"method", request.Method,
				"route", route,
				"status", status,
				"bytes", wrapped.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
