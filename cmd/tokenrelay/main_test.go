// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/tokenrelay/lib/config"
	"github.com/bureau-foundation/tokenrelay/lib/relay"
	"github.com/bureau-foundation/tokenrelay/lib/service"
	"github.com/bureau-foundation/tokenrelay/lib/token"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublicServerConfigPlain(t *testing.T) {
	cfg := config.Default()
	cfg.CredentialsDirectory = t.TempDir()

	serverConfig := publicServerConfig(cfg, http.NotFoundHandler(), discardLogger())
	if serverConfig.Address != cfg.Listen.Plain {
		t.Errorf("address = %q, want plain %q", serverConfig.Address, cfg.Listen.Plain)
	}
	if serverConfig.CertFile != "" || serverConfig.KeyFile != "" {
		t.Errorf("plain config carries TLS files: %+v", serverConfig)
	}
}

func TestPublicServerConfigTLS(t *testing.T) {
	cfg := config.Default()
	cfg.CredentialsDirectory = t.TempDir()
	for _, name := range []string{token.TLSCertFile, token.TLSKeyFile} {
		if err := os.WriteFile(filepath.Join(cfg.CredentialsDirectory, name), []byte("pem"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	serverConfig := publicServerConfig(cfg, http.NotFoundHandler(), discardLogger())
	if serverConfig.Address != cfg.Listen.TLS {
		t.Errorf("address = %q, want TLS %q", serverConfig.Address, cfg.Listen.TLS)
	}
	if serverConfig.CertFile != filepath.Join(cfg.CredentialsDirectory, token.TLSCertFile) {
		t.Errorf("cert file = %q", serverConfig.CertFile)
	}
	if serverConfig.KeyFile != filepath.Join(cfg.CredentialsDirectory, token.TLSKeyFile) {
		t.Errorf("key file = %q", serverConfig.KeyFile)
	}
}

func TestMetricsHandlerServesExposition(t *testing.T) {
	server := httptest.NewServer(metricsHandler(relay.NewMetrics()))
	defer server.Close()

	response, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer response.Body.Close()
	body, _ := io.ReadAll(response.Body)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", response.StatusCode)
	}
	if !strings.Contains(string(body), "tokenrelay_connections") {
		t.Errorf("exposition missing tokenrelay_connections:\n%s", body)
	}
}

func TestRunServersStopsAllOnFailure(t *testing.T) {
	logger := discardLogger()
	healthy := service.NewHTTPServer(service.HTTPServerConfig{
		Address: "127.0.0.1:0",
		Handler: http.NotFoundHandler(),
		Logger:  logger,
	})
	broken := service.NewHTTPServer(service.HTTPServerConfig{
		Address: "127.0.0.1:99999",
		Handler: http.NotFoundHandler(),
		Logger:  logger,
	})

	done := make(chan error, 1)
	go func() {
		done <- runServers(context.Background(), []*service.HTTPServer{healthy, broken})
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("runServers() = nil, want the listen error")
		}
	case <-t.Context().Done():
		t.Fatal("runServers did not return after a server failed")
	}
}

func TestRunServersStopsOnCancel(t *testing.T) {
	server := service.NewHTTPServer(service.HTTPServerConfig{
		Address: "127.0.0.1:0",
		Handler: http.NotFoundHandler(),
		Logger:  discardLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runServers(ctx, []*service.HTTPServer{server})
	}()

	select {
	case <-server.Ready():
	case <-t.Context().Done():
		t.Fatal("server never became ready")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runServers() = %v, want nil", err)
		}
	case <-t.Context().Done():
		t.Fatal("runServers did not return after cancellation")
	}
}

func TestLoadConfigPrefersFlagPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenrelay.yaml")
	if err := os.WriteFile(path, []byte("log_level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvironmentVariable, filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig(%q): %v", path, err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log level = %q, want warn", cfg.LogLevel)
	}
}
