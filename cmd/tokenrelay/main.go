// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tokenrelay/lib/config"
	"github.com/bureau-foundation/tokenrelay/lib/process"
	"github.com/bureau-foundation/tokenrelay/lib/registry"
	"github.com/bureau-foundation/tokenrelay/lib/relay"
	"github.com/bureau-foundation/tokenrelay/lib/service"
	"github.com/bureau-foundation/tokenrelay/lib/session"
	"github.com/bureau-foundation/tokenrelay/lib/token"
	"github.com/bureau-foundation/tokenrelay/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath     string
		logLevel       string
		metricsAddress string
		showVersion    bool
	)

	flagSet := pflag.NewFlagSet("tokenrelay", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to the YAML config file (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides the config file)")
	flagSet.StringVar(&metricsAddress, "metrics-address", "", "listen address for Prometheus metrics (overrides the config file)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("tokenrelay %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flagSet.Changed("metrics-address") {
		cfg.MetricsAddress = metricsAddress
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	logger.Info("starting tokenrelay", "version", version.Info())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// serve builds the relay from cfg and runs its servers until ctx is
// cancelled or one of them fails.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	key, _, err := token.LoadOrCreateKey(cfg.CredentialsDirectory, logger)
	if err != nil {
		return fmt.Errorf("loading encryption key: %w", err)
	}
	defer key.Close()

	codec, err := token.NewCodec(key)
	if err != nil {
		return err
	}

	metrics := relay.NewMetrics()
	connections := registry.New(metrics.ObserveConnections)
	sessions := session.New(session.Config{
		Registry:          connections,
		Logger:            logger,
		KeepaliveInterval: cfg.Session.KeepaliveInterval,
		WriteTimeout:      cfg.Session.WriteTimeout,
		MaxMessageBytes:   cfg.MaxMessageBytes,
		Observer:          metrics,
	})
	relayServer := relay.New(relay.Config{
		Codec:           codec,
		Registry:        connections,
		Sessions:        sessions,
		Metrics:         metrics,
		Logger:          logger,
		MaxMessageBytes: cfg.MaxMessageBytes,
	})

	servers := []*service.HTTPServer{
		service.NewHTTPServer(publicServerConfig(cfg, relayServer.Handler(), logger)),
	}
	if cfg.MetricsAddress != "" {
		servers = append(servers, service.NewHTTPServer(service.HTTPServerConfig{
			Address: cfg.MetricsAddress,
			Handler: metricsHandler(metrics),
			Logger:  logger.With("server", "metrics"),
		}))
	}

	return runServers(ctx, servers)
}

// publicServerConfig selects the TLS listener when certificate
// credentials are present and the plain listener otherwise.
func publicServerConfig(cfg *config.Config, handler http.Handler, logger *slog.Logger) service.HTTPServerConfig {
	serverConfig := service.HTTPServerConfig{
		Address: cfg.Listen.Plain,
		Handler: handler,
		Logger:  logger.With("server", "relay"),
	}
	if credentials := token.LoadTLSCredentials(cfg.CredentialsDirectory); credentials != nil {
		serverConfig.Address = cfg.Listen.TLS
		serverConfig.CertFile = credentials.CertFile
		serverConfig.KeyFile = credentials.KeyFile
	}
	return serverConfig
}

func metricsHandler(metrics *relay.Metrics) http.Handler {
	router := chi.NewRouter()
	router.Handle("/metrics", metrics.Handler())
	return router
}

// runServers serves every server until ctx is cancelled. The first
// server to fail cancels the rest; its error is returned once all have
// stopped.
func runServers(ctx context.Context, servers []*service.HTTPServer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan error, len(servers))
	for _, server := range servers {
		go func() {
			results <- server.Serve(ctx)
		}()
	}

	var firstErr error
	for range servers {
		if err := <-results; err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	return firstErr
}
