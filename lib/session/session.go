// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"encoding/binary"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/tokenrelay/lib/access"
	"github.com/bureau-foundation/tokenrelay/lib/clock"
	"github.com/bureau-foundation/tokenrelay/lib/netutil"
	"github.com/bureau-foundation/tokenrelay/lib/registry"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultKeepaliveInterval = 10 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultMaxMessageBytes   = 2048
)

// Conn is the duplex transport a session runs on. *websocket.Conn
// satisfies it. Close and WriteControl may be called concurrently with
// the other methods; everything else is called from one goroutine at a
// time per direction.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(deadline time.Time) error
	SetReadLimit(limit int64)
	Close() error
}

// Observer receives session events for metrics. Methods must not block.
type Observer interface {
	// SessionOpened is called once per accepted connection.
	SessionOpened(role string)

	// KeepaliveSent is called after each ping frame is written.
	KeepaliveSent()

	// InlineMessage is called for each text frame a write-role
	// connection forwards; delivered reports whether a recipient
	// accepted it.
	InlineMessage(delivered bool)
}

// Config configures a Manager.
type Config struct {
	// Registry receives read-role sessions. Required.
	Registry *registry.Registry

	// Clock drives the keepalive ticker. Defaults to clock.Real().
	Clock clock.Clock

	// Logger is the structured logger. Required.
	Logger *slog.Logger

	// KeepaliveInterval is the longest a read-role connection may go
	// without an outbound frame. Defaults to DefaultKeepaliveInterval.
	KeepaliveInterval time.Duration

	// WriteTimeout bounds each frame write. Defaults to
	// DefaultWriteTimeout.
	WriteTimeout time.Duration

	// MaxMessageBytes is the largest inbound frame accepted. Larger
	// frames end the session. Defaults to DefaultMaxMessageBytes.
	MaxMessageBytes int64

	// Observer is optional.
	Observer Observer
}

// Manager runs sessions. One Manager serves every connection of a
// process; it holds no per-connection state.
type Manager struct {
	registry          *registry.Registry
	clock             clock.Clock
	logger            *slog.Logger
	keepaliveInterval time.Duration
	writeTimeout      time.Duration
	maxMessageBytes   int64
	observer          Observer
}

// New creates a Manager from config.
func New(config Config) *Manager {
	if config.Registry == nil {
		panic("session.Manager: Registry is required")
	}
	if config.Logger == nil {
		panic("session.Manager: Logger is required")
	}
	manager := &Manager{
		registry:          config.Registry,
		clock:             config.Clock,
		logger:            config.Logger,
		keepaliveInterval: config.KeepaliveInterval,
		writeTimeout:      config.WriteTimeout,
		maxMessageBytes:   config.MaxMessageBytes,
		observer:          config.Observer,
	}
	if manager.clock == nil {
		manager.clock = clock.Real()
	}
	if manager.keepaliveInterval <= 0 {
		manager.keepaliveInterval = DefaultKeepaliveInterval
	}
	if manager.writeTimeout <= 0 {
		manager.writeTimeout = DefaultWriteTimeout
	}
	if manager.maxMessageBytes <= 0 {
		manager.maxMessageBytes = DefaultMaxMessageBytes
	}
	if manager.observer == nil {
		manager.observer = nopObserver{}
	}
	return manager
}

// Run drives one connection until its read loop ends, then tears the
// session down and closes conn. Cancelling ctx closes conn, which ends
// the read loop. id must already be authenticated.
func (m *Manager) Run(ctx context.Context, conn Conn, id access.Identity) {
	base := id.Base()
	logger := m.logger.With("session", access.Fingerprint(id), "role", id.Role())

	conn.SetReadLimit(m.maxMessageBytes)
	stopWatch := context.AfterFunc(ctx, func() { conn.Close() })
	defer stopWatch()

	var outbox *Outbox
	stopWriter := make(chan struct{})
	writerDone := make(chan struct{})
	if id.IsRead() {
		outbox = NewOutbox()
		m.registry.Register(base, outbox)
		go func() {
			defer close(writerDone)
			m.writeLoop(conn, outbox, stopWriter, logger)
		}()
	} else {
		close(writerDone)
	}
	m.observer.SessionOpened(id.Role())
	logger.Info("session connected")

	m.readLoop(conn, base, id.IsWrite(), logger)

	if outbox != nil {
		m.registry.Unregister(base, outbox)
		outbox.Close()
	}
	close(stopWriter)
	<-writerDone
	conn.Close()
	logger.Info("session disconnected")
}

// readLoop consumes frames until the transport fails. When forward is
// set, text frames are routed to base.
func (m *Manager) readLoop(conn Conn, base access.Identity, forward bool, logger *slog.Logger) {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			logTransportError(logger, "read", err)
			return
		}
		if !forward || messageType != websocket.TextMessage {
			continue
		}
		delivered := m.registry.Route(base, string(data))
		m.observer.InlineMessage(delivered)
		if !delivered {
			logger.Debug("inline message dropped, no recipient")
		}
	}
}

// writeLoop services the outbox and the keepalive ticker until stop is
// closed or a write fails. The outbox is closed on exit so the registry
// stops routing into it.
func (m *Manager) writeLoop(conn Conn, outbox *Outbox, stop <-chan struct{}, logger *slog.Logger) {
	defer outbox.Close()

	ticker := m.clock.NewTicker(m.keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return

		case <-outbox.Ready():
			for _, message := range outbox.Drain() {
				if err := m.writeText(conn, message); err != nil {
					logTransportError(logger, "write", err)
					return
				}
			}

		case tick := <-ticker.C:
			if err := m.writePing(conn, tick); err != nil {
				logTransportError(logger, "keepalive", err)
				return
			}
			m.observer.KeepaliveSent()
		}
	}
}

// Transport deadlines are absolute wall-clock times and are computed
// from time.Now rather than the injected clock.

func (m *Manager) writeText(conn Conn, message string) error {
	if err := conn.SetWriteDeadline(time.Now().Add(m.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(message))
}

func (m *Manager) writePing(conn Conn, tick time.Time) error {
	elapsed := max(m.clock.Now().Sub(tick), 0)
	payload := binary.BigEndian.AppendUint64(nil, uint64(elapsed/time.Second))
	return conn.WriteControl(websocket.PingMessage, payload, time.Now().Add(m.writeTimeout))
}

func logTransportError(logger *slog.Logger, loop string, err error) {
	if netutil.IsExpectedCloseError(err) {
		logger.Debug("session transport closed", "loop", loop, "error", err)
		return
	}
	logger.Warn("session transport error", "loop", loop, "error", err)
}

type nopObserver struct{}

func (nopObserver) SessionOpened(string) {}
func (nopObserver) KeepaliveSent()       {}
func (nopObserver) InlineMessage(bool)   {}
