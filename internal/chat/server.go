package chat

import (
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"
)

const (
	// DefaultMaxLineBytes caps a single inbound frame. The wire protocol puts
	// no bound on line length, so the server applies one to avoid unbounded
	// buffering from a misbehaving peer.
	DefaultMaxLineBytes = 8192

	// DefaultOutboundBuffer is the per-session outbox capacity.
	DefaultOutboundBuffer = 32
)

type Config struct {
	Addr           string
	MaxLineBytes   int
	OutboundBuffer int
}

func (c Config) withDefaults() Config {
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = DefaultMaxLineBytes
	}
	if c.OutboundBuffer <= 0 {
		c.OutboundBuffer = DefaultOutboundBuffer
	}
	return c
}

// Server owns the listener, the registry and the dispatcher. One goroutine
// runs per accepted connection (plus its outbound writer); session errors are
// contained to that session and never stop the listener.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	registry *Registry
	dispatch *Dispatcher
	listener net.Listener

	stopOnce sync.Once
	stopped  chan struct{}
}

func NewServer(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	registry := NewRegistry(logger)
	return &Server{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		dispatch: NewDispatcher(registry, logger),
		stopped:  make(chan struct{}),
	}
}

func (s *Server) Registry() *Registry     { return s.registry }
func (s *Server) Dispatcher() *Dispatcher { return s.dispatch }

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	go s.acceptLoop(ln)

	s.logger.Info("server started", "addr", ln.Addr().String())
	return nil
}

// Addr reports the bound listen address, useful when Addr was ":0".
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Addr
	}
	return s.listener.Addr().String()
}

// Stop tears the server down in order: stop accepting, notify every session
// through its normal outbox, then unregister them all so their writers drain
// the notice and close the sockets. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("shutting down")
		close(s.stopped)

		if s.listener != nil {
			_ = s.listener.Close()
		}

		s.dispatch.System("Server is shutting down. Goodbye!", "")
		for _, sess := range s.registry.Snapshot() {
			s.registry.Unregister(sess.ID)
		}

		s.logger.Info("shutdown complete")
	})
}

func (s *Server) stopping() bool {
	select {
	case <-s.stopped:
		return true
	default:
		return false
	}
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.stopping() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.logger.Info("client connected", "addr", conn.RemoteAddr().String())

		sess := NewSession(uuid.NewString(), conn, s.cfg.OutboundBuffer)
		go s.handleSession(sess)
	}
}
