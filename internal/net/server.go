package net

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/l1jgo/webstats/internal/config"
	"go.uber.org/zap"
)

// Server owns the HTTP listener of the stats endpoint.
type Server struct {
	listener net.Listener
	http     *http.Server
	log      *zap.Logger
	done     chan struct{}
}

// NewServer binds the listener right away so a taken port fails at boot.
func NewServer(cfg config.HTTPConfig, handler http.Handler, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", cfg.BindAddress)
	if err != nil {
		return nil, err
	}
	s := &Server{
		listener: ln,
		http: &http.Server{
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			ErrorLog:     zap.NewStdLog(log.Named("http")),
		},
		log:  log,
		done: make(chan struct{}),
	}
	return s, nil
}

// Serve runs in its own goroutine until Shutdown.
func (s *Server) Serve() {
	defer close(s.done)
	if err := s.http.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("HTTP 服務異常結束", zap.Error(err))
	}
}

// Shutdown stops accepting new connections and waits for in-flight
// requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	select {
	case <-s.done:
	case <-ctx.Done():
	}
	return err
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
