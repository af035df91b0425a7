// Package devserver is a local batch upload server: it accepts csv batches, streams their
// processing status over websockets and serves the stored students.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fileuploader/uploadwatch/internal/db"
	"github.com/jmoiron/sqlx"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	config *Config
	server *http.Server
	db     *sqlx.DB
	svc    *Services
}

func New(config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	conn, err := db.Open(db.WithPath(config.DBPath))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	svc, err := NewServices(config, conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Server{
		config: config,
		db:     conn,
		svc:    svc,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           SetupRoutes(svc, config.MaxUploadMem),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler exposes the routes, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	slog.Info("upload server start", "addr", s.config.Addr, "db", s.config.DBPath)
	defer slog.Info("upload server stop")

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	errc := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
		slog.Info("upload server shutdown signal")
	case err := <-errc:
		if err != nil {
			s.close()
			return fmt.Errorf("http server: %w", err)
		}
	}

	return s.Stop()
}

func (s *Server) Stop() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(shutdownCtx)
	s.close()
	return err
}

func (s *Server) close() {
	s.svc.Shutdown()
	if err := s.db.Close(); err != nil {
		slog.Error("db close", "error", err)
	}
}
