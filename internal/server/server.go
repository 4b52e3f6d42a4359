// Package server exposes the cleaning pipeline over HTTP: upload a CSV/XLSX
// file, inspect summaries and previews, download the cleaned CSV.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/CleanSheetLabs/cleansheet/internal/config"
)

// Server wires the HTTP handlers, the dataset store and configuration.
type Server struct {
	cfg    *config.Global
	logger *slog.Logger
	store  *Store
	mux    *http.ServeMux
}

// New builds a Server ready to serve.
func New(cfg *config.Global, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		store:  NewStore(cfg.StoreCapacity),
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/ping", s.handlePing)
	s.mux.HandleFunc("/api/upload", s.handleUpload)
	s.mux.HandleFunc("/api/shape", s.handleShape)
	s.mux.HandleFunc("/api/preview", s.handlePreview)
	s.mux.HandleFunc("/api/summary", s.handleSummary)
	s.mux.HandleFunc("/api/download", s.handleDownload)
	s.mux.HandleFunc("/", s.handleIndex)
}

// Handler returns the root http.Handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.ListenAddr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errc:
		return err
	}
}
