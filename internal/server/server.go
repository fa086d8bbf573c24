// Package server exposes the digest pipeline and the summary library over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/alrobwilloliver/ytdigest/internal/config"
	"github.com/alrobwilloliver/ytdigest/internal/digest"
	"github.com/alrobwilloliver/ytdigest/internal/library"
)

// Digester is the part of digest.Service the handlers use.
type Digester interface {
	Summarize(ctx context.Context, rawURL, lang string) (*digest.Response, error)
	Transcript(ctx context.Context, rawURL, lang string) (*digest.Response, error)
	CacheEntries(ctx context.Context) (int, error)
}

// Server holds handler dependencies and per-process health state.
type Server struct {
	digest  Digester
	library library.Store
	cfg     config.ServerConfig
	logger  *slog.Logger
	limiter *ipRateLimiter

	startTime   time.Time
	lastSuccess atomic.Int64 // unix nanos, 0 when nothing succeeded yet
}

// New returns a Server. lib may be nil, in which case the summary routes
// are not registered.
func New(d Digester, lib library.Store, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		digest:    d,
		library:   lib,
		cfg:       cfg,
		logger:    logger,
		limiter:   newIPRateLimiter(cfg.RatePerMinute, cfg.RateBurst),
		startTime: time.Now(),
	}
}

// Handler returns the routed handler with logging, body limits, auth and
// rate limiting applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	api := func(h http.HandlerFunc) http.HandlerFunc {
		return s.rateLimit(s.auth(h))
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/summarize", api(s.handleSummarize))
	mux.HandleFunc("POST /api/summarize", api(s.handleSummarize))
	mux.HandleFunc("GET /api/transcript", api(s.handleTranscript))
	mux.HandleFunc("POST /api/transcript", api(s.handleTranscript))

	if s.library != nil {
		mux.HandleFunc("GET /api/summaries", api(s.handleListSummaries))
		mux.HandleFunc("DELETE /api/summaries", api(s.handleClearSummaries))
		mux.HandleFunc("GET /api/summaries/{id}", api(s.handleGetSummary))
		mux.HandleFunc("DELETE /api/summaries/{id}", api(s.handleDeleteSummary))
	}

	var h http.Handler = mux
	if s.cfg.MaxBodyBytes > 0 {
		h = http.MaxBytesHandler(h, s.cfg.MaxBodyBytes)
	}
	return s.logRequests(h)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	go s.limiter.cleanup(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server started",
			slog.String("addr", s.cfg.Addr),
			slog.Bool("auth_enabled", s.cfg.APIKey != ""),
			slog.Bool("library_enabled", s.library != nil))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", slog.String("error", err.Error()))
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutdown signal received, gracefully stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server forced to shutdown", slog.String("error", err.Error()))
		return err
	}

	s.logger.Info("server stopped")
	return nil
}

func (s *Server) markSuccess() {
	s.lastSuccess.Store(time.Now().UnixNano())
}
