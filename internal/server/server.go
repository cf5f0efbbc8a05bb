package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const shutdownTimeout = 5 * time.Second

// Config controls the preview server.
type Config struct {
	Addr string
	// Dir is the build output directory served as the site root.
	Dir string
}

// Option configures optional Server behaviour.
type Option func(*Server)

// WithLogger injects the request logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server serves a built site over HTTP for local previews.
type Server struct {
	cfg    Config
	router chi.Router
	logger interfaces.Logger
	http   *http.Server
}

// New creates a preview server rooted at the build output directory.
func New(cfg Config, opts ...Option) (*Server, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("server: output directory is required")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:4321"
	}

	s := &Server{
		cfg:    cfg,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}

	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(s.requestLogger)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	router.NotFound(s.serveSite)
	s.router = router

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the context is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}

	s.logger.Info("preview server listening",
		"addr", listener.Addr().String(),
		"dir", s.cfg.Dir,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		s.logger.Info("preview server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// serveSite resolves request paths against the output tree. Extensionless
// routes fall back to their directory index, matching how builds lay pages out.
func (s *Server) serveSite(w http.ResponseWriter, r *http.Request) {
	// Previews should always reflect the latest build.
	w.Header().Set("Cache-Control", "no-store")

	requested := strings.TrimPrefix(r.URL.Path, "/")
	target, ok := s.resolve(requested)
	if !ok {
		s.serveNotFound(w, r)
		return
	}
	http.ServeFile(w, r, target)
}

func (s *Server) resolve(requested string) (string, bool) {
	cleaned := filepath.Clean(filepath.FromSlash(requested))
	if cleaned == "." {
		cleaned = ""
	}
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", false
	}

	candidates := []string{
		filepath.Join(s.cfg.Dir, cleaned),
		filepath.Join(s.cfg.Dir, cleaned, "index.html"),
	}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		return candidate, true
	}
	return "", false
}

func (s *Server) serveNotFound(w http.ResponseWriter, r *http.Request) {
	if page, ok := s.resolve("404.html"); ok {
		if body, err := os.ReadFile(page); err == nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			w.Write(body)
			return
		}
	}
	http.NotFound(w, r)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(wrapped, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.Status(),
			"bytes", wrapped.BytesWritten(),
			"duration", time.Since(started).String(),
		)
	})
}
