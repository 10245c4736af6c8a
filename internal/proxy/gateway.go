// Package proxy implements the local gateway: it serves the built web client
// from a directory and forwards API and auth traffic to the assistant backend,
// keeping event streams unbuffered end to end.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Prefixes forwarded to the backend; everything else is served from the
// static directory.
var forwardedPrefixes = []string{"/api", "/login", "/register", "/logout"}

// Options configures the gateway.
type Options struct {
	// BackendURL is the base URL of the assistant backend.
	BackendURL *url.URL
	// StaticDir holds the built web client. Empty disables static serving.
	StaticDir string
	// Addr is the listen address, e.g. ":5173".
	Addr string
	// Logger receives request logs. Required.
	Logger *zap.Logger
}

// Gateway is the reverse proxy plus static file server.
type Gateway struct {
	opts    Options
	handler http.Handler
	logger  *zap.Logger
}

// New builds a gateway from options.
func New(opts Options) (*Gateway, error) {
	if opts.BackendURL == nil {
		return nil, fmt.Errorf("backend URL is required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if opts.StaticDir != "" {
		if _, err := os.Stat(opts.StaticDir); err != nil {
			return nil, fmt.Errorf("static dir unavailable: %w", err)
		}
	}

	g := &Gateway{opts: opts, logger: opts.Logger}

	rp := httputil.NewSingleHostReverseProxy(opts.BackendURL)
	// Negative FlushInterval flushes after every write, which keeps
	// server-sent event streams flowing instead of buffering.
	rp.FlushInterval = -1
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		g.logger.Warn("backend unreachable",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, `{"error": "backend unreachable"}`)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status": "ok"}`)
	})
	for _, prefix := range forwardedPrefixes {
		mux.Handle(prefix+"/", rp)
		mux.Handle(prefix, rp)
	}
	mux.Handle("/", g.staticHandler())

	g.handler = g.logged(mux)
	return g, nil
}

// Handler returns the gateway's root handler.
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// staticHandler serves the built client with an index.html fallback so
// client-side routes resolve on hard reload.
func (g *Gateway) staticHandler() http.Handler {
	if g.opts.StaticDir == "" {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "no static content configured", http.StatusNotFound)
		})
	}

	fileServer := http.FileServer(http.Dir(g.opts.StaticDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(filepath.Clean(r.URL.Path), "/")
		if name != "" {
			if info, err := os.Stat(filepath.Join(g.opts.StaticDir, name)); err == nil && !info.IsDir() {
				fileServer.ServeHTTP(w, r)
				return
			}
		}
		http.ServeFile(w, r, filepath.Join(g.opts.StaticDir, "index.html"))
	})
}

// statusWriter records the response code and keeps the Flusher visible so
// proxied event streams still flush through the logging wrapper.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (g *Gateway) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(sw, r)

		g.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (g *Gateway) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    g.opts.Addr,
		Handler: g.handler,
		// No WriteTimeout: event stream responses stay open indefinitely.
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		g.logger.Info("gateway listening",
			zap.String("addr", g.opts.Addr),
			zap.String("backend", g.opts.BackendURL.String()),
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
