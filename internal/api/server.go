package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pbaille/coursework/internal/controller"
	"github.com/pbaille/coursework/pkg/logger"
	"github.com/pbaille/coursework/pkg/metrics"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server serves the web UI for one controller
type Server struct {
	ctrl   *controller.Controller
	addr   string
	logger logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a new UI server
func New(ctrl *controller.Controller, addr string, opts ...Option) *Server {
	s := &Server{ctrl: ctrl, addr: addr, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Views
	mux.HandleFunc("GET /{$}", withMetrics("index", s.index))
	mux.HandleFunc("GET /courses/{id}/assignments", withMetrics("assignments", s.loadAssignments))

	// Actions
	mux.HandleFunc("POST /config", withMetrics("config", s.saveConfig))
	mux.HandleFunc("POST /courses", withMetrics("courses", s.loadCourses))
	mux.HandleFunc("POST /back", withMetrics("back", s.back))

	// Operations
	mux.HandleFunc("GET /health", withMetrics("health", s.health))
	mux.Handle("GET /metrics", metrics.Handler())

	// State-changing requests from other sites are refused with 403.
	return http.NewCrossOriginProtection().Handler(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "starting server", logger.String("addr", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r)
}

func (s *Server) saveConfig(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	// The page never echoes the token, so a blank field keeps the saved one.
	token := r.PostFormValue("token")
	if strings.TrimSpace(token) == "" {
		token = s.ctrl.Configuration().AccessToken
	}
	// Failures land in the error banner.
	_ = s.ctrl.SaveConfiguration(r.Context(),
		r.PostFormValue("domain"),
		token,
		r.PostFormValue("proxy"),
	)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) loadCourses(w http.ResponseWriter, r *http.Request) {
	// A started load runs to completion even if the browser goes away.
	_ = s.ctrl.LoadCourses(context.WithoutCancel(r.Context()))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) loadAssignments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	_ = s.ctrl.LoadAssignments(context.WithoutCancel(r.Context()), id, r.URL.Query().Get("name"))
	s.writePage(w, r)
}

func (s *Server) back(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Back()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := renderPage(&buf, s.ctrl.Snapshot()); err != nil {
		s.logger.Error(r.Context(), "render page", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
