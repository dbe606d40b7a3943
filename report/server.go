// Package report serves run history from the journal over a read-only
// HTTP JSON API and exports outcomes as CSV.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/ArdentEmpiricist/TR-PDF-Rename/journal"
)

// Config holds the report server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8417".
	Addr string

	// Username and Password enable HTTP Basic auth on the API routes
	// when Password is non-empty. The password is bcrypt-hashed once at
	// construction; only the hash is kept. /health stays open either way.
	Username string
	Password string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Addr == "" {
		c.Addr = ":8417"
	}
	if c.Username == "" {
		c.Username = "admin"
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// Server is the read-only HTTP API over a journal.
type Server struct {
	cfg          Config
	jnl          *journal.Journal
	passwordHash []byte // nil when auth is disabled
	mux          http.Handler
}

// NewServer builds a server over jnl. The journal stays owned by the
// caller; the server never writes to it.
func NewServer(jnl *journal.Journal, cfg Config) (*Server, error) {
	if jnl == nil {
		return nil, errors.New("report: nil journal")
	}
	cfg.defaults()
	s := &Server{cfg: cfg, jnl: jnl}
	if cfg.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("report: hash password: %w", err)
		}
		s.passwordHash = hash
	}
	s.mux = s.routes()
	return s, nil
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestLog)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/api/runs", s.handleRuns)
		r.Get("/api/runs/{id}", s.handleRun)
		r.Get("/api/runs/{id}/outcomes", s.handleOutcomes)
		r.Get("/api/runs/{id}/stats", s.handleStats)
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("report server starting", "addr", s.cfg.Addr, "auth", s.passwordHash != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("report: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("report: shutdown: %w", err)
	}
	s.cfg.Logger.Info("report server stopped")
	return nil
}

// requireAuth enforces Basic auth when a password is configured.
// Comparison goes through bcrypt, so the hash never leaves the server.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.passwordHash == nil {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.cfg.Username ||
			bcrypt.CompareHashAndPassword(s.passwordHash, []byte(pass)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="trrename"`)
			writeJSON(w, 401, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	runs, err := s.jnl.Runs(r.Context(), limit)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	views := make([]map[string]any, 0, len(runs))
	for _, run := range runs {
		views = append(views, runView(run))
	}
	writeJSON(w, 200, views)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.jnl.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, journal.ErrNoRun) {
		writeError(w, 404, err)
		return
	}
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 200, runView(run))
}

func (s *Server) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.jnl.GetRun(r.Context(), id); err != nil {
		if errors.Is(err, journal.ErrNoRun) {
			writeError(w, 404, err)
			return
		}
		writeError(w, 500, err)
		return
	}
	outs, err := s.jnl.Outcomes(r.Context(), id)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	if limit := queryInt(r, "limit", 0); limit > 0 && len(outs) > limit {
		outs = outs[:limit]
	}
	views := make([]map[string]any, 0, len(outs))
	for _, o := range outs {
		views = append(views, outcomeView(o))
	}
	writeJSON(w, 200, views)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.jnl.GetRun(r.Context(), id)
	if errors.Is(err, journal.ErrNoRun) {
		writeError(w, 404, err)
		return
	}
	if err != nil {
		writeError(w, 500, err)
		return
	}
	stats, err := s.jnl.Stats(r.Context(), id)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"run_id":   run.ID,
		"total":    run.Total,
		"renamed":  run.Renamed,
		"skipped":  run.Skipped,
		"failed":   run.Failed,
		"statuses": stats,
	})
}

func runView(r journal.Run) map[string]any {
	return map[string]any{
		"id":          r.ID,
		"root":        r.Root,
		"dry_run":     r.DryRun,
		"started_at":  stamp(r.StartedAt),
		"finished_at": stamp(r.FinishedAt),
		"total":       r.Total,
		"renamed":     r.Renamed,
		"skipped":     r.Skipped,
		"failed":      r.Failed,
	}
}

func outcomeView(o journal.Outcome) map[string]any {
	return map[string]any{
		"path":     o.Path,
		"new_name": o.NewName,
		"status":   o.Status,
		"class":    string(o.Class),
		"doc_type": o.DocType,
		"isin":     o.ISIN,
		"asset":    o.Asset,
		"detail":   o.Detail,
		"at":       stamp(o.At),
	}
}

// stamp renders a time for the API; the zero time renders empty so an
// unfinished run is visible as such.
func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
