// Package api serves the JSON HTTP API used by the browser frontend.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/joescharf/discissue/internal/apperr"
	"github.com/joescharf/discissue/internal/auth"
	"github.com/joescharf/discissue/internal/issue"
	"github.com/joescharf/discissue/internal/session"
	"github.com/joescharf/discissue/internal/store"
)

const maxBodyBytes = 1 << 20

// Config holds the browser-facing URLs.
type Config struct {
	FrontendURL  string // allowed CORS origin
	SuccessURL   string // redirect after login
	ErrorURL     string // redirect after a failed login, ?message= is appended
	SecureCookie bool
}

// Deps are the services the handlers call.
type Deps struct {
	Store     store.Store
	Sessions  *session.Manager
	Auth      *auth.Controller
	Generator *issue.Generator
	Gateway   *issue.Gateway
	Repos     *issue.Repos
}

// Server provides the REST API handlers.
type Server struct {
	Deps
	cfg    Config
	logger *slog.Logger
}

// NewServer creates a new API server. A nil logger uses slog.Default().
func NewServer(deps Deps, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SuccessURL == "" {
		cfg.SuccessURL = "/"
	}
	if cfg.ErrorURL == "" {
		cfg.ErrorURL = "/error"
	}
	return &Server{Deps: deps, cfg: cfg, logger: logger}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(CORS(s.cfg.FrontendURL))
	r.Use(RequestID)
	r.Use(Logger(s.logger))
	r.Use(Recovery(s.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", s.ping)

		r.Post("/generate-issue", s.generateIssue)
		r.Get("/issues", s.listIssues)
		r.Post("/issues/create", s.createIssue)
		r.Get("/issues/{id}", s.getIssue)
		r.Get("/repos", s.listRepos)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/status", s.authStatus)
			r.Get("/login", s.login)
			r.Get("/github", s.login)
			r.Get("/callback", s.callback)
			r.Get("/github/callback", s.callback)
			r.Post("/logout", s.logout)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError renders err with the status of its kind. Unclassified
// errors are logged and reported as a generic 500.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		s.logger.Error("unhandled error", "path", r.URL.Path, "request_id", requestID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	body := map[string]any{"error": ae.Message}
	if ae.Details != nil {
		body["details"] = ae.Details
	}
	writeJSON(w, apperr.HTTPStatus(ae), body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}

// withQuery returns base with key=value added to its query string.
func withQuery(base, key, value string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *Server) ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}
