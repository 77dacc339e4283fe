package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/viper"

	"github.com/joescharf/discissue/internal/api"
	"github.com/joescharf/discissue/internal/auth"
	"github.com/joescharf/discissue/internal/issue"
	"github.com/joescharf/discissue/internal/session"
	"github.com/joescharf/discissue/internal/store"
)

// sweepableStore is a session store that can drop expired sessions.
type sweepableStore interface {
	session.Store
	Cleanup(ctx context.Context) (int, error)
}

// newSessionStore picks the session backend from session.store.
func newSessionStore(s store.Store) (sweepableStore, error) {
	switch backend := viper.GetString("session.store"); backend {
	case "", "sqlite":
		return session.NewSQLStore(s), nil
	case "memory":
		return session.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session.store %q (want sqlite or memory)", backend)
	}
}

// newGenerator wires the LLM client into an issue generator.
func newGenerator(s store.Store, logger *slog.Logger) (*issue.Generator, error) {
	c := newLLMClient()
	if c == nil {
		return nil, fmt.Errorf("anthropic API key not configured: set anthropic.api_key or ANTHROPIC_API_KEY")
	}
	return issue.NewGenerator(c, s, logger), nil
}

// buildAPI assembles the HTTP handler and returns the session store so the
// caller can sweep it.
func buildAPI(s store.Store, logger *slog.Logger) (http.Handler, sweepableStore, error) {
	gh, err := newGitHubClient()
	if err != nil {
		return nil, nil, err
	}
	gen, err := newGenerator(s, logger)
	if err != nil {
		return nil, nil, err
	}
	sessStore, err := newSessionStore(s)
	if err != nil {
		return nil, nil, err
	}

	ttl := viper.GetDuration("session.ttl")
	secure := viper.GetBool("session.secure_cookie")

	srv := api.NewServer(api.Deps{
		Store:     s,
		Sessions:  session.NewManager(sessStore, session.Options{TTL: ttl, SecureCookie: secure}),
		Auth:      auth.NewController(gh, sessStore, s, ttl, logger),
		Generator: gen,
		Gateway:   issue.NewGateway(gh, s, logger),
		Repos:     issue.NewRepos(gh, viper.GetInt("github.repo_page_size"), logger),
	}, api.Config{
		FrontendURL:  viper.GetString("auth.frontend_url"),
		SuccessURL:   viper.GetString("auth.success_url"),
		ErrorURL:     viper.GetString("auth.error_url"),
		SecureCookie: secure,
	}, logger)

	return srv.Router(), sessStore, nil
}
