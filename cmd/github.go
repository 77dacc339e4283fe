package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/joescharf/discissue/internal/github"
)

// newGitHubClient creates the OAuth + REST client from config/env.
func newGitHubClient() (*github.Client, error) {
	id := viper.GetString("github.client_id")
	secret := viper.GetString("github.client_secret")
	if id == "" || secret == "" {
		return nil, fmt.Errorf("github OAuth app not configured: set github.client_id and github.client_secret (or GITHUB_CLIENT_ID / GITHUB_CLIENT_SECRET)")
	}
	return github.NewClient(github.Config{
		ClientID:     id,
		ClientSecret: secret,
		RedirectURL:  viper.GetString("github.redirect_url"),
	})
}
