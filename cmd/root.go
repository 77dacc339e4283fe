package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/discissue/internal/output"
	"github.com/joescharf/discissue/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "discissue",
	Short: "Turn chat conversations into GitHub issues",
	Long: `discissue turns pasted Discord conversations into structured GitHub
issues with Claude, and files them on GitHub on behalf of a signed-in user.

Run 'discissue serve' to start the HTTP API used by the web frontend.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/discissue/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if dir, err := configDirFunc(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	} else {
		fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
		os.Exit(1)
	}

	viper.SetEnvPrefix("DISCISSUE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindLegacyEnv()

	setDefaults()

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers every config key with its default value.
func setDefaults() {
	dir, _ := configDirFunc()

	viper.SetDefault("state_dir", dir)
	viper.SetDefault("db_path", filepath.Join(dir, "discissue.db"))

	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("anthropic.max_tokens", 1000)

	viper.SetDefault("github.client_id", "")
	viper.SetDefault("github.client_secret", "")
	viper.SetDefault("github.redirect_url", "http://localhost:8080/api/auth/callback")
	viper.SetDefault("github.repo_page_size", 100)

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 2*time.Minute)

	viper.SetDefault("session.ttl", 24*time.Hour)
	viper.SetDefault("session.store", "sqlite")
	viper.SetDefault("session.secure_cookie", false)
	viper.SetDefault("session.sweep_interval", time.Hour)

	viper.SetDefault("auth.frontend_url", "http://localhost:3000")
	viper.SetDefault("auth.success_url", "http://localhost:3000")
	viper.SetDefault("auth.error_url", "http://localhost:3000/error")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

// bindLegacyEnv lets the environment names used by existing deployments
// stand in for the prefixed ones.
func bindLegacyEnv() {
	_ = viper.BindEnv("anthropic.api_key", "DISCISSUE_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = viper.BindEnv("github.client_id", "DISCISSUE_GITHUB_CLIENT_ID", "GITHUB_CLIENT_ID")
	_ = viper.BindEnv("github.client_secret", "DISCISSUE_GITHUB_CLIENT_SECRET", "GITHUB_CLIENT_SECRET")
	_ = viper.BindEnv("auth.frontend_url", "DISCISSUE_AUTH_FRONTEND_URL", "FRONTEND_URL")
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	slog.SetDefault(newLogger(os.Stderr))

	// The store is opened lazily so config/version run without a database.
}

// newLogger builds the process logger from log.format and log.level.
func newLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log.level"))); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(viper.GetString("log.format"), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}
