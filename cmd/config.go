package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "discissue"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage discissue configuration.

Running bare 'discissue config' is the same as 'discissue config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# discissue configuration
# See: discissue config show (for effective values and sources)

# State/data directory (default: ~/.config/discissue)
# state_dir: {{ .StateDir }}

# SQLite database path (default: ~/.config/discissue/discissue.db)
# db_path: {{ .DBPath }}

# Anthropic (issue generation)
anthropic:
  # API key; ANTHROPIC_API_KEY is also honored
  api_key: ""
  model: "{{ .AnthropicModel }}"
  max_tokens: {{ .AnthropicMaxTokens }}

# GitHub OAuth app (Settings > Developer settings > OAuth Apps)
github:
  # GITHUB_CLIENT_ID / GITHUB_CLIENT_SECRET are also honored
  client_id: ""
  client_secret: ""
  # Must match the OAuth app's callback URL
  redirect_url: "{{ .GitHubRedirectURL }}"
  repo_page_size: {{ .RepoPageSize }}

server:
  port: {{ .Port }}

session:
  # Rolling session lifetime
  ttl: {{ .SessionTTL }}
  # sqlite or memory
  store: "{{ .SessionStore }}"
  # Set to true when serving over HTTPS
  secure_cookie: {{ .SecureCookie }}

# Browser-facing URLs
auth:
  frontend_url: "{{ .FrontendURL }}"
  success_url: "{{ .SuccessURL }}"
  error_url: "{{ .ErrorURL }}"

log:
  # debug, info, warn, error
  level: "{{ .LogLevel }}"
  # text or json
  format: "{{ .LogFormat }}"
`

type configTemplateData struct {
	StateDir           string
	DBPath             string
	AnthropicModel     string
	AnthropicMaxTokens int
	GitHubRedirectURL  string
	RepoPageSize       int
	Port               int
	SessionTTL         string
	SessionStore       string
	SecureCookie       bool
	FrontendURL        string
	SuccessURL         string
	ErrorURL           string
	LogLevel           string
	LogFormat          string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		StateDir:           viper.GetString("state_dir"),
		DBPath:             viper.GetString("db_path"),
		AnthropicModel:     viper.GetString("anthropic.model"),
		AnthropicMaxTokens: viper.GetInt("anthropic.max_tokens"),
		GitHubRedirectURL:  viper.GetString("github.redirect_url"),
		RepoPageSize:       viper.GetInt("github.repo_page_size"),
		Port:               viper.GetInt("server.port"),
		SessionTTL:         viper.GetDuration("session.ttl").String(),
		SessionStore:       viper.GetString("session.store"),
		SecureCookie:       viper.GetBool("session.secure_cookie"),
		FrontendURL:        viper.GetString("auth.frontend_url"),
		SuccessURL:         viper.GetString("auth.success_url"),
		ErrorURL:           viper.GetString("auth.error_url"),
		LogLevel:           viper.GetString("log.level"),
		LogFormat:          viper.GetString("log.format"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key     string
	EnvVars []string
	Secret  bool
}

var configKeys = []configKeyInfo{
	{Key: "state_dir", EnvVars: []string{"DISCISSUE_STATE_DIR"}},
	{Key: "db_path", EnvVars: []string{"DISCISSUE_DB_PATH"}},
	{Key: "anthropic.api_key", EnvVars: []string{"DISCISSUE_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"}, Secret: true},
	{Key: "anthropic.model", EnvVars: []string{"DISCISSUE_ANTHROPIC_MODEL"}},
	{Key: "anthropic.max_tokens", EnvVars: []string{"DISCISSUE_ANTHROPIC_MAX_TOKENS"}},
	{Key: "github.client_id", EnvVars: []string{"DISCISSUE_GITHUB_CLIENT_ID", "GITHUB_CLIENT_ID"}},
	{Key: "github.client_secret", EnvVars: []string{"DISCISSUE_GITHUB_CLIENT_SECRET", "GITHUB_CLIENT_SECRET"}, Secret: true},
	{Key: "github.redirect_url", EnvVars: []string{"DISCISSUE_GITHUB_REDIRECT_URL"}},
	{Key: "github.repo_page_size", EnvVars: []string{"DISCISSUE_GITHUB_REPO_PAGE_SIZE"}},
	{Key: "server.port", EnvVars: []string{"DISCISSUE_SERVER_PORT"}},
	{Key: "session.ttl", EnvVars: []string{"DISCISSUE_SESSION_TTL"}},
	{Key: "session.store", EnvVars: []string{"DISCISSUE_SESSION_STORE"}},
	{Key: "session.secure_cookie", EnvVars: []string{"DISCISSUE_SESSION_SECURE_COOKIE"}},
	{Key: "auth.frontend_url", EnvVars: []string{"DISCISSUE_AUTH_FRONTEND_URL", "FRONTEND_URL"}},
	{Key: "auth.success_url", EnvVars: []string{"DISCISSUE_AUTH_SUCCESS_URL"}},
	{Key: "auth.error_url", EnvVars: []string{"DISCISSUE_AUTH_ERROR_URL"}},
	{Key: "log.level", EnvVars: []string{"DISCISSUE_LOG_LEVEL"}},
	{Key: "log.format", EnvVars: []string{"DISCISSUE_LOG_FORMAT"}},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if config file exists
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		if k.Secret {
			val = maskSecret(viper.GetString(k.Key))
		}
		source := detectSource(k.Key, k.EnvVars, fileValues)
		fmt.Fprintf(ui.Out, "  %-24s %v  %s\n", k.Key, val, source)
	}

	return nil
}

// maskSecret hides all but the last four characters of a credential.
func maskSecret(v string) string {
	switch {
	case v == "":
		return "(unset)"
	case len(v) <= 4:
		return "****"
	default:
		return "****" + v[len(v)-4:]
	}
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key string, envVars []string, fileValues map[string]bool) string {
	for _, envVar := range envVars {
		if _, ok := os.LookupEnv(envVar); ok {
			return fmt.Sprintf("(env: %s)", envVar)
		}
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set; set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'discissue config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
