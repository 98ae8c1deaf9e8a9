package webterm

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	defaults "github.com/Paranoid-AF/webterm/default"
)

// Config represents the user's webterm configuration.
type Config struct {
	Version    int              `json:"version"`
	Server     ServerConfig     `json:"server"`
	Storage    StorageConfig    `json:"storage"`
	Completion CompletionConfig `json:"completion"`
}

// ServerConfig holds settings for the remote command service.
type ServerConfig struct {
	BaseURL string `json:"base_url"`
	// TimeoutSeconds bounds every remote call. Zero disables the timeout.
	TimeoutSeconds *int `json:"timeout_seconds,omitempty"`
}

// StorageConfig holds settings for persisted interpreter state.
type StorageConfig struct {
	StatePath string `json:"state_path,omitempty"`
}

// CompletionConfig holds completion and suggestion settings.
type CompletionConfig struct {
	Suggestions    *bool `json:"suggestions,omitempty"`
	MaxSuggestions int   `json:"max_suggestions,omitempty"`
}

// ConfigDir returns the config directory path.
// Resolution order: $WEBTERM_CONFIG_DIR > $XDG_CONFIG_HOME/webterm > ~/.config/webterm
func ConfigDir() string {
	if dir := os.Getenv("WEBTERM_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "webterm")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "webterm-config")
	}
	return filepath.Join(home, ".config", "webterm")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// DefaultConfig returns the default configuration from the embedded default_config.json.
func DefaultConfig() *Config {
	var cfg Config
	if err := json.Unmarshal(defaults.DefaultConfigJSON, &cfg); err != nil {
		panic("webterm: invalid embedded default_config.json: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads config from disk or returns defaults if not found.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(ConfigPath())
}

// LoadConfigFile loads config from path, filling missing fields from defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing fields
	defaults := DefaultConfig()
	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = defaults.Server.BaseURL
	}
	if cfg.Server.TimeoutSeconds == nil {
		cfg.Server.TimeoutSeconds = defaults.Server.TimeoutSeconds
	}
	if cfg.Completion.Suggestions == nil {
		cfg.Completion.Suggestions = defaults.Completion.Suggestions
	}
	if cfg.Completion.MaxSuggestions == 0 {
		cfg.Completion.MaxSuggestions = defaults.Completion.MaxSuggestions
	}

	return &cfg, nil
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}
	base := ResolveBaseURL(cfg)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		warnings = append(warnings, "server.base_url should start with http:// or https://: "+base)
	}
	if ResolveTimeout(cfg) == 0 {
		warnings = append(warnings, "server.timeout_seconds is 0; remote calls may wait indefinitely")
	}
	if cfg.Completion.MaxSuggestions < 0 {
		warnings = append(warnings, "completion.max_suggestions is negative; suggestions are disabled")
	}
	return warnings
}

// ResolveBaseURL returns the remote service base URL without a trailing slash.
// Priority: $WEBTERM_BASE_URL env > config value.
func ResolveBaseURL(cfg *Config) string {
	if url := os.Getenv("WEBTERM_BASE_URL"); url != "" {
		return strings.TrimRight(url, "/")
	}
	if cfg != nil {
		return strings.TrimRight(cfg.Server.BaseURL, "/")
	}
	return ""
}

// ResolveTimeout returns the remote call timeout.
// Priority: $WEBTERM_TIMEOUT_SECONDS env > config value.
func ResolveTimeout(cfg *Config) time.Duration {
	if raw := os.Getenv("WEBTERM_TIMEOUT_SECONDS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			return time.Duration(n) * time.Second
		}
	}
	if cfg != nil && cfg.Server.TimeoutSeconds != nil && *cfg.Server.TimeoutSeconds > 0 {
		return time.Duration(*cfg.Server.TimeoutSeconds) * time.Second
	}
	return 0
}

// ResolveStatePath returns the path of the persisted state file.
// Priority: $WEBTERM_STATE_PATH env > config value > <config dir>/state.toml
func ResolveStatePath(cfg *Config) string {
	if path := os.Getenv("WEBTERM_STATE_PATH"); path != "" {
		return path
	}
	if cfg != nil && cfg.Storage.StatePath != "" {
		return cfg.Storage.StatePath
	}
	return filepath.Join(ConfigDir(), "state.toml")
}

// SuggestionsEnabled returns whether unknown commands get "did you mean" hints.
func SuggestionsEnabled(cfg *Config) bool {
	if cfg == nil || cfg.Completion.Suggestions == nil {
		return true // default true
	}
	return *cfg.Completion.Suggestions && cfg.Completion.MaxSuggestions > 0
}
