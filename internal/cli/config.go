package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/sharebnb/internal/auth"
)

const defaultServerURL = "http://localhost:8080"

// CLIConfig is the client-side state kept in cli.yaml: which server to talk
// to and the bearer token from the last login. It is separate from the
// server's config.yaml.
type CLIConfig struct {
	ServerURL string `yaml:"server_url,omitempty"`
	Token     string `yaml:"token,omitempty"`
}

// configPath returns SB_CLI_CONFIG, or ~/.config/sharebnb/cli.yaml.
func configPath() (string, error) {
	if v := os.Getenv("SB_CLI_CONFIG"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "sharebnb", "cli.yaml"), nil
}

// loadConfig reads cli.yaml. A missing file is an empty config, since the
// CLI works against the default server without one.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// saveConfig writes cli.yaml readable by the owner only, because it holds
// a bearer token.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// getServerURL resolves the server from SB_SERVER_URL, then cli.yaml,
// then the local default.
func getServerURL() string {
	if v := os.Getenv("SB_SERVER_URL"); v != "" {
		return v
	}
	if cfg, err := loadConfig(); err == nil && cfg.ServerURL != "" {
		return cfg.ServerURL
	}
	return defaultServerURL
}

// getToken resolves the bearer token from SB_TOKEN, then cli.yaml.
func getToken() string {
	if v := os.Getenv("SB_TOKEN"); v != "" {
		return v
	}
	if cfg, err := loadConfig(); err == nil {
		return cfg.Token
	}
	return ""
}

// tokenExpiry reads the exp claim of a stored token without checking its
// signature; the CLI has no secret and only uses this for display.
func tokenExpiry(raw string) (time.Time, bool) {
	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
