// Package config loads server settings from a YAML file, a .env file and
// the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/sharebnb/internal/auth"
	"github.com/evcraddock/sharebnb/internal/storage"
)

// Defaults.
const (
	DefaultPort           = 8080
	DefaultBcryptCost     = 12
	DefaultMaxUploadBytes = 10 << 20
)

// Config holds server configuration.
type Config struct {
	Port           int            `yaml:"port"`
	DBPath         string         `yaml:"db_path"`
	DevMode        bool           `yaml:"dev_mode"`
	JWTSecret      string         `yaml:"jwt_secret"`
	TokenTTL       time.Duration  `yaml:"token_ttl"`
	BcryptCost     int            `yaml:"bcrypt_cost"`
	MaxUploadBytes int64          `yaml:"max_upload_bytes"`
	Storage        storage.Config `yaml:"storage"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Port:           DefaultPort,
		TokenTTL:       auth.DefaultTTL,
		BcryptCost:     DefaultBcryptCost,
		MaxUploadBytes: DefaultMaxUploadBytes,
		Storage: storage.Config{
			Endpoint: storage.DefaultEndpoint,
			Region:   storage.DefaultRegion,
			UseSSL:   true,
		},
	}
}

// DefaultPath returns ~/.config/sharebnb/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "sharebnb", "config.yaml"), nil
}

// Load builds the configuration. An empty path means DefaultPath, which may
// be absent; an explicit path must exist. A .env file in the working
// directory is read when present.
func Load(path string) (*Config, error) {
	return load(path, ".env")
}

func load(path, envFile string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	if err := cfg.readFile(path, explicit); err != nil {
		return nil, err
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.DBPath, "SB_DB_PATH")
	setString(&c.JWTSecret, "SB_JWT_SECRET")
	setString(&c.Storage.Endpoint, "SB_S3_ENDPOINT")
	setString(&c.Storage.Region, "SB_S3_REGION")
	setString(&c.Storage.Bucket, "SB_S3_BUCKET")
	setString(&c.Storage.PublicBaseURL, "SB_S3_PUBLIC_URL")
	setString(&c.Storage.AccessKey, "AWS_ACCESS_KEY_ID")
	setString(&c.Storage.SecretKey, "AWS_SECRET_ACCESS_KEY")
	setString(&c.Storage.AccessKey, "SB_S3_ACCESS_KEY")
	setString(&c.Storage.SecretKey, "SB_S3_SECRET_KEY")

	if err := setInt(&c.Port, "SB_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.BcryptCost, "SB_BCRYPT_COST"); err != nil {
		return err
	}
	if v := os.Getenv("SB_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing SB_MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	if v := os.Getenv("SB_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing SB_TOKEN_TTL: %w", err)
		}
		c.TokenTTL = d
	}
	if err := setBool(&c.DevMode, "SB_DEV_MODE"); err != nil {
		return err
	}
	return setBool(&c.Storage.UseSSL, "SB_S3_USE_SSL")
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" && !c.DevMode {
		return errors.New("jwt_secret is required outside dev mode (set SB_JWT_SECRET)")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost %d out of range %d-%d", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

// Secret returns the JWT signing secret. Dev mode without a configured
// secret gets a fixed development value.
func (c *Config) Secret() string {
	if c.JWTSecret == "" && c.DevMode {
		return "sharebnb-dev-secret"
	}
	return c.JWTSecret
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	*dst = b
	return nil
}
