// Package config loads client settings from defaults, an optional YAML
// file and KIN_* environment variables, in that order, and validates the
// result against an embedded CUE schema.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

const (
	DefaultBaseURL  = "http://127.0.0.1:5000"
	DefaultTimeout  = 10 * time.Second
	DefaultDebounce = 300 * time.Millisecond
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Search SearchConfig `yaml:"search"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

type StoreConfig struct {
	Path string `yaml:"path"` // SQLite file holding the session cookies
}

type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text", "json"
}

// ValidationError reports a config that does not satisfy the schema.
type ValidationError struct {
	Source string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %v", e.Source, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout},
		Search: SearchConfig{Debounce: DefaultDebounce},
		Store:  StoreConfig{Path: defaultStorePath()},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the effective config.
//
// An explicit path must exist. With an empty path the default location
// (DefaultPath) is read if present.
func Load(path string) (*Config, error) {
	cfg := Default()

	source := "defaults"
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		loaded, err := cfg.mergeFile(path)
		if err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
		if loaded {
			source = path
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Source = source
		}
		return nil, err
	}
	return cfg, nil
}

// DefaultPath is $XDG_CONFIG_HOME/kin/config.yaml (or the platform
// equivalent), or "" when no config directory is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "kin", "config.yaml")
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".kin", "kin.db")
	}
	return filepath.Join(dir, "kin", "kin.db")
}

func (c *Config) mergeFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return false, fmt.Errorf("parse config %s: %w", path, err)
	}
	return true, nil
}

func (c *Config) applyEnv() {
	c.Server.BaseURL = getEnvNonEmpty("KIN_BASE_URL", c.Server.BaseURL)
	c.Server.Timeout = getEnvDuration("KIN_TIMEOUT", c.Server.Timeout)
	c.Search.Debounce = getEnvDuration("KIN_DEBOUNCE", c.Search.Debounce)
	c.Store.Path = getEnvNonEmpty("KIN_STORE_PATH", c.Store.Path)
	c.Log.Level = strings.ToLower(getEnvNonEmpty("KIN_LOG_LEVEL", c.Log.Level))
	c.Log.Format = strings.ToLower(getEnvNonEmpty("KIN_LOG_FORMAT", c.Log.Format))
}

// Validate checks c against the embedded schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := schema.Unify(ctx.Encode(c.document()))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Source: "config", Err: err}
	}
	return nil
}

// document is the plain-value view of c the schema constrains.
func (c *Config) document() map[string]any {
	return map[string]any{
		"server": map[string]any{
			"base_url":   c.Server.BaseURL,
			"timeout_ms": c.Server.Timeout.Milliseconds(),
		},
		"search": map[string]any{
			"debounce_ms": c.Search.Debounce.Milliseconds(),
		},
		"store": map[string]any{
			"path": c.Store.Path,
		},
		"log": map[string]any{
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
	}
}

// SlogLevel maps Log.Level to a slog level. Unknown values map to Info.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
