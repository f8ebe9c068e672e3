// Package config loads the graphscope configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/graphscope/config.toml
// (~/.config/graphscope/config.toml when unset). A missing file yields
// [Default]. Command-line flags override loaded values.
//
//	[render]
//	layout = "cola"
//	view = "data"
//	height = 720
//
//	[store]
//	backend = "sqlite"
//	path = "graph.db"
//
//	[cache]
//	backend = "file"
//	ttl = "24h"
//
//	[session]
//	backend = "memory"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
//
// Secrets can come from the environment instead of the file:
// GRAPHSCOPE_STORE_PASSWORD and GRAPHSCOPE_REDIS_PASSWORD.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	gserrors "github.com/matzehuels/graphscope/pkg/errors"
)

const appName = "graphscope"

// Environment variables consulted by [Config.ApplyEnv].
const (
	EnvStorePassword = "GRAPHSCOPE_STORE_PASSWORD"
	EnvRedisPassword = "GRAPHSCOPE_REDIS_PASSWORD"
)

var validate = validator.New()

// Duration is a time.Duration written as a string ("5m", "24h") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// RenderConfig holds render defaults.
type RenderConfig struct {
	Layout string `toml:"layout"`
	View   string `toml:"view" validate:"omitempty,oneof=data schema"`
	Height int    `toml:"height" validate:"gte=0,lte=10000"`
}

// StoreConfig selects and configures the graph store.
type StoreConfig struct {
	Backend   string   `toml:"backend" validate:"oneof=file sqlite mongo remote"`
	Path      string   `toml:"path,omitempty"`
	URL       string   `toml:"url,omitempty" validate:"omitempty,url"`
	URI       string   `toml:"uri,omitempty"`
	Database  string   `toml:"database,omitempty"`
	Username  string   `toml:"username,omitempty"`
	Password  string   `toml:"password,omitempty"`
	Documents []string `toml:"documents,omitempty"`
	Timeout   Duration `toml:"timeout"`
}

// CacheConfig selects and configures the payload and lookup cache.
type CacheConfig struct {
	Backend       string   `toml:"backend" validate:"oneof=file redis none"`
	Dir           string   `toml:"dir,omitempty"`
	RedisAddr     string   `toml:"redis_addr,omitempty" validate:"required_if=Backend redis"`
	RedisPassword string   `toml:"redis_password,omitempty"`
	RedisDB       int      `toml:"redis_db,omitempty"`
	TTL           Duration `toml:"ttl"`
}

// SessionConfig selects and configures the session store.
type SessionConfig struct {
	Backend   string   `toml:"backend" validate:"oneof=memory file redis"`
	Dir       string   `toml:"dir,omitempty"`
	RedisAddr string   `toml:"redis_addr,omitempty" validate:"required_if=Backend redis"`
	TTL       Duration `toml:"ttl"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string   `toml:"addr" validate:"required"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// Config is the top-level configuration.
type Config struct {
	Render  RenderConfig  `toml:"render"`
	Store   StoreConfig   `toml:"store"`
	Cache   CacheConfig   `toml:"cache"`
	Session SessionConfig `toml:"session"`
	Server  ServerConfig  `toml:"server"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Render: RenderConfig{Layout: "cola", View: "data", Height: 720},
		Store: StoreConfig{
			Backend: "file",
			Path:    "graph.json",
			Timeout: Duration{30 * time.Second},
		},
		Cache: CacheConfig{
			Backend: "file",
			TTL:     Duration{24 * time.Hour},
		},
		Session: SessionConfig{
			Backend: "memory",
			TTL:     Duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: Duration{10 * time.Second},
		},
	}
}

// Dir returns the XDG config directory for graphscope.
func Dir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// Path returns the full path to config.toml.
func Path() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// Load reads the config file from the XDG config directory.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. Values missing from the file
// keep their defaults. Returns Default if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, gserrors.New(gserrors.ErrCodeInvalidInput, "unknown config keys: %s", strings.Join(keys, ", "))
	}

	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.Session.Dir = expandHome(cfg.Session.Dir)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv overrides secrets from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvStorePassword); v != "" {
		c.Store.Password = v
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		c.Cache.RedisPassword = v
	}
}

// Validate checks backend names and bounds.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return gserrors.New(gserrors.ErrCodeInvalidInput, "config %s: failed %q (value %v)",
				strings.ToLower(strings.TrimPrefix(e.Namespace(), "Config.")), e.Tag(), e.Value())
		}
		return gserrors.Wrap(gserrors.ErrCodeInvalidInput, err, "invalid config")
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
