// Package config loads the studio configuration: storage locations, the
// remote API and the feature flags read once at start.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the data directory.
const FileName = "studio.yaml"

// Flags are the launch-time feature switches.
type Flags struct {
	UseSQLite             bool `yaml:"use_sqlite"`
	UseBoxStore           bool `yaml:"use_box_store"`
	ClearDatabaseOnLaunch bool `yaml:"clear_database_on_launch"`
	EnableDebugLogging    bool `yaml:"enable_debug_logging"`
}

// Storage says where each backend keeps its data. Relative paths are
// resolved against the data directory.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"` // ":memory:" for a throwaway store
	BoxDir     string `yaml:"box_dir"`
}

// Remote configures the sync client.
type Remote struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// Config is the whole configuration file.
type Config struct {
	Flags   Flags   `yaml:"flags"`
	Storage Storage `yaml:"storage"`
	Remote  Remote  `yaml:"remote"`
}

// Default returns the configuration used when no file exists: the
// relational store in ./data, no remote.
func Default() *Config {
	return &Config{
		Flags: Flags{UseSQLite: true},
		Storage: Storage{
			DataDir:    "data",
			SQLitePath: "studio.db",
			BoxDir:     "boxes",
		},
		Remote: Remote{Timeout: 30 * time.Second},
	}
}

// Load reads path over the defaults, applies STUDIO_* environment
// overrides and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects configurations no backend can be opened from.
func (c *Config) Validate() error {
	if !c.Flags.UseSQLite && !c.Flags.UseBoxStore {
		return fmt.Errorf("config: one of use_sqlite or use_box_store must be set")
	}
	if c.Flags.UseSQLite && c.Storage.SQLitePath == "" {
		return fmt.Errorf("config: storage.sqlite_path is required with use_sqlite")
	}
	if c.Flags.UseBoxStore && c.Storage.BoxDir == "" {
		return fmt.Errorf("config: storage.box_dir is required with use_box_store")
	}
	if c.Remote.BaseURL != "" && !strings.HasPrefix(c.Remote.BaseURL, "http://") && !strings.HasPrefix(c.Remote.BaseURL, "https://") {
		return fmt.Errorf("config: remote.base_url must be an http(s) URL, got %q", c.Remote.BaseURL)
	}
	if c.Remote.Timeout < 0 {
		return fmt.Errorf("config: remote.timeout must not be negative")
	}
	return nil
}

// MigrationNeeded reports whether legacy box data should be copied into
// the relational store: both backends are enabled.
func (c *Config) MigrationNeeded() bool {
	return c.Flags.UseSQLite && c.Flags.UseBoxStore
}

// SQLiteDSN returns the SQLite path resolved against the data directory.
func (c *Config) SQLiteDSN() string {
	if c.Storage.SQLitePath == ":memory:" {
		return c.Storage.SQLitePath
	}
	return c.resolve(c.Storage.SQLitePath)
}

// BoxPath returns the box store directory resolved against the data
// directory.
func (c *Config) BoxPath() string {
	return c.resolve(c.Storage.BoxDir)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.Storage.DataDir == "" {
		return p
	}
	return filepath.Join(c.Storage.DataDir, p)
}

// applyEnv overrides fields from STUDIO_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	bools := map[string]*bool{
		"STUDIO_USE_SQLITE":               &c.Flags.UseSQLite,
		"STUDIO_USE_BOX_STORE":            &c.Flags.UseBoxStore,
		"STUDIO_CLEAR_DATABASE_ON_LAUNCH": &c.Flags.ClearDatabaseOnLaunch,
		"STUDIO_ENABLE_DEBUG_LOGGING":     &c.Flags.EnableDebugLogging,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", key, err)
			}
			*dst = b
		}
	}

	strs := map[string]*string{
		"STUDIO_DATA_DIR":    &c.Storage.DataDir,
		"STUDIO_SQLITE_PATH": &c.Storage.SQLitePath,
		"STUDIO_BOX_DIR":     &c.Storage.BoxDir,
		"STUDIO_REMOTE_URL":  &c.Remote.BaseURL,
		"STUDIO_TOKEN":       &c.Remote.Token,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("STUDIO_REMOTE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: STUDIO_REMOTE_TIMEOUT: %w", err)
		}
		c.Remote.Timeout = d
	}
	return nil
}
