// Package config handles moveboard's process-wide configuration. Settings
// that the original design read ad hoc (dark-mode flag, persisted session
// id, last-briefing stamp) live here with an explicit load-at-startup /
// save-on-change lifecycle and are injected into the components that need
// them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDirName is the directory created under the user config root.
	ConfigDirName = "moveboard"

	configFileName = "config.yaml"

	// briefingLayout is the calendar-day stamp gating the daily briefing.
	briefingLayout = "2006-01-02"

	defaultAPIBaseURL = "http://localhost:8787"
)

// FileConfig models the persisted YAML.
type FileConfig struct {
	Version      int    `yaml:"version"`
	APIBaseURL   string `yaml:"api_base_url"`
	Offline      bool   `yaml:"offline,omitempty"`
	DarkMode     bool   `yaml:"dark_mode"`
	SessionID    string `yaml:"session_id"`
	LastBriefing string `yaml:"last_briefing,omitempty"`
}

// Config is the runtime configuration handle. Mutating setters persist
// immediately.
type Config struct {
	// Dir is where the config file and logs live.
	Dir string

	File FileConfig
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		Version:    1,
		APIBaseURL: defaultAPIBaseURL,
		DarkMode:   true,
	}
}

// DefaultDir resolves the per-user config directory.
func DefaultDir() (string, error) {
	root, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}
	return filepath.Join(root, ConfigDirName), nil
}

// New loads configuration from dir, creating the directory, the file, and a
// fresh session id on first run.
func New(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("config: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("config: ensure %s: %w", dir, err)
	}
	cfg := &Config{Dir: dir, File: defaultFileConfig()}
	if err := cfg.load(); err != nil {
		return nil, err
	}
	if cfg.File.SessionID == "" {
		cfg.File.SessionID = uuid.NewString()
		if err := cfg.save(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Path returns the on-disk location of the config file.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, configFileName)
}

// LogPath returns where the session logbook writes.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir, "logs", "moveboard.log")
}

// APIBaseURL returns the configured service root.
func (c *Config) APIBaseURL() string {
	if strings.TrimSpace(c.File.APIBaseURL) == "" {
		return defaultAPIBaseURL
	}
	return c.File.APIBaseURL
}

// SessionID returns the id persisted across restarts.
func (c *Config) SessionID() string { return c.File.SessionID }

// DarkMode returns the persisted theme flag.
func (c *Config) DarkMode() bool { return c.File.DarkMode }

// SetDarkMode flips the theme flag and persists it.
func (c *Config) SetDarkMode(on bool) error {
	c.File.DarkMode = on
	return c.save()
}

// ShouldBrief reports whether the daily briefing has not yet run for the
// calendar day containing now.
func (c *Config) ShouldBrief(now time.Time) bool {
	return c.File.LastBriefing != now.Format(briefingLayout)
}

// MarkBriefed records that the briefing ran for now's calendar day. At most
// one briefing per day survives restarts this way.
func (c *Config) MarkBriefed(now time.Time) error {
	stamp := now.Format(briefingLayout)
	if c.File.LastBriefing == stamp {
		return nil
	}
	c.File.LastBriefing = stamp
	return c.save()
}

func (c *Config) load() error {
	data, err := os.ReadFile(c.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", c.Path(), err)
	}
	parsed := defaultFileConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", c.Path(), err)
	}
	if parsed.Version == 0 {
		parsed.Version = 1
	}
	c.File = parsed
	return nil
}

func (c *Config) save() error {
	data, err := yaml.Marshal(c.File)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(c.Path(), data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", c.Path(), err)
	}
	return nil
}
