// Package config loads the application profile used by the growl command.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/fsnotify/fsnotify"
	"go.yaml.in/yaml/v4"
)

const (
	Dir  = "growl"
	File = "config.yaml"
)

// Config describes the application the command registers as, plus
// command-wide settings.
type Config struct {
	Application    string   `yaml:"application"`
	Icon           string   `yaml:"icon,omitempty"`
	Notifications  []string `yaml:"notifications"`
	Defaults       []string `yaml:"defaults,omitempty"`
	AlwaysCallback bool     `yaml:"always_callback,omitempty"`
	GlobalEvents   bool     `yaml:"global_events,omitempty"`
	Threshold      string   `yaml:"threshold,omitempty"`
	LogLevel       string   `yaml:"log_level,omitempty"`
	BusAddress     string   `yaml:"bus_address,omitempty"`
}

// Default returns the profile used when no config file exists.
func Default() *Config {
	return &Config{
		Application:   "growl",
		Notifications: []string{"Command-Line Growl Notification"},
		Threshold:     "info",
		LogLevel:      "warn",
	}
}

// Path returns $XDG_CONFIG_HOME/growl/config.yaml, creating the directory.
func Path() (string, error) {
	p, err := xdg.ConfigFile(filepath.Join(Dir, File))
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}
	return p, nil
}

// Load reads and parses the config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied config path
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks the fields registration depends on.
func (c *Config) Validate() error {
	if c.Application == "" {
		return errors.New("config: application must not be empty")
	}
	if len(c.Notifications) == 0 {
		return errors.New("config: at least one notification is required")
	}
	return nil
}

// Save writes the config to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // config is not secret
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Watch calls fn with the reloaded config each time path is written, until
// ctx is cancelled. Files that fail to parse are reported to onErr and skipped.
func Watch(ctx context.Context, path string, fn func(*Config), onErr func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer w.Close()

	// Editors replace files by rename, so watch the directory.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				if onErr != nil {
					onErr(err)
				}
				continue
			}
			fn(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if onErr != nil {
				onErr(err)
			}
		}
	}
}
