// Package config loads the workspace configuration: tracker connection
// settings, the default board, and optional state-set overrides.
package config

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/flowmetrics/pkg/storage"
	"gopkg.in/yaml.v3"
)

// Config is the persisted workspace configuration.
type Config struct {
	Tracker TrackerConfig `yaml:"tracker"`
	Board   BoardConfig   `yaml:"board"`
}

// TrackerConfig carries Jira connection settings. APIToken and BearerToken
// are usually left out of the file and supplied through the environment.
type TrackerConfig struct {
	BaseURL     string `yaml:"base_url"`
	Email       string `yaml:"email,omitempty"`
	APIToken    string `yaml:"api_token,omitempty"`
	BearerToken string `yaml:"bearer_token,omitempty"`
}

// BoardConfig names the default board and an optional states override file.
type BoardConfig struct {
	ID         string `yaml:"id"`
	StatesFile string `yaml:"states_file,omitempty"`
}

// Load reads the workspace config, returning (nil, nil) when no config file
// exists yet. Environment variables override file values so tokens stay out
// of the workspace.
func Load(root string) (*Config, error) {
	repo := storage.NewFilesystemRepository(root)
	path, err := repo.ResolvePath(storage.ConfigFile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path resolved inside the workspace
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// Save writes the workspace config with owner-only permissions.
func Save(root string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	repo := storage.NewFilesystemRepository(root)
	path, err := repo.ResolvePath(storage.ConfigFile)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FLOWMETRICS_TRACKER_URL"); v != "" {
		cfg.Tracker.BaseURL = v
	}
	if v := os.Getenv("FLOWMETRICS_TRACKER_EMAIL"); v != "" {
		cfg.Tracker.Email = v
	}
	if v := os.Getenv("FLOWMETRICS_TRACKER_TOKEN"); v != "" {
		cfg.Tracker.APIToken = v
	}
	if v := os.Getenv("FLOWMETRICS_TRACKER_BEARER"); v != "" {
		cfg.Tracker.BearerToken = v
	}
	if v := os.Getenv("FLOWMETRICS_BOARD_ID"); v != "" {
		cfg.Board.ID = v
	}
}
