package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mqdash/mqdash/internal/errors"
)

// fileConfig mirrors Config with durations as strings so generated files
// read as "2s" rather than nanosecond integers.
type fileConfig struct {
	Version int              `yaml:"version"`
	Server  fileServer       `yaml:"server"`
	Refresh fileRefresh      `yaml:"refresh"`
	Stats   StatsConfig      `yaml:"stats"`
	Output  fileOutputConfig `yaml:"output"`
}

type fileServer struct {
	URL     string `yaml:"url"`
	Token   string `yaml:"token,omitempty"`
	Timeout string `yaml:"timeout"`
}

type fileRefresh struct {
	Interval  string            `yaml:"interval"`
	Overrides map[string]string `yaml:"overrides,omitempty"`
}

type fileOutputConfig struct {
	Color      string `yaml:"color"`
	Timestamps bool   `yaml:"timestamps"`
}

// Marshal renders the config as YAML suitable for a .mqdash.yaml file.
func Marshal(cfg *Config) ([]byte, error) {
	fc := fileConfig{
		Version: cfg.Version,
		Server: fileServer{
			URL:     cfg.Server.URL,
			Token:   cfg.Server.Token,
			Timeout: cfg.Server.Timeout.String(),
		},
		Refresh: fileRefresh{
			Interval: cfg.Refresh.Interval.String(),
		},
		Stats: cfg.Stats,
		Output: fileOutputConfig{
			Color:      cfg.Output.Color,
			Timestamps: cfg.Output.Timestamps,
		},
	}

	if len(cfg.Refresh.Overrides) > 0 {
		fc.Refresh.Overrides = make(map[string]string, len(cfg.Refresh.Overrides))
		for key, interval := range cfg.Refresh.Overrides {
			fc.Refresh.Overrides[key] = interval.String()
		}
	}

	data, err := yaml.Marshal(fc)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to encode config",
			"This is a bug; please report it")
	}
	return data, nil
}

// WriteFile writes the config to path. Refuses to overwrite an existing
// file unless force is set.
func WriteFile(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.New(errors.ErrConfig,
				"Config file already exists: "+path,
				"Use --force to overwrite it")
		}
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot write config file "+path,
			"Check directory permissions")
	}
	return nil
}

// StarterConfig returns the config written by "mqdash config init":
// defaults plus the given server URL.
func StarterConfig(serverURL string) *Config {
	cfg := DefaultConfig()
	cfg.Server.URL = serverURL
	cfg.Refresh.Overrides = map[string]time.Duration{
		"messages": time.Second,
	}
	return cfg
}
