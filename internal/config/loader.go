package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/mqdash/mqdash/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".mqdash.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/mqdash"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// TokenEnvVar overrides the config token when set.
	TokenEnvVar = "MQDASH_TOKEN"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Create a .mqdash.yaml, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .mqdash.yaml in current directory
// 3. .mqdash.yaml in parent directories (stops at git root or home)
// 4. ~/.config/mqdash/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	// 1. Explicit path takes precedence
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	// 2. Current directory
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	// 3. Walk up to parent directories
	home, _ := os.UserHomeDir()
	dir := cwd
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		if home != "" && parent == home {
			// Don't go above home directory
			break
		}
		dir = parent

		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		// Stop at git root
		gitPath := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			break
		}
	}

	// 4. Global config
	if home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads config from the found path, or returns defaults if not found.
// Commands that can run against --server alone should work without a config file.
func LoadOrDefault(explicit string) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}

	var cfg *Config
	if path == "" {
		cfg = DefaultConfig()
	} else {
		cfg, err = Load(path)
		if err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	setDefaults(v)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	if cfg.Refresh.Overrides == nil {
		cfg.Refresh.Overrides = make(map[string]time.Duration)
	}

	return cfg, nil
}

// setDefaults configures viper defaults so partial configs merge cleanly.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.timeout", "10s")
	v.SetDefault("refresh.interval", "2s")
	v.SetDefault("stats.top_topics", 5)
	v.SetDefault("stats.trend_length", 50)
	v.SetDefault("output.color", "auto")
	v.SetDefault("output.timestamps", false)
}

// applyEnv layers environment overrides on top of the loaded config.
func applyEnv(cfg *Config) {
	if token := os.Getenv(TokenEnvVar); token != "" {
		cfg.Server.Token = token
	}
}
