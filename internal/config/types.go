package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .mqdash.yaml configuration file.
type Config struct {
	Version int           `yaml:"version" mapstructure:"version"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Refresh RefreshConfig `yaml:"refresh" mapstructure:"refresh"`
	Stats   StatsConfig   `yaml:"stats" mapstructure:"stats"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
}

// ServerConfig defines how to reach the platform API.
type ServerConfig struct {
	// URL is the base URL of the platform API, e.g. https://broker.example.com:8080.
	URL string `yaml:"url" mapstructure:"url"`

	// Token is the bearer token used for admin API calls.
	// Can also come from the MQDASH_TOKEN environment variable.
	Token string `yaml:"token" mapstructure:"token"`

	// Timeout bounds each API request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RefreshConfig controls dashboard polling behavior.
type RefreshConfig struct {
	// Interval is the default poll interval for all resources.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// Overrides sets per-resource intervals, keyed by resource name
	// (users, connections, messages, stats, events).
	Overrides map[string]time.Duration `yaml:"overrides" mapstructure:"overrides"`
}

// StatsConfig controls the analytics panels.
type StatsConfig struct {
	// TopTopics is how many topics the distribution panel shows.
	TopTopics int `yaml:"top_topics" mapstructure:"top_topics"`

	// TrendLength caps the number of value-trend points kept per connection.
	TrendLength int `yaml:"trend_length" mapstructure:"trend_length"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`

	// Timestamps toggles absolute timestamps in list output.
	Timestamps bool `yaml:"timestamps" mapstructure:"timestamps"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Server: ServerConfig{
			Timeout: 10 * time.Second,
		},
		Refresh: RefreshConfig{
			Interval:  2 * time.Second,
			Overrides: make(map[string]time.Duration),
		},
		Stats: StatsConfig{
			TopTopics:   5,
			TrendLength: 50,
		},
		Output: OutputConfig{
			Color:      "auto",
			Timestamps: false,
		},
	}
}
