package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mqdash/mqdash/internal/errors"
)

// refreshKeys are the resource names accepted in refresh.overrides.
var refreshKeys = map[string]bool{
	"users":       true,
	"connections": true,
	"messages":    true,
	"stats":       true,
	"events":      true,
}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but mqdash only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Update mqdash to the latest release")
	}

	if err := validateServer(cfg.Server); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'server' section in your .mqdash.yaml.")
	}

	if err := validateRefresh(cfg.Refresh); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'refresh' section in your .mqdash.yaml.")
	}

	if err := validateStats(cfg.Stats); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'stats' section in your .mqdash.yaml.")
	}

	if err := validateOutput(cfg.Output); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'output' section in your .mqdash.yaml.")
	}

	return nil
}

// validateServer checks API connection settings.
func validateServer(srv ServerConfig) error {
	if srv.URL == "" {
		return fmt.Errorf("server.url is required - where's your platform API?")
	}

	u, err := url.Parse(srv.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("server.url '%s' isn't a valid URL - try something like https://broker.example.com:8080", srv.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.url scheme '%s' isn't supported - use http or https", u.Scheme)
	}

	if srv.Timeout < 0 {
		return fmt.Errorf("server.timeout can't be negative - that doesn't make sense")
	}

	return nil
}

// validateRefresh checks polling settings.
func validateRefresh(r RefreshConfig) error {
	if r.Interval < 0 {
		return fmt.Errorf("refresh.interval can't be negative - that doesn't make sense")
	}

	for key, d := range r.Overrides {
		if !refreshKeys[key] {
			names := make([]string, 0, len(refreshKeys))
			for name := range refreshKeys {
				names = append(names, name)
			}
			return fmt.Errorf("refresh.overrides.%s isn't a resource mqdash polls - use one of: %s", key, strings.Join(names, ", "))
		}
		if d < 0 {
			return fmt.Errorf("refresh.overrides.%s can't be negative - that doesn't make sense", key)
		}
	}

	return nil
}

// validateStats checks analytics settings.
func validateStats(s StatsConfig) error {
	if s.TopTopics < 1 {
		return fmt.Errorf("stats.top_topics needs to be at least 1 (got %d)", s.TopTopics)
	}
	if s.TrendLength < 1 {
		return fmt.Errorf("stats.trend_length needs to be at least 1 (got %d)", s.TrendLength)
	}
	return nil
}

// validateOutput checks output configuration.
func validateOutput(out OutputConfig) error {
	validColors := map[string]bool{"auto": true, "always": true, "never": true, "": true}
	if !validColors[out.Color] {
		return fmt.Errorf("output.color '%s' isn't valid - use 'auto', 'always', or 'never'", out.Color)
	}
	return nil
}
