// Package config defines service configuration and its loading.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/fanpulse/internal/domain/mobility"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Timezone is the default local zone for dates and hours.
	Timezone string `koanf:"timezone"`
	// RegionTimezones overrides the zone per region, e.g. ireland: Europe/Dublin.
	RegionTimezones map[string]string `koanf:"region_timezones"`

	// EventQueueSize bounds the in-memory ingestion queue.
	EventQueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets the size of the fingerprint cache.
	DedupeSize int `koanf:"dedupe_size"`

	BucketStartHour         int `koanf:"bucket_start_hour"`
	BucketEndHour           int `koanf:"bucket_end_hour"`
	BucketResolutionMinutes int `koanf:"bucket_resolution_minutes"`

	CongestionHighThreshold     int `koanf:"congestion_high_threshold"`
	LeagueHighThreshold         int `koanf:"league_high_threshold"`
	CongestionModerateThreshold int `koanf:"congestion_moderate_threshold"`

	RiskOverlapWindowMinutes int     `koanf:"risk_overlap_window_minutes"`
	RiskRadiusKm             float64 `koanf:"risk_radius_km"`

	// DurationOverridesMinutes replaces fixed-model durations, keyed by
	// sport, sport/kind or "default".
	DurationOverridesMinutes map[string]int `koanf:"duration_overrides_minutes"`
	// SoonWindowOverridesMinutes replaces soon windows, keyed the same way.
	SoonWindowOverridesMinutes map[string]int `koanf:"soon_window_overrides_minutes"`

	// EventsFile is a JSON feed loaded at startup.
	EventsFile string `koanf:"events_file"`
	// DatabaseURL is a PostgreSQL DSN whose raw_events are loaded at startup.
	DatabaseURL string `koanf:"database_url"`

	CORSOrigins            []string `koanf:"cors_origins"`
	RateLimitRequests      int      `koanf:"rate_limit_requests"`
	RateLimitWindowSeconds int      `koanf:"rate_limit_window_seconds"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":9080",
		Timezone:  "Europe/London",
		RegionTimezones: map[string]string{
			"ireland":          "Europe/Dublin",
			"northern-ireland": "Europe/London",
		},
		EventQueueSize:              10_000,
		WorkerCount:                 runtime.NumCPU(),
		DedupeSize:                  50_000,
		BucketStartHour:             mobility.DefaultStartHour,
		BucketEndHour:               mobility.DefaultEndHour,
		BucketResolutionMinutes:     mobility.DefaultResolutionMinutes,
		CongestionHighThreshold:     6,
		LeagueHighThreshold:         4,
		CongestionModerateThreshold: 3,
		RiskOverlapWindowMinutes:    120,
		RiskRadiusKm:                25,
		CORSOrigins:                 []string{"*"},
		RateLimitRequests:           120,
		RateLimitWindowSeconds:      60,
	}
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	for region, tz := range c.RegionTimezones {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("%w: region %q timezone %q: %v", ErrInvalidConfig, region, tz, err)
		}
	}
	if err := c.BucketWindow().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.CongestionModerateThreshold <= 0 || c.CongestionHighThreshold < c.CongestionModerateThreshold ||
		c.LeagueHighThreshold < c.CongestionModerateThreshold {
		return fmt.Errorf("%w: congestion thresholds must satisfy 0 < moderate <= high", ErrInvalidConfig)
	}
	if c.RiskOverlapWindowMinutes < 0 {
		return fmt.Errorf("%w: risk_overlap_window_minutes must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Location returns the default zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RegionLocations resolves RegionTimezones, keyed by lower-case region.
// Unknown zones are skipped.
func (c *Config) RegionLocations() map[string]*time.Location {
	out := make(map[string]*time.Location, len(c.RegionTimezones))
	for region, tz := range c.RegionTimezones {
		if loc, err := time.LoadLocation(tz); err == nil {
			out[strings.ToLower(strings.TrimSpace(region))] = loc
		}
	}
	return out
}

// BucketWindow returns the configured mobility window.
func (c *Config) BucketWindow() mobility.Window {
	return mobility.Window{
		StartHour:         c.BucketStartHour,
		EndHour:           c.BucketEndHour,
		ResolutionMinutes: c.BucketResolutionMinutes,
	}
}

// RiskOverlapWindow returns the time overlap window.
func (c *Config) RiskOverlapWindow() time.Duration {
	return time.Duration(c.RiskOverlapWindowMinutes) * time.Minute
}

// RateLimitWindow returns the rate limiter window.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// DurationOverrides converts DurationOverridesMinutes.
func (c *Config) DurationOverrides() map[string]time.Duration {
	return minutes(c.DurationOverridesMinutes)
}

// SoonWindowOverrides converts SoonWindowOverridesMinutes.
func (c *Config) SoonWindowOverrides() map[string]time.Duration {
	return minutes(c.SoonWindowOverridesMinutes)
}

func minutes(in map[string]int) map[string]time.Duration {
	out := make(map[string]time.Duration, len(in))
	for k, v := range in {
		out[k] = time.Duration(v) * time.Minute
	}
	return out
}
