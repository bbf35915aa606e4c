// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Player  PlayerConfig  `yaml:"player"`
	Library LibraryConfig `yaml:"library"`
	Spotify SpotifyConfig `yaml:"spotify"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig represents the local UI server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr" default:"127.0.0.1:8707"`
}

// PlayerConfig represents playback configuration.
type PlayerConfig struct {
	InitialVolume      int    `yaml:"initial_volume" default:"80" validate:"gte=0,lte=100"`
	Loop               string `yaml:"loop" default:"off" validate:"oneof=off all one"`
	Shuffle            bool   `yaml:"shuffle"`
	ProgressIntervalMs int    `yaml:"progress_interval_ms" default:"500" validate:"gte=100,lte=5000"`
	EnqueueDedupMs     int    `yaml:"enqueue_dedup_ms" default:"500" validate:"gte=0,lte=5000"`
	NoAudio            bool   `yaml:"no_audio"` // Force the timer backend even when a device exists
}

// LibraryConfig represents track library configuration.
type LibraryConfig struct {
	Sources []SourceConfig `yaml:"sources"`
	Filters []FilterConfig `yaml:"filters"`
}

// SourceConfig represents a single library source configuration.
type SourceConfig struct {
	Type        string         `yaml:"type" validate:"required"`
	DisplayName string         `yaml:"display_name"`
	Settings    map[string]any `yaml:"settings"`
}

// FilterConfig represents a single import filter configuration.
type FilterConfig struct {
	Type     string         `yaml:"type" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// SpotifyConfig represents Spotify API credentials, needed only when a
// spotify library source is configured.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Output string `yaml:"output" default:"stdout"`
	Level  string `yaml:"level" default:"info"`
	File   string `yaml:"file"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for credentials.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv applies environment variable overrides for credentials.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
}

// HasSpotifyCredentials reports whether all Spotify credentials are set.
func (c *Config) HasSpotifyCredentials() bool {
	return c.Spotify.ClientID != "" && c.Spotify.ClientSecret != "" && c.Spotify.RefreshToken != ""
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	// A spotify source is only usable with full credentials.
	for _, src := range c.Library.Sources {
		if src.Type == "spotify" && !c.HasSpotifyCredentials() {
			return errors.New("spotify library source configured without spotify credentials")
		}
	}

	return nil
}
