package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	entErrors "github.com/tessro/entrance/internal/errors"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.entrancerc, $XDG_CONFIG_HOME/entrance/config.toml, ~/.config/entrance/config.toml
func Load() (*Config, error) {
	path := findConfigFile()
	if path == "" {
		cfg := Default()
		if err := applyEnvOverrides(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	// Decode over the defaults so keys missing from the file keep their
	// default values, while explicit zeroes (volume = 0) survive.
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath is where 'config init' writes a new file.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".entrancerc"
	}
	return filepath.Join(home, ".entrancerc")
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".entrancerc"),
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "entrance", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
// A typed variable that does not parse is an error, never skipped.
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	// Spotify
	if v := os.Getenv("ENTRANCE_SPOTIFY_CLIENT_ID"); v != "" {
		cfg.Spotify.ClientID = v
	}
	if v := os.Getenv("ENTRANCE_SPOTIFY_REDIRECT_URI"); v != "" {
		cfg.Spotify.RedirectURI = v
	}
	if v := os.Getenv("ENTRANCE_SPOTIFY_TOKEN_FILE"); v != "" {
		cfg.Spotify.TokenFile = v
	}

	// Playback
	if v := os.Getenv("ENTRANCE_PLAYBACK_VOLUME"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ENTRANCE_PLAYBACK_VOLUME=%q: %w", v, entErrors.ErrInvalidVolume))
		} else {
			cfg.Playback.Volume = i
		}
	}
	if v := os.Getenv("ENTRANCE_PLAYBACK_DEVICE"); v != "" {
		cfg.Playback.Device = v
	}

	// Arrival
	if v := os.Getenv("ENTRANCE_ARRIVAL_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ENTRANCE_ARRIVAL_DEBOUNCE: %w", err))
		} else {
			cfg.Arrival.Debounce = d
		}
	}
	if v := os.Getenv("ENTRANCE_ARRIVAL_VIRTUAL_MAC"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ENTRANCE_ARRIVAL_VIRTUAL_MAC: %w", err))
		} else {
			cfg.Arrival.VirtualMAC = b
		}
	}

	// Capture
	if v := os.Getenv("ENTRANCE_CAPTURE_SOURCE"); v != "" {
		cfg.Capture.Source = v
	}
	if v := os.Getenv("ENTRANCE_CAPTURE_INTERFACE"); v != "" {
		cfg.Capture.Interface = v
	}

	// MQTT
	if v := os.Getenv("ENTRANCE_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
	if v := os.Getenv("ENTRANCE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("ENTRANCE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}

	// Database
	if v := os.Getenv("ENTRANCE_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("ENTRANCE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// Metrics
	if v := os.Getenv("ENTRANCE_METRICS_LISTEN"); v != "" {
		cfg.Metrics.Listen = v
	}

	// Log
	if v := os.Getenv("ENTRANCE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ENTRANCE_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	return errors.Join(errs...)
}
