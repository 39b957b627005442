package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	entErrors "github.com/tessro/entrance/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadFromKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
[spotify]
client_id = "abc"

[playback]
fade_interval = "250ms"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Spotify.ClientID != "abc" {
		t.Errorf("ClientID = %q, want %q", cfg.Spotify.ClientID, "abc")
	}
	if cfg.Playback.Volume != 70 {
		t.Errorf("Volume = %d, want 70", cfg.Playback.Volume)
	}
	if cfg.Playback.FadeInterval != 250*time.Millisecond {
		t.Errorf("FadeInterval = %v, want 250ms", cfg.Playback.FadeInterval)
	}
	if cfg.Arrival.Debounce != 30*time.Second {
		t.Errorf("Debounce = %v, want 30s", cfg.Arrival.Debounce)
	}
	if cfg.Database.DSN != "entrance_song.db" {
		t.Errorf("DSN = %q, want %q", cfg.Database.DSN, "entrance_song.db")
	}
}

func TestLoadFromExplicitZeroVolume(t *testing.T) {
	path := writeConfig(t, "[playback]\nvolume = 0\n")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Playback.Volume != 0 {
		t.Errorf("Volume = %d, want 0", cfg.Playback.Volume)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ENTRANCE_PLAYBACK_VOLUME", "42")
	t.Setenv("ENTRANCE_ARRIVAL_VIRTUAL_MAC", "true")
	t.Setenv("ENTRANCE_ARRIVAL_DEBOUNCE", "10s")
	t.Setenv("ENTRANCE_CAPTURE_SOURCE", "mqtt")

	path := writeConfig(t, "")
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Playback.Volume != 42 {
		t.Errorf("Volume = %d, want 42", cfg.Playback.Volume)
	}
	if !cfg.Arrival.VirtualMAC {
		t.Error("VirtualMAC = false, want true")
	}
	if cfg.Arrival.Debounce != 10*time.Second {
		t.Errorf("Debounce = %v, want 10s", cfg.Arrival.Debounce)
	}
	if cfg.Capture.Source != "mqtt" {
		t.Errorf("Source = %q, want mqtt", cfg.Capture.Source)
	}
}

func TestEnvOverridesRejectMalformed(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{name: "volume", key: "ENTRANCE_PLAYBACK_VOLUME", value: "abc", wantErr: entErrors.ErrInvalidVolume},
		{name: "debounce", key: "ENTRANCE_ARRIVAL_DEBOUNCE", value: "soon"},
		{name: "virtual mac", key: "ENTRANCE_ARRIVAL_VIRTUAL_MAC", value: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			path := writeConfig(t, "[playback]\nvolume = 50\n")

			cfg, err := LoadFrom(path)
			if err == nil {
				t.Fatalf("LoadFrom() = %+v, want error for %s=%s", cfg, tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error = %v, want it to name %s", err, tt.key)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEmbeddedBrokerDefaultsURL(t *testing.T) {
	cfg := &Config{MQTT: MQTTConfig{Embedded: true}}
	cfg.ApplyDefaults()

	if cfg.MQTT.Broker != "tcp://127.0.0.1:1883" {
		t.Errorf("Broker = %q, want %q", cfg.MQTT.Broker, "tcp://127.0.0.1:1883")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "volume too high",
			mutate:  func(c *Config) { c.Playback.Volume = 101 },
			wantErr: "playback: volume 101 out of range",
		},
		{
			name:    "negative volume",
			mutate:  func(c *Config) { c.Playback.Volume = -1 },
			wantErr: "out of range",
		},
		{
			name:    "zero fade step",
			mutate:  func(c *Config) { c.Playback.FadeStep = 0 },
			wantErr: "fade_step",
		},
		{
			name:    "unknown capture source",
			mutate:  func(c *Config) { c.Capture.Source = "bluetooth" },
			wantErr: "invalid source",
		},
		{
			name:    "mqtt source without broker",
			mutate:  func(c *Config) { c.Capture.Source = "mqtt" },
			wantErr: "broker is required",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Database.Driver = "postgres"; c.Database.DSN = "" },
			wantErr: "dsn is required",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
