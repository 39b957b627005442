package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	Playback PlaybackConfig `toml:"playback"`
	Arrival  ArrivalConfig  `toml:"arrival"`
	Capture  CaptureConfig  `toml:"capture"`
	MQTT     MQTTConfig     `toml:"mqtt"`
	Database DatabaseConfig `toml:"database"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Log      LogConfig      `toml:"log"`
}

// SpotifyConfig holds Spotify API settings.
type SpotifyConfig struct {
	ClientID    string `toml:"client_id"`
	RedirectURI string `toml:"redirect_uri"`
	TokenFile   string `toml:"token_file"`
}

// PlaybackConfig controls how entrance songs are played.
type PlaybackConfig struct {
	// Volume is the level entrance songs start at.
	Volume       int           `toml:"volume"`
	Device       string        `toml:"device"`
	FadeStep     int           `toml:"fade_step"`
	FadeInterval time.Duration `toml:"fade_interval"`
	SettleDelay  time.Duration `toml:"settle_delay"`
	SearchLimit  int           `toml:"search_limit"`
}

// ArrivalConfig controls arrival detection.
type ArrivalConfig struct {
	Debounce   time.Duration `toml:"debounce"`
	VirtualMAC bool          `toml:"virtual_mac"`
}

// CaptureConfig selects where DHCP events come from.
type CaptureConfig struct {
	Source    string `toml:"source"` // pcap, mqtt
	Interface string `toml:"interface"`
	Snaplen   int    `toml:"snaplen"`
}

// MQTTConfig holds broker settings for the mqtt capture source and announcements.
type MQTTConfig struct {
	Broker    string `toml:"broker"`
	ClientID  string `toml:"client_id"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	TopicBase string `toml:"topic_base"`
	TLSCA     string `toml:"tls_ca"`
	TLSCert   string `toml:"tls_cert"`
	TLSKey    string `toml:"tls_key"`

	// Embedded runs a broker inside the daemon on Listen.
	Embedded       bool   `toml:"embedded"`
	Listen         string `toml:"listen"`
	AllowAnonymous bool   `toml:"allow_anonymous"`
}

// DatabaseConfig selects the device store backend.
type DatabaseConfig struct {
	Driver string `toml:"driver"` // sqlite, postgres, mysql
	DSN    string `toml:"dsn"`
}

// MetricsConfig holds the prometheus listener.
type MetricsConfig struct {
	Listen string `toml:"listen"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}
