package config

import "time"

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURI: "http://127.0.0.1:8888/callback",
		},
		Playback: PlaybackConfig{
			Volume:       70,
			FadeStep:     5,
			FadeInterval: 500 * time.Millisecond,
			SettleDelay:  time.Second,
			SearchLimit:  20,
		},
		Arrival: ArrivalConfig{
			Debounce: 30 * time.Second,
		},
		Capture: CaptureConfig{
			Source:  "pcap",
			Snaplen: 1600,
		},
		MQTT: MQTTConfig{
			ClientID:  "entrance",
			TopicBase: "entrance",
			Listen:    "127.0.0.1:1883",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "entrance_song.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	if c.Spotify.RedirectURI == "" {
		c.Spotify.RedirectURI = d.Spotify.RedirectURI
	}

	// Playback. A zero volume is left alone; silence is a valid choice.
	if c.Playback.FadeStep == 0 {
		c.Playback.FadeStep = d.Playback.FadeStep
	}
	if c.Playback.FadeInterval == 0 {
		c.Playback.FadeInterval = d.Playback.FadeInterval
	}
	if c.Playback.SettleDelay == 0 {
		c.Playback.SettleDelay = d.Playback.SettleDelay
	}
	if c.Playback.SearchLimit == 0 {
		c.Playback.SearchLimit = d.Playback.SearchLimit
	}

	if c.Arrival.Debounce == 0 {
		c.Arrival.Debounce = d.Arrival.Debounce
	}

	if c.Capture.Source == "" {
		c.Capture.Source = d.Capture.Source
	}
	if c.Capture.Snaplen == 0 {
		c.Capture.Snaplen = d.Capture.Snaplen
	}

	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = d.MQTT.ClientID
	}
	if c.MQTT.TopicBase == "" {
		c.MQTT.TopicBase = d.MQTT.TopicBase
	}
	if c.MQTT.Listen == "" {
		c.MQTT.Listen = d.MQTT.Listen
	}
	if c.MQTT.Embedded && c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://" + c.MQTT.Listen
	}

	if c.Database.Driver == "" {
		c.Database.Driver = d.Database.Driver
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = d.Database.DSN
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}
