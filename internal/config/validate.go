package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Spotify.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("spotify: %w", err))
	}
	if err := c.Playback.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("playback: %w", err))
	}
	if err := c.Arrival.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("arrival: %w", err))
	}
	if err := c.Capture.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("capture: %w", err))
	}
	if err := c.MQTT.Validate(c.Capture.Source == "mqtt"); err != nil {
		errs = append(errs, fmt.Errorf("mqtt: %w", err))
	}
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks SpotifyConfig for errors.
func (c *SpotifyConfig) Validate() error {
	if c.RedirectURI != "" {
		if _, err := url.Parse(c.RedirectURI); err != nil {
			return fmt.Errorf("invalid redirect_uri: %w", err)
		}
	}
	return nil
}

// Validate checks PlaybackConfig for errors.
func (c *PlaybackConfig) Validate() error {
	if err := ValidateVolume(c.Volume); err != nil {
		return err
	}
	if c.FadeStep < 1 || c.FadeStep > 100 {
		return errors.New("fade_step must be between 1 and 100")
	}
	if c.FadeInterval < 0 || c.SettleDelay < 0 {
		return errors.New("fade_interval and settle_delay must be non-negative")
	}
	if c.SearchLimit < 1 || c.SearchLimit > 50 {
		return errors.New("search_limit must be between 1 and 50")
	}
	return nil
}

// ValidateVolume reports whether v is a usable volume percentage.
func ValidateVolume(v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("volume %d out of range: must be between 0 and 100", v)
	}
	return nil
}

// Validate checks ArrivalConfig for errors.
func (c *ArrivalConfig) Validate() error {
	if c.Debounce < 0 {
		return errors.New("debounce must be non-negative")
	}
	return nil
}

// Validate checks CaptureConfig for errors.
func (c *CaptureConfig) Validate() error {
	switch c.Source {
	case "", "pcap", "mqtt":
		// valid
	default:
		return fmt.Errorf("invalid source: %s (must be pcap or mqtt)", c.Source)
	}
	if c.Snaplen < 0 {
		return errors.New("snaplen must be non-negative")
	}
	return nil
}

// Validate checks MQTTConfig for errors. A broker is only required when
// the mqtt capture source is selected.
func (c *MQTTConfig) Validate(required bool) error {
	if required && c.Broker == "" {
		return errors.New("broker is required for the mqtt capture source")
	}
	if c.Broker != "" {
		if _, err := url.Parse(c.Broker); err != nil {
			return fmt.Errorf("invalid broker: %w", err)
		}
	}
	if c.Embedded && !c.AllowAnonymous && c.Username == "" {
		return errors.New("embedded broker requires allow_anonymous or username")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("both tls_cert and tls_key are required")
	}
	return nil
}

// Validate checks DatabaseConfig for errors.
func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case "", "sqlite", "postgres", "mysql":
		// valid
	default:
		return fmt.Errorf("invalid driver: %s (must be sqlite, postgres, or mysql)", c.Driver)
	}
	if c.Driver != "sqlite" && c.Driver != "" && c.DSN == "" {
		return fmt.Errorf("dsn is required for %s", c.Driver)
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	switch c.Format {
	case "", "console", "json":
		// valid
	default:
		return fmt.Errorf("invalid log format: %s (must be console or json)", c.Format)
	}
	return nil
}
