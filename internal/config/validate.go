package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	switch c.Storage.Driver {
	case "sqlite", "file":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for driver %q", c.Storage.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("storage.driver must be sqlite, file or memory (got %q)", c.Storage.Driver)
	}

	u, err := url.Parse(strings.ReplaceAll(c.Portal.DefaultURL, "{UKSC}", "0"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("portal.default_url must be an absolute http(s) URL (got %q)", c.Portal.DefaultURL)
	}
	if c.Portal.MinBodyLength < 0 {
		return fmt.Errorf("portal.min_body_length must be >= 0 (got %d)", c.Portal.MinBodyLength)
	}

	if c.Extraction.Model == "" {
		return fmt.Errorf("extraction.model is required")
	}
	if c.Extraction.MaxInputChars <= 0 {
		return fmt.Errorf("extraction.max_input_chars must be > 0 (got %d)", c.Extraction.MaxInputChars)
	}
	if c.Extraction.MaxTokens <= 0 {
		return fmt.Errorf("extraction.max_tokens must be > 0 (got %d)", c.Extraction.MaxTokens)
	}

	if c.Schedule.Pause < 0 {
		return fmt.Errorf("schedule.pause must be >= 0 (got %s)", c.Schedule.Pause)
	}

	for _, r := range c.Share.CountryCode {
		if r < '0' || r > '9' {
			return fmt.Errorf("share.country_code must be digits only (got %q)", c.Share.CountryCode)
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}

	return nil
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// S3Enabled reports whether backups go to S3.
func (b BackupConfig) S3Enabled() bool {
	return b.S3Bucket != ""
}
