package uploadsdk

import (
	"net/url"
	"time"
)

const (
	DefaultBaseURL = "http://localhost:8080"
)

// Config is the configuration for the UploadSDK
type Config struct {
	BaseURL    string        // BaseURL is required
	Timeout    time.Duration // Timeout applies to plain api calls, not to the status stream
	RetryCount int           // RetryCount applies to idempotent api calls only
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoServerURL
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" {
		return ErrInvalidServerURL
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidServerURL
	}

	return nil
}
