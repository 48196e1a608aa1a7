package config

import (
	"fmt"
	"net/url"
	"time"

	"llmstxt-audit/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// UserAgent
	if c.UserAgent == "" {
		warnings = append(warnings, "user_agent is empty, defaulting to 'llmstxt-audit/1.0'")
		c.UserAgent = "llmstxt-audit/1.0"
	}

	// DefaultDelay is the politeness floor between fetches
	if c.DefaultDelay <= 0 {
		c.DefaultDelay = 1 * time.Second
	}

	// MaxRetries
	if c.MaxRetries < 0 {
		warnings = append(warnings, "max_retries cannot be negative, setting to 0")
		c.MaxRetries = 0
	}
	if c.MaxRetries == 0 && c.InitialRetryDelay == 0 {
		c.MaxRetries = 3
	}

	// Retry delays (only if retries enabled)
	if c.MaxRetries > 0 {
		if c.InitialRetryDelay <= 0 {
			c.InitialRetryDelay = 1 * time.Second
		}
		if c.MaxRetryDelay <= 0 {
			c.MaxRetryDelay = 30 * time.Second
		}
	}

	// InitialRetryDelay > MaxRetryDelay check
	if c.InitialRetryDelay > c.MaxRetryDelay && c.MaxRetryDelay > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"initial_retry_delay (%v) > max_retry_delay (%v), using max_retry_delay for initial",
			c.InitialRetryDelay, c.MaxRetryDelay))
		c.InitialRetryDelay = c.MaxRetryDelay
	}

	// MaxPageSizeBytes
	if c.MaxPageSizeBytes < 0 {
		warnings = append(warnings, "max_page_size_bytes cannot be negative, setting to 0 (unlimited)")
		c.MaxPageSizeBytes = 0
	}

	// OutputBaseDir
	if c.OutputBaseDir == "" {
		warnings = append(warnings, "output_base_dir is empty, defaulting to './audit_output'")
		c.OutputBaseDir = "./audit_output"
	}

	// StateDir
	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './audit_state'")
		c.StateDir = "./audit_state"
	}

	// TokenizerEncoding
	if c.TokenizerEncoding == "" {
		c.TokenizerEncoding = "cl100k_base"
	}

	// ExtractWorkers
	if c.ExtractWorkers <= 0 {
		c.ExtractWorkers = 4
	}

	// HTTPClient defaults
	c.validateHTTPClientSettings()

	return warnings, nil // AppConfig validation never fails fatally
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClient
	if h.Timeout <= 0 {
		h.Timeout = 45 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 2
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}

// Validate checks CrawlConfig fields and applies defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *CrawlConfig) Validate() (warnings []string, err error) {
	// Required: BaseURL
	if c.BaseURL == "" {
		return nil, fmt.Errorf("%w: crawl needs a base_url", utils.ErrConfigValidation)
	}
	u, parseErr := url.Parse(c.BaseURL)
	if parseErr != nil {
		return nil, fmt.Errorf("%w: invalid base_url %q: %v", utils.ErrConfigValidation, c.BaseURL, parseErr)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: base_url %q must use http or https", utils.ErrConfigValidation, c.BaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: base_url %q has no host", utils.ErrConfigValidation, c.BaseURL)
	}

	// PageCap. A zero cap would crawl nothing, which is never intended.
	if c.PageCap <= 0 {
		warnings = append(warnings, "page_cap should be > 0, defaulting to 30")
		c.PageCap = 30
	}

	// MaxDepth
	if c.MaxDepth <= 0 {
		warnings = append(warnings, "max_depth should be > 0, defaulting to 2")
		c.MaxDepth = 2
	}

	// PerPageTimeout
	if c.PerPageTimeout < 0 {
		warnings = append(warnings, "per_page_timeout cannot be negative, disabling timeout")
		c.PerPageTimeout = 0
	}

	// CrawlTimeout
	if c.CrawlTimeout < 0 {
		warnings = append(warnings, "crawl_timeout cannot be negative, disabling timeout")
		c.CrawlTimeout = 0
	}

	// DelayOverride
	if c.DelayOverride < 0 {
		warnings = append(warnings, "delay_override cannot be negative, ignoring override")
		c.DelayOverride = 0
	}

	return warnings, nil
}
