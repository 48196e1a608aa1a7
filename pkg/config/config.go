package config

import "time"

// CrawlConfig gathers every tunable for a single crawl invocation. It is
// passed once at crawl start and never mutated mid-crawl; concurrent crawls
// against different origins each own their configuration value.
type CrawlConfig struct {
	BaseURL        string        `yaml:"base_url"`
	PageCap        int           `yaml:"page_cap"`                  // hard cap on fetched pages
	MaxDepth       int           `yaml:"max_depth,omitempty"`       // link hops from the base URL
	PerPageTimeout time.Duration `yaml:"per_page_timeout,omitempty"`
	CrawlTimeout   time.Duration `yaml:"crawl_timeout,omitempty"`   // overall wall-clock budget (0 = none)
	IgnoreRobots   bool          `yaml:"ignore_robots,omitempty"`   // politeness override: skip robots.txt rules
	DelayOverride  time.Duration `yaml:"delay_override,omitempty"`  // force a fetch delay instead of the policy's
}

// AppConfig holds the global application configuration.
type AppConfig struct {
	UserAgent         string           `yaml:"user_agent,omitempty"`
	DefaultDelay      time.Duration    `yaml:"default_delay,omitempty"` // politeness floor when the site declares none
	MaxRetries        int              `yaml:"max_retries,omitempty"`
	InitialRetryDelay time.Duration    `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay     time.Duration    `yaml:"max_retry_delay,omitempty"`
	MaxPageSizeBytes  int64            `yaml:"max_page_size_bytes,omitempty"`
	OutputBaseDir     string           `yaml:"output_base_dir,omitempty"`
	StateDir          string           `yaml:"state_dir,omitempty"` // badger audit store location
	TokenizerEncoding string           `yaml:"tokenizer_encoding,omitempty"`
	EnableArchive     bool             `yaml:"enable_archive,omitempty"` // write crawled pages as markdown files
	ExtractWorkers    int              `yaml:"extract_workers,omitempty"`
	HTTPClient        HTTPClientConfig `yaml:"http_client_settings,omitempty"`
	Crawl             CrawlConfig      `yaml:"crawl,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client.
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"`
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"`
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"` // nil=default, true=force, false=disable
}

// RetryPolicy is the subset of AppConfig the fetcher needs.
type RetryPolicy struct {
	MaxRetries        int
	InitialRetryDelay time.Duration
	MaxRetryDelay     time.Duration
}

// Retry returns the retry policy derived from the validated config.
func (c *AppConfig) Retry() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        c.MaxRetries,
		InitialRetryDelay: c.InitialRetryDelay,
		MaxRetryDelay:     c.MaxRetryDelay,
	}
}
