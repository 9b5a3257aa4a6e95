package stt

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-voiceagent/internal/httpc"
)

// Default polling parameters. The poll loop is a fixed-interval retry
// with a hard attempt budget, no backoff, no jitter.
const (
	DefaultPollInterval = 3 * time.Second
	DefaultMaxPolls     = 60
)

// Config holds STT client configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	APIKey  string
	BaseURL string

	// Polling
	PollInterval time.Duration
	MaxPolls     int

	// HTTPClient performs all provider calls. Defaults to the shared
	// timeout-bounded client.
	HTTPClient *http.Client

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring STT clients.
type Option func(*Config)

// WithAPIKey sets the API key for the provider.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithPollInterval sets the fixed interval between status polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = d
	}
}

// WithMaxPolls sets the poll attempt budget.
func WithMaxPolls(n int) Option {
	return func(c *Config) {
		c.MaxPolls = n
	}
}

// WithHTTPClient sets the HTTP client used for provider calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithLogger sets the structured logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		PollInterval: DefaultPollInterval,
		MaxPolls:     DefaultMaxPolls,
		HTTPClient:   httpc.Client,
		Logger:       slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}
