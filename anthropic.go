// Package anthropic is a client for the Anthropic Messages API with
// first-class streaming: responses arrive as server-sent events and are
// accumulated into the same message a non-streaming call would return.
package anthropic

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/matthewmueller/anthropic/internal/cache"
	"github.com/matthewmueller/anthropic/internal/env"
)

const (
	defaultBaseURL    = "https://api.anthropic.com"
	defaultVersion    = "2023-06-01"
	defaultTimeout    = 10 * time.Minute
	defaultMaxRetries = 2
)

// Client talks to the Anthropic API or a compatible gateway.
type Client struct {
	apiKey     string
	baseURL    string
	version    string
	authMethod AuthMethod
	maxRetries int
	betas      []string
	httpClient *http.Client
	log        *slog.Logger
	models     func(ctx context.Context) ([]*Model, error)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint, typically a
// gateway.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger. By default the client is silent.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithMaxRetries sets how many times retryable requests are retried.
func WithMaxRetries(maxRetries int) Option {
	return func(c *Client) { c.maxRetries = maxRetries }
}

// WithAuthMethod selects how the API key is sent.
func WithAuthMethod(method AuthMethod) Option {
	return func(c *Client) { c.authMethod = method }
}

// WithVersion overrides the anthropic-version header.
func WithVersion(version string) Option {
	return func(c *Client) { c.version = version }
}

// WithBeta opts in to a beta feature via the anthropic-beta header.
func WithBeta(betas ...string) Option {
	return func(c *Client) { c.betas = append(c.betas, betas...) }
}

// New creates a client with the given API key.
func New(apiKey string, options ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		version:    defaultVersion,
		authMethod: AuthAnthropic,
		maxRetries: defaultMaxRetries,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        slog.New(slog.DiscardHandler),
	}
	for _, option := range options {
		option(c)
	}
	c.models = cache.Fn(c.listModels)
	return c
}

// Load creates a client configured from the environment
// (ANTHROPIC_API_KEY, ANTHROPIC_BASE_URL, ANTHROPIC_AUTH_METHOD,
// ANTHROPIC_TIMEOUT, ANTHROPIC_MAX_RETRIES). Options are applied on top.
func Load(options ...Option) (*Client, error) {
	e, err := env.Load()
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	if e.APIKey == "" {
		return nil, &ConfigError{Reason: "ANTHROPIC_API_KEY not set"}
	}
	var opts []Option
	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.AuthMethod != "" {
		opts = append(opts, WithAuthMethod(AuthMethod(e.AuthMethod)))
	}
	if e.Timeout > 0 {
		opts = append(opts, WithHTTPClient(&http.Client{Timeout: time.Duration(e.Timeout) * time.Second}))
	}
	if e.MaxRetries != nil {
		opts = append(opts, WithMaxRetries(*e.MaxRetries))
	}
	return New(e.APIKey, append(opts, options...)...), nil
}
