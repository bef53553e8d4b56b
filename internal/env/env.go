// Package env loads client configuration from the environment.
package env

import (
	"github.com/caarlos0/env/v11"
)

type Env struct {
	APIKey     string `env:"ANTHROPIC_API_KEY"`
	BaseURL    string `env:"ANTHROPIC_BASE_URL"`
	AuthMethod string `env:"ANTHROPIC_AUTH_METHOD"`
	Timeout    int    `env:"ANTHROPIC_TIMEOUT"` // seconds
	MaxRetries *int   `env:"ANTHROPIC_MAX_RETRIES"`
}

// Load reads the ANTHROPIC_* environment variables.
func Load() (*Env, error) {
	e := new(Env)
	if err := env.Parse(e); err != nil {
		return nil, err
	}
	return e, nil
}
