// Package retry runs idempotent operations with exponential backoff.
// Order submission is never routed through here; only reads are, so a
// retried call can at worst waste an API request.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"swingtrader/internal/botfail"
)

// Config holds the retry schedule.
type Config struct {
	MaxRetries    int           `yaml:"max_retries"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
	Jitter        bool          `yaml:"jitter"`
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// UnmarshalYAML accepts durations in the usual "1s"/"500ms" form.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type raw struct {
		MaxRetries    int     `yaml:"max_retries"`
		InitialDelay  string  `yaml:"initial_delay"`
		MaxDelay      string  `yaml:"max_delay"`
		BackoffFactor float64 `yaml:"backoff_factor"`
		Jitter        bool    `yaml:"jitter"`
	}
	r := raw{
		MaxRetries:    c.MaxRetries,
		InitialDelay:  c.InitialDelay.String(),
		MaxDelay:      c.MaxDelay.String(),
		BackoffFactor: c.BackoffFactor,
		Jitter:        c.Jitter,
	}
	if err := unmarshal(&r); err != nil {
		return err
	}

	initial, err := time.ParseDuration(r.InitialDelay)
	if err != nil {
		return fmt.Errorf("initial_delay: %w", err)
	}
	max, err := time.ParseDuration(r.MaxDelay)
	if err != nil {
		return fmt.Errorf("max_delay: %w", err)
	}

	c.MaxRetries = r.MaxRetries
	c.InitialDelay = initial
	c.MaxDelay = max
	c.BackoffFactor = r.BackoffFactor
	c.Jitter = r.Jitter
	return nil
}

// Do runs fn until it succeeds, returns a non-retryable error, exhausts
// the schedule, or the context ends. Retryability comes from the error
// category, see botfail.IsRetryable.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxRetries || !botfail.IsRetryable(lastErr) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay(attempt, cfg)):
		}
	}
	return lastErr
}

func delay(attempt int, cfg Config) time.Duration {
	d := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(attempt))
	if d > float64(cfg.MaxDelay) {
		d = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		d *= 0.75 + rand.Float64()*0.5
	}
	return time.Duration(d)
}
