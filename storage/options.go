package storage

import (
	"log/slog"
	"time"
)

// Option configures a Facade at construction time. Options are applied in
// order before the facade's KeyCache is built, so WithLogger always takes
// effect regardless of where it appears relative to WithKeyCacheTimeout.
type Option func(*facadeConfig)

type facadeConfig struct {
	cacheTimeout time.Duration
	logger       *slog.Logger
}

// WithKeyCacheTimeout sets the default sliding TTL for the facade's
// KeyCache. The zero value keeps the cache's built-in default (60s).
func WithKeyCacheTimeout(timeout time.Duration) Option {
	return func(c *facadeConfig) {
		c.cacheTimeout = timeout
	}
}

// WithLogger sets the logger used for cache expiry and facade diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *facadeConfig) {
		c.logger = logger
	}
}
