package statscache

import "github.com/wapmorty/draftcoach/pkg/logger"

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Cache) {
		c.log = log
	}
}
