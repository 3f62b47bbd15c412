package v1

import "go.uber.org/zap"

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	scope         string
	threshold     *float64
	opacity       *float64
	caseSensitive *bool
	workers       int
	logger        *zap.Logger
}

// WithScope forces a specific config scope (global or project).
func WithScope(scope string) Option {
	return func(c *clientConfig) {
		c.scope = scope
	}
}

// WithThreshold sets the minimum share of a match that a highlight must
// cover for the match to count as highlighted.
func WithThreshold(t float64) Option {
	return func(c *clientConfig) {
		c.threshold = &t
	}
}

// WithOpacity sets the opacity of new highlights.
func WithOpacity(o float64) Option {
	return func(c *clientConfig) {
		c.opacity = &o
	}
}

func WithCaseSensitive(on bool) Option {
	return func(c *clientConfig) {
		c.caseSensitive = &on
	}
}

// WithWorkers sets how many files SearchDir reads in parallel.
func WithWorkers(n int) Option {
	return func(c *clientConfig) {
		c.workers = n
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
