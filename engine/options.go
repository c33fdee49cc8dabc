package engine

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haakonRefsvik/VA-student-performance/schema"
)

// ============================================================================
// SESSION OPTIONS — Functional options for NewSession()
// ============================================================================

// Option configures session behavior via functional options pattern.
type Option func(*config)

type config struct {
	Logger    *logrus.Logger
	Metrics   MetricsCollector
	Schema    *schema.Config // label overrides for titles and bins
	CacheSize uint64
	CacheTTL  time.Duration
}

// WithLogger routes session logs to logger. The default discards them.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithMetrics installs a MetricsCollector.
func WithMetrics(m MetricsCollector) Option {
	return func(c *config) {
		if m != nil {
			c.Metrics = m
		}
	}
}

// WithSchema supplies column display names and bin labels.
func WithSchema(s *schema.Config) Option {
	return func(c *config) {
		c.Schema = s
	}
}

// WithCache sizes the derived-payload cache. size 0 disables it.
func WithCache(size uint64, ttl time.Duration) Option {
	return func(c *config) {
		c.CacheSize = size
		c.CacheTTL = ttl
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	cfg := &config{
		Logger:    discard,
		Metrics:   NoopMetricsCollector{},
		CacheSize: 64,
		CacheTTL:  10 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
