package engine

import (
	"github.com/bastiangx/shelfserve/pkg/config"
	"github.com/bastiangx/shelfserve/pkg/metrics"
	"github.com/charmbracelet/log"
)

type options struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	logger  *log.Logger
}

// Option configures an Engine.
type Option func(*options)

// WithConfig sets the search and history bounds. nil keeps the defaults.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg != nil {
			o.cfg = cfg
		}
	}
}

// WithMetrics records query and build metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLogger replaces the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
