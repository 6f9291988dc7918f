// Package api provides factory implementations for dependency injection
package api

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ssargent/ersave/pkg/logging"
)

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct {
	logger *slog.Logger
}

// NewServerFactory creates a new server factory
func NewServerFactory(logger *slog.Logger) ServerFactory {
	return &DefaultServerFactory{logger: logging.OrNop(logger)}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter(inspector Inspector) ServerStarter {
	return &DefaultServerStarter{inspector: inspector, logger: f.logger}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct {
	inspector Inspector
	logger    *slog.Logger
}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(config ServerConfig) error {
	reg := prometheus.NewRegistry()
	return StartServer(s.inspector, config, NewMetrics(reg), reg, s.logger)
}
