// Package di provides dependency injection container
package di

import (
	"io"
	"log/slog"

	"github.com/ssargent/ersave/pkg/api" //nolint:depguard
	"github.com/ssargent/ersave/pkg/config"
	"github.com/ssargent/ersave/pkg/fixer"
	"github.com/ssargent/ersave/pkg/journal"
	"github.com/ssargent/ersave/pkg/logging"
)

// Container holds all the dependencies for the application
type Container struct {
	config        *config.Config
	logger        *slog.Logger
	fixer         *fixer.Fixer
	journal       *journal.Journal
	serverFactory api.ServerFactory
}

// NewContainer builds the application services from cfg. Logs go to logOut.
func NewContainer(cfg *config.Config, logOut io.Writer) (*Container, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logOut, cfg.LoggingOptions())
	if err != nil {
		return nil, err
	}
	repairOpts, err := cfg.RepairOptions()
	if err != nil {
		return nil, err
	}

	return &Container{
		config: cfg,
		logger: logger,
		fixer: fixer.New(fixer.Options{
			Logger: logger,
			Tail:   cfg.TailOptions(),
			Repair: repairOpts,
		}),
		serverFactory: api.NewServerFactory(logger),
	}, nil
}

// Config returns the effective configuration
func (c *Container) Config() *config.Config { return c.config }

// Logger returns the application logger
func (c *Container) Logger() *slog.Logger { return c.logger }

// GetFixer returns the repair API
func (c *Container) GetFixer() *fixer.Fixer { return c.fixer }

// GetJournal opens the repair journal on first use. It returns nil when the
// journal is disabled.
func (c *Container) GetJournal() (*journal.Journal, error) {
	if !c.config.Journal.Enabled {
		return nil, nil
	}
	if c.journal == nil {
		j, err := journal.Open(c.config.Journal.Dir, c.logger)
		if err != nil {
			return nil, err
		}
		c.journal = j
	}
	return c.journal, nil
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// Close releases the journal if it was opened
func (c *Container) Close() error {
	if c.journal == nil {
		return nil
	}
	err := c.journal.Close()
	c.journal = nil
	return err
}
