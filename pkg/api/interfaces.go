// Package api provides interfaces for dependency injection
package api

import (
	"github.com/ssargent/ersave/pkg/fixer"
	"github.com/ssargent/ersave/pkg/repair"
	"github.com/ssargent/ersave/pkg/save"
)

// Inspector is the read-only part of the repair API the server needs.
// *fixer.Fixer implements it.
type Inspector interface {
	// Load reads and decodes a save file
	Load(path string) (*save.Container, error)

	// ListCharacters returns the decoded characters in slot order
	ListCharacters(c *save.Container) []fixer.Character

	// Report runs every detection rule on one slot
	Report(c *save.Container, slot int) (*repair.Report, error)

	// Integrity lists stored digests that do not match
	Integrity(c *save.Container) []*save.IntegrityError
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves config.SavePath until the server fails
	StartServer(config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter backed by inspector
	CreateServerStarter(inspector Inspector) ServerStarter
}
