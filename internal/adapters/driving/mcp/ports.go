package mcp

import (
	"github.com/custodia-labs/cmisimport/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Session opens repository sessions for imports and data list lookups.
	Session driving.SessionService

	// Runs reads the import run journal.
	Runs driving.RunService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Session == nil {
		return ErrMissingSessionService
	}
	// Runs is optional: without a journal the run tools report nothing.
	return nil
}
