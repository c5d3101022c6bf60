// Package mcp provides an MCP (Model Context Protocol) server adapter for cmisimport.
// It lets AI assistants import single items, inspect past runs and look up
// site data lists through the same services the CLI uses.
package mcp

import "errors"

// ErrMissingSessionService is returned when the session service is not provided.
var ErrMissingSessionService = errors.New("mcp: session service is required")
