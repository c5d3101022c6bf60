// Package driving defines interfaces that external actors (CLI, MCP) use
// to interact with core services. These are the "driving" ports in hexagonal
// architecture terminology - they drive the application.
//
//   - SessionService: connects to the repository and reads manifests
//   - ImportService: imports items within a session
//   - DataListService: finds and creates site data lists within a session
//   - RunService: import run history
//   - SettingsService: application settings
//
// Implementations of these interfaces live in internal/core/services.
package driving
