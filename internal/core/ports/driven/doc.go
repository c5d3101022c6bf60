// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - RepositoryGateway: Queries, reads and writes objects in the content repository
//   - SessionFactory: Opens a RepositoryGateway from connection settings
//   - IdentityCache: Session-scoped site, document library and object caches
//   - ConfigStore: Application configuration
//   - ManifestReader: Turns manifest files into import items
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RunJournal: Import run history. Without it, runs are not recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
