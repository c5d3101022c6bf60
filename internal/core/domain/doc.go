// Package domain defines the core business entities for cmisimport.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ImportItem: A unit of work bound for the content repository
//   - TypeSpec: A primary type plus its attached aspects
//   - Content: Text, binary or absent payload for an item
//   - RepositoryObject: An object handle owned by the repository gateway
//   - ImportResult: The definitive outcome of importing one item
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
