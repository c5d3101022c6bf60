package driven

import (
	"context"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

// RepositoryGateway is the session with a CMIS-style content repository.
// Every call is a synchronous round trip. Network retry and backoff are the
// implementation's concern.
type RepositoryGateway interface {
	// Query runs a CMIS QL statement. Rows are keyed by query alias.
	// allVersions searches every version rather than only the latest.
	Query(ctx context.Context, statement string, allVersions bool) ([]domain.QueryRow, error)

	// GetObject fetches an object by id.
	// Returns domain.ErrNotFound if it does not exist.
	GetObject(ctx context.Context, id string) (*domain.RepositoryObject, error)

	// GetChildren lists the direct children of a folder.
	GetChildren(ctx context.Context, folderID string) ([]domain.RepositoryObject, error)

	// GetTypeDefinition fetches a type definition.
	// Returns domain.ErrNotFound if the type is unknown.
	GetTypeDefinition(ctx context.Context, typeID string) (*domain.TypeDefinition, error)

	// CreateFolder creates a folder under parentID and returns its id.
	CreateFolder(ctx context.Context, props domain.Properties, parentID string) (string, error)

	// CreateDocument creates a document with content under parentID.
	CreateDocument(
		ctx context.Context,
		props domain.Properties,
		parentID string,
		stream *domain.ContentStream,
		versioning domain.VersioningState,
	) (*domain.RepositoryObject, error)

	// CreateItem creates a content-less typed record under parentID and returns its id.
	// Returns domain.ErrContentAlreadyExists if the repository reports a duplicate.
	CreateItem(ctx context.Context, props domain.Properties, parentID string) (string, error)

	// CreateRelationship creates a relationship from the source and target ids in props.
	// An existing relationship is reported as domain.OutcomeAlreadyExists, not an error.
	CreateRelationship(ctx context.Context, props domain.Properties) (domain.WriteOutcome, error)

	// UpdateProperties updates an object's properties and returns the refreshed object.
	UpdateProperties(ctx context.Context, id string, props domain.Properties) (*domain.RepositoryObject, error)

	// SetContentStream replaces a document's content.
	// An object that cannot carry content is reported as domain.OutcomeUnsupported.
	SetContentStream(ctx context.Context, id string, stream *domain.ContentStream, overwrite bool) (domain.WriteOutcome, error)
}

// SessionFactory opens repository sessions.
type SessionFactory interface {
	// Connect returns a gateway bound to the repository described by
	// settings. Errors wrap domain.ErrRepositoryUnavailable.
	Connect(ctx context.Context, settings domain.AppSettings) (RepositoryGateway, error)
}
