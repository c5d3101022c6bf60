package driven

import "github.com/custodia-labs/cmisimport/internal/core/domain"

// IdentityCache holds three independent caches scoped to one repository
// session: site folders and document libraries keyed by site name, and
// generic objects keyed by repository id. Entries are never invalidated
// within a session.
type IdentityCache interface {
	// SiteFolder returns the cached site folder for a site.
	SiteFolder(site string) (*domain.RepositoryObject, bool)

	// PutSiteFolder caches a site folder.
	PutSiteFolder(site string, folder *domain.RepositoryObject)

	// DocumentLibrary returns the cached document library for a site.
	DocumentLibrary(site string) (*domain.RepositoryObject, bool)

	// PutDocumentLibrary caches a document library.
	PutDocumentLibrary(site string, folder *domain.RepositoryObject)

	// Object returns the cached object for a repository id.
	Object(id string) (*domain.RepositoryObject, bool)

	// PutObject caches an object under its id.
	PutObject(obj *domain.RepositoryObject)

	// Len returns the number of entries in each cache.
	Len() (siteFolders, documentLibraries, objects int)
}
