package memory

import (
	"sync"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
)

// Ensure IdentityCache implements the interface.
var _ driven.IdentityCache = (*IdentityCache)(nil)

// IdentityCache is an in-memory implementation of driven.IdentityCache.
// Create one per repository session.
type IdentityCache struct {
	mu          sync.RWMutex
	siteFolders map[string]*domain.RepositoryObject
	docLibs     map[string]*domain.RepositoryObject
	objects     map[string]*domain.RepositoryObject
}

// NewIdentityCache creates an empty identity cache.
func NewIdentityCache() *IdentityCache {
	return &IdentityCache{
		siteFolders: make(map[string]*domain.RepositoryObject),
		docLibs:     make(map[string]*domain.RepositoryObject),
		objects:     make(map[string]*domain.RepositoryObject),
	}
}

// SiteFolder returns the cached site folder for a site.
func (c *IdentityCache) SiteFolder(site string) (*domain.RepositoryObject, bool) {
	return c.get(c.siteFolders, site)
}

// PutSiteFolder caches a site folder.
func (c *IdentityCache) PutSiteFolder(site string, folder *domain.RepositoryObject) {
	c.put(c.siteFolders, site, folder)
}

// DocumentLibrary returns the cached document library for a site.
func (c *IdentityCache) DocumentLibrary(site string) (*domain.RepositoryObject, bool) {
	return c.get(c.docLibs, site)
}

// PutDocumentLibrary caches a document library.
func (c *IdentityCache) PutDocumentLibrary(site string, folder *domain.RepositoryObject) {
	c.put(c.docLibs, site, folder)
}

// Object returns the cached object for a repository id.
func (c *IdentityCache) Object(id string) (*domain.RepositoryObject, bool) {
	return c.get(c.objects, id)
}

// PutObject caches an object under its id.
func (c *IdentityCache) PutObject(obj *domain.RepositoryObject) {
	if obj == nil {
		return
	}
	c.put(c.objects, obj.ID, obj)
}

// Len returns the number of entries in each cache.
func (c *IdentityCache) Len() (siteFolders, documentLibraries, objects int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.siteFolders), len(c.docLibs), len(c.objects)
}

func (c *IdentityCache) get(m map[string]*domain.RepositoryObject, key string) (*domain.RepositoryObject, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obj, ok := m[key]
	return obj, ok
}

func (c *IdentityCache) put(m map[string]*domain.RepositoryObject, key string, obj *domain.RepositoryObject) {
	if key == "" || obj == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m[key] = obj
}
