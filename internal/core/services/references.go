package services

import (
	"strings"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

// keyPrefix marks a reference to another item's key in the same batch.
const keyPrefix = "@"

// keyIndex maps batch item keys to the object ids they were imported as.
type keyIndex map[string]string

// lookup returns the id for an "@key" reference. Anything else, and
// unknown keys, come back unchanged.
func (k keyIndex) lookup(ref string) string {
	if !strings.HasPrefix(ref, keyPrefix) {
		return ref
	}
	if id, ok := k[strings.TrimPrefix(ref, keyPrefix)]; ok {
		return id
	}
	return ref
}

// resolve rewrites "@key" references in the item's destination and
// association targets.
func (k keyIndex) resolve(item *domain.ImportItem) {
	if len(k) == 0 {
		return
	}
	item.SetDestination(k.lookup(item.Destination()))
	for name, targets := range item.Associations() {
		parts := splitTargets(targets)
		for i, p := range parts {
			parts[i] = k.lookup(p)
		}
		item.AddAssociation(name, strings.Join(parts, ","))
	}
}
