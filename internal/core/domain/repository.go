package domain

import "fmt"

// Canonical CMIS property identifiers.
const (
	PropObjectID               = "cmis:objectId"
	PropName                   = "cmis:name"
	PropObjectTypeID           = "cmis:objectTypeId"
	PropBaseTypeID             = "cmis:baseTypeId"
	PropSourceID               = "cmis:sourceId"
	PropTargetID               = "cmis:targetId"
	PropSecondaryObjectTypeIDs = "cmis:secondaryObjectTypeIds"
	PropContentStreamMimeType  = "cmis:contentStreamMimeType"
	PropContentStreamLength    = "cmis:contentStreamLength"
	PropContentStreamFileName  = "cmis:contentStreamFileName"
)

// BaseType is one of the CMIS base object types.
type BaseType string

// CMIS base types.
const (
	BaseDocument     BaseType = "cmis:document"
	BaseFolder       BaseType = "cmis:folder"
	BaseRelationship BaseType = "cmis:relationship"
	BaseItem         BaseType = "cmis:item"
	BasePolicy       BaseType = "cmis:policy"
)

// VersioningState selects the version created for a new document.
type VersioningState string

// Versioning states. Only major versions are created by the importer.
const (
	VersioningMajor VersioningState = "major"
	VersioningMinor VersioningState = "minor"
	VersioningNone  VersioningState = "none"
)

// Properties is a property-id to value mapping sent to the repository.
type Properties map[string]string

// Clone returns a shallow copy.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// RepositoryObject is an opaque handle to an object owned by the gateway.
// The engine never mutates one except through gateway calls.
type RepositoryObject struct {
	ID       string
	Name     string
	TypeID   string
	BaseType BaseType

	// Properties holds the remaining values as returned by the repository.
	Properties map[string]any
}

// IsFolder returns true if the object can hold children.
func (o *RepositoryObject) IsFolder() bool {
	return o != nil && o.BaseType == BaseFolder
}

// IsDocument returns true if the object can carry a content stream.
func (o *RepositoryObject) IsDocument() bool {
	return o != nil && o.BaseType == BaseDocument
}

// String returns "name (id)".
func (o *RepositoryObject) String() string {
	if o == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s (%s)", o.Name, o.ID)
}

// PropertyDefinition describes one property of a type.
type PropertyDefinition struct {
	ID          string
	QueryName   string
	DisplayName string
}

// TypeDefinition describes a repository object type.
type TypeDefinition struct {
	ID          string
	QueryName   string
	DisplayName string
	BaseType    BaseType

	// PropertyDefinitions is keyed by canonical property id.
	PropertyDefinitions map[string]PropertyDefinition
}

// QueryNameOf returns the query alias for a property id.
// Falls back to the id itself when the type does not define it.
func (t *TypeDefinition) QueryNameOf(propertyID string) string {
	if t != nil {
		if def, ok := t.PropertyDefinitions[propertyID]; ok && def.QueryName != "" {
			return def.QueryName
		}
	}
	return propertyID
}

// QueryRow is one row of a query result keyed by query alias.
type QueryRow map[string]any

// String returns the value for alias as a string.
// Multi-valued results return their first element.
func (r QueryRow) String(alias string) string {
	switch v := r[alias].(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
	return ""
}

// WriteOutcome reports how the repository handled a write that has a
// recoverable failure mode.
type WriteOutcome int

// Write outcomes.
const (
	// OutcomeApplied means the write took effect.
	OutcomeApplied WriteOutcome = iota

	// OutcomeAlreadyExists means the target already existed; nothing changed.
	OutcomeAlreadyExists

	// OutcomeUnsupported means the object does not support the write.
	OutcomeUnsupported
)

// String returns the string representation.
func (o WriteOutcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeAlreadyExists:
		return "already_exists"
	case OutcomeUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}
