package domain

import (
	"fmt"
	"sort"
	"strings"
)

// PropGUID is the property some sources use to carry a stable external id.
const PropGUID = "w:guid"

// ImportItem is the unit of work handed to the importer.
// Name and type live in the property set under their CMIS ids;
// the type string is parsed once when it is set.
type ImportItem struct {
	// Key is an optional alias other items in the same batch can
	// reference as "@key" in a destination or association target.
	Key string

	// Site is the logical site used when no destination is given.
	Site string

	// Content is the optional payload. Absent means a typed record.
	Content Content

	// Mimetype is the declared media type of Content.
	Mimetype string

	// DestinationResolved is the container handle set by destination
	// resolution. Once set it takes precedence over the raw destination.
	DestinationResolved *RepositoryObject

	destination  string
	properties   Properties
	typeSpec     TypeSpec
	associations map[string]string
}

// NewImportItem creates an item with the given name and type string.
func NewImportItem(name, typeString string) (*ImportItem, error) {
	item := &ImportItem{}
	item.SetName(name)
	if err := item.SetType(typeString); err != nil {
		return nil, err
	}
	return item, nil
}

// Name returns the trimmed cmis:name property.
func (i *ImportItem) Name() string {
	return strings.TrimSpace(i.properties[PropName])
}

// SetName sets cmis:name.
func (i *ImportItem) SetName(name string) {
	i.setProperty(PropName, strings.TrimSpace(name))
}

// Type returns the parsed type.
func (i *ImportItem) Type() TypeSpec {
	return i.typeSpec
}

// SetType parses and sets cmis:objectTypeId.
func (i *ImportItem) SetType(typeString string) error {
	spec, err := ParseTypeSpec(typeString)
	if err != nil {
		return err
	}
	i.typeSpec = spec
	i.setProperty(PropObjectTypeID, spec.String())
	return nil
}

// Destination returns the raw destination hint.
func (i *ImportItem) Destination() string {
	return i.destination
}

// SetDestination sets the raw destination hint, trimmed.
func (i *ImportItem) SetDestination(dest string) {
	i.destination = strings.TrimSpace(dest)
}

// AddProperty sets a property. Key and value are trimmed.
// Name and type keys are routed through their setters.
func (i *ImportItem) AddProperty(key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: empty property key", ErrInvalidInput)
	}
	switch key {
	case PropName:
		i.SetName(value)
	case PropObjectTypeID:
		return i.SetType(value)
	default:
		i.setProperty(key, strings.TrimSpace(value))
	}
	return nil
}

// SetProperties merges props into the item's property set.
func (i *ImportItem) SetProperties(props map[string]string) error {
	for k, v := range props {
		if err := i.AddProperty(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Property returns a single property value.
func (i *ImportItem) Property(key string) (string, bool) {
	v, ok := i.properties[key]
	return v, ok
}

// Properties returns a copy of the property set.
func (i *ImportItem) Properties() Properties {
	return i.properties.Clone()
}

// GUID returns the w:guid property, if present.
func (i *ImportItem) GUID() string {
	return i.properties[PropGUID]
}

// AddAssociation sets the comma-separated targets for an association type,
// replacing any previous value.
func (i *ImportItem) AddAssociation(assocType, targets string) {
	if i.associations == nil {
		i.associations = make(map[string]string)
	}
	i.associations[strings.TrimSpace(assocType)] = targets
}

// Associations returns a copy of the association map.
func (i *ImportItem) Associations() map[string]string {
	out := make(map[string]string, len(i.associations))
	for k, v := range i.associations {
		out[k] = v
	}
	return out
}

// AssociationTypes returns the association type names in sorted order.
func (i *ImportItem) AssociationTypes() []string {
	names := make([]string, 0, len(i.associations))
	for k := range i.associations {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// IsValid returns true if the item has a name and at least one of a raw
// destination, a resolved destination, or a site name.
func (i *ImportItem) IsValid() bool {
	if i.Name() == "" {
		return false
	}
	return i.destination != "" || i.DestinationResolved != nil || i.Site != ""
}

// String returns the properties and destination for log output.
func (i *ImportItem) String() string {
	keys := make([]string, 0, len(i.properties))
	for k := range i.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{")
	for n, k := range keys {
		if n > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%s", k, i.properties[k])
	}
	b.WriteString("} -> ")
	b.WriteString(i.destination)
	return b.String()
}

func (i *ImportItem) setProperty(key, value string) {
	if i.properties == nil {
		i.properties = make(Properties)
	}
	i.properties[key] = value
}

// IsNodeRef returns true if s has the store-reference form
// "<protocol>://<store>/<id>", e.g. "workspace://SpacesStore/1a2b".
func IsNodeRef(s string) bool {
	idx := strings.Index(s, "://")
	if idx <= 0 {
		return false
	}
	rest := s[idx+3:]
	slash := strings.Index(rest, "/")
	return slash > 0 && slash < len(rest)-1
}
