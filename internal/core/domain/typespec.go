package domain

import (
	"fmt"
	"strings"
)

// TypeSpec is a primary object type plus the aspects attached to it.
// Repositories that predate secondary types encode both as one
// comma-separated string, e.g. "cmis:folder,P:cm:titled".
type TypeSpec struct {
	// Primary is the base object type used for validation.
	Primary string

	// Aspects are the attached trait sets, in declaration order.
	Aspects []string
}

// ParseTypeSpec splits a comma-separated type string into a TypeSpec.
// Everything before the first comma is the primary type.
func ParseTypeSpec(s string) (TypeSpec, error) {
	parts := strings.Split(s, ",")
	primary := strings.TrimSpace(parts[0])
	if primary == "" {
		return TypeSpec{}, fmt.Errorf("%w: empty primary type in %q", ErrInvalidInput, s)
	}

	spec := TypeSpec{Primary: primary}
	for _, p := range parts[1:] {
		if a := strings.TrimSpace(p); a != "" {
			spec.Aspects = append(spec.Aspects, a)
		}
	}
	return spec, nil
}

// String returns the comma-joined form used in cmis:objectTypeId.
func (t TypeSpec) String() string {
	if len(t.Aspects) == 0 {
		return t.Primary
	}
	return t.Primary + "," + strings.Join(t.Aspects, ",")
}

// IsZero returns true if no primary type is set.
func (t TypeSpec) IsZero() bool {
	return t.Primary == ""
}

// HasAspect returns true if the aspect is attached.
func (t TypeSpec) HasAspect(aspect string) bool {
	for _, a := range t.Aspects {
		if a == aspect {
			return true
		}
	}
	return false
}
