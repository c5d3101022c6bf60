package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

// sitesPath is the repository path under which every site folder lives.
const sitesPath = "/app:company_home/st:sites"

// Well-known names inside a site.
const (
	documentLibraryName = "documentLibrary"
	dataListsName       = "dataLists"
)

// sitePath returns the full-text PATH of a site folder.
func sitePath(site string) string {
	return sitesPath + "/cm:" + encodeISO9075(site)
}

// encodeISO9075 encodes a name for use as one PATH segment.
// Characters that are not valid in an XML name become _xHHHH_.
func encodeISO9075(name string) string {
	var b strings.Builder
	for i, r := range name {
		valid := r == '_' || unicode.IsLetter(r)
		if i > 0 {
			valid = valid || unicode.IsDigit(r) || r == '-' || r == '.'
		}
		if valid {
			b.WriteRune(r)
			continue
		}
		fmt.Fprintf(&b, "_x%04X_", r)
	}
	return b.String()
}

// quoteLiteral returns s as a single-quoted query string literal.
func quoteLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// selectObjectIDs builds a statement selecting the object id column of def.
// It returns the statement and the alias the id is reported under.
func selectObjectIDs(def *domain.TypeDefinition, where string) (string, string) {
	alias := def.QueryNameOf(domain.PropObjectID)
	from := def.QueryName
	if from == "" {
		from = def.ID
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s", alias, from, where), alias
}

// containsPath returns a CONTAINS predicate matching path exactly.
func containsPath(path string) string {
	return fmt.Sprintf(`CONTAINS('=PATH:"%s"')`, path)
}

// containsDescendants returns a CONTAINS predicate matching everything below path.
func containsDescendants(path string) string {
	return fmt.Sprintf(`CONTAINS('PATH:"%s//*"')`, path)
}
