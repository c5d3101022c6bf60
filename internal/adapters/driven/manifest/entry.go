package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

// document is the decoded manifest.
type document struct {
	Site        string  `toml:"site" yaml:"site" json:"site"`
	Destination string  `toml:"destination" yaml:"destination" json:"destination"`
	Items       []entry `toml:"items" yaml:"items" json:"items"`
}

// entry is one item in a manifest.
type entry struct {
	Key         string `toml:"key" yaml:"key" json:"key"`
	Name        string `toml:"name" yaml:"name" json:"name"`
	Type        string `toml:"type" yaml:"type" json:"type"`
	Destination string `toml:"destination" yaml:"destination" json:"destination"`
	Site        string `toml:"site" yaml:"site" json:"site"`
	Mimetype    string `toml:"mimetype" yaml:"mimetype" json:"mimetype"`
	Content     string `toml:"content" yaml:"content" json:"content"`
	ContentFile string `toml:"content_file" yaml:"content_file" json:"content_file"`

	// Properties values may be scalars of any kind; they are sent as strings.
	Properties map[string]any `toml:"properties" yaml:"properties" json:"properties"`

	// Associations map a type to a comma-separated string or a list of targets.
	Associations map[string]any `toml:"associations" yaml:"associations" json:"associations"`
}

// toItem converts the entry. baseDir resolves a relative content_file.
func (e *entry) toItem(doc *document, baseDir string) (*domain.ImportItem, error) {
	if strings.TrimSpace(e.Type) == "" {
		return nil, fmt.Errorf("%w: type is required", domain.ErrInvalidInput)
	}
	if e.Content != "" && e.ContentFile != "" {
		return nil, fmt.Errorf("%w: content and content_file are mutually exclusive", domain.ErrInvalidInput)
	}

	item, err := domain.NewImportItem(e.Name, e.Type)
	if err != nil {
		return nil, err
	}
	item.Key = strings.TrimSpace(e.Key)
	item.Mimetype = strings.TrimSpace(e.Mimetype)

	item.Site = firstNonEmpty(e.Site, doc.Site)
	if e.Site == "" && e.Destination == "" {
		item.SetDestination(doc.Destination)
	} else {
		item.SetDestination(e.Destination)
	}

	if err := e.loadContent(item, baseDir); err != nil {
		return nil, err
	}

	for _, k := range sortedKeys(e.Properties) {
		if err := item.AddProperty(k, scalar(e.Properties[k])); err != nil {
			return nil, err
		}
	}
	for _, k := range sortedKeys(e.Associations) {
		targets, err := targetList(e.Associations[k])
		if err != nil {
			return nil, fmt.Errorf("association %s: %w", k, err)
		}
		item.AddAssociation(k, targets)
	}
	return item, nil
}

func (e *entry) loadContent(item *domain.ImportItem, baseDir string) error {
	switch {
	case e.Content != "":
		item.Content = domain.TextContent(e.Content)
	case e.ContentFile != "":
		path := e.ContentFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read content_file: %w", err)
		}
		item.Content = domain.BinaryContent(data)
		if item.Mimetype == "" {
			if mt, ok := domain.MimetypeForName(path); ok {
				if _, nameOK := domain.MimetypeForName(item.Name()); !nameOK {
					item.Mimetype = mt
				}
			}
		}
	}
	return nil
}

// scalar formats a property value.
func scalar(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			parts = append(parts, scalar(p))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}

// targetList normalises an association value to the comma-separated form.
func targetList(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []any:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			s, ok := p.(string)
			if !ok {
				return "", errors.New("targets must be strings")
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("targets must be a string or a list, got %T", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
