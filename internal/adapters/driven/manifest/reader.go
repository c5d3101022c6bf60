package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.ManifestReader = (*Reader)(nil)

// decoders maps a file extension to its decoder.
var decoders = map[string]func([]byte, *document) error{
	".toml": decodeTOML,
	".yaml": decodeYAML,
	".yml":  decodeYAML,
	".json": decodeJSON,
}

// Reader reads TOML, YAML and JSON manifests.
type Reader struct{}

// NewReader creates a manifest reader.
func NewReader() *Reader {
	return &Reader{}
}

// Formats returns the supported file extensions.
func (r *Reader) Formats() []string {
	return []string{".json", ".toml", ".yaml", ".yml"}
}

// Read parses the manifest at path. Entries are returned in file order.
// Relative content_file paths resolve against the manifest's directory.
func (r *Reader) Read(ctx context.Context, path string) ([]*domain.ImportItem, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: manifest format %q", domain.ErrUnsupportedType, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var doc document
	if err := decode(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrInvalidInput, filepath.Base(path), err)
	}

	baseDir := filepath.Dir(path)
	items := make([]*domain.ImportItem, 0, len(doc.Items))
	for i := range doc.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, err := doc.Items[i].toItem(&doc, baseDir)
		if err != nil {
			return nil, fmt.Errorf("manifest entry %d (%s): %w", i, doc.Items[i].Name, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Watch calls onChange after the manifest at path changes.
func (r *Reader) Watch(ctx context.Context, path string, onChange func()) error {
	return Watch(ctx, path, DefaultDebounce, onChange)
}

func decodeTOML(data []byte, doc *document) error {
	return toml.Unmarshal(data, doc)
}

func decodeYAML(data []byte, doc *document) error {
	return yaml.Unmarshal(data, doc)
}

func decodeJSON(data []byte, doc *document) error {
	return json.Unmarshal(data, doc)
}
