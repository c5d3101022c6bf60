package services

import (
	"fmt"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

// ContentBuilder turns item content into upload-ready streams.
type ContentBuilder struct{}

// Build returns the item's content stream, or nil when the item has none.
//
// The mimetype is the declared one, else inferred from the item name.
// A new document whose type cannot be inferred is rejected with
// domain.ErrMimetypeRequired; an update falls back to text/plain.
func (ContentBuilder) Build(item *domain.ImportItem, forCreate bool) (*domain.ContentStream, error) {
	if item.Content.IsAbsent() {
		return nil, nil
	}

	name := item.Name()
	mimetype := item.Mimetype
	if mimetype == "" {
		inferred, ok := domain.MimetypeForName(name)
		switch {
		case ok:
			mimetype = inferred
		case forCreate:
			return nil, fmt.Errorf("%w: cannot infer type of %q", domain.ErrMimetypeRequired, name)
		default:
			mimetype = domain.MimeTextPlain
		}
	}

	data := item.Content.Bytes()
	return &domain.ContentStream{
		FileName: name,
		MimeType: mimetype,
		Length:   int64(len(data)),
		Data:     data,
	}, nil
}
