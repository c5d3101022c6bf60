package domain

import (
	"bytes"
	"io"
	"path"
	"strings"
)

// ContentKind discriminates the Content variant.
type ContentKind int

// Content variants.
const (
	// ContentAbsent means the item has no content stream (a typed record).
	ContentAbsent ContentKind = iota

	// ContentText is a string payload encoded as UTF-8.
	ContentText

	// ContentBinary is a raw byte payload.
	ContentBinary
)

// String returns the string representation.
func (k ContentKind) String() string {
	switch k {
	case ContentText:
		return "text"
	case ContentBinary:
		return "binary"
	default:
		return "absent"
	}
}

// Content is an item's optional payload. The zero value is absent.
type Content struct {
	kind ContentKind
	text string
	data []byte
}

// TextContent returns a text payload.
func TextContent(s string) Content {
	return Content{kind: ContentText, text: s}
}

// BinaryContent returns a binary payload. A nil slice is still present content.
func BinaryContent(b []byte) Content {
	return Content{kind: ContentBinary, data: b}
}

// Kind returns the variant.
func (c Content) Kind() ContentKind {
	return c.kind
}

// IsAbsent returns true if there is no payload.
func (c Content) IsAbsent() bool {
	return c.kind == ContentAbsent
}

// Text returns the text payload; empty for other variants.
func (c Content) Text() string {
	return c.text
}

// Bytes returns the encoded payload. Text is encoded as UTF-8.
func (c Content) Bytes() []byte {
	switch c.kind {
	case ContentText:
		return []byte(c.text)
	case ContentBinary:
		return c.data
	default:
		return nil
	}
}

// ContentStream is an upload-ready payload.
type ContentStream struct {
	// FileName is the name sent with the stream.
	FileName string

	// MimeType is the declared or inferred media type.
	MimeType string

	// Length is the exact byte length of Data.
	Length int64

	// Data is the encoded payload.
	Data []byte
}

// Reader returns a fresh reader over the payload.
func (s *ContentStream) Reader() io.Reader {
	return bytes.NewReader(s.Data)
}

// Default mimetype for content whose type cannot be inferred.
const MimeTextPlain = "text/plain"

// extensionMimetypes is the fixed inference table.
var extensionMimetypes = map[string]string{
	".xml":  "text/xml",
	".json": "application/json",
	".txt":  MimeTextPlain,
}

// MimetypeForName infers a mimetype from a file name's extension.
// Returns false when the extension is not in the table.
func MimetypeForName(name string) (string, bool) {
	ext := strings.ToLower(path.Ext(name))
	mt, ok := extensionMimetypes[ext]
	return mt, ok
}
