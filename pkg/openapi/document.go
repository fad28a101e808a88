package openapi

import (
	"errors"
)

// Document is a fetched OpenAPI payload together with the source it came
// from.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument copies raw into a Document for src.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src.IsZero() {
		return Document{}, errors.New("openapi: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("openapi: raw document is empty")
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// MustNewDocument is NewDocument for fixtures; it panics on error.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns where the document was loaded from.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the document's file path, fs name or URL.
func (d Document) Location() string {
	return d.source.Location()
}
