package openapi

import (
	"bytes"
	"errors"
	"net/url"
	"path/filepath"
)

// Source locates a schema document.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind says how a Loader reads a Source.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Document is a loaded schema document and where it came from.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument copies raw; an empty payload is rejected.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("openapi: source is required")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, errors.New("openapi: document is empty")
	}
	return Document{source: src, raw: bytes.Clone(raw)}, nil
}

// MustNewDocument panics if the document cannot be created.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

func (d Document) Source() Source { return d.source }

// Raw returns a copy of the payload.
func (d Document) Raw() []byte { return bytes.Clone(d.raw) }

func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// BaseURL is the location relative $refs resolve against. Documents read
// from an fs.FS have none.
func (d Document) BaseURL() *url.URL {
	if d.source == nil {
		return nil
	}
	switch d.source.Kind() {
	case SourceKindFile:
		abs, err := filepath.Abs(d.source.Location())
		if err != nil {
			return nil
		}
		return &url.URL{Path: filepath.ToSlash(abs)}
	case SourceKindURL:
		u, err := url.Parse(d.source.Location())
		if err != nil {
			return nil
		}
		return u
	default:
		return nil
	}
}
