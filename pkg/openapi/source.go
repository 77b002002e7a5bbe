package openapi

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

type source struct {
	kind     SourceKind
	location string
}

func (s source) Location() string { return s.location }

func (s source) Kind() SourceKind { return s.kind }

// SourceFromFile points at a schema document on disk.
func SourceFromFile(path string) Source {
	return source{kind: SourceKindFile, location: filepath.Clean(path)}
}

// SourceFromFS names a document inside the loader's fs.FS.
func SourceFromFS(name string) Source {
	return source{kind: SourceKindFS, location: name}
}

// SourceFromURL points at a document served over HTTP or HTTPS.
func SourceFromURL(raw string) (Source, error) {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("openapi: invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("openapi: unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("openapi: URL %q has no host", raw)
	}
	return source{kind: SourceKindURL, location: u.String()}, nil
}

// ParseSource reads a configured location: http(s) URLs become URL sources,
// anything else a file path.
func ParseSource(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("openapi: empty source")
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return SourceFromURL(raw)
	}
	return SourceFromFile(raw), nil
}
