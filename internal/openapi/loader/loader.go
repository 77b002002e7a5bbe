package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	pkgopenapi "github.com/goliatone/go-docfill/pkg/openapi"
)

// maxDocumentSize caps remote schema documents.
const maxDocumentSize = 16 << 20

// Loader implements pkgopenapi.Loader for file, fs.FS and HTTP sources.
// Construction helpers live in the top-level docfill package.
type Loader struct {
	files   fs.FS
	client  *http.Client
	timeout time.Duration
}

var _ pkgopenapi.Loader = (*Loader)(nil)

// New constructs a Loader from resolved options. URL sources are rejected
// unless an HTTP client or the HTTP fallback is configured.
func New(options pkgopenapi.LoaderOptions) pkgopenapi.Loader {
	l := &Loader{files: options.FileSystem, timeout: options.RequestTimeout}
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if l.timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = l.timeout
		}
		l.client = &clone
	case options.AllowHTTPFallback:
		l.client = &http.Client{Timeout: l.timeout}
	}
	return l
}

// Load reads src and wraps the bytes in a Document.
func (l *Loader) Load(ctx context.Context, src pkgopenapi.Source) (pkgopenapi.Document, error) {
	if src == nil {
		return pkgopenapi.Document{}, errors.New("openapi loader: source is nil")
	}
	if src.Location() == "" {
		return pkgopenapi.Document{}, fmt.Errorf("openapi loader: %s source has no location", src.Kind())
	}
	if err := ctx.Err(); err != nil {
		return pkgopenapi.Document{}, err
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case pkgopenapi.SourceKindFile:
		data, err = os.ReadFile(src.Location())
	case pkgopenapi.SourceKindFS:
		if l.files == nil {
			return pkgopenapi.Document{}, errors.New("openapi loader: filesystem is not configured")
		}
		data, err = fs.ReadFile(l.files, src.Location())
	case pkgopenapi.SourceKindURL:
		data, err = l.fetch(ctx, src.Location())
	default:
		err = fmt.Errorf("openapi loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return pkgopenapi.Document{}, err
	}
	return pkgopenapi.NewDocument(src, data)
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	if l.client == nil {
		return nil, errors.New("openapi loader: http support disabled")
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openapi loader: %s: unexpected status %s", url, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
}
