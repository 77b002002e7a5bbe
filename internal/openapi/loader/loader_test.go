package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	pkgopenapi "github.com/goliatone/go-docfill/pkg/openapi"
)

const sample = `{"openapi":"3.0.3","info":{"title":"t","version":"1"},"paths":{}}`

func TestLoader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.json")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := New(pkgopenapi.NewLoaderOptions()).Load(context.Background(), pkgopenapi.SourceFromFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(doc.Raw()) != sample {
		t.Fatalf("unexpected payload %q", doc.Raw())
	}
}

func TestLoader_FS(t *testing.T) {
	files := fstest.MapFS{"specs/people.json": {Data: []byte(sample)}}
	l := New(pkgopenapi.NewLoaderOptions(pkgopenapi.WithFileSystem(files)))

	doc, err := l.Load(context.Background(), pkgopenapi.SourceFromFS("specs/people.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Location() != "specs/people.json" {
		t.Fatalf("location = %q", doc.Location())
	}
}

func TestLoader_FSNotConfigured(t *testing.T) {
	_, err := New(pkgopenapi.NewLoaderOptions()).Load(context.Background(), pkgopenapi.SourceFromFS("x.json"))
	if err == nil {
		t.Fatal("expected error without filesystem")
	}
}

func TestLoader_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sample))
	}))
	defer srv.Close()

	src, err := pkgopenapi.SourceFromURL(srv.URL)
	if err != nil {
		t.Fatalf("source: %v", err)
	}

	disabled := New(pkgopenapi.NewLoaderOptions())
	if _, err := disabled.Load(context.Background(), src); err == nil {
		t.Fatal("expected http disabled error")
	}

	l := New(pkgopenapi.NewLoaderOptions(pkgopenapi.WithHTTPClient(srv.Client())))
	doc, err := l.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Raw()) == 0 {
		t.Fatal("empty payload")
	}
}

func TestLoader_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	src, err := pkgopenapi.SourceFromURL(srv.URL)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	l := New(pkgopenapi.NewLoaderOptions(pkgopenapi.WithHTTPClient(srv.Client())))
	if _, err := l.Load(context.Background(), src); err == nil {
		t.Fatal("expected status error")
	}
}

func TestLoader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(pkgopenapi.NewLoaderOptions()).Load(ctx, pkgopenapi.SourceFromFile("people.json"))
	if err != context.Canceled {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		raw     string
		kind    pkgopenapi.SourceKind
		wantErr bool
	}{
		{raw: "https://hr.example.com/openapi.json", kind: pkgopenapi.SourceKindURL},
		{raw: "specs/people.yaml", kind: pkgopenapi.SourceKindFile},
		{raw: "  ", wantErr: true},
		{raw: "http://", wantErr: true},
	}
	for _, tc := range tests {
		src, err := pkgopenapi.ParseSource(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.raw, err)
		}
		if src.Kind() != tc.kind {
			t.Fatalf("%q: kind = %s, want %s", tc.raw, src.Kind(), tc.kind)
		}
	}
	if _, err := pkgopenapi.SourceFromURL("ftp://example.com/x.json"); err == nil {
		t.Fatal("expected scheme error")
	}
}
