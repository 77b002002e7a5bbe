package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-docfill/pkg/model"
)

// FileStore keeps every template in one document keyed by name. Files ending
// in .yaml or .yml are YAML, anything else is JSON.
type FileStore struct {
	path string
	yaml bool
	opts options

	mu      sync.RWMutex
	entries map[string]model.Template

	done     chan struct{}
	onReload func(names []string)
}

var _ Registry = (*FileStore)(nil)

// NewFileStore opens the store at path. A missing file is an empty store.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("registry: file store path is required")
	}
	ext := strings.ToLower(filepath.Ext(path))
	s := &FileStore{
		path:    path,
		yaml:    ext == ".yaml" || ext == ".yml",
		opts:    newOptions(opts),
		entries: make(map[string]model.Template),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Reload replaces the cache with the file contents.
func (s *FileStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.mu.Lock()
		s.entries = make(map[string]model.Template)
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("registry: read %s: %w", s.path, err)
	}
	entries, err := s.decode(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

func (s *FileStore) decode(data []byte) (map[string]model.Template, error) {
	raw := make(map[string]model.Template)
	if len(bytes.TrimSpace(data)) > 0 {
		var err error
		if s.yaml {
			err = yaml.Unmarshal(data, &raw)
		} else {
			err = json.Unmarshal(data, &raw)
		}
		if err != nil {
			return nil, fmt.Errorf("registry: decode %s: %w", s.path, err)
		}
	}
	entries := make(map[string]model.Template, len(raw))
	for name, tpl := range raw {
		tpl.Name = name
		tpl.InferKind()
		entries[name] = tpl
	}
	return entries, nil
}

func (s *FileStore) encode(entries map[string]model.Template) ([]byte, error) {
	if s.yaml {
		return yaml.Marshal(entries)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Get returns a snapshot of the named template.
func (s *FileStore) Get(_ context.Context, name string) (model.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tpl, ok := s.entries[strings.TrimSpace(name)]
	if !ok {
		return model.Template{}, notFound(name)
	}
	return tpl.Clone(), nil
}

// Put inserts or replaces a template and persists the document.
func (s *FileStore) Put(_ context.Context, tpl model.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var existing *model.Template
	if current, ok := s.entries[strings.TrimSpace(tpl.Name)]; ok {
		existing = &current
	}
	prepared, err := prepare(tpl, existing, s.opts.clock)
	if err != nil {
		return err
	}
	next := cloneEntries(s.entries)
	next[prepared.Name] = prepared
	if err := s.persist(next); err != nil {
		return err
	}
	s.entries = next
	return nil
}

// Delete removes a template and persists the document.
func (s *FileStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(name)
	if _, ok := s.entries[key]; !ok {
		return notFound(name)
	}
	next := cloneEntries(s.entries)
	delete(next, key)
	if err := s.persist(next); err != nil {
		return err
	}
	s.entries = next
	return nil
}

// List returns the registered names in sorted order.
func (s *FileStore) List(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedNames(s.entries), nil
}

func (s *FileStore) persist(entries map[string]model.Template) error {
	data, err := s.encode(entries)
	if err != nil {
		return fmt.Errorf("registry: encode: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	return nil
}

func cloneEntries(entries map[string]model.Template) map[string]model.Template {
	out := make(map[string]model.Template, len(entries)+1)
	for k, v := range entries {
		out[k] = v
	}
	return out
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Watch reloads the cache whenever the backing file changes. The watcher
// runs until ctx is cancelled; Done is closed once it has stopped.
func (s *FileStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("registry: create watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("registry: create %s: %w", dir, err)
	}
	// The directory is watched because writes replace the file by rename.
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("registry: watch %s: %w", dir, err)
	}

	s.mu.Lock()
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go s.watch(ctx, watcher, done)
	return nil
}

// OnReload registers fn to run, with the sorted template names, after each
// reload triggered by Watch.
func (s *FileStore) OnReload(fn func(names []string)) {
	s.mu.Lock()
	s.onReload = fn
	s.mu.Unlock()
}

// Done returns a channel closed when the watcher started by Watch exits. It
// is nil when Watch was never called.
func (s *FileStore) Done() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}

func (s *FileStore) watch(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	defer watcher.Close()

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.opts.logger.Warn("registry reload failed", zap.String("path", s.path), zap.Error(err))
				continue
			}
			s.opts.logger.Debug("registry reloaded", zap.String("path", s.path))
			s.mu.RLock()
			hook := s.onReload
			s.mu.RUnlock()
			if hook != nil {
				names, _ := s.List(ctx)
				hook(names)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.opts.logger.Warn("registry watcher error", zap.String("path", s.path), zap.Error(err))
		}
	}
}
