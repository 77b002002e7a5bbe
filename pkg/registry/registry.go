// Package registry stores named template definitions. Stores hand out
// snapshot clones so a running job never observes later edits.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/model"
)

// ErrNotFound is returned when a template name is not registered.
var ErrNotFound = errors.New("registry: template not found")

// Registry is the template store consumed by the orchestrator and the CLI.
type Registry interface {
	Get(ctx context.Context, name string) (model.Template, error)
	Put(ctx context.Context, tpl model.Template) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}

// Option configures a store.
type Option func(*options)

type options struct {
	clock  func() time.Time
	logger *zap.Logger
}

// WithClock overrides the clock used to stamp creation times.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{clock: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func notFound(name string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, name)
}

// prepare validates tpl and carries the creation time of the stored entry,
// stamping a new one on first insert.
func prepare(tpl model.Template, existing *model.Template, now func() time.Time) (model.Template, error) {
	out := tpl.Clone()
	out.Name = strings.TrimSpace(out.Name)
	out.InferKind()
	if err := out.Validate(); err != nil {
		return model.Template{}, fmt.Errorf("registry: %w", err)
	}
	switch {
	case existing != nil && !existing.CreatedAt.IsZero():
		out.CreatedAt = existing.CreatedAt
	case out.CreatedAt.IsZero():
		out.CreatedAt = model.Timestamp{Time: now().Truncate(time.Minute)}
	}
	return out, nil
}

// Memory is an in-process Registry.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]model.Template
	opts    options
}

var _ Registry = (*Memory)(nil)

// NewMemory returns an empty in-memory registry seeded with templates.
func NewMemory(templates []model.Template, opts ...Option) (*Memory, error) {
	m := &Memory{entries: make(map[string]model.Template), opts: newOptions(opts)}
	for _, tpl := range templates {
		if err := m.Put(context.Background(), tpl); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Get returns a snapshot of the named template.
func (m *Memory) Get(_ context.Context, name string) (model.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tpl, ok := m.entries[strings.TrimSpace(name)]
	if !ok {
		return model.Template{}, notFound(name)
	}
	return tpl.Clone(), nil
}

// Put inserts or replaces a template.
func (m *Memory) Put(_ context.Context, tpl model.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var existing *model.Template
	if current, ok := m.entries[strings.TrimSpace(tpl.Name)]; ok {
		existing = &current
	}
	prepared, err := prepare(tpl, existing, m.opts.clock)
	if err != nil {
		return err
	}
	m.entries[prepared.Name] = prepared
	return nil
}

// Delete removes a template.
func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.TrimSpace(name)
	if _, ok := m.entries[key]; !ok {
		return notFound(name)
	}
	delete(m.entries, key)
	return nil
}

// List returns the registered names in sorted order.
func (m *Memory) List(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedNames(m.entries), nil
}

func sortedNames(entries map[string]model.Template) []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
