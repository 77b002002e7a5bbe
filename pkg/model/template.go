package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TemplateKind distinguishes the two template shapes the engine renders.
type TemplateKind string

const (
	// KindCell is a spreadsheet-format document whose cells embed tokens.
	KindCell TemplateKind = "cell"
	// KindCanvas is a set of field placements drawn onto pages.
	KindCanvas TemplateKind = "canvas"
)

// TimestampLayout is the persisted creation timestamp format.
const TimestampLayout = "2006-01-02 15:04"

// Timestamp persists as TimestampLayout text.
type Timestamp struct {
	time.Time
}

// MarshalText implements encoding.TextMarshaler.
func (t Timestamp) MarshalText() ([]byte, error) {
	if t.IsZero() {
		return []byte{}, nil
	}
	return []byte(t.Format(TimestampLayout)), nil
}

// UnmarshalText accepts TimestampLayout and RFC 3339.
func (t *Timestamp) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{TimestampLayout, time.RFC3339} {
		if parsed, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("model: invalid timestamp %q", raw)
}

// MarshalJSON shadows the promoted time.Time method.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	text, _ := t.MarshalText()
	return json.Marshal(string(text))
}

// UnmarshalJSON shadows the promoted time.Time method.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("model: invalid timestamp: %w", err)
	}
	return t.UnmarshalText([]byte(raw))
}

// Template is a named template definition as stored in a registry.
type Template struct {
	Name         string          `json:"name" yaml:"name"`
	Kind         TemplateKind    `json:"kind" yaml:"kind"`
	DocumentPath string          `json:"template_path,omitempty" yaml:"template_path,omitempty"`
	Canvas       *CanvasTemplate `json:"canvas,omitempty" yaml:"canvas,omitempty"`
	Mappings     MappingTable    `json:"mappings" yaml:"mappings"`
	Layout       *LayoutConfig   `json:"layout,omitempty" yaml:"layout,omitempty"`
	CreatedAt    Timestamp       `json:"create_time" yaml:"create_time"`
}

// Clone returns a deep copy so in-flight jobs are isolated from registry edits.
func (t Template) Clone() Template {
	out := t
	out.Canvas = t.Canvas.Clone()
	out.Mappings = t.Mappings.Clone()
	if t.Layout != nil {
		layout := *t.Layout
		out.Layout = &layout
	}
	return out
}

// Validate checks the structural invariants of a template definition.
func (t Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("model: template name is required")
	}
	switch t.Kind {
	case KindCell:
		if strings.TrimSpace(t.DocumentPath) == "" {
			return fmt.Errorf("model: template %q: document path is required", t.Name)
		}
	case KindCanvas:
		if t.Canvas == nil {
			return fmt.Errorf("model: template %q: canvas is required", t.Name)
		}
	default:
		return fmt.Errorf("model: template %q: unknown kind %q", t.Name, t.Kind)
	}
	if t.Layout != nil {
		if err := t.Layout.Validate(); err != nil {
			return fmt.Errorf("model: template %q: %w", t.Name, err)
		}
	}
	return nil
}

// InferKind fills an empty Kind from the populated fields. Entries written by
// older tools only carry template_path.
func (t *Template) InferKind() {
	if t.Kind != "" {
		return
	}
	if t.Canvas != nil {
		t.Kind = KindCanvas
		return
	}
	t.Kind = KindCell
}
