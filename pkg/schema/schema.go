package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FieldType tags how a field's values are captured and displayed.
type FieldType string

const (
	// TypeSingleLine is a one-line text value.
	TypeSingleLine FieldType = "str"
	// TypeDate is a date, already formatted as text by the record source.
	TypeDate FieldType = "date"
	// TypeMultiLine is free text that may span several lines.
	TypeMultiLine FieldType = "text"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case TypeSingleLine, TypeDate, TypeMultiLine:
		return true
	}
	return false
}

// Field is one named data field.
type Field struct {
	Name     string    `json:"name" yaml:"name"`
	Type     FieldType `json:"type" yaml:"type"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Unique   bool      `json:"unique,omitempty" yaml:"unique,omitempty"`
}

// Schema is an ordered, duplicate-free list of fields. The zero value is an
// empty schema.
type Schema struct {
	fields []Field
	index  map[string]int
}

// New validates and builds a schema. Names are trimmed; empty or duplicate
// names are rejected and an empty type defaults to TypeSingleLine.
func New(fields ...Field) (Schema, error) {
	s := Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			return Schema{}, fmt.Errorf("schema: field %d: name must be a non-empty string", i)
		}
		if _, dup := s.index[f.Name]; dup {
			return Schema{}, fmt.Errorf("schema: duplicate field name %q", f.Name)
		}
		if f.Type == "" {
			f.Type = TypeSingleLine
		}
		if !f.Type.Valid() {
			return Schema{}, fmt.Errorf("schema: field %q: unknown type %q", f.Name, f.Type)
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustNew panics when New fails.
func MustNew(fields ...Field) Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// FromNames builds a schema of single-line fields.
func FromNames(names ...string) (Schema, error) {
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, Field{Name: name})
	}
	return New(fields...)
}

// Fields returns a copy of the fields in declaration order.
func (s Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Names returns field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Lookup returns the named field.
func (s Schema) Lookup(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Len returns the number of fields.
func (s Schema) Len() int {
	return len(s.fields)
}

// Required returns the names of required fields.
func (s Schema) Required() []string {
	var out []string
	for _, f := range s.fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// MarshalJSON writes the {"fields": [...]} document shape.
func (s Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{Fields: s.fields})
}

// UnmarshalJSON reads the {"fields": [...]} document shape.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	parsed, err := New(doc.Fields...)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type document struct {
	Fields []Field `json:"fields" yaml:"fields"`
}

// ErrEmpty is returned when a schema document lists no fields.
var ErrEmpty = errors.New("schema: no fields defined")
