package render

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies engine failures.
type Kind string

const (
	KindTemplateNotFound     Kind = "TemplateNotFound"
	KindRecordSourceEmpty    Kind = "RecordSourceEmpty"
	KindOutputWriteError     Kind = "OutputWriteError"
	KindInvalidLayout        Kind = "InvalidLayout"
	KindMappingIncomplete    Kind = "MappingIncomplete"
	KindFieldRenderError     Kind = "FieldRenderError"
	KindBackgroundAssetError Kind = "BackgroundAssetError"
)

// Fatal reports whether a failure of this kind aborts the job.
func (k Kind) Fatal() bool {
	switch k {
	case KindTemplateNotFound, KindRecordSourceEmpty, KindOutputWriteError, KindInvalidLayout:
		return true
	}
	return false
}

// Sentinels for errors.Is checks. Any *Error with the same Kind matches.
var (
	ErrTemplateNotFound  = &Error{Kind: KindTemplateNotFound}
	ErrRecordSourceEmpty = &Error{Kind: KindRecordSourceEmpty}
	ErrOutputWrite       = &Error{Kind: KindOutputWriteError}
	ErrInvalidLayout     = &Error{Kind: KindInvalidLayout}
	ErrMappingIncomplete = &Error{Kind: KindMappingIncomplete}
	ErrFieldRender       = &Error{Kind: KindFieldRenderError}
	ErrBackgroundAsset   = &Error{Kind: KindBackgroundAssetError}
)

// Error is a classified engine error.
type Error struct {
	Kind     Kind
	Op       string
	Template string
	Field    string
	Path     string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Op != "" {
		b.WriteString(" (")
		b.WriteString(e.Op)
		b.WriteString(")")
	}
	if e.Template != "" {
		fmt.Fprintf(&b, " template=%q", e.Template)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field=%q", e.Field)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " path=%q", e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the Kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Diagnostic records a non-fatal condition absorbed during a job.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Record  int    `json:"record"`
	Field   string `json:"field,omitempty"`
	Token   string `json:"token,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s record=%d field=%q: %s", d.Kind, d.Record, d.Field, d.Message)
}
