package prompt

import (
	"context"
	"fmt"

	"github.com/goliatone/go-docfill/pkg/model"
)

// LeaveUnmapped is the option that keeps a token unmapped.
const LeaveUnmapped = "(leave unmapped)"

// ResolveUnmapped asks for a schema field for every token in unmapped and
// returns a copy of table with the answers applied. Tokens left unmapped are
// not added.
func ResolveUnmapped(ctx context.Context, d Driver, table model.MappingTable, unmapped, fields []string) (model.MappingTable, error) {
	out := table.Clone()
	if out == nil {
		out = model.MappingTable{}
	}
	if len(unmapped) == 0 {
		return out, nil
	}
	if err := d.Info(ctx, fmt.Sprintf("%d token(s) could not be matched automatically.", len(unmapped))); err != nil {
		return nil, err
	}

	options := append([]string{LeaveUnmapped}, fields...)
	for _, token := range unmapped {
		idx, err := d.Select(ctx, SelectConfig{
			Message:  fmt.Sprintf("Field for {%s}:", token),
			Options:  options,
			Help:     "Pick the schema field whose value replaces this token.",
			PageSize: 12,
		})
		if err != nil {
			return nil, err
		}
		if idx <= 0 || idx >= len(options) {
			continue
		}
		out[token] = options[idx]
	}
	return out, nil
}

// ConfirmSave asks whether the resolved table should be written back.
func ConfirmSave(ctx context.Context, d Driver, template string) (bool, error) {
	return d.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("Save mappings to template %q?", template),
		Default: true,
	})
}
