// Package records supplies the ordered record sequences a render job consumes.
package records

import (
	"context"

	"github.com/goliatone/go-docfill/pkg/model"
)

// Source yields records in render order.
type Source interface {
	Records(ctx context.Context) ([]model.Record, error)
}

// Static is a fixed, in-memory record sequence.
type Static []model.Record

// Records returns copies of the stored records.
func (s Static) Records(ctx context.Context) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.Record, len(s))
	for i, rec := range s {
		cp := make(model.Record, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		out[i] = cp
	}
	return out, nil
}
