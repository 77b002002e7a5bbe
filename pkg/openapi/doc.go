// Package openapi loads OpenAPI documents that describe record shapes and
// exposes the contracts used to derive a data schema from a component
// definition. Implementations live under internal/openapi; constructors are
// re-exported from the root docfill package.
package openapi
