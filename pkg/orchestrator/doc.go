// Package orchestrator runs render jobs: it snapshots a template from the
// registry, validates the fatal preconditions, drives the renderer or the
// placeholder resolver and writes the artifact atomically.
package orchestrator
