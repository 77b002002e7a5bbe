// Package model defines the plain data consumed by the composition engine:
// canvas templates and their field placements, cell-oriented document
// templates, mapping tables, layout configuration, and records. Values are
// plain structs so a designer surface can translate gestures into explicit
// Add/Move/Resize/Restyle/Remove operations without the engine holding any
// UI state. Templates are cloned at job start; nothing in this package is
// shared across render jobs.
package model
