// Package render draws canvas templates onto page backends.
//
// A Renderer walks the records of a job, asks the layout engine where each
// record sits, and issues text and image operations against a Canvas. It is
// single threaded and owns no state beyond one Render call: font resolution
// is fixed at construction, background failures are tracked per call, and
// per-field failures are absorbed into diagnostics.
package render
