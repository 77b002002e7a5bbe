// Package template defines the template engine contract used by markup
// backends, with a pongo2 implementation in the gotemplate subpackage.
package template
