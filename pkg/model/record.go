package model

// Record is one entity's field-name → display-string map. Formatting (dates
// and the like) is done upstream.
type Record map[string]string

// Get returns the value for field, or def when absent.
func (r Record) Get(field, def string) string {
	if r == nil {
		return def
	}
	if v, ok := r[field]; ok {
		return v
	}
	return def
}
