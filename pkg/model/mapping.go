package model

import "strings"

// MappingTable maps template tokens to schema field names. Keys are the token
// text exactly as discovered (trimmed of whitespace and braces); absent keys
// are unmapped.
type MappingTable map[string]string

// Lookup resolves a token. Surrounding whitespace is ignored; empty targets
// count as unmapped.
func (m MappingTable) Lookup(token string) (string, bool) {
	if m == nil {
		return "", false
	}
	field, ok := m[strings.TrimSpace(token)]
	if !ok || strings.TrimSpace(field) == "" {
		return "", false
	}
	return field, true
}

// Unmapped returns the tokens without a usable mapping, preserving order.
func (m MappingTable) Unmapped(tokens []string) []string {
	var out []string
	for _, token := range tokens {
		if _, ok := m.Lookup(token); !ok {
			out = append(out, token)
		}
	}
	return out
}

// Clone returns a copy of the table.
func (m MappingTable) Clone() MappingTable {
	if m == nil {
		return nil
	}
	out := make(MappingTable, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Identity maps every token to itself.
func Identity(tokens ...string) MappingTable {
	out := make(MappingTable, len(tokens))
	for _, token := range tokens {
		trimmed := strings.TrimSpace(token)
		out[trimmed] = trimmed
	}
	return out
}
