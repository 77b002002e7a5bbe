// Package mapping proposes token → field mappings by matching template
// tokens against schema field names.
package mapping

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/goliatone/go-docfill/pkg/model"
)

// Pass records which matching pass produced a mapping.
type Pass string

const (
	PassExact Pass = "exact"
	PassFuzzy Pass = "fuzzy"
)

// Match is one proposed mapping.
type Match struct {
	Token string
	Field string
	Pass  Pass
}

// Result is the outcome of a matching run. Table keys keep the token text as
// discovered; Unmapped preserves discovery order.
type Result struct {
	Table    model.MappingTable
	Unmapped []string
	Matches  []Match
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithLogger attaches a logger used for debug output of each decision.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithoutFuzzy disables the containment pass.
func WithoutFuzzy() Option {
	return func(m *Matcher) {
		m.fuzzy = false
	}
}

// Matcher runs the exact pass followed by the containment pass.
type Matcher struct {
	logger *zap.Logger
	fuzzy  bool
}

// NewMatcher constructs a Matcher.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{logger: zap.NewNop(), fuzzy: true}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Match maps each token to a field. A token that equals a field name after
// cleaning maps exactly; otherwise the first field, in declaration order,
// that contains the token or is contained by it wins. Tokens that match
// nothing are reported as unmapped.
func (m *Matcher) Match(tokens, fields []string) Result {
	res := Result{Table: make(model.MappingTable, len(tokens))}

	normalized := make([]string, len(fields))
	exact := make(map[string]string, len(fields))
	for i, field := range fields {
		normalized[i] = normalize(field)
		if _, seen := exact[normalized[i]]; !seen {
			exact[normalized[i]] = field
		}
	}

	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		key := strings.TrimSpace(token)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		clean := normalize(Clean(key))
		if clean == "" {
			res.Unmapped = append(res.Unmapped, key)
			continue
		}

		if field, ok := exact[clean]; ok {
			res.add(key, field, PassExact)
			m.logger.Debug("mapping matched", zap.String("token", key), zap.String("field", field), zap.String("pass", string(PassExact)))
			continue
		}

		matched := false
		if m.fuzzy {
			for i, candidate := range normalized {
				if candidate == "" {
					continue
				}
				if strings.Contains(clean, candidate) || strings.Contains(candidate, clean) {
					res.add(key, fields[i], PassFuzzy)
					m.logger.Debug("mapping matched", zap.String("token", key), zap.String("field", fields[i]), zap.String("pass", string(PassFuzzy)))
					matched = true
					break
				}
			}
		}
		if !matched {
			res.Unmapped = append(res.Unmapped, key)
		}
	}
	return res
}

func (r *Result) add(token, field string, pass Pass) {
	r.Table[token] = field
	r.Matches = append(r.Matches, Match{Token: token, Field: field, Pass: pass})
}

// Clean strips braces and dollar signs from a token and trims whitespace.
func Clean(token string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '{', '}', '$':
			return -1
		}
		return r
	}, token)
	return strings.TrimSpace(cleaned)
}

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Merge overlays automatic proposals under explicit mappings: entries present
// in explicit (with a non-empty target) win.
func Merge(explicit, auto model.MappingTable) model.MappingTable {
	out := auto.Clone()
	if out == nil {
		out = make(model.MappingTable, len(explicit))
	}
	for token, field := range explicit {
		if strings.TrimSpace(field) == "" {
			continue
		}
		out[token] = field
	}
	return out
}
