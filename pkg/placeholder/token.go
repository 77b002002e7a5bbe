// Package placeholder discovers and substitutes {field} tokens inside
// cell-oriented templates, one record at a time.
package placeholder

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\{\s*([^{}]+?)\s*\}`)

// Token is one occurrence of {name} inside a text. Start and End are byte
// offsets of the braces in the scanned text.
type Token struct {
	Name  string
	Start int
	End   int
}

// Scan returns the tokens in text in order of appearance. Braces never nest:
// in "{a{b}}" only "{b}" is a token. Empty or whitespace-only braces and
// unterminated braces are not tokens.
func Scan(text string) []Token {
	matches := tokenPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Token, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSpace(text[m[2]:m[3]])
		if name == "" {
			continue
		}
		out = append(out, Token{Name: name, Start: m[0], End: m[1]})
	}
	return out
}

// Names returns the token names in text, duplicates included.
func Names(text string) []string {
	tokens := Scan(text)
	if len(tokens) == 0 {
		return nil
	}
	names := make([]string, len(tokens))
	for i, tok := range tokens {
		names[i] = tok.Name
	}
	return names
}

// Replace substitutes every token in text with resolve(name) in a single
// pass. Literal text between tokens is preserved and replacement values are
// never rescanned. It returns the new text and the number of tokens replaced.
func Replace(text string, resolve func(name string) string) (string, int) {
	tokens := Scan(text)
	if len(tokens) == 0 {
		return text, 0
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, tok := range tokens {
		b.WriteString(text[last:tok.Start])
		b.WriteString(resolve(tok.Name))
		last = tok.End
	}
	b.WriteString(text[last:])
	return b.String(), len(tokens)
}
