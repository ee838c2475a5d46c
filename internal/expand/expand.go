// Package expand widens lexical recall by adding synonyms to query terms
// from a static, configuration-supplied mapping. Expansion only adds
// terms; the original tokens always survive. The semantic index receives
// the unexpanded query, since embeddings already generalize over
// synonymy.
package expand

import (
	"sort"
	"strings"

	"github.com/aurora-hq/aurora/internal/tokenize"
)

// Expander holds the token→synonyms mapping.
type Expander struct {
	synonyms map[string][]string
}

// New creates an Expander. Keys and synonyms are lowercased to match the
// tokenizer's case folding. A nil map means no expansion.
func New(synonyms map[string][]string) *Expander {
	m := make(map[string][]string, len(synonyms))
	for token, syns := range synonyms {
		lowered := make([]string, len(syns))
		for i, s := range syns {
			lowered[i] = strings.ToLower(s)
		}
		m[strings.ToLower(token)] = lowered
	}
	return &Expander{synonyms: m}
}

// Expand tokenizes the raw query and appends synonyms for every token
// present in the mapping. The returned terms are deduplicated and sorted
// for deterministic downstream scoring.
func (e *Expander) Expand(raw string) []string {
	tokens := tokenize.Split(raw)
	if len(tokens) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		seen[t] = struct{}{}
		for _, syn := range e.synonyms[t] {
			seen[syn] = struct{}{}
		}
	}

	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}
