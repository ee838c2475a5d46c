package domain

// Hit is a single shortlist entry from one retrieval signal.
type Hit struct {
	ID    string
	Score float64
}

// ScoredCandidate is one fused retrieval result. LexicalScore and
// SemanticScore are the normalized per-signal contributions; a document
// absent from a signal's shortlist carries 0 for that signal.
type ScoredCandidate struct {
	ID            string
	Text          string
	Metadata      map[string]string
	LexicalScore  float64
	SemanticScore float64
	CombinedScore float64
	Rank          int
}
