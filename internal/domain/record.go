package domain

// Record is one immutable unit of indexed content as delivered by the
// message source. Records are superseded on refresh, never mutated.
type Record struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// EnrichedDocument is the indexable form of exactly one Record: the raw
// text prefixed with selected metadata fields rendered as text.
type EnrichedDocument struct {
	ID   string
	Text string
}
