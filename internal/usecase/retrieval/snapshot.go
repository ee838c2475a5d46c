package retrieval

import (
	"github.com/aurora-hq/aurora/internal/domain"
	"github.com/aurora-hq/aurora/internal/index/lexical"
	"github.com/aurora-hq/aurora/internal/index/semantic"
)

// Snapshot is an immutable, versioned pairing of one lexical and one
// semantic index built from the same corpus generation. Queries always
// execute against exactly one snapshot; a rebuild publishes a new one
// atomically and never touches a published snapshot.
type Snapshot struct {
	version  int
	lexical  *lexical.Index
	semantic *semantic.Index
	records  map[string]domain.Record
}

// Version returns the corpus generation this snapshot was built from.
func (s *Snapshot) Version() int { return s.version }

// Len returns the number of documents in the snapshot.
func (s *Snapshot) Len() int { return len(s.records) }

// materialize fills candidate text and metadata from the snapshot.
// Candidates carry the raw record text; the enriched form only exists
// inside the indexes. Every fused id came from one of the snapshot's own
// indexes, so the lookups cannot miss.
func (s *Snapshot) materialize(candidates []domain.ScoredCandidate) []domain.ScoredCandidate {
	for i := range candidates {
		rec := s.records[candidates[i].ID]
		candidates[i].Text = rec.Text
		candidates[i].Metadata = rec.Metadata
	}
	return candidates
}
