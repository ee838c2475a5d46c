// Package lexical implements an in-memory inverted index scored with
// BM25. The index is built once per corpus generation and never mutated;
// concurrent searches need no locking.
package lexical

import (
	"math"
	"sort"

	"github.com/aurora-hq/aurora/internal/domain"
	"github.com/aurora-hq/aurora/internal/tokenize"
)

// Params are the BM25 constants: k1 controls term-frequency saturation,
// b controls document-length normalization.
type Params struct {
	K1 float64
	B  float64
}

// DefaultParams returns the standard BM25 constants.
func DefaultParams() Params {
	return Params{K1: 1.5, B: 0.75}
}

type posting struct {
	doc int // position in docIDs
	tf  int
}

// Index is an immutable BM25 inverted index over enriched documents.
type Index struct {
	params    Params
	postings  map[string][]posting
	docIDs    []string
	docLens   []int
	avgDocLen float64
}

// Build tokenizes every document and accumulates posting lists, document
// lengths and per-term document frequencies.
func Build(docs []domain.EnrichedDocument, params Params) *Index {
	idx := &Index{
		params:   params,
		postings: make(map[string][]posting),
		docIDs:   make([]string, len(docs)),
		docLens:  make([]int, len(docs)),
	}

	var totalLen int
	for i, doc := range docs {
		idx.docIDs[i] = doc.ID
		terms := tokenize.Split(doc.Text)
		idx.docLens[i] = len(terms)
		totalLen += len(terms)

		tf := make(map[string]int, len(terms))
		for _, t := range terms {
			tf[t]++
		}
		for t, n := range tf {
			idx.postings[t] = append(idx.postings[t], posting{doc: i, tf: n})
		}
	}
	if len(docs) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(docs))
	}

	return idx
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int { return len(idx.docIDs) }

// Search scores every document sharing at least one query term. Documents
// with no shared terms are absent from the result, not scored zero.
// Results are ordered by score descending, ties by document id ascending,
// and truncated to limit.
func (idx *Index) Search(terms []string, limit int) []domain.Hit {
	if len(terms) == 0 || len(idx.docIDs) == 0 || limit <= 0 {
		return nil
	}

	n := float64(len(idx.docIDs))
	scores := make(map[int]float64)

	for _, term := range terms {
		plist, ok := idx.postings[term]
		if !ok {
			continue
		}
		df := float64(len(plist))
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)

		for _, p := range plist {
			tf := float64(p.tf)
			norm := 1 - idx.params.B + idx.params.B*float64(idx.docLens[p.doc])/idx.avgDocLen
			scores[p.doc] += idf * (tf * (idx.params.K1 + 1)) / (tf + idx.params.K1*norm)
		}
	}

	hits := make([]domain.Hit, 0, len(scores))
	for doc, score := range scores {
		hits = append(hits, domain.Hit{ID: idx.docIDs[doc], Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
