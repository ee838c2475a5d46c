// Package semantic implements an in-memory dense-vector index with exact
// cosine similarity search. Vectors are L2-normalized at build time, so
// cosine reduces to a dot product and scores stay comparable across
// snapshots.
package semantic

import (
	"fmt"
	"math"
	"sort"

	"github.com/aurora-hq/aurora/internal/domain"
)

// Index is an immutable id→vector store built from one corpus generation.
type Index struct {
	ids     []string
	vectors [][]float32
	dim     int
}

// Build pairs documents with their embeddings. Every vector must share
// one dimension; a mismatch is a build-time error, never a partial index.
func Build(docs []domain.EnrichedDocument, embeddings [][]float32) (*Index, error) {
	if len(docs) != len(embeddings) {
		return nil, fmt.Errorf("got %d embeddings for %d documents", len(embeddings), len(docs))
	}

	idx := &Index{
		ids:     make([]string, len(docs)),
		vectors: make([][]float32, len(docs)),
	}
	for i, doc := range docs {
		vec := embeddings[i]
		if i == 0 {
			idx.dim = len(vec)
		}
		if len(vec) == 0 || len(vec) != idx.dim {
			return nil, fmt.Errorf("document %s: got dimension %d, want %d: %w",
				doc.ID, len(vec), idx.dim, domain.ErrVectorDimMismatch)
		}
		idx.ids[i] = doc.ID
		idx.vectors[i] = normalize(vec)
	}

	return idx, nil
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int { return len(idx.ids) }

// Dimension returns the vector dimension, 0 for an empty index.
func (idx *Index) Dimension() int { return idx.dim }

// Search returns the limit nearest documents to the query vector by
// cosine similarity, descending, ties by document id ascending.
func (idx *Index) Search(query []float32, limit int) ([]domain.Hit, error) {
	if len(idx.ids) == 0 || limit <= 0 {
		return nil, nil
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query dimension %d, index dimension %d: %w",
			len(query), idx.dim, domain.ErrVectorDimMismatch)
	}

	q := normalize(query)
	hits := make([]domain.Hit, len(idx.ids))
	for i, vec := range idx.vectors {
		hits[i] = domain.Hit{ID: idx.ids[i], Score: dot(q, vec)}
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
	return hits, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
