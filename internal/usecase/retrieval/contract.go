package retrieval

import (
	"context"

	"github.com/aurora-hq/aurora/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Enricher derives indexable documents from raw records.
type Enricher interface {
	EnrichAll(recs []domain.Record) ([]domain.EnrichedDocument, error)
}

// Expander widens a raw query into lexical search terms.
type Expander interface {
	Expand(raw string) []string
}
