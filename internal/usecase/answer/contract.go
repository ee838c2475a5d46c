package answer

import (
	"context"

	"github.com/aurora-hq/aurora/internal/usecase/retrieval"
)

// Retriever produces ranked context candidates for a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int, weights *retrieval.Weights) (retrieval.Result, error)
}

// Completer generates a chat completion from a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
