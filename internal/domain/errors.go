package domain

import "errors"

var (
	// ErrIndexNotReady signals a query before the first snapshot is published.
	ErrIndexNotReady = errors.New("index not ready")
	// ErrRebuildInProgress signals a rejected concurrent rebuild attempt.
	ErrRebuildInProgress = errors.New("rebuild already in progress")
	// ErrInvalidQuery signals an empty or whitespace-only query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidWeights signals fusion weights that do not sum to 1.
	ErrInvalidWeights = errors.New("invalid fusion weights")
	// ErrMissingMetadata signals a record lacking a required metadata field.
	ErrMissingMetadata = errors.New("missing metadata field")
	// ErrVectorDimMismatch signals an embedding dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrAnswerProviderError signals a chat completion provider failure.
	ErrAnswerProviderError = errors.New("answer provider error")
	// ErrUpstreamUnavailable signals a message source failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
