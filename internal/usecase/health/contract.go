package health

import (
	"context"

	"github.com/aurora-hq/aurora/internal/usecase/retrieval"
)

// DBPinger checks cache database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// PipelineStatus reports the retrieval pipeline lifecycle.
type PipelineStatus interface {
	State() retrieval.State
	DocumentCount() int
}
