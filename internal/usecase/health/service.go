// Package health aggregates component health checks into one report.
package health

import (
	"context"

	"github.com/aurora-hq/aurora/internal/usecase/retrieval"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure; the service still answers.
	Degraded Status = "degraded"
	// Unhealthy indicates the pipeline cannot serve queries.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Checks    map[string]CheckResult
	Documents int
}

// Service coordinates health checks.
type Service struct {
	pipeline  PipelineStatus
	db        DBPinger
	embedding EmbeddingChecker
}

// New creates a Service. db and embedding can be nil.
func New(pipeline PipelineStatus, db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{pipeline: pipeline, db: db, embedding: embedding}
}

// Check runs health checks against all components. A pipeline that is
// not serving makes the whole report Unhealthy; auxiliary failures
// (cache, embedding provider) only degrade it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	state := s.pipeline.State()
	serving := state == retrieval.StateReady || state == retrieval.StateRefreshing
	if serving {
		checks["pipeline"] = CheckOK
	} else {
		checks["pipeline"] = CheckError
	}

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["database"] = CheckError
		} else {
			checks["database"] = CheckOK
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if !serving {
		status = Unhealthy
	}

	return Report{
		Status:    status,
		Checks:    checks,
		Documents: s.pipeline.DocumentCount(),
	}
}
