package health

import (
	"context"
	"errors"
	"testing"

	"github.com/aurora-hq/aurora/internal/usecase/retrieval"
)

// --- Mocks ---

type mockPipeline struct {
	state retrieval.State
	docs  int
}

func (m *mockPipeline) State() retrieval.State { return m.state }
func (m *mockPipeline) DocumentCount() int     { return m.docs }

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPipeline{state: retrieval.StateReady, docs: 120}, &mockDBPinger{}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["pipeline"] != CheckOK {
		t.Errorf("expected pipeline %q, got %q", CheckOK, r.Checks["pipeline"])
	}
	if r.Checks["database"] != CheckOK {
		t.Errorf("expected database %q, got %q", CheckOK, r.Checks["database"])
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"])
	}
	if r.Documents != 120 {
		t.Errorf("expected 120 documents, got %d", r.Documents)
	}
}

func TestCheck_RefreshingStillServes(t *testing.T) {
	svc := New(&mockPipeline{state: retrieval.StateRefreshing}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q while refreshing, got %q", Healthy, r.Status)
	}
}

func TestCheck_PipelineNotServing(t *testing.T) {
	for _, state := range []retrieval.State{retrieval.StateEmpty, retrieval.StateBuilding, retrieval.StateFailed} {
		svc := New(&mockPipeline{state: state}, &mockDBPinger{}, &mockEmbeddingChecker{})
		r := svc.Check(context.Background())

		if r.Status != Unhealthy {
			t.Errorf("state %s: expected %q, got %q", state, Unhealthy, r.Status)
		}
		if r.Checks["pipeline"] != CheckError {
			t.Errorf("state %s: expected pipeline %q, got %q", state, CheckError, r.Checks["pipeline"])
		}
	}
}

func TestCheck_DBError(t *testing.T) {
	svc := New(&mockPipeline{state: retrieval.StateReady}, &mockDBPinger{err: errors.New("conn refused")}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks["database"])
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(&mockPipeline{state: retrieval.StateReady}, &mockDBPinger{}, &mockEmbeddingChecker{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["embedding"] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks["embedding"])
	}
}

func TestCheck_NoOptionalComponents(t *testing.T) {
	svc := New(&mockPipeline{state: retrieval.StateReady}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["database"]; ok {
		t.Error("database check should be absent when db is nil")
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when embedding is nil")
	}
}

func TestCheck_UnhealthyBeatsDegraded(t *testing.T) {
	svc := New(
		&mockPipeline{state: retrieval.StateFailed},
		&mockDBPinger{err: errors.New("db down")},
		nil,
	)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}
