package retrieval

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/aurora-hq/aurora/internal/domain"
)

var errProviderDown = errors.New("embedding provider down")

// stubEmbedder produces deterministic keyword vectors so tests can steer
// semantic similarity without a provider. The gate channel, when set,
// blocks every call until released.
type stubEmbedder struct {
	mu    sync.Mutex
	fail  bool
	gate  chan struct{}
	calls int
}

func (e *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.mu.Lock()
	e.calls++
	fail, gate := e.fail, e.gate
	e.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail {
		return domain.EmbeddingResult{}, errProviderDown
	}
	return domain.EmbeddingResult{Embedding: keywordVector(text), TotalTokens: 1}, nil
}

func (e *stubEmbedder) setFail(fail bool) {
	e.mu.Lock()
	e.fail = fail
	e.mu.Unlock()
}

func (e *stubEmbedder) setGate(gate chan struct{}) {
	e.mu.Lock()
	e.gate = gate
	e.mu.Unlock()
}

func (e *stubEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// keywordVector maps text onto three axes: London-ness, yacht-ness, and
// a constant so no vector is ever zero.
func keywordVector(text string) []float32 {
	t := strings.ToLower(text)
	v := []float32{0, 0, 1}
	if strings.Contains(t, "london") {
		v[0] = 5
	}
	if strings.Contains(t, "yacht") {
		v[1] = 5
	}
	return v
}

func testRecords() []domain.Record {
	return []domain.Record{
		{
			ID:   "m1",
			Text: "looking for a Bentley with chauffeur in London",
			Metadata: map[string]string{
				"user_name": "Layla Kawaguchi",
				"date":      "October 23, 2025",
			},
		},
		{
			ID:   "m2",
			Text: "booked a yacht in Monaco for the summer",
			Metadata: map[string]string{
				"user_name": "Vikram Desai",
				"date":      "October 24, 2025",
			},
		},
		{
			ID:   "m3",
			Text: "private jet to Dubai next week",
			Metadata: map[string]string{
				"user_name": "Amelia Stone",
				"date":      "October 25, 2025",
			},
		},
	}
}
