// Package retrieval orchestrates hybrid retrieval: enrichment, the
// lexical and semantic indexes, query expansion and score fusion, plus
// the snapshot lifecycle (build / refresh / atomic swap).
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aurora-hq/aurora/internal/domain"
	"github.com/aurora-hq/aurora/internal/index/lexical"
	"github.com/aurora-hq/aurora/internal/index/semantic"
	"github.com/aurora-hq/aurora/internal/metrics"
)

// State is the pipeline lifecycle state.
type State int32

// Lifecycle states: Empty → Building → Ready ⇄ Refreshing, with Failed
// reachable from Building (initial build failure is fatal to serving).
const (
	StateEmpty State = iota
	StateBuilding
	StateReady
	StateRefreshing
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	case StateRefreshing:
		return "refreshing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options hold the retrieval tuning knobs.
type Options struct {
	TopK          int
	Weights       Weights
	BM25          lexical.Params
	LexicalLimit  int // shortlist size before fusion
	SemanticLimit int
}

// Result is one retrieval outcome. Degraded marks a lexical-only ranking
// produced because the embedding provider was unavailable at query time.
type Result struct {
	Candidates      []domain.ScoredCandidate
	Degraded        bool
	SnapshotVersion int
}

// embedBatchSize bounds one embedding API call during snapshot builds.
const embedBatchSize = 32

// Service is the retrieval pipeline. Queries read the published snapshot
// without locking; the mutex only guards lifecycle transitions.
type Service struct {
	enricher Enricher
	expander Expander
	embedder Embedder
	opts     Options
	logger   *zap.Logger

	mu       sync.Mutex
	state    State
	lastErr  error
	snapshot atomic.Pointer[Snapshot]
}

// New creates the pipeline in the Empty state. Invalid options are a
// configuration error and never reach query time.
func New(enricher Enricher, expander Expander, embedder Embedder, opts Options, logger *zap.Logger) (*Service, error) {
	if err := opts.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("lexical %.3f + semantic %.3f: %w",
			opts.Weights.Lexical, opts.Weights.Semantic, err)
	}
	if opts.TopK <= 0 {
		opts.TopK = 15
	}
	if opts.LexicalLimit <= 0 {
		opts.LexicalLimit = 100
	}
	if opts.SemanticLimit <= 0 {
		opts.SemanticLimit = 50
	}
	if opts.BM25.K1 == 0 && opts.BM25.B == 0 {
		opts.BM25 = lexical.DefaultParams()
	}

	return &Service{
		enricher: enricher,
		expander: expander,
		embedder: embedder,
		opts:     opts,
		logger:   logger,
	}, nil
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the error retained from a failed build or refresh.
func (s *Service) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SnapshotVersion returns the published snapshot's corpus generation,
// 0 when none is published yet.
func (s *Service) SnapshotVersion() int {
	if snap := s.snapshot.Load(); snap != nil {
		return snap.Version()
	}
	return 0
}

// DocumentCount returns the size of the published snapshot, 0 when none.
func (s *Service) DocumentCount() int {
	if snap := s.snapshot.Load(); snap != nil {
		return snap.Len()
	}
	return 0
}

// Build performs the initial snapshot construction. On failure the
// pipeline transitions to Failed with the error retained; it can be
// retried (Failed → Building).
func (s *Service) Build(ctx context.Context, recs []domain.Record) error {
	s.mu.Lock()
	switch s.state {
	case StateBuilding, StateRefreshing:
		s.mu.Unlock()
		metrics.SnapshotRebuildsTotal.WithLabelValues("rejected").Inc()
		return domain.ErrRebuildInProgress
	case StateReady:
		s.mu.Unlock()
		return fmt.Errorf("pipeline already built, use Refresh")
	case StateEmpty, StateFailed:
	}
	s.state = StateBuilding
	s.mu.Unlock()

	snap, err := s.buildSnapshot(ctx, recs, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
		s.lastErr = err
		metrics.SnapshotRebuildsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("initial build: %w", err)
	}

	s.snapshot.Store(snap)
	s.state = StateReady
	s.lastErr = nil
	metrics.SnapshotRebuildsTotal.WithLabelValues("success").Inc()
	metrics.SnapshotDocuments.Set(float64(snap.Len()))
	s.logger.Info("Snapshot published",
		zap.Int("version", snap.Version()),
		zap.Int("documents", snap.Len()),
	)
	return nil
}

// Refresh builds a replacement snapshot off to the side and swaps it in
// atomically. On failure the old snapshot stays published and the
// pipeline returns to Ready; refresh failure is never fatal to serving.
// A refresh while another rebuild is in flight is rejected, not queued.
func (s *Service) Refresh(ctx context.Context, recs []domain.Record) error {
	s.mu.Lock()
	switch s.state {
	case StateBuilding, StateRefreshing:
		s.mu.Unlock()
		metrics.SnapshotRebuildsTotal.WithLabelValues("rejected").Inc()
		return domain.ErrRebuildInProgress
	case StateEmpty, StateFailed:
		s.mu.Unlock()
		return domain.ErrIndexNotReady
	case StateReady:
	}
	s.state = StateRefreshing
	old := s.snapshot.Load()
	s.mu.Unlock()

	snap, err := s.buildSnapshot(ctx, recs, old.Version()+1)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateReady
	if err != nil {
		s.lastErr = err
		metrics.SnapshotRebuildsTotal.WithLabelValues("error").Inc()
		s.logger.Warn("Refresh failed, retaining previous snapshot",
			zap.Int("version", old.Version()),
			zap.Error(err),
		)
		return fmt.Errorf("refresh: %w", err)
	}

	s.snapshot.Store(snap)
	s.lastErr = nil
	metrics.SnapshotRebuildsTotal.WithLabelValues("success").Inc()
	metrics.SnapshotDocuments.Set(float64(snap.Len()))
	s.logger.Info("Snapshot refreshed",
		zap.Int("version", snap.Version()),
		zap.Int("documents", snap.Len()),
	)
	return nil
}

// Retrieve runs one hybrid query against the published snapshot. The
// lexical and semantic shortlists are produced in parallel; embedding
// failure degrades to a lexical-only ranking instead of failing.
func (s *Service) Retrieve(ctx context.Context, query string, k int, weights *Weights) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{}, domain.ErrInvalidQuery
	}

	snap := s.snapshot.Load()
	if snap == nil {
		return Result{}, domain.ErrIndexNotReady
	}

	if k <= 0 {
		k = s.opts.TopK
	}
	w := s.opts.Weights
	if weights != nil {
		if err := weights.Validate(); err != nil {
			return Result{}, fmt.Errorf("lexical %.3f + semantic %.3f: %w",
				weights.Lexical, weights.Semantic, err)
		}
		w = *weights
	}

	start := time.Now()

	var (
		lexHits []domain.Hit
		semHits []domain.Hit
		semErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lexHits = snap.lexical.Search(s.expander.Expand(query), s.opts.LexicalLimit)
		return nil
	})
	g.Go(func() error {
		// The semantic index receives the unexpanded query: embeddings
		// already generalize over synonymy. Failure here is the degraded
		// signal, not an error.
		emb, err := s.embedder.Embed(gctx, query)
		if err != nil {
			semErr = err
			return nil
		}
		hits, err := snap.semantic.Search(emb.Embedding, s.opts.SemanticLimit)
		if err != nil {
			semErr = err
			return nil
		}
		semHits = hits
		return nil
	})
	_ = g.Wait() // both goroutines always return nil

	mode := "hybrid"
	if semErr != nil {
		mode = "degraded"
		semHits = nil
		s.logger.Warn("Semantic search unavailable, serving lexical-only ranking",
			zap.Error(semErr),
		)
	}

	candidates := snap.materialize(fuse(lexHits, semHits, w, k))

	metrics.RetrievalRequestsTotal.WithLabelValues(mode, "success").Inc()
	metrics.RetrievalDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	return Result{
		Candidates:      candidates,
		Degraded:        semErr != nil,
		SnapshotVersion: snap.Version(),
	}, nil
}

// buildSnapshot enriches the corpus and builds both indexes. Any failure
// (missing metadata, embedding provider, dimension mismatch) fails the
// whole build; there is no partial snapshot.
func (s *Service) buildSnapshot(ctx context.Context, recs []domain.Record, version int) (*Snapshot, error) {
	docs, err := s.enricher.EnrichAll(recs)
	if err != nil {
		return nil, fmt.Errorf("enrich corpus: %w", err)
	}

	lexIdx := lexical.Build(docs, s.opts.BM25)

	embeddings, err := s.embedAll(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}

	semIdx, err := semantic.Build(docs, embeddings)
	if err != nil {
		return nil, fmt.Errorf("build semantic index: %w", err)
	}

	snap := &Snapshot{
		version:  version,
		lexical:  lexIdx,
		semantic: semIdx,
		records:  make(map[string]domain.Record, len(recs)),
	}
	for _, rec := range recs {
		snap.records[rec.ID] = rec
	}
	return snap, nil
}

// embedAll embeds every document in bounded-concurrency batches.
func (s *Service) embedAll(ctx context.Context, docs []domain.EnrichedDocument) ([][]float32, error) {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	embeddings := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		g.Go(func() error {
			res, err := s.batchEmbed(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("batch [%d:%d]: %w", start, end, err)
			}
			copy(embeddings[start:], res.Embeddings)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}

func (s *Service) batchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := s.embedder.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, s.embedder, texts)
}
