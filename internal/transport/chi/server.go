// Package chi exposes the retrieval and answer services over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aurora-hq/aurora/internal/domain"
	"github.com/aurora-hq/aurora/internal/usecase/answer"
	healthuc "github.com/aurora-hq/aurora/internal/usecase/health"
	"github.com/aurora-hq/aurora/internal/usecase/retrieval"
	"github.com/aurora-hq/aurora/internal/version"
)

// Asker answers questions against the indexed corpus.
type Asker interface {
	Ask(ctx context.Context, question string) (answer.Response, error)
}

// Searcher runs hybrid retrieval queries.
type Searcher interface {
	Retrieve(ctx context.Context, query string, k int, weights *retrieval.Weights) (retrieval.Result, error)
}

// Refresher rebuilds the retrieval snapshot from a fresh corpus.
type Refresher interface {
	Refresh(ctx context.Context, recs []domain.Record) error
	SnapshotVersion() int
}

// MessageSource fetches the upstream message corpus.
type MessageSource interface {
	FetchAll(ctx context.Context, force bool) ([]domain.Record, error)
}

// HealthService aggregates component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server routes HTTP requests to the use case services.
type Server struct {
	answers       Asker
	search        Searcher
	pipeline      Refresher
	messages      MessageSource
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	answers Asker,
	search Searcher,
	pipeline Refresher,
	messages MessageSource,
	health HealthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		answers:  answers,
		search:   search,
		pipeline: pipeline,
		messages: messages,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, "invalid_query"),
		sentinelHandler(domain.ErrInvalidWeights, http.StatusBadRequest, "invalid_weights"),
		sentinelHandler(domain.ErrIndexNotReady, http.StatusServiceUnavailable, "index_not_ready"),
		sentinelHandler(domain.ErrRebuildInProgress, http.StatusConflict, "rebuild_in_progress"),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(domain.ErrAnswerProviderError, http.StatusBadGateway, "answer_provider_error"),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway, "upstream_unavailable"),
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/ask", s.Ask)
	r.Post("/search", s.Search)
	r.Post("/refresh", s.Refresh)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// maxQuestionLen caps question length, matching the upstream API contract.
const maxQuestionLen = 500

// Ask handles POST /ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if utf8.RuneCountInString(req.Question) > maxQuestionLen {
		writeError(w, http.StatusBadRequest, "invalid_query", "Question exceeds 500 characters")
		return
	}

	resp, err := s.answers.Ask(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	sources := resp.Sources
	if sources == nil {
		sources = []string{}
	}

	results := make([]searchResultItem, len(resp.Candidates))
	for i, c := range resp.Candidates {
		results[i] = searchResultToItem(c)
	}

	writeJSON(w, http.StatusOK, askResponse{
		Answer:            resp.Answer,
		Confidence:        string(resp.Confidence),
		Sources:           sources,
		Results:           results,
		RetrievedContexts: resp.RetrievedContexts,
		Degraded:          resp.Degraded,
		ProcessingTimeMs:  float64(resp.ProcessingTime.Microseconds()) / 1000,
	})
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	var weights *retrieval.Weights
	if req.Weights != nil {
		weights = &retrieval.Weights{
			Lexical:  req.Weights.Lexical,
			Semantic: req.Weights.Semantic,
		}
	}

	res, err := s.search.Retrieve(r.Context(), req.Query, req.TopK, weights)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]searchResultItem, len(res.Candidates))
	for i, c := range res.Candidates {
		items[i] = searchResultToItem(c)
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Items:           items,
		Total:           len(items),
		Degraded:        res.Degraded,
		SnapshotVersion: res.SnapshotVersion,
	})
}

// Refresh handles POST /refresh. It refetches the corpus bypassing the
// cache and rebuilds the snapshot.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	recs, err := s.messages.FetchAll(r.Context(), true)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if err := s.pipeline.Refresh(r.Context(), recs); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		Status:            "success",
		MessagesRefreshed: len(recs),
		SnapshotVersion:   s.pipeline.SnapshotVersion(),
	})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:         string(report.Status),
		Version:        version.Version,
		Checks:         checks,
		MessagesLoaded: report.Documents,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrInvalidWeights,
		domain.ErrIndexNotReady,
		domain.ErrRebuildInProgress,
		domain.ErrEmbeddingProviderError,
		domain.ErrAnswerProviderError,
		domain.ErrUpstreamUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
