// Package answer turns a question plus retrieved message context into a
// grounded natural-language answer with a confidence estimate and the
// member names the answer drew from.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aurora-hq/aurora/internal/domain"
)

// Confidence grades how well the retrieved context supports the answer.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Confidence thresholds over the fused candidate set.
const (
	highMinCandidates   = 5
	highMinMeanCombined = 0.45
	mediumMinCandidates = 2
)

const systemPrompt = `You are a concierge assistant analyzing member messages. Provide direct, specific answers without referencing message numbers.

CRITICAL INSTRUCTIONS FOR DATES/TIMES:
- Each message has a 'Date:' field showing when it was sent
- When someone says 'next month', calculate: message date + 1 month
- When someone says 'tomorrow', 'next week', 'starting Monday', calculate the actual date from the message timestamp
- ALWAYS extract and state specific dates/times when available
- Example: If a message dated '2025-10-23' says 'next month', the answer should say 'November 2025'

OTHER INSTRUCTIONS:
- For preferences: List specific items mentioned positively
- For counting: Count carefully and state the number
- Be confident and specific when the information is in the messages
- Synthesize information naturally from multiple messages
- Write in a natural, conversational tone
- Never say 'not explicitly stated' if you can infer it from context and timestamps`

// Response is the outcome of answering one question.
type Response struct {
	Answer            string
	Confidence        Confidence
	Sources           []string
	Candidates        []domain.ScoredCandidate
	RetrievedContexts int
	Degraded          bool
	ProcessingTime    time.Duration
}

// Service coordinates retrieval and answer generation.
type Service struct {
	retriever Retriever
	completer Completer
	topK      int
	logger    *zap.Logger
}

// New creates a Service. topK caps the contexts handed to the model;
// zero or negative falls back to the retriever's own default.
func New(retriever Retriever, completer Completer, topK int, logger *zap.Logger) *Service {
	return &Service{
		retriever: retriever,
		completer: completer,
		topK:      topK,
		logger:    logger,
	}
}

// Ask answers a question against the indexed corpus. Retrieval errors
// (blank question, index not ready) pass through unwrapped so transport
// can map them; generation failures carry the provider sentinel.
func (s *Service) Ask(ctx context.Context, question string) (Response, error) {
	start := time.Now()

	res, err := s.retriever.Retrieve(ctx, question, s.topK, nil)
	if err != nil {
		return Response{}, err
	}

	text, err := s.completer.Complete(ctx, systemPrompt, buildPrompt(question, res.Candidates))
	if err != nil {
		return Response{}, fmt.Errorf("generate answer: %w", err)
	}

	resp := Response{
		Answer:            strings.TrimSpace(text),
		Confidence:        determineConfidence(res.Candidates),
		Sources:           extractSources(res.Candidates),
		Candidates:        res.Candidates,
		RetrievedContexts: len(res.Candidates),
		Degraded:          res.Degraded,
		ProcessingTime:    time.Since(start),
	}

	s.logger.Info("Answer generated",
		zap.Int("contexts", resp.RetrievedContexts),
		zap.String("confidence", string(resp.Confidence)),
		zap.Int("sources", len(resp.Sources)),
		zap.Bool("degraded", resp.Degraded),
		zap.Duration("duration", resp.ProcessingTime),
	)
	return resp, nil
}

// buildPrompt renders the question and the retrieved messages into the
// user prompt. Messages keep their retrieval order so the strongest
// context comes first.
func buildPrompt(question string, candidates []domain.ScoredCandidate) string {
	var b strings.Builder
	b.WriteString("Answer this question based on the member messages below.\n\n")
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nMember Messages:\n")

	for i, c := range candidates {
		fmt.Fprintf(&b, "Message %d:\nFrom: %s\nDate: %s\nContent: %s\n\n",
			i+1, c.Metadata["user_name"], c.Metadata["timestamp"], c.Text)
	}

	b.WriteString("Provide a direct, natural answer. Don't reference message numbers. Synthesize the information naturally.\n\nAnswer:")
	return b.String()
}

// determineConfidence grades the context set by size and mean combined
// score. A thin or weakly scored context produces a low-confidence
// answer even when the model sounds sure.
func determineConfidence(candidates []domain.ScoredCandidate) Confidence {
	if len(candidates) == 0 {
		return ConfidenceLow
	}

	var sum float64
	for _, c := range candidates {
		sum += c.CombinedScore
	}
	mean := sum / float64(len(candidates))

	switch {
	case len(candidates) >= highMinCandidates && mean >= highMinMeanCombined:
		return ConfidenceHigh
	case len(candidates) >= mediumMinCandidates:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// extractSources collects distinct member names in retrieval order.
func extractSources(candidates []domain.ScoredCandidate) []string {
	seen := make(map[string]struct{}, len(candidates))
	sources := make([]string, 0, len(candidates))
	for _, c := range candidates {
		name := c.Metadata["user_name"]
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		sources = append(sources, name)
	}
	return sources
}
