package retrieval

import (
	"sort"

	"github.com/aurora-hq/aurora/internal/domain"
)

// Weights control the lexical/semantic blend. They must sum to 1.
type Weights struct {
	Lexical  float64
	Semantic float64
}

const weightSumTolerance = 1e-6

// Validate rejects weights that are negative or do not sum to 1.
func (w Weights) Validate() error {
	if w.Lexical < 0 || w.Semantic < 0 {
		return domain.ErrInvalidWeights
	}
	sum := w.Lexical + w.Semantic
	if sum < 1-weightSumTolerance || sum > 1+weightSumTolerance {
		return domain.ErrInvalidWeights
	}
	return nil
}

// fuse merges the lexical and semantic shortlists into one ranking.
// Each list is min-max normalized to [0,1] independently; a document
// absent from a list contributes 0 for that signal. Ordering is combined
// score descending, then presence in both lists, then document id
// ascending, truncated to k. Documents strong in both signals win.
func fuse(lexical, semantic []domain.Hit, w Weights, k int) []domain.ScoredCandidate {
	if k <= 0 {
		return nil
	}

	lexNorm := normalizeScores(lexical)
	semNorm := normalizeScores(semantic)

	ids := make(map[string]struct{}, len(lexNorm)+len(semNorm))
	for id := range lexNorm {
		ids[id] = struct{}{}
	}
	for id := range semNorm {
		ids[id] = struct{}{}
	}

	fused := make([]domain.ScoredCandidate, 0, len(ids))
	for id := range ids {
		lex := lexNorm[id] // zero when absent
		sem := semNorm[id]
		fused = append(fused, domain.ScoredCandidate{
			ID:            id,
			LexicalScore:  lex,
			SemanticScore: sem,
			CombinedScore: w.Lexical*lex + w.Semantic*sem,
		})
	}

	inBoth := func(c domain.ScoredCandidate) bool {
		_, l := lexNorm[c.ID]
		_, s := semNorm[c.ID]
		return l && s
	}

	sort.Slice(fused, func(i, j int) bool {
		a, b := fused[i], fused[j]
		if a.CombinedScore != b.CombinedScore {
			return a.CombinedScore > b.CombinedScore
		}
		if ab, bb := inBoth(a), inBoth(b); ab != bb {
			return ab
		}
		return a.ID < b.ID
	})

	if len(fused) > k {
		fused = fused[:k]
	}
	for i := range fused {
		fused[i].Rank = i + 1
	}
	return fused
}

// normalizeScores min-max normalizes a shortlist to [0,1]. A degenerate
// range (all scores equal) maps every present document to 1: presence in
// the shortlist is still a signal.
func normalizeScores(hits []domain.Hit) map[string]float64 {
	if len(hits) == 0 {
		return nil
	}

	minScore, maxScore := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		if h.Score < minScore {
			minScore = h.Score
		}
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}

	norm := make(map[string]float64, len(hits))
	for _, h := range hits {
		if maxScore > minScore {
			norm[h.ID] = (h.Score - minScore) / (maxScore - minScore)
		} else {
			norm[h.ID] = 1
		}
	}
	return norm
}
