package lexical

import (
	"math"
	"testing"

	"github.com/aurora-hq/aurora/internal/domain"
)

func testDocs() []domain.EnrichedDocument {
	return []domain.EnrichedDocument{
		{ID: "1", Text: "Layla Kawaguchi: looking for a Bentley Phantom with chauffeur in London"},
		{ID: "2", Text: "Vikram Desai: booked a yacht in Monaco"},
		{ID: "3", Text: "Layla Kawaguchi: requested dinner reservation at Nobu"},
	}
}

func TestSearch_OnlyMatchingDocsScore(t *testing.T) {
	idx := Build(testDocs(), DefaultParams())

	hits := idx.Search([]string{"layla", "london"}, 10)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	for _, h := range hits {
		if h.ID == "2" {
			t.Error("doc 2 shares no query term and must be absent, not scored zero")
		}
		if h.Score <= 0 {
			t.Errorf("doc %s: expected positive score, got %f", h.ID, h.Score)
		}
	}
}

func TestSearch_MoreSharedTermsRankHigher(t *testing.T) {
	idx := Build(testDocs(), DefaultParams())

	hits := idx.Search([]string{"layla", "london"}, 10)
	if hits[0].ID != "1" {
		t.Errorf("doc 1 shares both terms and must rank first, got %s", hits[0].ID)
	}
	if hits[1].ID != "3" {
		t.Errorf("doc 3 shares one term and must rank second, got %s", hits[1].ID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Errorf("scores not descending: %f <= %f", hits[0].Score, hits[1].Score)
	}
}

func TestSearch_BM25Score(t *testing.T) {
	docs := []domain.EnrichedDocument{
		{ID: "a", Text: "apple banana"},
		{ID: "b", Text: "banana cherry"},
		{ID: "c", Text: "cherry date"},
	}
	idx := Build(docs, DefaultParams())

	hits := idx.Search([]string{"apple"}, 10)
	if len(hits) != 1 || hits[0].ID != "a" {
		t.Fatalf("expected single hit for doc a, got %v", hits)
	}

	// N=3, df=1, tf=1, doclen=2, avgdoclen=2
	idf := math.Log((3-1+0.5)/(1+0.5) + 1)
	want := idf * (1 * (1.5 + 1)) / (1 + 1.5*(1-0.75+0.75*1))
	if math.Abs(hits[0].Score-want) > 1e-12 {
		t.Errorf("got score %v, want %v", hits[0].Score, want)
	}
}

func TestSearch_TiesBrokenByID(t *testing.T) {
	docs := []domain.EnrichedDocument{
		{ID: "9", Text: "zebra"},
		{ID: "2", Text: "zebra"},
		{ID: "5", Text: "zebra"},
	}
	idx := Build(docs, DefaultParams())

	hits := idx.Search([]string{"zebra"}, 10)
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	for i, want := range []string{"2", "5", "9"} {
		if hits[i].ID != want {
			t.Errorf("position %d: got %s, want %s", i, hits[i].ID, want)
		}
	}
}

func TestSearch_Limit(t *testing.T) {
	idx := Build(testDocs(), DefaultParams())

	hits := idx.Search([]string{"layla"}, 1)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit after truncation, got %d", len(hits))
	}
}

func TestSearch_EmptyTerms(t *testing.T) {
	idx := Build(testDocs(), DefaultParams())

	if hits := idx.Search(nil, 10); hits != nil {
		t.Errorf("expected nil for empty term set, got %v", hits)
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	idx := Build(nil, DefaultParams())

	if hits := idx.Search([]string{"anything"}, 10); hits != nil {
		t.Errorf("expected nil for empty index, got %v", hits)
	}
	if idx.Len() != 0 {
		t.Errorf("expected empty index, got %d docs", idx.Len())
	}
}

func TestBuild_CaseFoldsAndStripsPunctuation(t *testing.T) {
	docs := []domain.EnrichedDocument{
		{ID: "a", Text: "Heading to LONDON? Maybe..."},
	}
	idx := Build(docs, DefaultParams())

	if hits := idx.Search([]string{"london"}, 10); len(hits) != 1 {
		t.Errorf("expected punctuated LONDON to match london, got %v", hits)
	}
}
