package chi

import "github.com/aurora-hq/aurora/internal/domain"

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer            string             `json:"answer"`
	Confidence        string             `json:"confidence"`
	Sources           []string           `json:"sources"`
	Results           []searchResultItem `json:"results"`
	RetrievedContexts int                `json:"retrieved_contexts"`
	Degraded          bool               `json:"degraded,omitempty"`
	ProcessingTimeMs  float64            `json:"processing_time_ms"`
}

type weightsRequest struct {
	Lexical  float64 `json:"lexical"`
	Semantic float64 `json:"semantic"`
}

type searchRequest struct {
	Query   string          `json:"query"`
	TopK    int             `json:"top_k,omitempty"`
	Weights *weightsRequest `json:"weights,omitempty"`
}

type searchResultItem struct {
	ID            string            `json:"id"`
	Text          string            `json:"text"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	LexicalScore  float64           `json:"lexical_score"`
	SemanticScore float64           `json:"semantic_score"`
	CombinedScore float64           `json:"combined_score"`
	Rank          int               `json:"rank"`
}

type searchResponse struct {
	Items           []searchResultItem `json:"items"`
	Total           int                `json:"total"`
	Degraded        bool               `json:"degraded,omitempty"`
	SnapshotVersion int                `json:"snapshot_version"`
}

type refreshResponse struct {
	Status            string `json:"status"`
	MessagesRefreshed int    `json:"messages_refreshed"`
	SnapshotVersion   int    `json:"snapshot_version"`
}

type healthResponse struct {
	Status         string            `json:"status"`
	Version        string            `json:"version"`
	Checks         map[string]string `json:"checks"`
	MessagesLoaded int               `json:"messages_loaded"`
}

func searchResultToItem(c domain.ScoredCandidate) searchResultItem {
	return searchResultItem{
		ID:            c.ID,
		Text:          c.Text,
		Metadata:      c.Metadata,
		LexicalScore:  c.LexicalScore,
		SemanticScore: c.SemanticScore,
		CombinedScore: c.CombinedScore,
		Rank:          c.Rank,
	}
}
