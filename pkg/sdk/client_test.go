package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newAPIServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestAsk(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/ask" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["question"] != "who wants a car?" {
			t.Errorf("got question %q", body["question"])
		}
		_ = json.NewEncoder(w).Encode(AskResponse{
			Answer:     "Layla wants a Bentley.",
			Confidence: "high",
			Sources:    []string{"Layla Kawaguchi"},
		})
	})

	resp, err := client.Ask(context.Background(), "who wants a car?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != "Layla wants a Bentley." || resp.Confidence != "high" {
		t.Errorf("got response %+v", resp)
	}
}

func TestSearch(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "yacht" || req.TopK != 5 {
			t.Errorf("got request %+v", req)
		}
		if req.Weights == nil || req.Weights.Lexical != 0.7 {
			t.Errorf("got weights %+v", req.Weights)
		}
		_ = json.NewEncoder(w).Encode(SearchResponse{
			Items:           []SearchResult{{ID: "m2", Rank: 1, CombinedScore: 0.9}},
			Total:           1,
			SnapshotVersion: 2,
		})
	})

	resp, err := client.Search(context.Background(), SearchRequest{
		Query:   "yacht",
		TopK:    5,
		Weights: &Weights{Lexical: 0.7, Semantic: 0.3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].ID != "m2" {
		t.Errorf("got response %+v", resp)
	}
}

func TestRefresh(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/refresh" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(RefreshResponse{
			Status:            "success",
			MessagesRefreshed: 200,
			SnapshotVersion:   3,
		})
	})

	resp, err := client.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.MessagesRefreshed != 200 || resp.SnapshotVersion != 3 {
		t.Errorf("got response %+v", resp)
	}
}

func TestHealth_UnavailableStillDecodes(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "error",
			Checks: map[string]string{"pipeline": "error"},
		})
	})

	resp, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != "error" {
		t.Errorf("got status %q", resp.Status)
	}
}

func TestAPIError(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "rebuild_in_progress",
			"message": "rebuild already in progress",
		})
	})

	_, err := client.Refresh(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Code != "rebuild_in_progress" {
		t.Errorf("got %+v", apiErr)
	}
}
