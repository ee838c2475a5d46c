// Package sdk provides a Go client for the aurora Q&A API.
//
//	client := sdk.New("http://localhost:8080")
//	resp, _ := client.Ask(ctx, "When is Layla planning her trip to London?")
//	fmt.Println(resp.Answer, resp.Confidence)
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is the aurora API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// AskResponse is the answer to one question.
type AskResponse struct {
	Answer            string         `json:"answer"`
	Confidence        string         `json:"confidence"`
	Sources           []string       `json:"sources"`
	Results           []SearchResult `json:"results"`
	RetrievedContexts int            `json:"retrieved_contexts"`
	Degraded          bool           `json:"degraded"`
	ProcessingTimeMs  float64        `json:"processing_time_ms"`
}

// Weights overrides the lexical/semantic blend for one search.
type Weights struct {
	Lexical  float64 `json:"lexical"`
	Semantic float64 `json:"semantic"`
}

// SearchRequest is one hybrid retrieval query.
type SearchRequest struct {
	Query   string   `json:"query"`
	TopK    int      `json:"top_k,omitempty"`
	Weights *Weights `json:"weights,omitempty"`
}

// SearchResult is one ranked candidate.
type SearchResult struct {
	ID            string            `json:"id"`
	Text          string            `json:"text"`
	Metadata      map[string]string `json:"metadata"`
	LexicalScore  float64           `json:"lexical_score"`
	SemanticScore float64           `json:"semantic_score"`
	CombinedScore float64           `json:"combined_score"`
	Rank          int               `json:"rank"`
}

// SearchResponse is a ranked candidate list.
type SearchResponse struct {
	Items           []SearchResult `json:"items"`
	Total           int            `json:"total"`
	Degraded        bool           `json:"degraded"`
	SnapshotVersion int            `json:"snapshot_version"`
}

// RefreshResponse reports a completed corpus refresh.
type RefreshResponse struct {
	Status            string `json:"status"`
	MessagesRefreshed int    `json:"messages_refreshed"`
	SnapshotVersion   int    `json:"snapshot_version"`
}

// HealthResponse is the service health report.
type HealthResponse struct {
	Status         string            `json:"status"`
	Version        string            `json:"version"`
	Checks         map[string]string `json:"checks"`
	MessagesLoaded int               `json:"messages_loaded"`
}

// APIError is a non-2xx API response.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("aurora: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Ask answers a natural language question about the indexed corpus.
func (c *Client) Ask(ctx context.Context, question string) (AskResponse, error) {
	var resp AskResponse
	err := c.post(ctx, "/ask", map[string]string{"question": question}, &resp)
	return resp, err
}

// Search runs one hybrid retrieval query.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	var resp SearchResponse
	err := c.post(ctx, "/search", req, &resp)
	return resp, err
}

// Refresh refetches the corpus and rebuilds the index snapshot.
func (c *Client) Refresh(ctx context.Context) (RefreshResponse, error) {
	var resp RefreshResponse
	err := c.post(ctx, "/refresh", nil, &resp)
	return resp, err
}

// Health returns the service health report.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.do(ctx, http.MethodGet, "/healthz", nil, &resp)
	return resp, err
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("aurora: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("aurora: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("aurora: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("aurora: read response: %w", err)
	}

	// The health endpoint returns its report with a 503 when the
	// pipeline is down; surface the body, not an error.
	if resp.StatusCode >= 400 && !(path == "/healthz" && resp.StatusCode == http.StatusServiceUnavailable) {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Message = string(data)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("aurora: decode response: %w", err)
		}
	}
	return nil
}
