// Package messages fetches the member-message corpus from the upstream
// API and caches it, so snapshot rebuilds and service restarts do not
// hammer the upstream.
package messages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/aurora-hq/aurora/internal/db"
	"github.com/aurora-hq/aurora/internal/domain"
	"github.com/aurora-hq/aurora/internal/version"
)

const cacheKey = "aurora:messages:corpus"

// store is the consumer interface for the message cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Client fetches member messages over HTTP with an optional cache.
type Client struct {
	httpClient *http.Client
	baseURL    string
	fetchLimit int
	cache      store // nil disables caching
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// Config holds upstream connection settings.
type Config struct {
	BaseURL    string
	FetchLimit int
	Timeout    time.Duration
	Logger     *zap.Logger
}

// New creates a message client without a cache.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := cfg.FetchLimit
	if limit <= 0 {
		limit = 10000
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		fetchLimit: limit,
		logger:     cfg.Logger,
	}
}

// WithCache attaches a TTL cache. Returns the client for chaining.
func (c *Client) WithCache(s store, ttl time.Duration) *Client {
	c.cache = s
	c.cacheTTL = ttl
	return c
}

// FetchAll returns the full corpus, serving the cache when it is warm.
// force bypasses the cache and always hits the upstream.
func (c *Client) FetchAll(ctx context.Context, force bool) ([]domain.Record, error) {
	if !force {
		if recs, ok := c.fromCache(ctx); ok {
			c.logger.Info("Serving cached corpus", zap.Int("count", len(recs)))
			return recs, nil
		}
	}

	recs, err := c.fetchUpstream(ctx)
	if err != nil {
		return nil, err
	}

	c.toCache(ctx, recs)
	return recs, nil
}

func (c *Client) fetchUpstream(ctx context.Context) ([]domain.Record, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(c.fetchLimit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	c.logger.Info("Fetching messages from upstream", zap.String("url", c.baseURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch messages: status %d: %w", resp.StatusCode, domain.ErrUpstreamUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w: %v", domain.ErrUpstreamUnavailable, err)
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	recs := make([]domain.Record, 0, len(list.Items))
	for _, m := range list.Items {
		rec, err := toRecord(m)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", len(recs), err)
		}
		recs = append(recs, rec)
	}

	c.logger.Info("Messages fetched",
		zap.Int("total", list.Total),
		zap.Int("fetched", len(recs)),
	)
	return recs, nil
}

func (c *Client) fromCache(ctx context.Context) ([]domain.Record, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, err := c.cache.Get(ctx, cacheKey)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read message cache", zap.Error(err))
		}
		return nil, false
	}
	var recs []domain.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		c.logger.Warn("Failed to decode message cache", zap.Error(err))
		return nil, false
	}
	return recs, true
}

func (c *Client) toCache(ctx context.Context, recs []domain.Record) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(recs)
	if err != nil {
		c.logger.Warn("Failed to encode message cache", zap.Error(err))
		return
	}
	if err := c.cache.SetWithTTL(ctx, cacheKey, data, c.cacheTTL); err != nil {
		c.logger.Warn("Failed to write message cache", zap.Error(err))
	}
}
