// Package gemma talks to the semantic recommender service over HTTP.
package gemma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ucost/exhibitqa/internal/domain"
	"github.com/ucost/exhibitqa/internal/metrics"
)

// Client is the semantic recommender provider.
type Client struct {
	baseURL  string
	limit    int
	http     *http.Client
	recorder *metrics.Recorder
	logger   *zap.Logger
}

// Config holds the recommender settings.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Limit    int
	Recorder *metrics.Recorder
	Logger   *zap.Logger
}

// New creates a recommender client.
func New(cfg *Config) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		limit:    cfg.Limit,
		http:     &http.Client{Timeout: cfg.Timeout},
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
	}
}

type recommendRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type recommendResponse struct {
	Exhibits []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	} `json:"exhibits"`
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// Recommend implements the semantic retrieval call. Limit falls back to the
// configured default when zero. Errors are wrapped with the domain sentinel
// matching what went wrong so the orchestrator can pick a degradation path.
func (c *Client) Recommend(ctx context.Context, query string, limit int) ([]domain.Recommendation, error) {
	if limit <= 0 {
		limit = c.limit
	}
	body, err := json.Marshal(recommendRequest{Query: query, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("encode recommend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recommend", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build recommend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.recorder.IncRecommenderCalls()
	metrics.RecommenderCallsTotal.Inc()

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		txt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("recommender responded %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(txt)), domain.ErrUpstreamUnavailable)
	}

	var parsed recommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode recommend response: %w", domain.ErrUpstreamUnavailable)
	}
	if parsed.Error != "" || parsed.Reason == "index not built" {
		reason := parsed.Error
		if reason == "" {
			reason = parsed.Reason
		}
		return nil, fmt.Errorf("recommender index unavailable: %s: %w", reason, domain.ErrIndexNotReady)
	}

	recs := make([]domain.Recommendation, 0, len(parsed.Exhibits))
	for _, e := range parsed.Exhibits {
		if e.ID == "" {
			continue
		}
		recs = append(recs, domain.Recommendation{ID: e.ID, Score: e.Score})
	}

	c.logger.Debug("Recommender call completed",
		zap.Int("results", len(recs)),
		zap.Duration("duration", duration))

	return recs, nil
}

type healthResponse struct {
	Indexed *bool `json:"indexed"`
}

// Ping reports whether the recommender is reachable and has an index state.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("recommender health responded %d: %w", resp.StatusCode, domain.ErrUpstreamUnavailable)
	}
	var parsed healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || parsed.Indexed == nil {
		return fmt.Errorf("recommender health payload malformed: %w", domain.ErrUpstreamUnavailable)
	}
	return nil
}

// classifyTransportError maps low-level HTTP failures onto the timeout or
// unavailable sentinels.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("recommender request timed out: %w", domain.ErrUpstreamTimeout)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("recommender request timed out: %w", domain.ErrUpstreamTimeout)
	}
	return fmt.Errorf("recommender unreachable: %w", domain.ErrUpstreamUnavailable)
}
