// Package backend talks to the exhibit detail API over HTTP.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ucost/exhibitqa/internal/domain"
)

// Client fetches exhibit details from the backend API.
type Client struct {
	baseURL       string
	batchTimeout  time.Duration
	itemTimeout   time.Duration
	healthTimeout time.Duration
	http          *http.Client
	logger        *zap.Logger
}

// Config holds the detail provider settings.
type Config struct {
	BaseURL       string
	BatchTimeout  time.Duration
	ItemTimeout   time.Duration
	HealthTimeout time.Duration
	Logger        *zap.Logger
}

// New creates a detail provider client. Per-call timeouts are applied through
// request contexts, so the shared http.Client carries no timeout of its own.
func New(cfg *Config) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		batchTimeout:  cfg.BatchTimeout,
		itemTimeout:   cfg.ItemTimeout,
		healthTimeout: cfg.HealthTimeout,
		http:          &http.Client{},
		logger:        cfg.Logger,
	}
}

// FetchBatch retrieves several exhibits in one call. Records the backend
// could not resolve are simply absent from the result.
func (c *Client) FetchBatch(ctx context.Context, ids []string) ([]domain.ExhibitRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.batchTimeout)
	defer cancel()

	u := c.baseURL + "/exhibits?ids=" + url.QueryEscape(strings.Join(ids, ","))
	body, err := c.getJSON(ctx, u)
	if err != nil {
		return nil, err
	}
	dtos, err := decodeBatch(body)
	if err != nil {
		return nil, fmt.Errorf("decode exhibit batch: %w", domain.ErrUpstreamUnavailable)
	}

	recs := make([]domain.ExhibitRecord, 0, len(dtos))
	for i := range dtos {
		rec := dtos[i].toRecord()
		if rec.ID == "" {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// FetchOne retrieves a single exhibit. A 404 maps to ErrExhibitNotFound.
func (c *Client) FetchOne(ctx context.Context, id string) (domain.ExhibitRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.itemTimeout)
	defer cancel()

	u := c.baseURL + "/exhibits/" + url.PathEscape(id)
	body, err := c.getJSON(ctx, u)
	if err != nil {
		return domain.ExhibitRecord{}, err
	}
	dto, err := decodeItem(body)
	if err != nil {
		return domain.ExhibitRecord{}, fmt.Errorf("decode exhibit %s: %w", id, domain.ErrUpstreamUnavailable)
	}
	rec := dto.toRecord()
	if rec.ID == "" {
		rec.ID = id
	}
	return rec, nil
}

// Ping reports whether the backend answers a minimal listing request.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()
	_, err := c.getJSON(ctx, c.baseURL+"/exhibits?limit=1")
	return err
}

func (c *Client) getJSON(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrExhibitNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend responded %d: %w", resp.StatusCode, domain.ErrUpstreamUnavailable)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", domain.ErrUpstreamUnavailable)
	}
	return body, nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("backend request timed out: %w", domain.ErrUpstreamTimeout)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("backend request timed out: %w", domain.ErrUpstreamTimeout)
	}
	return fmt.Errorf("backend unreachable: %w", domain.ErrUpstreamUnavailable)
}
