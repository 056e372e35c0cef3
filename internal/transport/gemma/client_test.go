package gemma

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ucost/exhibitqa/internal/domain"
)

func newTestClient(baseURL string, timeout time.Duration) *Client {
	return New(&Config{
		BaseURL: baseURL,
		Timeout: timeout,
		Limit:   10,
		Logger:  zap.NewNop(),
	})
}

func TestRecommend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recommend" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		var req recommendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "pendulum wave" {
			t.Errorf("unexpected query: %q", req.Query)
		}
		if req.Limit != 10 {
			t.Errorf("limit = %d, want configured default 10", req.Limit)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"exhibits": []map[string]any{
				{"id": "42", "score": 0.91},
				{"id": "", "score": 0.5},
				{"id": "7", "score": 0.63},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	recs, err := client.Recommend(context.Background(), "pendulum wave", 0)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("recs = %d, want 2 (blank id dropped)", len(recs))
	}
	if recs[0].ID != "42" || recs[0].Score != 0.91 {
		t.Errorf("recs[0] = %+v", recs[0])
	}
}

func TestRecommend_IndexNotBuilt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "index not built"})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	if _, err := client.Recommend(context.Background(), "anything", 5); !errors.Is(err, domain.ErrIndexNotReady) {
		t.Errorf("err = %v, want ErrIndexNotReady", err)
	}
}

func TestRecommend_ReasonFieldAlsoSignalsIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"exhibits": []any{}, "reason": "index not built"})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	if _, err := client.Recommend(context.Background(), "anything", 5); !errors.Is(err, domain.ErrIndexNotReady) {
		t.Errorf("err = %v, want ErrIndexNotReady", err)
	}
}

func TestRecommend_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	if _, err := client.Recommend(context.Background(), "anything", 5); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("err = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestRecommend_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 20*time.Millisecond)
	if _, err := client.Recommend(context.Background(), "anything", 5); !errors.Is(err, domain.ErrUpstreamTimeout) {
		t.Errorf("err = %v, want ErrUpstreamTimeout", err)
	}
}

func TestPing(t *testing.T) {
	indexed := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(healthResponse{Indexed: &indexed})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestPing_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	if err := client.Ping(context.Background()); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("err = %v, want ErrUpstreamUnavailable for payload without indexed flag", err)
	}
}
