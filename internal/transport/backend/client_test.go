package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ucost/exhibitqa/internal/domain"
)

func newTestClient(baseURL string) *Client {
	return New(&Config{
		BaseURL:       baseURL,
		BatchTimeout:  5 * time.Second,
		ItemTimeout:   5 * time.Second,
		HealthTimeout: 5 * time.Second,
		Logger:        zap.NewNop(),
	})
}

func TestFetchBatch_Envelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exhibits" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ids"); got != "1,2" {
			t.Errorf("ids = %q, want \"1,2\"", got)
		}
		w.Write([]byte(`{"exhibits":[
			{"id":1,"name":"Pendulum Wave","category":"Physics"},
			{"id":"2","name":"Taramandal","mapLocation":{"x":4,"y":9,"floor":"first"}},
			{"name":"No ID Row"}
		]}`))
	}))
	defer server.Close()

	recs, err := newTestClient(server.URL).FetchBatch(context.Background(), []string{"1", "2"})
	if err != nil {
		t.Fatalf("FetchBatch: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("recs = %d, want 2 (row without id dropped)", len(recs))
	}
	if recs[0].ID != "1" || recs[0].Name != "Pendulum Wave" {
		t.Errorf("recs[0] = %+v", recs[0])
	}
	if recs[1].Floor != "first" {
		t.Errorf("floor = %q, want fallback from map location", recs[1].Floor)
	}
}

func TestFetchBatch_BareArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"7","name":"Laser Maze","type":"interactive","interactiveFeatures":"mirrors;beams"}]`))
	}))
	defer server.Close()

	recs, err := newTestClient(server.URL).FetchBatch(context.Background(), []string{"7"})
	if err != nil {
		t.Fatalf("FetchBatch: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("recs = %d, want 1", len(recs))
	}
	if recs[0].ExhibitType != "interactive" {
		t.Errorf("exhibit type = %q, want fallback from the type field", recs[0].ExhibitType)
	}
	if len(recs[0].Features) != 2 || recs[0].Features[0] != "mirrors" {
		t.Errorf("features = %v, want delimiter-joined string split", recs[0].Features)
	}
}

func TestFetchOne_Envelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exhibits/9" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"exhibit":{"id":"9","name":"Gravity Well","interactiveFeatures":"[\"coin\",\"vortex\"]"}}`))
	}))
	defer server.Close()

	rec, err := newTestClient(server.URL).FetchOne(context.Background(), "9")
	if err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	if rec.Name != "Gravity Well" {
		t.Errorf("name = %q", rec.Name)
	}
	if len(rec.Features) != 2 || rec.Features[1] != "vortex" {
		t.Errorf("features = %v, want JSON-string array parsed", rec.Features)
	}
}

func TestFetchOne_BareObjectBackfillsID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Unnamed Record"}`))
	}))
	defer server.Close()

	rec, err := newTestClient(server.URL).FetchOne(context.Background(), "55")
	if err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	if rec.ID != "55" {
		t.Errorf("id = %q, want request id backfilled", rec.ID)
	}
}

func TestFetchOne_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).FetchOne(context.Background(), "missing"); !errors.Is(err, domain.ErrExhibitNotFound) {
		t.Errorf("err = %v, want ErrExhibitNotFound", err)
	}
}

func TestFetchBatch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).FetchBatch(context.Background(), []string{"1"}); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("err = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "1" {
			t.Errorf("limit = %q, want minimal listing probe", got)
		}
		w.Write([]byte(`{"exhibits":[]}`))
	}))
	defer server.Close()

	if err := newTestClient(server.URL).Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
