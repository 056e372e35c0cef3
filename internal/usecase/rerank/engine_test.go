package rerank

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/ucost/exhibitqa/internal/config"
	"github.com/ucost/exhibitqa/internal/domain"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return cfg
}

func cand(id string, upstream float64, desc string) domain.Candidate {
	return domain.Candidate{
		ID:       id,
		Source:   domain.SourceSemantic,
		Upstream: upstream,
		Record:   domain.ExhibitRecord{ID: id, Name: "Exhibit " + id, Description: desc, Category: "Physics"},
	}
}

func TestRerank_NoModelKeepsUpstreamOrder(t *testing.T) {
	e := NewEngine(nil, testConfig(), zap.NewNop())
	if e.Available() {
		t.Fatal("nil model must report unavailable")
	}

	cands := []domain.Candidate{
		cand("a", 0.9, "optics"),
		cand("b", 0.7, "sound"),
		cand("c", 0.7, "waves"),
	}
	got := e.Rerank("physics exhibits", cands, "")
	if got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Fatalf("order changed without a model: %v %v %v", got[0].ID, got[1].ID, got[2].ID)
	}
	for _, c := range got {
		if c.RerankScore != c.Upstream {
			t.Errorf("candidate %s: rerank %v != upstream %v", c.ID, c.RerankScore, c.Upstream)
		}
	}
}

func TestRerank_ModelScoresInUnitInterval(t *testing.T) {
	model := &Model{
		FeatureCols: []string{"gemma_score", "tfidf_cosine", "jaccard_overlap", "csv_exact_flag", "description_length", "top1_delta"},
		ScalerMean:  []float64{0.5, 0.2, 0.1, 0, 100, 0.05},
		ScalerScale: []float64{0.2, 0.1, 0.1, 1, 50, 0.05},
		Coef:        []float64{1.2, 0.8, 0.5, 2.0, 0.1, 0.3},
		Intercept:   -0.2,
	}
	e := NewEngine(model, testConfig(), zap.NewNop())
	if !e.Available() {
		t.Fatal("model must report available")
	}

	cands := []domain.Candidate{
		cand("a", 0.9, "A long description about optics and light and physics demonstrations"),
		cand("b", 0.4, "short"),
	}
	got := e.Rerank("tell me about optics and light", cands, "")
	for _, c := range got {
		if c.RerankScore < 0 || c.RerankScore > 1 {
			t.Errorf("rerank score %v outside [0,1]", c.RerankScore)
		}
	}
	if got[0].RerankScore < got[1].RerankScore {
		t.Error("candidates not sorted by rerank score descending")
	}
}

func TestRerank_UnknownFeatureColumnContributesZero(t *testing.T) {
	v := FeatureVector{GemmaScore: 0.5}
	if got := v.byName("brand_new_signal"); got != 0 {
		t.Fatalf("unknown column = %v, want 0", got)
	}
	if got := v.byName("gemma_score"); got != 0.5 {
		t.Fatalf("gemma_score = %v, want 0.5", got)
	}
}

func TestQuality_Bounds(t *testing.T) {
	e := NewEngine(nil, testConfig(), zap.NewNop())

	if q := e.Quality(nil, domain.Query{}); q != 0 {
		t.Fatalf("empty set quality = %v, want 0", q)
	}

	cands := []domain.Candidate{
		cand("a", 0.9, "optics and physics"),
		cand("b", 0.8, ""),
	}
	q := e.Quality(cands, domain.Query{Topic: "physics", Count: 2})
	if q < 0 || q > 1 {
		t.Fatalf("quality %v outside [0,1]", q)
	}

	// full topic fit, full count, full descriptions
	full := []domain.Candidate{cand("a", 1, "physics stuff")}
	if q := e.Quality(full, domain.Query{Topic: "physics", Count: 1}); q < 0.999 || q > 1 {
		t.Fatalf("perfect set quality = %v, want 1", q)
	}
}

func TestConfidence_Clamped(t *testing.T) {
	e := NewEngine(nil, testConfig(), zap.NewNop())
	if c := e.Confidence(1, 1, 1); c < 0.999 || c > 1 {
		t.Fatalf("max inputs confidence = %v, want 1", c)
	}
	if c := e.Confidence(0, 0, 0); c != 0 {
		t.Fatalf("zero inputs confidence = %v, want 0", c)
	}
	c := e.Confidence(0.8, 0.9, 0.5)
	want := 0.25*0.8 + 0.60*0.9 + 0.15*0.5
	if diff := c - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("confidence = %v, want %v", c, want)
	}
}

func TestLoadModel(t *testing.T) {
	logger := zap.NewNop()

	if m := LoadModel("", logger); m != nil {
		t.Fatal("empty path must yield nil model")
	}
	if m := LoadModel(filepath.Join(t.TempDir(), "missing.json"), logger); m != nil {
		t.Fatal("missing file must yield nil model")
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"feature_cols": ["a"], "coef": [1, 2]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if m := LoadModel(bad, logger); m != nil {
		t.Fatal("length-mismatched artifact must yield nil model")
	}

	good := filepath.Join(dir, "good.json")
	artifact := Model{
		FeatureCols: []string{"gemma_score"},
		ScalerMean:  []float64{0.5},
		ScalerScale: []float64{0.2},
		Coef:        []float64{1},
		Intercept:   0,
	}
	raw, _ := json.Marshal(artifact)
	if err := os.WriteFile(good, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	m := LoadModel(good, logger)
	if m == nil || len(m.FeatureCols) != 1 {
		t.Fatalf("valid artifact not loaded: %+v", m)
	}
}
