package config

import "testing"

func validConfig() Config {
	return Config{
		Recommender: RecommenderConfig{BaseURL: "http://localhost:8001"},
		Backend:     BackendConfig{BaseURL: "http://localhost:5000/api"},
	}
}

func TestValidate_MissingRecommenderURL(t *testing.T) {
	cfg := validConfig()
	cfg.Recommender.BaseURL = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing recommender base url")
	}
}

func TestValidate_MissingBackendURL(t *testing.T) {
	cfg := validConfig()
	cfg.Backend.BaseURL = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing backend base url")
	}
}

func TestValidate_ConfidenceWeightOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Confidence = ConfidenceWeights{Gemma: 1.5, Rerank: 0.3, Quality: 0.2}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for weight outside [0,1]")
	}
}

func TestValidate_SemanticScoreOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Answer.MinSemanticScore = 2

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for min_semantic_score above 1")
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Recommender.TimeoutSec != 30 {
		t.Errorf("expected TimeoutSec=30, got %d", cfg.Recommender.TimeoutSec)
	}
	if cfg.Recommender.Limit != 10 {
		t.Errorf("expected Limit=10, got %d", cfg.Recommender.Limit)
	}
	if cfg.Cache.TTLSec != 120 {
		t.Errorf("expected TTLSec=120, got %d", cfg.Cache.TTLSec)
	}
	if cfg.Cache.Capacity != 100 {
		t.Errorf("expected Capacity=100, got %d", cfg.Cache.Capacity)
	}
	if cfg.Answer.MaxListItems != 5 {
		t.Errorf("expected MaxListItems=5, got %d", cfg.Answer.MaxListItems)
	}
	if cfg.Answer.MinSemanticScore != 0.3 {
		t.Errorf("expected MinSemanticScore=0.3, got %v", cfg.Answer.MinSemanticScore)
	}
	if cfg.Confidence.Rerank != 0.60 {
		t.Errorf("expected Rerank weight=0.60, got %v", cfg.Confidence.Rerank)
	}
	if cfg.Metrics.LatencyWindow != 10000 {
		t.Errorf("expected LatencyWindow=10000, got %d", cfg.Metrics.LatencyWindow)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:        HTTPConfig{Port: 9000, ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Recommender: RecommenderConfig{TimeoutSec: 12, Limit: 25},
		Cache:       CacheConfig{TTLSec: 60, Capacity: 10},
		Answer:      AnswerConfig{MaxListItems: 8},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected Port=9000, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Recommender.Limit != 25 {
		t.Errorf("expected Limit=25, got %d", cfg.Recommender.Limit)
	}
	if cfg.Cache.Capacity != 10 {
		t.Errorf("expected Capacity=10, got %d", cfg.Cache.Capacity)
	}
	if cfg.Answer.MaxListItems != 8 {
		t.Errorf("expected MaxListItems=8, got %d", cfg.Answer.MaxListItems)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("EXHIBITQA_TEST_URL", "http://gemma:8001")

	in := []byte("base_url: ${EXHIBITQA_TEST_URL}\ncsv: ${EXHIBITQA_TEST_UNSET:-data/exhibits.csv}\n")
	out := string(expandEnvVars(in))

	want := "base_url: http://gemma:8001\ncsv: data/exhibits.csv\n"
	if out != want {
		t.Errorf("expanded config:\ngot:  %q\nwant: %q", out, want)
	}
}
