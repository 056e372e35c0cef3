package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the exhibit Q&A core configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Auth        AuthConfig        `yaml:"auth"`
	Recommender RecommenderConfig `yaml:"recommender"`
	Backend     BackendConfig     `yaml:"backend"`
	Cache       CacheConfig       `yaml:"cache"`
	Corpus      CorpusConfig      `yaml:"corpus"`
	Reranker    RerankerConfig    `yaml:"reranker"`
	Answer      AnswerConfig      `yaml:"answer"`
	Confidence  ConfidenceWeights `yaml:"confidence"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings for the serve command.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_sec"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"` // empty disables authentication
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// RecommenderConfig holds semantic recommender service settings.
type RecommenderConfig struct {
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
	Limit      int    `yaml:"limit"` // candidates requested per retrieval
	Warmup     bool   `yaml:"warmup"`
}

// BackendConfig holds exhibit detail provider settings.
type BackendConfig struct {
	BaseURL          string `yaml:"base_url"`
	BatchTimeoutSec  int    `yaml:"batch_timeout_sec"`
	ItemTimeoutSec   int    `yaml:"item_timeout_sec"`
	HealthTimeoutSec int    `yaml:"health_timeout_sec"`
}

// CacheConfig holds detail cache settings.
type CacheConfig struct {
	TTLSec   int `yaml:"ttl_sec"`
	Capacity int `yaml:"capacity"`
}

// CorpusConfig holds corpus source settings.
type CorpusConfig struct {
	CSVPath  string `yaml:"csv_path"`
	CSVFirst bool   `yaml:"csv_first"` // prefer the corpus over the recommender
}

// RerankerConfig holds reranker model artifact settings.
type RerankerConfig struct {
	ModelPath string `yaml:"model_path"`
}

// AnswerConfig holds answer composition budgets and retrieval thresholds.
type AnswerConfig struct {
	MaxListItems           int     `yaml:"max_list_items"`
	SingleSummaryMaxChars  int     `yaml:"single_summary_max_chars"`
	UnknownSummaryMaxChars int     `yaml:"unknown_summary_max_chars"`
	ListSummaryMaxChars    int     `yaml:"list_summary_max_chars"`
	BriefSingleMaxChars    int     `yaml:"brief_single_max_chars"`
	BriefListMaxChars      int     `yaml:"brief_list_max_chars"`
	MaxFeatures            int     `yaml:"max_features"`
	MinSemanticScore       float64 `yaml:"min_semantic_score"`
	TopicScoreMin          float64 `yaml:"topic_score_min"`
}

// ConfidenceWeights blend the top upstream score, the top rerank score, and
// the quality heuristic into the reported confidence.
type ConfidenceWeights struct {
	Gemma   float64 `yaml:"gemma"`
	Rerank  float64 `yaml:"rerank"`
	Quality float64 `yaml:"quality"`
}

// MetricsConfig holds metrics snapshot settings.
type MetricsConfig struct {
	LatencyWindow int `yaml:"latency_window"` // sliding window sample count
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 15
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Recommender.TimeoutSec <= 0 {
		c.Recommender.TimeoutSec = 30
	}
	if c.Recommender.Limit <= 0 {
		c.Recommender.Limit = 10
	}
	if c.Backend.BatchTimeoutSec <= 0 {
		c.Backend.BatchTimeoutSec = 8
	}
	if c.Backend.ItemTimeoutSec <= 0 {
		c.Backend.ItemTimeoutSec = 6
	}
	if c.Backend.HealthTimeoutSec <= 0 {
		c.Backend.HealthTimeoutSec = 5
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 120
	}
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = 100
	}
	if c.Answer.MaxListItems <= 0 {
		c.Answer.MaxListItems = 5
	}
	if c.Answer.SingleSummaryMaxChars <= 0 {
		c.Answer.SingleSummaryMaxChars = 1200
	}
	if c.Answer.UnknownSummaryMaxChars <= 0 {
		c.Answer.UnknownSummaryMaxChars = 600
	}
	if c.Answer.ListSummaryMaxChars <= 0 {
		c.Answer.ListSummaryMaxChars = 200
	}
	if c.Answer.BriefSingleMaxChars <= 0 {
		c.Answer.BriefSingleMaxChars = 180
	}
	if c.Answer.BriefListMaxChars <= 0 {
		c.Answer.BriefListMaxChars = 90
	}
	if c.Answer.MaxFeatures <= 0 {
		c.Answer.MaxFeatures = 3
	}
	if c.Answer.MinSemanticScore <= 0 {
		c.Answer.MinSemanticScore = 0.3
	}
	if c.Answer.TopicScoreMin <= 0 {
		c.Answer.TopicScoreMin = 0.35
	}
	if c.Confidence.Gemma <= 0 && c.Confidence.Rerank <= 0 && c.Confidence.Quality <= 0 {
		c.Confidence = ConfidenceWeights{Gemma: 0.25, Rerank: 0.60, Quality: 0.15}
	}
	if c.Metrics.LatencyWindow <= 0 {
		c.Metrics.LatencyWindow = 10000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Recommender.BaseURL == "" {
		return fmt.Errorf("recommender.base_url is required")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	for name, w := range map[string]float64{
		"confidence.gemma":   c.Confidence.Gemma,
		"confidence.rerank":  c.Confidence.Rerank,
		"confidence.quality": c.Confidence.Quality,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, w)
		}
	}
	if c.Answer.MinSemanticScore > 1 {
		return fmt.Errorf("answer.min_semantic_score must be within [0,1], got %v", c.Answer.MinSemanticScore)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
