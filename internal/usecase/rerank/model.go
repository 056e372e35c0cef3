// Package rerank reorders hydrated candidates with a trained logistic model
// and derives the answer's quality and confidence scores.
package rerank

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Model is the exported artifact of the offline reranker training run:
// a scaled logistic regression over the candidate feature vector.
type Model struct {
	FeatureCols []string  `json:"feature_cols"`
	ScalerMean  []float64 `json:"scaler_mean"`
	ScalerScale []float64 `json:"scaler_scale"`
	Coef        []float64 `json:"coef"`
	Intercept   float64   `json:"intercept"`
}

func (m *Model) validate() error {
	n := len(m.FeatureCols)
	if n == 0 {
		return errors.New("model has no feature columns")
	}
	if len(m.ScalerMean) != n || len(m.ScalerScale) != n || len(m.Coef) != n {
		return fmt.Errorf("model arrays disagree on length: cols=%d mean=%d scale=%d coef=%d",
			n, len(m.ScalerMean), len(m.ScalerScale), len(m.Coef))
	}
	return nil
}

// LoadModel reads the reranker artifact from disk. A missing or malformed
// artifact is not fatal: the service runs degraded on upstream scores alone,
// so this returns nil and logs instead of erroring.
func LoadModel(path string, logger *zap.Logger) *Model {
	if path == "" {
		logger.Warn("Reranker model path not configured, using upstream-only ranking")
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Reranker model not found, using upstream-only ranking",
			zap.String("path", path), zap.Error(err))
		return nil
	}
	var m Model
	if err := json.Unmarshal(raw, &m); err != nil {
		logger.Warn("Reranker model is not valid JSON, using upstream-only ranking",
			zap.String("path", path), zap.Error(err))
		return nil
	}
	if err := m.validate(); err != nil {
		logger.Warn("Reranker model failed validation, using upstream-only ranking",
			zap.String("path", path), zap.Error(err))
		return nil
	}
	logger.Info("Reranker model loaded",
		zap.String("path", path), zap.Strings("features", m.FeatureCols))
	return &m
}
