package rerank

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ucost/exhibitqa/internal/config"
	"github.com/ucost/exhibitqa/internal/domain"
)

// Quality component weights: topic fit, count fit, description coverage.
const (
	qualityTopicWeight = 0.5
	qualityCountWeight = 0.2
	qualityDescWeight  = 0.3
)

// Engine scores and reorders candidates. A nil model means the artifact was
// absent at startup; the engine then passes upstream scores through
// unchanged for the rest of the process lifetime.
type Engine struct {
	model        *Model
	weights      config.ConfidenceWeights
	maxListItems int
	logger       *zap.Logger
}

// NewEngine creates a scoring engine around an optional model.
func NewEngine(model *Model, cfg *config.Config, logger *zap.Logger) *Engine {
	return &Engine{
		model:        model,
		weights:      cfg.Confidence,
		maxListItems: cfg.Answer.MaxListItems,
		logger:       logger,
	}
}

// Available reports whether the trained model is in use.
func (e *Engine) Available() bool {
	return e.model != nil
}

// Rerank fills in RerankScore for every candidate and stable-sorts them by
// it, descending. Without a model the upstream score becomes the rerank
// score, so equal-scored candidates keep their retrieval order.
func (e *Engine) Rerank(question string, cands []domain.Candidate, directMatchID string) []domain.Candidate {
	if len(cands) == 0 {
		return cands
	}
	if e.model == nil {
		for i := range cands {
			cands[i].RerankScore = cands[i].Upstream
		}
	} else {
		feats := BuildFeatures(question, cands, directMatchID)
		for i := range cands {
			cands[i].RerankScore = e.score(feats[i])
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].RerankScore > cands[j].RerankScore
	})
	return cands
}

func (e *Engine) score(f FeatureVector) float64 {
	m := e.model
	s := m.Intercept
	for i, col := range m.FeatureCols {
		scale := m.ScalerScale[i]
		if scale == 0 {
			scale = 1
		}
		s += m.Coef[i] * (f.byName(col) - m.ScalerMean[i]) / scale
	}
	return sigmoid(s)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Quality measures how well a candidate set answers the parsed question.
// Empty sets score zero.
func (e *Engine) Quality(cands []domain.Candidate, q domain.Query) float64 {
	if len(cands) == 0 {
		return 0
	}
	topicRatio := 1.0
	if q.Topic != "" {
		matches := 0
		for _, c := range cands {
			text := strings.ToLower(c.Record.Name + " " + c.Record.Category + " " + c.Record.Description)
			if strings.Contains(text, q.Topic) {
				matches++
			}
		}
		topicRatio = float64(matches) / float64(len(cands))
	}
	desired := q.Count
	if desired <= 0 {
		desired = e.maxListItems
	}
	countScore := math.Min(1, float64(len(cands))/math.Max(1, float64(desired)))
	withDesc := 0
	for _, c := range cands {
		if strings.TrimSpace(c.Record.Description) != "" {
			withDesc++
		}
	}
	descRatio := float64(withDesc) / float64(len(cands))

	v := topicRatio*qualityTopicWeight + countScore*qualityCountWeight + descRatio*qualityDescWeight
	return clamp01(v)
}

// Confidence blends the top candidate's upstream and rerank scores with the
// set quality using the configured weights.
func (e *Engine) Confidence(topUpstream, topRerank, quality float64) float64 {
	return clamp01(e.weights.Gemma*topUpstream + e.weights.Rerank*topRerank + e.weights.Quality*quality)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
