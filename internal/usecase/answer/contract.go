package answer

import (
	"context"

	"github.com/ucost/exhibitqa/internal/domain"
)

// CorpusStore is the local exhibit table the pipeline falls back on.
type CorpusStore interface {
	DirectMatch(normalized string, keywords []string) (domain.ExhibitRecord, bool)
	FloorMatches(floor string) []domain.ExhibitRecord
	TopicMatches(topic string, limit int) []domain.ExhibitRecord
	Records() []domain.ExhibitRecord
	Count() int
}

// Recommender is the semantic retrieval service.
type Recommender interface {
	Recommend(ctx context.Context, query string, limit int) ([]domain.Recommendation, error)
}

// Hydrator resolves candidate identifiers into full exhibit records.
type Hydrator interface {
	Hydrate(ctx context.Context, ids []string) []domain.ExhibitRecord
}

// Scorer reorders candidates and derives quality and confidence.
type Scorer interface {
	Available() bool
	Rerank(question string, cands []domain.Candidate, directMatchID string) []domain.Candidate
	Quality(cands []domain.Candidate, q domain.Query) float64
	Confidence(topUpstream, topRerank, quality float64) float64
}
