// Package corpus holds the current generation of exhibit records loaded from
// the tabular corpus source. The table is replaced atomically on reload, so
// concurrent readers never observe a partially-updated corpus.
package corpus

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ucost/exhibitqa/internal/domain"
	"github.com/ucost/exhibitqa/internal/nlp"
)

// indexedRecord is one exhibit plus text precomputed for matching.
type indexedRecord struct {
	rec        domain.ExhibitRecord
	nameNorm   string
	aliasNorms []string
	searchText string
	floorText  string
}

type generation struct {
	indexed []indexedRecord
	records []domain.ExhibitRecord
}

// Store is the corpus store. Safe for unbounded concurrent reads; reload is
// single-flight guarded and rejects overlapping calls.
type Store struct {
	path      string
	topicMin  float64
	logger    *zap.Logger
	gen       atomic.Pointer[generation]
	reloading atomic.Bool
}

// New creates an empty Store reading from the given CSV path. Call Reload to
// populate it.
func New(path string, topicMin float64, logger *zap.Logger) *Store {
	s := &Store{path: path, topicMin: topicMin, logger: logger}
	s.gen.Store(&generation{})
	return s
}

func buildGeneration(records []domain.ExhibitRecord) *generation {
	g := &generation{
		indexed: make([]indexedRecord, 0, len(records)),
		records: records,
	}
	for _, rec := range records {
		nameNorm, _ := nlp.NormalizeQuery(rec.Name)
		aliasNorms := make([]string, 0, len(rec.Aliases))
		for _, a := range rec.Aliases {
			if n, _ := nlp.NormalizeQuery(a); n != "" {
				aliasNorms = append(aliasNorms, n)
			}
		}
		floor := rec.Floor
		if floor == "" && rec.MapLocation != nil {
			floor = rec.MapLocation.Floor
		}
		g.indexed = append(g.indexed, indexedRecord{
			rec:        rec,
			nameNorm:   nameNorm,
			aliasNorms: aliasNorms,
			searchText: rec.SearchText(),
			floorText:  strings.ToLower(floor),
		})
	}
	return g
}

// Reload re-reads the corpus source and swaps in the new table atomically.
// A concurrent reload is rejected immediately with ErrReloadInProgress.
func (s *Store) Reload(_ context.Context) (int, error) {
	if !s.reloading.CompareAndSwap(false, true) {
		return 0, domain.ErrReloadInProgress
	}
	defer s.reloading.Store(false)

	records, issues, err := loadCSVFile(s.path)
	if err != nil {
		return 0, err
	}
	for _, issue := range issues {
		s.logger.Warn("Corpus row validation issue",
			zap.Int("row", issue.Row), zap.String("message", issue.Message))
	}

	s.gen.Store(buildGeneration(records))
	s.logger.Info("Corpus loaded", zap.Int("count", len(records)), zap.String("path", s.path))
	return len(records), nil
}

// Replace swaps in an explicit record table. Used for seeding in tests and warmup.
func (s *Store) Replace(records []domain.ExhibitRecord) {
	s.gen.Store(buildGeneration(records))
}

// Records returns the current generation of exhibit records. The returned
// slice must be treated as read-only.
func (s *Store) Records() []domain.ExhibitRecord {
	return s.gen.Load().records
}

// Count returns the number of loaded records.
func (s *Store) Count() int {
	return len(s.gen.Load().records)
}

// DirectMatch scans for a record whose normalized name or alias equals the
// normalized query, matches a significant query token, or sits within edit
// distance 2 of the query.
func (s *Store) DirectMatch(normalized string, keywords []string) (domain.ExhibitRecord, bool) {
	if normalized == "" {
		return domain.ExhibitRecord{}, false
	}
	inKeywords := func(v string) bool {
		for _, k := range keywords {
			if k == v {
				return true
			}
		}
		return false
	}
	for _, ir := range s.gen.Load().indexed {
		if ir.nameNorm == "" {
			continue
		}
		if normalized == ir.nameNorm || inKeywords(ir.nameNorm) {
			return ir.rec, true
		}
		for _, alias := range ir.aliasNorms {
			if normalized == alias || inKeywords(alias) {
				return ir.rec, true
			}
		}
		if nlp.FuzzyIncludes(normalized, ir.nameNorm, 2) || nlp.FuzzyIncludes(ir.nameNorm, normalized, 2) {
			return ir.rec, true
		}
	}
	return domain.ExhibitRecord{}, false
}

// FloorMatches returns records whose floor attribute contains the requested floor.
func (s *Store) FloorMatches(floor string) []domain.ExhibitRecord {
	floor = strings.ToLower(floor)
	var out []domain.ExhibitRecord
	for _, ir := range s.gen.Load().indexed {
		if ir.floorText != "" && strings.Contains(ir.floorText, floor) {
			out = append(out, ir.rec)
		}
	}
	return out
}

// TopicMatches scores every record against the topic synonym set and returns
// those at or above the minimum, best first, truncated to limit. An empty
// topic matches nothing, so topicless queries fall through to the no-match
// guidance instead of serving arbitrary records.
func (s *Store) TopicMatches(topic string, limit int) []domain.ExhibitRecord {
	synonyms := append([]string{topic}, nlp.TopicSynonyms(topic)...)

	type scored struct {
		rec   domain.ExhibitRecord
		score float64
	}
	var kept []scored
	for _, ir := range s.gen.Load().indexed {
		name := strings.ToLower(ir.rec.Name)
		cat := strings.ToLower(ir.rec.Category)
		desc := strings.ToLower(ir.rec.Description)
		var score float64
		for _, syn := range synonyms {
			if syn == "" {
				continue
			}
			if strings.Contains(name, syn) || strings.Contains(cat, syn) {
				score += 1.5
			}
			if strings.Contains(desc, syn) {
				score += 0.75
			}
		}
		if score >= s.topicMin {
			kept = append(kept, scored{rec: ir.rec, score: score})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	out := make([]domain.ExhibitRecord, len(kept))
	for i, k := range kept {
		out[i] = k.rec
	}
	return out
}
