package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/ucost/exhibitqa/internal/domain"
	"github.com/ucost/exhibitqa/internal/nlp"
)

func seededStore() *Store {
	s := New("", 0.35, zap.NewNop())
	s.Replace([]domain.ExhibitRecord{
		{ID: "1", Name: "CV Raman Gallery", Category: "Physics", Description: "Optics and light demonstrations", Floor: "ground"},
		{ID: "2", Name: "Taramandal Planetarium", Category: "Astronomy", Description: "Stars and planets under the dome", Floor: "first"},
		{ID: "3", Name: "Himalayan Geology", Category: "Geography", Description: "Mountain terrain and landforms", Floor: "ground"},
		{ID: "4", Name: "Dinosaurs", Aliases: []string{"T-Rex"}, Category: "Biology", Description: "Life before the asteroid"},
	})
	return s
}

func TestDirectMatch_ExactAndKeyword(t *testing.T) {
	s := seededStore()

	normalized, tokens := nlp.NormalizeQuery("tell me about the dinosaur exhibit")
	rec, ok := s.DirectMatch(normalized, nlp.SignificantTokens(tokens))
	if !ok || rec.ID != "4" {
		t.Fatalf("keyword match = (%v, %v), want exhibit 4", rec.ID, ok)
	}

	normalized, tokens = nlp.NormalizeQuery("t-rex")
	rec, ok = s.DirectMatch(normalized, nlp.SignificantTokens(tokens))
	if !ok || rec.ID != "4" {
		t.Fatalf("alias match = (%v, %v), want exhibit 4", rec.ID, ok)
	}
}

func TestDirectMatch_FuzzySubstring(t *testing.T) {
	s := seededStore()
	normalized, tokens := nlp.NormalizeQuery("what is the cv raman gallery about")
	rec, ok := s.DirectMatch(normalized, nlp.SignificantTokens(tokens))
	if !ok || rec.ID != "1" {
		t.Fatalf("substring match = (%v, %v), want exhibit 1", rec.ID, ok)
	}
}

func TestDirectMatch_NoHit(t *testing.T) {
	s := seededStore()
	normalized, tokens := nlp.NormalizeQuery("opening hours tomorrow please")
	if rec, ok := s.DirectMatch(normalized, nlp.SignificantTokens(tokens)); ok {
		t.Fatalf("unexpected match: %v", rec.ID)
	}
	if _, ok := s.DirectMatch("", nil); ok {
		t.Fatal("empty query must not match")
	}
}

func TestFloorMatches(t *testing.T) {
	s := seededStore()
	got := s.FloorMatches("ground")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("FloorMatches(ground) = %v, want exhibits 1 and 3", ids(got))
	}
	if len(s.FloorMatches("basement")) != 0 {
		t.Fatal("no basement exhibits seeded")
	}
}

func TestTopicMatches_ScoredAndOrdered(t *testing.T) {
	s := seededStore()

	// "Taramandal" contains the physics synonym "raman" as a substring, so
	// exhibit 2 scores too; exhibit 1 hits name, category and description and
	// must sort first.
	got := s.TopicMatches("physics", 5)
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("TopicMatches(physics) = %v, want exhibit 1 then 2", ids(got))
	}

	got = s.TopicMatches("astronomy", 5)
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("TopicMatches(astronomy) = %v, want exhibit 2 only", ids(got))
	}

	got = s.TopicMatches("physics", 1)
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("limit not applied: got %v", ids(got))
	}
}

func TestTopicMatches_EmptyTopicMatchesNothing(t *testing.T) {
	s := seededStore()
	if got := s.TopicMatches("", 10); len(got) != 0 {
		t.Fatalf("empty topic matched %v, want no records", ids(got))
	}
}

func TestReload_FromCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exhibits.csv")
	csv := "id,name,description,category,floor,features,aliases,rating,averageTime\n" +
		"a1,Pendulum Wave,Simple harmonic motion,Physics,ground,\"[\"\"swing\"\",\"\"timing\"\"]\",wave machine,4.5,10\n" +
		",Missing ID,dropped row,,,,,,\n" +
		"a2,Gravity Well,,Physics,first,coin;vortex,,,\n"
	if err := os.WriteFile(path, []byte(csv), 0o600); err != nil {
		t.Fatal(err)
	}

	s := New(path, 0.35, zap.NewNop())
	n, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if n != 2 || s.Count() != 2 {
		t.Fatalf("loaded %d records, want 2", n)
	}

	recs := s.Records()
	if recs[0].ID != "a1" || recs[0].Rating != 4.5 || recs[0].AvgMinutes != 10 {
		t.Errorf("first record mis-parsed: %+v", recs[0])
	}
	if len(recs[0].Features) != 2 || recs[0].Features[0] != "swing" {
		t.Errorf("JSON feature list mis-parsed: %v", recs[0].Features)
	}
	if len(recs[1].Features) != 2 || recs[1].Features[1] != "vortex" {
		t.Errorf("delimited feature list mis-parsed: %v", recs[1].Features)
	}
}

func TestReload_BOMHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exhibits.csv")
	csv := "\uFEFFid,name,description\nb1,Vortex,Water vortex demonstration\n"
	if err := os.WriteFile(path, []byte(csv), 0o600); err != nil {
		t.Fatal(err)
	}

	s := New(path, 0.35, zap.NewNop())
	if _, err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	recs := s.Records()
	if len(recs) != 1 || recs[0].ID != "b1" {
		t.Fatalf("BOM-prefixed header mis-parsed: %v", ids(recs))
	}
}

func TestReload_RejectsOverlap(t *testing.T) {
	s := New("unused.csv", 0.35, zap.NewNop())
	s.reloading.Store(true)
	if _, err := s.Reload(context.Background()); !errors.Is(err, domain.ErrReloadInProgress) {
		t.Fatalf("err = %v, want ErrReloadInProgress", err)
	}
}

func TestReload_MissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope.csv"), 0.35, zap.NewNop())
	if _, err := s.Reload(context.Background()); err == nil {
		t.Fatal("expected error for missing corpus file")
	}
}

func ids(recs []domain.ExhibitRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
