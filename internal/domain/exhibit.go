package domain

import "strings"

// MapPoint is a position on the visitor map.
type MapPoint struct {
	X     float64
	Y     float64
	Floor string
}

// ExhibitRecord is a normalized exhibit row owned by the corpus store.
// Records are immutable once loaded; a reload replaces the whole table.
type ExhibitRecord struct {
	ID          string
	Name        string
	Aliases     []string
	Description string
	Category    string
	Floor       string
	Location    string
	AgeRange    string
	ExhibitType string
	Environment string
	Features    []string
	Images      []string
	MapLocation *MapPoint
	Rating      float64 // 0 = unrated
	AvgMinutes  int     // 0 = unknown
	Difficulty  string
}

// debugMarkers flag records seeded by integration tests rather than curators.
var debugMarkers = []string{"test_exhibits", "inserted via test"}

// IsDebug reports whether the record is a debug/test row that must never
// appear in visitor-facing answers.
func (e ExhibitRecord) IsDebug() bool {
	name := strings.ToLower(e.Name)
	if strings.Contains(name, "debug") || strings.Contains(name, "test") {
		return true
	}
	desc := strings.ToLower(e.Description)
	for _, m := range debugMarkers {
		if strings.Contains(desc, m) {
			return true
		}
	}
	return false
}

// SearchText returns the lowercase text used for topic and similarity scoring.
func (e ExhibitRecord) SearchText() string {
	return strings.ToLower(e.Name + " " + e.Description + " " + e.Category)
}
