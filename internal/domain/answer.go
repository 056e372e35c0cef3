package domain

import "time"

// Notice codes attached to degraded or short-circuit answers.
const (
	NoticeFloorFilter        = "floor_filter"
	NoticeDegradedCSVOnly    = "degraded_csv_only"
	NoticeRecommenderDown    = "gemma_unavailable"
	NoticeCSVFallback        = "csv_fallback"
	NoticeNoMatches          = "no_matches"
	NoticePayloadTooLarge    = "payload_too_large"
	NoticeBackendUnreachable = "backend_unreachable"
)

// ExhibitView is the client-safe projection of an exhibit included in an answer.
type ExhibitView struct {
	ID          string
	Name        string
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
	GemmaScore  float64
	RerankScore float64
}

// AnswerSource attributes one exhibit that contributed to the answer.
type AnswerSource struct {
	Source string
	Name   string
}

// AnswerResult is the only value returned across the core boundary.
// Every pipeline path terminates with one; no path may fail without a value.
type AnswerResult struct {
	Answer     string
	Exhibits   []ExhibitView
	Sources    []AnswerSource
	Confidence float64
	Quality    float64
	Latency    time.Duration
	Notice     string
}

// ViewOf projects an exhibit record for client consumption.
func ViewOf(rec ExhibitRecord, gemmaScore, rerankScore float64) ExhibitView {
	floor := rec.Floor
	if floor == "" && rec.MapLocation != nil {
		floor = rec.MapLocation.Floor
	}
	return ExhibitView{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Category:    rec.Category,
		Floor:       floor,
		Location:    rec.Location,
		AgeRange:    rec.AgeRange,
		ExhibitType: rec.ExhibitType,
		Environment: rec.Environment,
		Features:    rec.Features,
		Images:      rec.Images,
		MapLocation: rec.MapLocation,
		GemmaScore:  gemmaScore,
		RerankScore: rerankScore,
	}
}
