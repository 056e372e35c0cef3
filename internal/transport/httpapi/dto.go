package httpapi

import "github.com/ucost/exhibitqa/internal/domain"

// ChatRequest is the POST /api/chat payload.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the wire rendering of an answer, with the field names
// existing clients already parse.
type ChatResponse struct {
	Answer     string       `json:"answer"`
	Exhibits   []ExhibitDTO `json:"exhibits"`
	Sources    []SourceDTO  `json:"sources"`
	Confidence float64      `json:"confidence"`
	Quality    float64      `json:"quality"`
	LatencyMs  int64        `json:"latencyMs"`
	Notice     string       `json:"notice,omitempty"`
}

// ExhibitDTO is the wire projection of one exhibit in an answer.
type ExhibitDTO struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Category    string       `json:"category,omitempty"`
	Floor       string       `json:"floor,omitempty"`
	Location    string       `json:"location,omitempty"`
	AgeRange    string       `json:"ageRange,omitempty"`
	ExhibitType string       `json:"exhibitType,omitempty"`
	Environment string       `json:"environment,omitempty"`
	Features    []string     `json:"interactiveFeatures,omitempty"`
	Images      []string     `json:"images,omitempty"`
	MapLocation *MapPointDTO `json:"mapLocation,omitempty"`
	GemmaScore  float64      `json:"gemmaScore,omitempty"`
	RerankScore float64      `json:"rerankScore,omitempty"`
}

// MapPointDTO carries museum map coordinates.
type MapPointDTO struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Floor string  `json:"floor,omitempty"`
}

// SourceDTO attributes one exhibit that contributed to the answer.
type SourceDTO struct {
	Source string `json:"source"`
	Name   string `json:"name"`
}

// NewChatResponse projects an answer result onto the wire shape.
func NewChatResponse(res domain.AnswerResult) ChatResponse {
	exhibits := make([]ExhibitDTO, len(res.Exhibits))
	for i, v := range res.Exhibits {
		exhibits[i] = exhibitToDTO(v)
	}
	sources := make([]SourceDTO, len(res.Sources))
	for i, s := range res.Sources {
		sources[i] = SourceDTO{Source: s.Source, Name: s.Name}
	}
	return ChatResponse{
		Answer:     res.Answer,
		Exhibits:   exhibits,
		Sources:    sources,
		Confidence: res.Confidence,
		Quality:    res.Quality,
		LatencyMs:  res.Latency.Milliseconds(),
		Notice:     res.Notice,
	}
}

func exhibitToDTO(v domain.ExhibitView) ExhibitDTO {
	var mapLoc *MapPointDTO
	if v.MapLocation != nil {
		mapLoc = &MapPointDTO{X: v.MapLocation.X, Y: v.MapLocation.Y, Floor: v.MapLocation.Floor}
	}
	return ExhibitDTO{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		Category:    v.Category,
		Floor:       v.Floor,
		Location:    v.Location,
		AgeRange:    v.AgeRange,
		ExhibitType: v.ExhibitType,
		Environment: v.Environment,
		Features:    v.Features,
		Images:      v.Images,
		MapLocation: mapLoc,
		GemmaScore:  v.GemmaScore,
		RerankScore: v.RerankScore,
	}
}
