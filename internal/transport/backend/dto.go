package backend

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ucost/exhibitqa/internal/domain"
)

// exhibitDTO tolerates the field-name and type drift seen across backend
// versions: numeric or string ids, camelCase or snake_case score fields,
// arrays serialized as JSON strings or delimiter-joined strings.
type exhibitDTO struct {
	ID          json.RawMessage `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Floor       string          `json:"floor"`
	Location    string          `json:"location"`
	AgeRange    string          `json:"ageRange"`
	ExhibitType string          `json:"exhibitType"`
	Type        string          `json:"type"`
	Environment string          `json:"environment"`
	Features    json.RawMessage `json:"interactiveFeatures"`
	Images      json.RawMessage `json:"images"`
	MapLocation *mapPointDTO    `json:"mapLocation"`
	Coordinates *mapPointDTO    `json:"coordinates"`
	Aliases     []string        `json:"aliases"`
	Rating      float64         `json:"rating"`
	AvgMinutes  int             `json:"averageTime"`
	Difficulty  string          `json:"difficulty"`
}

type mapPointDTO struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Floor string  `json:"floor"`
}

// batchEnvelope accepts both `{"exhibits": [...]}` and a bare array.
type batchEnvelope struct {
	Exhibits []exhibitDTO `json:"exhibits"`
}

// itemEnvelope accepts both `{"exhibit": {...}}` and a bare object.
type itemEnvelope struct {
	Exhibit *exhibitDTO `json:"exhibit"`
}

func decodeBatch(data []byte) ([]exhibitDTO, error) {
	var env batchEnvelope
	if err := json.Unmarshal(data, &env); err == nil && env.Exhibits != nil {
		return env.Exhibits, nil
	}
	var bare []exhibitDTO
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, err
	}
	return bare, nil
}

func decodeItem(data []byte) (*exhibitDTO, error) {
	var env itemEnvelope
	if err := json.Unmarshal(data, &env); err == nil && env.Exhibit != nil {
		return env.Exhibit, nil
	}
	var bare exhibitDTO
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, err
	}
	return &bare, nil
}

// rawID renders an id that may arrive as a JSON string or number.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// rawStringList renders a value that may arrive as a JSON array, a JSON
// string containing an array, or a comma/semicolon/pipe-joined string.
func rawStringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var arr []string
	if json.Unmarshal(raw, &arr) == nil {
		return compactStrings(arr)
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if json.Unmarshal([]byte(s), &arr) == nil {
		return compactStrings(arr)
	}
	return compactStrings(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	}))
}

func compactStrings(in []string) []string {
	out := in[:0]
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// toRecord converts a wire exhibit into the domain record. Floor falls back
// to the map location's floor when the top-level field is absent.
func (d *exhibitDTO) toRecord() domain.ExhibitRecord {
	point := d.MapLocation
	if point == nil {
		point = d.Coordinates
	}
	var mapLoc *domain.MapPoint
	if point != nil {
		mapLoc = &domain.MapPoint{X: point.X, Y: point.Y, Floor: point.Floor}
	}
	floor := d.Floor
	if floor == "" && mapLoc != nil {
		floor = mapLoc.Floor
	}
	exhibitType := d.ExhibitType
	if exhibitType == "" {
		exhibitType = d.Type
	}
	return domain.ExhibitRecord{
		ID:          rawID(d.ID),
		Name:        d.Name,
		Aliases:     d.Aliases,
		Description: d.Description,
		Category:    d.Category,
		Floor:       floor,
		Location:    d.Location,
		AgeRange:    d.AgeRange,
		ExhibitType: exhibitType,
		Environment: d.Environment,
		Features:    rawStringList(d.Features),
		Images:      rawStringList(d.Images),
		MapLocation: mapLoc,
		Rating:      d.Rating,
		AvgMinutes:  d.AvgMinutes,
		Difficulty:  d.Difficulty,
	}
}
