package corpus

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ucost/exhibitqa/internal/domain"
)

// requiredColumns must be present and non-empty on every row.
var requiredColumns = []string{"id", "name"}

// rowIssue is a validation problem on one CSV row. Rows with issues on
// required columns are dropped; everything else degrades.
type rowIssue struct {
	Row     int
	Message string
}

func splitList(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	out := parts[:0]
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseFeatureList reads a JSON string array, degrading to a comma-split
// list when the value is not valid JSON.
func parseFeatureList(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	var arr []string
	if err := json.Unmarshal([]byte(value), &arr); err == nil {
		out := arr[:0]
		for _, v := range arr {
			if v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return splitList(value)
}

// parseCSV reads exhibit rows from a tabular source with at least id and
// name columns. Rows missing either are dropped with a validation issue.
func parseCSV(r io.Reader) ([]domain.ExhibitRecord, []rowIssue, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		cols[h] = i
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []domain.ExhibitRecord
	var issues []rowIssue
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			issues = append(issues, rowIssue{Row: line, Message: err.Error()})
			continue
		}

		dropped := false
		for _, req := range requiredColumns {
			if field(row, req) == "" {
				issues = append(issues, rowIssue{Row: line, Message: fmt.Sprintf("missing required field %q", req)})
				dropped = true
			}
		}
		if dropped {
			continue
		}

		rec := domain.ExhibitRecord{
			ID:          field(row, "id"),
			Name:        field(row, "name"),
			Description: field(row, "description"),
			Category:    field(row, "category"),
			Floor:       field(row, "floor"),
			Location:    field(row, "location"),
			AgeRange:    field(row, "ageRange"),
			ExhibitType: field(row, "type"),
			Environment: field(row, "environment"),
			Features:    parseFeatureList(field(row, "features")),
			Images:      splitList(field(row, "images")),
			Aliases:     splitList(field(row, "aliases")),
			Difficulty:  field(row, "difficulty"),
		}
		if v := field(row, "rating"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				rec.Rating = f
			}
		}
		if v := field(row, "averageTime"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				rec.AvgMinutes = n
			}
		}
		records = append(records, rec)
	}
	return records, issues, nil
}

// loadCSVFile reads and parses an exhibit CSV from disk.
func loadCSVFile(path string) ([]domain.ExhibitRecord, []rowIssue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open corpus csv: %w", err)
	}
	defer f.Close()
	return parseCSV(f)
}
