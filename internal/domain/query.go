package domain

// Intent classifies what shape of answer the visitor is after.
type Intent string

const (
	IntentList     Intent = "list"
	IntentSingle   Intent = "single"
	IntentLocation Intent = "location"
	IntentFeatures Intent = "features"
	IntentUnknown  Intent = "unknown"
)

// Query is the parsed form of one visitor message. Created fresh per request,
// never persisted.
type Query struct {
	Raw        string
	Normalized string
	Tokens     []string
	Intent     Intent
	Topic      string // canonical topic key, "" when none parsed
	Count      int    // requested result count, 0 when none parsed
	Brevity    bool
	Confidence float64 // intent confidence in [0,1]
}
