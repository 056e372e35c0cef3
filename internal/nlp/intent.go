package nlp

import (
	"regexp"
	"strings"

	"github.com/ucost/exhibitqa/internal/domain"
)

// topicEntry pairs a canonical topic with its synonym set. Order matters:
// earlier topics win ties during token scanning.
type topicEntry struct {
	Key  string
	Syns []string
}

var topicTable = []topicEntry{
	{"physics", []string{"mechanics", "motion", "force", "energy", "wave", "pendulum", "optics", "light", "sound", "quantum", "raman", "bose"}},
	{"biology", []string{"life", "plants", "animals", "genetics", "dna", "evolution", "ecosystem", "organism", "genome", "cell", "molecular"}},
	{"chemistry", []string{"chemical", "materials", "molecule", "compound", "reaction", "element", "periodic", "drug", "pharmaceutical", "synthesis"}},
	{"technology", []string{"tech", "computing", "computer", "ict", "information technology", "digital", "software"}},
	{"ai-and-robotics", []string{"ai", "robotics", "artificial intelligence", "robot", "machine learning", "ml", "neural", "automation", "image processing", "computer vision"}},
	{"environment", []string{"nature", "earth", "ecology", "climate", "weather", "ecosystem", "conservation"}},
	{"astronomy", []string{"space", "stars", "planets", "galaxy", "universe", "taramandal", "planetarium", "nasa", "astronaut", "satellite", "solar system", "cosmos", "isro", "rocket", "mars", "moon"}},
	{"geography", []string{"himalaya", "himalayas", "himalayan", "mountain", "mountains", "geology", "earth science", "geography", "landform", "terrain", "ecosystem"}},
	{"nanoscience", []string{"nano", "nanotech", "nanotechnology", "nanomaterials", "nanoscale", "nanoparticle"}},
}

// TopicSynonyms returns the synonym list for a canonical topic key.
func TopicSynonyms(topic string) []string {
	for _, e := range topicTable {
		if e.Key == topic {
			return e.Syns
		}
	}
	return nil
}

// phraseOverrides resolve multi-word person names and phrases before the
// token scan. Checked longest-first against the full lowered question.
var phraseOverrides = []struct {
	Phrase string
	Topic  string
}{
	{"satyendra nath bose", "physics"},
	{"satyandra nath bose", "physics"},
	{"bose einstein", "physics"},
	{"s n bose", "physics"},
	{"c v raman", "physics"},
	{"cv raman", "physics"},
	{"raman", "physics"},
	{"nanotechnology", "nanoscience"},
	{"himalayan", "geography"},
	{"himalayas", "geography"},
	{"himalaya", "geography"},
	{"chemistry", "chemistry"},
	{"chemical", "chemistry"},
	{"nanotech", "nanoscience"},
	{"nasa", "astronomy"},
}

var trailingPunct = regexp.MustCompile(`[^\w]+$`)

// normalizeTopic maps one token to a canonical topic, "" when none matches.
func normalizeTopic(word string) string {
	w := trailingPunct.ReplaceAllString(strings.ToLower(word), "")
	for _, e := range topicTable {
		if w == e.Key {
			return e.Key
		}
		for _, s := range e.Syns {
			if strings.Contains(w, s) {
				return e.Key
			}
		}
	}
	return ""
}

// resolveTopic applies phrase overrides first, then scans tokens with exact
// and small-edit-distance matching against the topic table.
func resolveTopic(lowered string, tokens []string) string {
	for _, o := range phraseOverrides {
		if strings.Contains(lowered, o.Phrase) {
			return o.Topic
		}
	}
	for _, t := range tokens {
		if topic := normalizeTopic(t); topic != "" {
			return topic
		}
		for _, e := range topicTable {
			if FuzzyIncludes(t, e.Key, 1) {
				return e.Key
			}
		}
	}
	return ""
}

var (
	listHintPattern = regexp.MustCompile(`\b(top|best|all)\b`)
	locationPattern = regexp.MustCompile(`\bwhere\b|location|\bfind\b.*(where|location)`)
	featuresPattern = regexp.MustCompile(`\bfeatures?\b|interactive\b`)
	listPattern     = regexp.MustCompile(`\blist\b|\bshow\b|\bgive\b|\bwhich exhibits\b|\bwhat exhibits\b`)
	singlePattern   = regexp.MustCompile(`\btell me about\b|\bwhat is\b|\babout\b`)

	locationSignal = regexp.MustCompile(`\bwhere\b|location|floor|find|directions`)
	featuresSignal = regexp.MustCompile(`\bfeatures?\b|interactive|what can|how can|activities`)
	listSignal     = regexp.MustCompile(`\blist\b|\bshow\b|\bgive\b|\bwhich exhibits\b|\bwhat exhibits\b|top|best|all\b`)
	singleSignal   = regexp.MustCompile(`\btell me about\b|\bwhat is\b|\babout\b`)

	brevityPattern = regexp.MustCompile(`(?i)brief|short|concise|limit conversation|be brief`)
)

// Parse turns a raw message into a best-effort Query. It never fails:
// ambiguous fields default to empty or unknown.
func Parse(question string) domain.Query {
	lowered := strings.ToLower(question)
	rawTokens := Tokenize(question)
	normalized, tokens := NormalizeQuery(question)

	intent := domain.IntentUnknown
	if listHintPattern.MatchString(lowered) {
		intent = domain.IntentList
	}
	switch {
	case locationPattern.MatchString(lowered):
		intent = domain.IntentLocation
	case featuresPattern.MatchString(lowered):
		intent = domain.IntentFeatures
	case listPattern.MatchString(lowered):
		intent = domain.IntentList
	case singlePattern.MatchString(lowered):
		intent = domain.IntentSingle
	}

	signals := 0
	for _, p := range []*regexp.Regexp{locationSignal, featuresSignal, listSignal, singleSignal} {
		if p.MatchString(lowered) {
			signals++
		}
	}
	confidence := 0.3
	if intent != domain.IntentUnknown {
		confidence = 0.4 + 0.2*float64(signals)
		if confidence > 1 {
			confidence = 1
		}
	}

	return domain.Query{
		Raw:        question,
		Normalized: normalized,
		Tokens:     tokens,
		Intent:     intent,
		Topic:      resolveTopic(lowered, rawTokens),
		Count:      ExtractCount(lowered),
		Brevity:    brevityPattern.MatchString(question),
		Confidence: confidence,
	}
}

// floorPatterns map spoken floor references to the floor attribute value.
var floorPatterns = []struct {
	pattern *regexp.Regexp
	floor   string
}{
	{regexp.MustCompile(`\b(ground\s*floor|groundfloor|ground|main\s*floor|downstairs)\b`), "ground"},
	{regexp.MustCompile(`\b(first\s*floor|1st\s*floor|upstairs)\b`), "first"},
	{regexp.MustCompile(`\b(second\s*floor|2nd\s*floor)\b`), "second"},
	{regexp.MustCompile(`\b(third\s*floor|3rd\s*floor)\b`), "third"},
	{regexp.MustCompile(`\b(basement|lower\s*level)\b`), "basement"},
}

// DetectFloor extracts a requested floor from normalized query text.
func DetectFloor(normalized string) (string, bool) {
	for _, fp := range floorPatterns {
		if fp.pattern.MatchString(normalized) {
			return fp.floor, true
		}
	}
	return "", false
}
