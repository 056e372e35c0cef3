package answer

import "regexp"

// expansionRules enrich the retrieval query with topic vocabulary before it
// reaches the recommender. First match wins, so the more specific patterns
// come first.
var expansionRules = []struct {
	pattern *regexp.Regexp
	suffix  string
}{
	{
		regexp.MustCompile(`taramandal|planetarium|star show|night sky|constellation`),
		"planetarium taramandal stars space astronomy",
	},
	{
		regexp.MustCompile(`nasa|space|astronomy|stars|planets|galaxy|universe|solar system|astronaut|satellite|isro|rocket|mars|moon`),
		"nasa space astronomy stars planets taramandal planetarium satellite astronaut isro rocket mars moon cosmos",
	},
	{
		regexp.MustCompile(`himalaya|himalayan|himalayas|mountain|geology|earth science|geography|landform`),
		"himalayan mountains himalayas geology geography earth science landform terrain ecosystem",
	},
	{
		regexp.MustCompile(`chemistry|chemical|molecule|compound|reaction|element|periodic|drug|pharmaceutical`),
		"chemistry chemical materials molecule compound reaction element periodic drug pharmaceutical",
	},
	{
		regexp.MustCompile(`physics|mechanics|motion|force|energy|optics|light|sound`),
		"physics mechanics motion force energy",
	},
	{
		regexp.MustCompile(`biology|life|animals|plants|nature|genetics|dna`),
		"biology life science nature genetics",
	},
	{
		regexp.MustCompile(`nano|nanotech|nanotechnology|nanomaterials`),
		"nanotechnology nanomaterials nanoscience nano",
	},
	{
		regexp.MustCompile(`cv raman|raman|c v raman|sir cv raman`),
		"CV Raman C V Raman scientist physicist optics light",
	},
	{
		regexp.MustCompile(`satyendra nath bose|satyandra nath bose|s n bose|bose einstein`),
		"Satyendra Nath Bose S N Bose physicist quantum",
	},
}

// ExpandQuery appends topic vocabulary to the question when the normalized
// form hits a known cluster. The original question text is preserved.
func ExpandQuery(question, normalized string) string {
	for _, rule := range expansionRules {
		if rule.pattern.MatchString(normalized) {
			return question + " " + rule.suffix
		}
	}
	return question
}
