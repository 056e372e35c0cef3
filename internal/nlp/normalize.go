// Package nlp turns raw visitor text into normalized tokens, an inferred
// intent, and an optional topic. Everything here is pure string work:
// best-effort, deterministic, and never failing.
package nlp

import (
	"regexp"
	"strconv"
	"strings"
)

var tokenSplit = regexp.MustCompile(`[^a-z0-9]+`)

// Tokenize lower-cases text and splits it on non-alphanumeric boundaries.
func Tokenize(text string) []string {
	parts := tokenSplit.Split(strings.ToLower(text), -1)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// singleAliases rewrites one misspelled or abbreviated token into its
// canonical token run. Values are kept singular so normalization stays
// idempotent. The historical-figure shortcuts live here rather than in
// bespoke pattern code.
var singleAliases = map[string][]string{
	"dinasaur":   {"dinosaur"},
	"dinosour":   {"dinosaur"},
	"dinosar":    {"dinosaur"},
	"taramandal": {"planetarium"},
	"tengential": {"tangential"},
	"exibit":     {"exhibit"},
	"exibits":    {"exhibit"},
	"exhbit":     {"exhibit"},
	"exhbits":    {"exhibit"},
	"himaliyan":  {"himalayan"},
	"himalaya":   {"himalayan"},
	"himalayas":  {"himalayan"},
	"nanotech":   {"nanotechnology"},
	"nano":       {"nanotechnology"},
	"cv":         {"cv", "raman"},
	"raman":      {"cv", "raman"},
	"bose":       {"satyendra", "nath", "bose"},
	"nasa":       {"nasa", "space"},
}

// runAliases rewrites multi-token runs. Matched longest-first.
var runAliases = []struct {
	run  []string
	repl []string
}{
	{[]string{"satyandra", "nath", "bose"}, []string{"satyendra", "nath", "bose"}},
	{[]string{"satyandra", "nath"}, []string{"satyendra", "nath", "bose"}},
	{[]string{"satyendra", "nath"}, []string{"satyendra", "nath", "bose"}},
	{[]string{"s", "n", "bose"}, []string{"satyendra", "nath", "bose"}},
	{[]string{"c", "v", "raman"}, []string{"cv", "raman"}},
	{[]string{"c", "v"}, []string{"cv", "raman"}},
	{[]string{"space", "nasa"}, []string{"nasa", "space"}},
}

// canonicalRuns are already-normalized token runs copied verbatim, so a second
// normalization pass cannot expand them again.
var canonicalRuns = [][]string{
	{"satyendra", "nath", "bose"},
	{"cv", "raman"},
	{"nasa", "space"},
}

func runMatches(tokens []string, i int, run []string) bool {
	if i+len(run) > len(tokens) {
		return false
	}
	for j, r := range run {
		if tokens[i+j] != r {
			return false
		}
	}
	return true
}

func stripPlural(t string) string {
	if len(t) > 3 && strings.HasSuffix(t, "s") {
		return t[:len(t)-1]
	}
	return t
}

// NormalizeTokens rewrites a token stream through the alias tables and strips
// trailing pluralizing suffixes. The result is a fixed point: normalizing an
// already-normalized stream yields the same stream.
func NormalizeTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		matched := false
		for _, run := range canonicalRuns {
			if runMatches(tokens, i, run) {
				out = append(out, run...)
				i += len(run)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		for _, a := range runAliases {
			if runMatches(tokens, i, a.run) {
				out = append(out, a.repl...)
				i += len(a.run)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		t := tokens[i]
		if repl, ok := singleAliases[t]; ok {
			out = append(out, repl...)
		} else if repl, ok := singleAliases[stripPlural(t)]; ok {
			out = append(out, repl...)
		} else {
			out = append(out, stripPlural(t))
		}
		i++
	}
	return out
}

// NormalizeQuery tokenizes and normalizes text, returning the joined
// normalized form together with the token list.
func NormalizeQuery(text string) (normalized string, tokens []string) {
	tokens = NormalizeTokens(Tokenize(text))
	return strings.Join(tokens, " "), tokens
}

// stopwords excluded from significant-token matching.
var stopwords = map[string]bool{
	"what": true, "is": true, "are": true, "the": true, "about": true,
	"tell": true, "me": true, "show": true, "explain": true, "describe": true,
	"exhibit": true, "exhibits": true, "find": true, "give": true, "list": true,
	"all": true, "any": true, "a": true, "an": true, "and": true,
	"of": true, "for": true, "to": true, "on": true, "in": true, "at": true,
	"with": true, "information": true, "details": true,
}

// SignificantTokens keeps tokens long enough to carry meaning.
func SignificantTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if len(t) > 2 && !stopwords[t] {
			out = append(out, t)
		}
	}
	return out
}

// Levenshtein computes the edit distance between two strings.
func Levenshtein(a, b string) int {
	m, n := len(a), len(b)
	prev := make([]int, n+1)
	cur := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}
	for i := 1; i <= m; i++ {
		cur[0] = i
		for j := 1; j <= n; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, min(cur[j-1]+1, prev[j-1]+cost))
		}
		prev, cur = cur, prev
	}
	return prev[n]
}

// FuzzyIncludes reports whether needle occurs in hay directly or within
// maxDist edits of any single word of hay.
func FuzzyIncludes(hay, needle string, maxDist int) bool {
	hay = strings.ToLower(hay)
	needle = strings.ToLower(needle)
	if strings.Contains(hay, needle) {
		return true
	}
	for _, w := range Tokenize(hay) {
		if Levenshtein(w, needle) <= maxDist {
			return true
		}
	}
	return false
}

var countPattern = regexp.MustCompile(`(?i)\b(?:top|list|show)?\s*(\d{1,2})\b`)

// ExtractCount pulls a requested result count out of the text, 0 when absent.
func ExtractCount(text string) int {
	m := countPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
