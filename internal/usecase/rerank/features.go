package rerank

import (
	"math"

	"github.com/ucost/exhibitqa/internal/domain"
	"github.com/ucost/exhibitqa/internal/nlp"
)

// FeatureVector holds the per-candidate signals the model was trained on.
// Column names in the artifact resolve positionally through byName; a column
// this build does not know contributes zero, keeping old binaries compatible
// with newer artifacts.
type FeatureVector struct {
	GemmaScore        float64
	TFIDFCosine       float64
	JaccardOverlap    float64
	CSVExactFlag      float64
	DescriptionLength float64
	Top1Delta         float64
}

func (f FeatureVector) byName(col string) float64 {
	switch col {
	case "gemma_score":
		return f.GemmaScore
	case "tfidf_cosine":
		return f.TFIDFCosine
	case "jaccard_overlap":
		return f.JaccardOverlap
	case "csv_exact_flag":
		return f.CSVExactFlag
	case "description_length":
		return f.DescriptionLength
	case "top1_delta":
		return f.Top1Delta
	default:
		return 0
	}
}

// BuildFeatures computes the feature vector for each candidate. TF-IDF runs
// over the candidate set itself, so a term's weight reflects how well it
// discriminates among these candidates, not some global corpus.
func BuildFeatures(question string, cands []domain.Candidate, directMatchID string) []FeatureVector {
	if len(cands) == 0 {
		return nil
	}

	qTokens := nlp.Tokenize(question)
	docTokens := make([][]string, len(cands))
	df := make(map[string]int)
	for i, c := range cands {
		docTokens[i] = nlp.Tokenize(c.Record.SearchText())
		for _, t := range uniqueTokens(docTokens[i]) {
			df[t]++
		}
	}
	n := len(cands)
	qVec := tfidfVector(qTokens, df, n)

	top1Delta := 0.0
	if len(cands) >= 2 {
		top1Delta = math.Max(0, cands[0].Upstream-cands[1].Upstream)
	} else if len(cands) == 1 {
		top1Delta = math.Max(0, cands[0].Upstream)
	}

	out := make([]FeatureVector, len(cands))
	for i, c := range cands {
		exact := 0.0
		if directMatchID != "" && c.ID == directMatchID {
			exact = 1
		}
		out[i] = FeatureVector{
			GemmaScore:        c.Upstream,
			TFIDFCosine:       cosine(qVec, tfidfVector(docTokens[i], df, n)),
			JaccardOverlap:    jaccardOverlap(qTokens, docTokens[i]),
			CSVExactFlag:      exact,
			DescriptionLength: float64(len(c.Record.Description)),
			Top1Delta:         top1Delta,
		}
	}
	return out
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// tfidfVector weights term frequency by idf = ln((N+1)/(df+1)) + 1.
func tfidfVector(tokens []string, df map[string]int, n int) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	vec := make(map[string]float64, len(tf))
	for t, f := range tf {
		idf := math.Log(float64(n+1)/float64(df[t]+1)) + 1
		vec[t] = f * idf
	}
	return vec
}

func cosine(a, b map[string]float64) float64 {
	var dot, na, nb float64
	for k, av := range a {
		dot += av * b[k]
		na += av * av
	}
	for _, bv := range b {
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// jaccardOverlap compares token sets, ignoring single-character tokens.
func jaccardOverlap(a, b []string) float64 {
	aset := make(map[string]bool)
	for _, t := range a {
		if len(t) > 1 {
			aset[t] = true
		}
	}
	bset := make(map[string]bool)
	for _, t := range b {
		if len(t) > 1 {
			bset[t] = true
		}
	}
	if len(aset) == 0 || len(bset) == 0 {
		return 0
	}
	inter := 0
	for t := range aset {
		if bset[t] {
			inter++
		}
	}
	union := len(aset) + len(bset) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
