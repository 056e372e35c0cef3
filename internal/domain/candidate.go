package domain

// CandidateSource tells which retrieval stage produced a candidate.
type CandidateSource string

const (
	SourceSemantic CandidateSource = "semantic"
	SourceCorpus   CandidateSource = "corpus"
	SourceDirect   CandidateSource = "direct"
)

// Recommendation is one entry of the semantic recommender response.
type Recommendation struct {
	ID    string
	Score float64
}

// Candidate is an exhibit under consideration for an answer: the hydrated
// record plus provenance and scoring metadata.
type Candidate struct {
	ID          string
	Source      CandidateSource
	Upstream    float64 // raw recommender score
	RerankScore float64 // model-adjusted score used for final ordering
	Record      ExhibitRecord
}

// DedupCandidates drops candidates whose identifier was already seen,
// preserving first-occurrence order. No two candidates in a response may
// share an identifier.
func DedupCandidates(cands []Candidate) []Candidate {
	seen := make(map[string]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if c.ID == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}
