package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status            Status
	Checks            map[string]CheckResult
	CorpusCount       int
	RerankerAvailable bool
}

// Service coordinates health checks.
type Service struct {
	recommender Pinger
	backend     Pinger
	corpus      CorpusCounter
	reranker    bool
	timeout     time.Duration
}

// New creates a Service. rerankerAvailable is fixed at startup: the model
// either loaded or it did not.
func New(recommender, backend Pinger, corpus CorpusCounter, rerankerAvailable bool, timeout time.Duration) *Service {
	return &Service{
		recommender: recommender,
		backend:     backend,
		corpus:      corpus,
		reranker:    rerankerAvailable,
		timeout:     timeout,
	}
}

// Check probes the recommender and the backend with a per-probe timeout.
// The service itself stays up when upstreams are down; the report says so.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["recommender"] = s.probe(ctx, s.recommender)
	checks["backend"] = s.probe(ctx, s.backend)

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{
		Status:            status,
		Checks:            checks,
		CorpusCount:       s.corpus.Count(),
		RerankerAvailable: s.reranker,
	}
}

func (s *Service) probe(ctx context.Context, p Pinger) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
