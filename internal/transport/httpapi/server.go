// Package httpapi exposes the answer pipeline over HTTP with a chi router.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ucost/exhibitqa/internal/domain"
	logpkg "github.com/ucost/exhibitqa/internal/logger"
	"github.com/ucost/exhibitqa/internal/metrics"
	healthuc "github.com/ucost/exhibitqa/internal/usecase/health"
	"github.com/ucost/exhibitqa/internal/version"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest       = "bad_request"
	codeReloadInProgress = "reload_in_progress"
	codeInternalError    = "internal_error"
)

// Answerer runs the question pipeline.
type Answerer interface {
	Ask(ctx context.Context, message string) (domain.AnswerResult, error)
}

// HealthChecker probes the service dependencies.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// CorpusReloader re-reads the exhibit corpus.
type CorpusReloader interface {
	Reload(ctx context.Context) (int, error)
}

// Server implements the HTTP API.
type Server struct {
	answers  Answerer
	health   HealthChecker
	corpus   CorpusReloader
	recorder *metrics.Recorder
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	answers Answerer,
	health HealthChecker,
	corpus CorpusReloader,
	recorder *metrics.Recorder,
	logger *zap.Logger,
) *Server {
	return &Server{
		answers:  answers,
		health:   health,
		corpus:   corpus,
		recorder: recorder,
		logger:   logger,
	}
}

// Routes registers the API endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/chat", s.Chat)
	r.Get("/api/health", s.HealthCheck)
	r.Post("/api/admin/reload", s.Reload)
	r.Get("/api/stats", s.Stats)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// Chat handles POST /api/chat. Degraded answers ship with HTTP 200 and a
// notice field; only malformed or rejected input gets an error status.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	log := logpkg.FromContext(r.Context(), s.logger)
	res, err := s.answers.Ask(r.Context(), req.Message)
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrMessageTooShort):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrPayloadTooLarge):
		status = http.StatusRequestEntityTooLarge
	case res.Answer != "":
		// The pipeline degraded but still produced a presentable answer.
		log.Warn("Answer pipeline degraded", zap.Error(err), zap.String("notice", res.Notice))
	default:
		log.Error("Answer pipeline failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
		return
	}

	writeJSON(w, status, NewChatResponse(res))
}

// healthResponse is the GET /api/health body.
type healthResponse struct {
	Status            string            `json:"status"`
	Checks            map[string]string `json:"checks"`
	CorpusCount       int               `json:"corpusCount"`
	RerankerAvailable bool              `json:"rerankerAvailable"`
	Version           string            `json:"version"`
}

// HealthCheck handles GET /api/health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, healthResponse{
		Status:            string(report.Status),
		Checks:            checks,
		CorpusCount:       report.CorpusCount,
		RerankerAvailable: report.RerankerAvailable,
		Version:           version.Version,
	})
}

// Reload handles POST /api/admin/reload.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	n, err := s.corpus.Reload(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrReloadInProgress) {
			writeError(w, http.StatusConflict, codeReloadInProgress, "corpus reload already running")
			return
		}
		logpkg.FromContext(r.Context(), s.logger).Error("Corpus reload failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "corpus reload failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "count": n})
}

// Stats handles GET /api/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	snap := s.recorder.TakeSnapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"requestsTotal":     snap.RequestsTotal,
		"chatRequests":      snap.ChatRequests,
		"recommenderCalls":  snap.RecommenderCalls,
		"backendBatchCalls": snap.BackendBatchCalls,
		"backendItemCalls":  snap.BackendItemCalls,
		"errors":            snap.Errors,
		"latency": map[string]any{
			"p50Ms": snap.Latency.P50,
			"p95Ms": snap.Latency.P95,
			"p99Ms": snap.Latency.P99,
			"count": snap.Latency.Count,
		},
		"timestamp": snap.Timestamp,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
