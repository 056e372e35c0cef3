// Package answer runs the question pipeline: validation, parsing, retrieval,
// hydration, reranking and composition. Every path out of Ask produces a
// complete AnswerResult; degradation is expressed through notices, not
// failures.
package answer

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ucost/exhibitqa/internal/config"
	"github.com/ucost/exhibitqa/internal/domain"
	logpkg "github.com/ucost/exhibitqa/internal/logger"
	"github.com/ucost/exhibitqa/internal/metrics"
	"github.com/ucost/exhibitqa/internal/nlp"
)

// maxMessageChars bounds the accepted question length.
const maxMessageChars = 1000

const (
	helpAnswer = "❓ **Please provide a question about exhibits, topics, locations, or features.**\n\n💡 **Examples:**\n\n✨ \"Tell me about physics exhibits\"\n📍 \"Where is the planetarium?\"\n🎮 \"What interactive features are available?\""

	tooLongAnswer = "📏 **Your message is too long.**\n\n✂️ Please shorten it and try again.\n\n💡 Try asking one question at a time!"

	recommenderDownAnswer = "⚠️ **The AI service is unavailable right now.**\n\n🔄 Please try again shortly.\n\n💡 In the meantime, you can ask about specific exhibit names!"

	backendDownAnswer = "⚠️ **I found candidates but couldn't load details from the backend API.**\n\n🔧 Please ensure the backend is running.\n\n💡 You can still ask about exhibits by name or topic!"

	apologyAnswer = "😔 **Oops! Something went wrong.**\n\n🔄 Please try again in a moment.\n\n💡 If the problem persists, try rephrasing your question!"
)

var (
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
	urlRe       = regexp.MustCompile(`https?://\S+`)
	broadListRe = regexp.MustCompile(`some|related to|exhibits related`)
)

// Service is the answer orchestrator.
type Service struct {
	corpus      CorpusStore
	recommender Recommender
	hydrator    Hydrator
	scorer      Scorer
	cfg         *config.Config
	recorder    *metrics.Recorder
	logger      *zap.Logger
}

// NewService wires the pipeline stages together.
func NewService(
	corpus CorpusStore,
	recommender Recommender,
	hydrator Hydrator,
	scorer Scorer,
	cfg *config.Config,
	recorder *metrics.Recorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		corpus:      corpus,
		recommender: recommender,
		hydrator:    hydrator,
		scorer:      scorer,
		cfg:         cfg,
		recorder:    recorder,
		logger:      logger,
	}
}

// sanitizeInput strips markup and links from visitor text before it can
// reach templates or upstream services.
func sanitizeInput(text string) string {
	text = htmlTagRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Ask answers one visitor message. The returned error is a domain sentinel
// for request-level failures (validation, recommender outage); result always
// carries a presentable answer regardless.
func (s *Service) Ask(ctx context.Context, message string) (result domain.AnswerResult, err error) {
	start := time.Now()
	// HTTP requests carry a request-scoped logger from the middleware; the
	// CLI path mints its own request id.
	log := logpkg.FromContext(ctx, s.logger.With(zap.String("request_id", uuid.NewString())))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Answer pipeline panicked", zap.Any("panic", r))
			s.recorder.IncErrors()
			metrics.ErrorsTotal.Inc()
			result = domain.AnswerResult{Answer: apologyAnswer}
			err = fmt.Errorf("answer pipeline: %v", r)
		}
		result.Latency = time.Since(start)
		s.recorder.ObserveLatency(result.Latency)
		metrics.ChatLatency.Observe(result.Latency.Seconds())
		log.Info("Answered",
			zap.Float64("confidence", result.Confidence),
			zap.Float64("quality", result.Quality),
			zap.String("notice", result.Notice),
			zap.Duration("latency", result.Latency))
	}()

	s.recorder.IncRequests()
	s.recorder.IncChatRequests()
	metrics.RequestsTotal.Inc()
	metrics.ChatRequestsTotal.Inc()

	trimmed := strings.TrimSpace(message)
	if len(trimmed) < 2 {
		return domain.AnswerResult{Answer: helpAnswer}, domain.ErrMessageTooShort
	}
	if len(message) > maxMessageChars {
		return domain.AnswerResult{
			Answer: tooLongAnswer,
			Notice: domain.NoticePayloadTooLarge,
		}, domain.ErrPayloadTooLarge
	}

	question := sanitizeInput(trimmed)

	if nlp.IsGreeting(question) {
		return domain.AnswerResult{
			Answer:     nlp.GreetingResponse(question),
			Confidence: 1,
			Quality:    1,
		}, nil
	}

	q := nlp.Parse(question)
	keywords := nlp.SignificantTokens(q.Tokens)

	// Exact-name fast path before anything touches the network.
	if rec, ok := s.corpus.DirectMatch(q.Normalized, keywords); ok {
		return s.answerDirect(question, q, rec), nil
	}

	// Floor queries are served straight from the corpus.
	if floor, ok := nlp.DetectFloor(q.Normalized); ok {
		if res, ok := s.answerFloor(question, q, floor); ok {
			return res, nil
		}
	}

	enhanced := ExpandQuery(question, q.Normalized)

	recs, recErr := s.recommender.Recommend(ctx, enhanced, s.cfg.Recommender.Limit)
	recommenderDown := recErr != nil
	if recommenderDown {
		log.Warn("Recommender unavailable, degrading to corpus retrieval", zap.Error(recErr))
		s.recorder.IncErrors()
		metrics.ErrorsTotal.Inc()
	}

	if recommenderDown || s.cfg.Corpus.CSVFirst {
		count := q.Count
		if count <= 0 {
			if q.Intent == domain.IntentList || broadListRe.MatchString(q.Normalized) {
				count = 5
			} else {
				count = s.cfg.Answer.MaxListItems
			}
		}
		if matches := s.corpusCandidates(q.Topic, count); len(matches) > 0 {
			notice := ""
			if recommenderDown {
				notice = domain.NoticeDegradedCSVOnly
			}
			return s.answerFromCorpus(question, q, matches, 0.7, notice), nil
		}
	}
	if recommenderDown {
		return domain.AnswerResult{
			Answer: recommenderDownAnswer,
			Notice: domain.NoticeRecommenderDown,
		}, fmt.Errorf("recommend: %w", recErr)
	}

	filtered := recs[:0:0]
	for _, r := range recs {
		if r.Score >= s.cfg.Answer.MinSemanticScore {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		count := q.Count
		if count <= 0 {
			count = 5
		}
		if matches := s.corpusCandidates(q.Topic, count); len(matches) > 0 {
			return s.answerFromCorpus(question, q, matches, 0.6, domain.NoticeCSVFallback), nil
		}
		return domain.AnswerResult{
			Answer:     noMatchesAnswer(q.Topic),
			Confidence: 0.2,
			Notice:     domain.NoticeNoMatches,
		}, nil
	}

	return s.answerSemantic(ctx, log, question, q, filtered), nil
}

// answerDirect serves an exact name or alias hit. The matched exhibit leads,
// padded with other curated records so list-style questions still get range.
func (s *Service) answerDirect(question string, q domain.Query, rec domain.ExhibitRecord) domain.AnswerResult {
	cands := []domain.Candidate{{ID: rec.ID, Source: domain.SourceDirect, Record: rec}}
	for _, other := range s.corpus.Records() {
		if len(cands) == 5 {
			break
		}
		if other.ID == rec.ID || other.IsDebug() {
			continue
		}
		cands = append(cands, domain.Candidate{ID: other.ID, Source: domain.SourceCorpus, Record: other})
	}
	ans := Sanitize(Compose(question, cands, s.limits(q)))
	quality := s.scorer.Quality(cands, q)
	return domain.AnswerResult{
		Answer:     ans,
		Exhibits:   views(cands),
		Sources:    sources(cands, len(cands)),
		Confidence: maxf(0.9, quality),
		Quality:    maxf(0.8, quality),
	}
}

func (s *Service) answerFloor(question string, q domain.Query, floor string) (domain.AnswerResult, bool) {
	matches := s.corpus.FloorMatches(floor)
	if len(matches) == 0 {
		return domain.AnswerResult{}, false
	}
	desired := q.Count
	if desired <= 0 {
		desired = s.cfg.Answer.MaxListItems
	}
	if desired < 3 {
		desired = 3
	}
	if len(matches) > desired {
		matches = matches[:desired]
	}
	cands := candidatesOf(matches, domain.SourceCorpus)
	ans := Sanitize(Compose(question, cands, s.limits(q)))
	quality := s.scorer.Quality(cands, q)
	return domain.AnswerResult{
		Answer:     ans,
		Exhibits:   views(cands),
		Sources:    sources(cands, len(cands)),
		Confidence: maxf(0.75, quality),
		Quality:    quality,
		Notice:     domain.NoticeFloorFilter,
	}, true
}

// corpusCandidates returns topic-scored corpus records with debug rows dropped.
func (s *Service) corpusCandidates(topic string, limit int) []domain.ExhibitRecord {
	matches := s.corpus.TopicMatches(topic, limit)
	out := matches[:0:0]
	for _, rec := range matches {
		if !rec.IsDebug() {
			out = append(out, rec)
		}
	}
	return out
}

func (s *Service) answerFromCorpus(question string, q domain.Query, matches []domain.ExhibitRecord, confFloor float64, notice string) domain.AnswerResult {
	cands := candidatesOf(matches, domain.SourceCorpus)
	ans := Sanitize(Compose(question, cands, s.limits(q)))
	quality := s.scorer.Quality(cands, q)
	return domain.AnswerResult{
		Answer:     ans,
		Exhibits:   views(cands),
		Sources:    sources(cands, len(cands)),
		Confidence: maxf(confFloor, quality),
		Quality:    quality,
		Notice:     notice,
	}
}

// answerSemantic is the main path: hydrate the recommended ids, enforce the
// parsed topic and count, rerank, compose.
func (s *Service) answerSemantic(ctx context.Context, log *zap.Logger, question string, q domain.Query, recs []domain.Recommendation) domain.AnswerResult {
	if len(recs) > 10 {
		recs = recs[:10]
	}
	ids := make([]string, len(recs))
	scoreByID := make(map[string]float64, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
		scoreByID[r.ID] = r.Score
	}

	records := s.hydrator.Hydrate(ctx, ids)
	if len(records) == 0 {
		return domain.AnswerResult{
			Answer:     backendDownAnswer,
			Confidence: 0.3,
			Notice:     domain.NoticeBackendUnreachable,
		}
	}

	cands := make([]domain.Candidate, 0, len(records))
	for _, rec := range records {
		if rec.IsDebug() {
			continue
		}
		cands = append(cands, domain.Candidate{
			ID:       rec.ID,
			Source:   domain.SourceSemantic,
			Upstream: scoreByID[rec.ID],
			Record:   rec,
		})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Upstream > cands[j].Upstream })
	cands = domain.DedupCandidates(cands)

	cands = s.enforceTopic(q, cands)
	cands = s.scorer.Rerank(question, cands, "")

	if len(cands) == 0 {
		return domain.AnswerResult{
			Answer:     noMatchesAnswer(q.Topic),
			Confidence: 0.2,
			Notice:     domain.NoticeNoMatches,
		}
	}

	ans := Sanitize(Compose(question, cands, s.limits(q)))
	quality := s.scorer.Quality(cands, q)
	topUpstream := cands[0].Upstream
	if topUpstream == 0 {
		topUpstream = 0.6
	}
	topRerank := cands[0].RerankScore
	if topRerank == 0 {
		topRerank = 0.6
	}
	confidence := s.scorer.Confidence(topUpstream, topRerank, quality)

	log.Debug("Semantic pipeline completed",
		zap.Int("candidates", len(cands)),
		zap.Bool("reranker", s.scorer.Available()))

	return domain.AnswerResult{
		Answer:     ans,
		Exhibits:   views(cands),
		Sources:    sources(cands, 5),
		Confidence: maxf(confidence, quality),
		Quality:    quality,
	}
}

// enforceTopic trims the candidate set to the parsed topic: strict category
// matches win, then loose name/description matches, then the set as-is.
func (s *Service) enforceTopic(q domain.Query, cands []domain.Candidate) []domain.Candidate {
	desired := q.Count
	if desired <= 0 {
		desired = s.cfg.Answer.MaxListItems
	}

	if q.Topic == "" {
		if q.Intent == domain.IntentList || broadListRe.MatchString(q.Normalized) {
			if desired < 5 {
				desired = 5
			}
			if len(cands) > desired {
				cands = cands[:desired]
			}
		}
		return cands
	}

	terms := append([]string{q.Topic}, nlp.TopicSynonyms(q.Topic)...)

	var strict []domain.Candidate
	for _, c := range cands {
		cat := strings.ToLower(c.Record.Category)
		for _, t := range terms {
			if t != "" && strings.Contains(cat, t) {
				strict = append(strict, c)
				break
			}
		}
	}
	if len(strict) >= 1 {
		if len(strict) > desired {
			strict = strict[:desired]
		}
		return strict
	}

	var loose []domain.Candidate
	for _, c := range cands {
		name := strings.ToLower(c.Record.Name)
		desc := strings.ToLower(c.Record.Description)
		full := name + " " + desc
		for _, t := range terms {
			if t == "" {
				continue
			}
			if strings.Contains(name, t) || strings.Contains(desc, t) || nlp.FuzzyIncludes(full, t, 2) {
				loose = append(loose, c)
				break
			}
		}
	}
	if len(loose) > 0 {
		cands = loose
	}
	if len(cands) > desired {
		cands = cands[:desired]
	}
	return cands
}

func (s *Service) limits(q domain.Query) ComposeLimits {
	a := s.cfg.Answer
	l := ComposeLimits{
		SingleMax:    a.SingleSummaryMaxChars,
		UnknownMax:   a.UnknownSummaryMaxChars,
		ListMax:      a.ListSummaryMaxChars,
		MaxListItems: a.MaxListItems,
		MaxFeatures:  a.MaxFeatures,
	}
	if q.Brevity {
		l.SingleMax = a.BriefSingleMaxChars
		l.ListMax = a.BriefListMaxChars
	}
	return l
}

func noMatchesAnswer(topic string) string {
	hint := "🔍 **I couldn't find specific information about that topic. Try asking about:**"
	if topic != "" {
		hint = fmt.Sprintf("🔍 **I couldn't find exhibits specifically about %q, but you might try:**", topic)
	}
	return hint + "\n\n🔬 Physics and optics (e.g., \"CV Raman\")\n🧬 Biology and genetics (e.g., \"DNA\", \"evolution\")\n🚀 Space and astronomy (e.g., \"NASA\", \"planets\")\n🤖 Technology and AI (e.g., \"robotics\", \"artificial intelligence\")\n⚗️ Chemistry and materials\n🌍 Geography and earth science\n\n💡 **Or ask about a specific exhibit by name!**"
}

func candidatesOf(recs []domain.ExhibitRecord, src domain.CandidateSource) []domain.Candidate {
	out := make([]domain.Candidate, len(recs))
	for i, rec := range recs {
		out[i] = domain.Candidate{ID: rec.ID, Source: src, Record: rec}
	}
	return out
}

func views(cands []domain.Candidate) []domain.ExhibitView {
	out := make([]domain.ExhibitView, len(cands))
	for i, c := range cands {
		out[i] = domain.ViewOf(c.Record, c.Upstream, c.RerankScore)
	}
	return out
}

func sources(cands []domain.Candidate, limit int) []domain.AnswerSource {
	if len(cands) < limit {
		limit = len(cands)
	}
	out := make([]domain.AnswerSource, limit)
	for i := 0; i < limit; i++ {
		out[i] = domain.AnswerSource{Source: cands[i].ID, Name: cands[i].Record.Name}
	}
	return out
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
