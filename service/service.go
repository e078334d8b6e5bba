// Package service runs one visibility analysis end to end: fetch, evaluate,
// then record the outcome.
package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ai-visibility/backend/analyzer"
	"github.com/ai-visibility/backend/fetcher"
	"github.com/ai-visibility/backend/metrics"
	"github.com/ai-visibility/backend/stats"
)

// PageSource fetches the page under analysis.
type PageSource interface {
	Fetch(ctx context.Context, pageURL string) (fetcher.Page, error)
}

// RobotsSource fetches the robots document for a page's origin.
type RobotsSource interface {
	Fetch(ctx context.Context, pageURL string) analyzer.RobotsDocument
}

// Recorder stores per-analysis aggregates.
type Recorder interface {
	Record(o stats.Outcome)
}

// Service wires the fetchers to the analyzer.
type Service struct {
	pages   PageSource
	robots  RobotsSource
	rules   analyzer.Rules
	logger  *zap.Logger
	metrics *metrics.Metrics
	stats   Recorder
	parse   func([]byte) (*goquery.Document, error)
}

// New creates a Service. stats may be nil.
func New(pages PageSource, robots RobotsSource, rules analyzer.Rules, logger *zap.Logger, m *metrics.Metrics, rec Recorder) *Service {
	return &Service{
		pages:   pages,
		robots:  robots,
		rules:   rules,
		logger:  logger,
		metrics: m,
		stats:   rec,
		parse:   analyzer.ParseHTML,
	}
}

// Analyze evaluates rawURL. Only an invalid URL is an error; unreachable pages
// produce an error report.
func (s *Service) Analyze(ctx context.Context, rawURL string) (*analyzer.Report, error) {
	start := time.Now()

	pageURL, err := fetcher.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("url", pageURL))

	page, err := s.pages.Fetch(ctx, pageURL)
	switch {
	case err != nil:
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		log.Warn("page fetch failed", zap.Error(err))
		s.metrics.FetchesTotal.WithLabelValues("transport_error").Inc()
		return s.finish(log, pageURL, analyzer.ErrorReport(http.StatusInternalServerError), start), nil
	case page.StatusCode >= http.StatusBadRequest:
		log.Warn("page returned error status", zap.Int("status", page.StatusCode), zap.Bool("ai_blocked", page.AIBlocked))
		s.metrics.FetchesTotal.WithLabelValues("http_error").Inc()
		return s.finish(log, pageURL, analyzer.ErrorReport(page.StatusCode), start), nil
	case page.AIBlocked:
		s.metrics.FetchesTotal.WithLabelValues("ai_blocked").Inc()
	default:
		s.metrics.FetchesTotal.WithLabelValues("ok").Inc()
	}

	doc, err := s.parse(page.HTML)
	if err != nil {
		log.Warn("html parse failed", zap.Error(err))
		return s.finish(log, pageURL, analyzer.UnparsableReport(), start), nil
	}

	robots := s.robots.Fetch(ctx, pageURL)
	outcome := robotsOutcome(robots.State)
	s.metrics.RobotsTotal.WithLabelValues(outcome).Inc()
	if robots.State == analyzer.RobotsUnavailable {
		log.Debug("robots unavailable", zap.String("note", robots.Note))
	}
	log = log.With(zap.String("robots", outcome))

	report := analyzer.Evaluate(doc, robots, page.AIBlocked, s.rules)
	return s.finish(log, pageURL, report, start), nil
}

func (s *Service) finish(log *zap.Logger, pageURL string, report *analyzer.Report, start time.Time) *analyzer.Report {
	report.AnalysisID = uuid.NewString()
	report.URL = pageURL

	failed := report.Error != ""
	elapsed := time.Since(start)

	s.metrics.AnalysesTotal.WithLabelValues(report.Status).Inc()
	s.metrics.AnalysisDuration.Observe(elapsed.Seconds())
	if !failed {
		s.metrics.AnalysisScore.Observe(float64(report.Score))
	}

	if s.stats != nil {
		s.stats.Record(stats.Outcome{
			Score:         report.Score,
			Status:        report.Status,
			Failed:        failed,
			AIBlocked:     report.Summary.IsAIBlocked,
			SPAEmpty:      report.Summary.IsSPAEmpty,
			RobotsBlocked: !failed && blockedCount(report.Crawlers) > 0,
		})
	}

	log.Info("analysis complete",
		zap.String("analysis_id", report.AnalysisID),
		zap.Int("score", report.Score),
		zap.String("status", report.Status),
		zap.Bool("ai_blocked", report.Summary.IsAIBlocked),
		zap.Int("recommendations", len(report.Recommendations)),
		zap.Duration("elapsed", elapsed),
	)
	return report
}

func robotsOutcome(state analyzer.RobotsState) string {
	switch state {
	case analyzer.RobotsFound:
		return "found"
	case analyzer.RobotsNotFound:
		return "not_found"
	default:
		return "unavailable"
	}
}

func blockedCount(crawlers map[string]analyzer.Access) int {
	n := 0
	for _, a := range crawlers {
		if a == analyzer.AccessBlocked {
			n++
		}
	}
	return n
}
