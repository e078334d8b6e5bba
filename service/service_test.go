package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ai-visibility/backend/analyzer"
	"github.com/ai-visibility/backend/fetcher"
	"github.com/ai-visibility/backend/metrics"
	"github.com/ai-visibility/backend/stats"
)

type memoryRecorder struct {
	mu       sync.Mutex
	outcomes []stats.Outcome
}

func (m *memoryRecorder) Record(o stats.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, o)
}

const articlePage = `<html><head>
<title>Guide to growing tomatoes at home</title>
<meta name="description" content="A practical guide that walks through soil, watering, sunlight, pruning and harvesting tomatoes in a small garden or on a balcony.">
<script type="application/ld+json">{"@type":"Article","headline":"Tomatoes"}</script>
</head><body><header>Garden</header><nav>Home</nav><main><article>
<h1>Growing tomatoes</h1>
<p>%s</p>
<img src="a.png" alt="Tomato plant">
</article></main><footer>Contact</footer></body></html>`

func newSite(t *testing.T, page func(w http.ResponseWriter, r *http.Request), robots func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", robots)
	mux.HandleFunc("/", page)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newService(t *testing.T) (*Service, *metrics.Metrics, *memoryRecorder) {
	t.Helper()
	client := fetcher.NewHTTPClient(5 * time.Second)
	m := metrics.New(prometheus.NewRegistry())
	rec := &memoryRecorder{}
	svc := New(fetcher.NewPageFetcher(client), fetcher.NewRobotsFetcher(client), analyzer.DefaultRules(), zap.NewNop(), m, rec)
	return svc, m, rec
}

func TestAnalyzeOptimisedPage(t *testing.T) {
	body := strings.Repeat("tomato ", 600)
	server := newSite(t,
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Replace(articlePage, "%s", body, 1)))
		},
		func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
	)
	svc, m, rec := newService(t)

	report, err := svc.Analyze(context.Background(), server.URL)
	require.NoError(t, err)

	assert.NotEmpty(t, report.AnalysisID)
	assert.Equal(t, server.URL, report.URL)
	assert.Empty(t, report.Error)
	assert.Equal(t, 100, report.Score)
	assert.Equal(t, "excellent", report.Status)
	assert.False(t, report.Summary.IsAIBlocked)
	for _, name := range analyzer.DefaultRules().Crawlers {
		assert.Equal(t, analyzer.AccessAllowed, report.Crawlers[name], name)
	}

	assert.InDelta(t, 1, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RobotsTotal.WithLabelValues("not_found")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("excellent")), 0)

	require.Len(t, rec.outcomes, 1)
	assert.Equal(t, stats.Outcome{Score: 100, Status: "excellent"}, rec.outcomes[0])
}

func TestAnalyzeAssignsFreshIDs(t *testing.T) {
	server := newSite(t,
		func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("<html><body><p>hi</p></body></html>")) },
		func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
	)
	svc, _, _ := newService(t)

	first, err := svc.Analyze(context.Background(), server.URL)
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), server.URL)
	require.NoError(t, err)

	assert.NotEqual(t, first.AnalysisID, second.AnalysisID)
	first.AnalysisID, second.AnalysisID = "", ""
	assert.Equal(t, first, second)
}

func TestAnalyzeRobotsBlocksCrawlers(t *testing.T) {
	server := newSite(t,
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Replace(articlePage, "%s", strings.Repeat("word ", 600), 1)))
		},
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("User-agent: GPTBot\nDisallow: /\n"))
		},
	)
	svc, m, rec := newService(t)

	report, err := svc.Analyze(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, analyzer.AccessBlocked, report.Crawlers["GPTBot"])
	assert.Equal(t, analyzer.AccessAllowed, report.Crawlers["ClaudeBot"])
	assert.Equal(t, 95, report.Score)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RobotsTotal.WithLabelValues("found")), 0)
	require.Len(t, rec.outcomes, 1)
	assert.True(t, rec.outcomes[0].RobotsBlocked)
}

func TestAnalyzeFallsBackWhenCrawlerRefused(t *testing.T) {
	server := newSite(t,
		func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.UserAgent(), "GPTBot") {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte("<html><body><p>served to browsers</p></body></html>"))
		},
		func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
	)
	svc, m, _ := newService(t)

	report, err := svc.Analyze(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Empty(t, report.Error)
	assert.True(t, report.Summary.IsAIBlocked)
	require.NotEmpty(t, report.Recommendations)
	assert.Equal(t, analyzer.PriorityCritical, report.Recommendations[0].Priority)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("ai_blocked")), 0)
}

func TestAnalyzeErrorStatus(t *testing.T) {
	server := newSite(t,
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) },
		func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
	)
	svc, m, rec := newService(t)

	report, err := svc.Analyze(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Score)
	assert.Equal(t, "error", report.Status)
	assert.Contains(t, report.Error, "403")
	assert.NotEmpty(t, report.AnalysisID)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("http_error")), 0)
	require.Len(t, rec.outcomes, 1)
	assert.True(t, rec.outcomes[0].Failed)
}

type failingPages struct{ err error }

func (f failingPages) Fetch(context.Context, string) (fetcher.Page, error) {
	return fetcher.Page{}, f.err
}

type noRobots struct{}

func (noRobots) Fetch(context.Context, string) analyzer.RobotsDocument {
	return analyzer.RobotsMissing()
}

func TestAnalyzeTransportError(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	svc := New(failingPages{err: errors.New("dial tcp: connection refused")}, noRobots{}, analyzer.DefaultRules(), zap.NewNop(), m, nil)

	report, err := svc.Analyze(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", report.URL)
	assert.Contains(t, report.Error, "500")
	assert.InDelta(t, 1, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("transport_error")), 0)
}

func TestAnalyzeCanceled(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	svc := New(failingPages{err: context.Canceled}, noRobots{}, analyzer.DefaultRules(), zap.NewNop(), m, nil)

	_, err := svc.Analyze(context.Background(), "example.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeInvalidURL(t *testing.T) {
	svc, _, rec := newService(t)

	for _, raw := range []string{"", "   ", "https://"} {
		_, err := svc.Analyze(context.Background(), raw)
		assert.ErrorIs(t, err, fetcher.ErrInvalidURL, raw)
	}
	assert.Empty(t, rec.outcomes)
}

type staticPage struct{}

func (staticPage) Fetch(_ context.Context, pageURL string) (fetcher.Page, error) {
	return fetcher.Page{URL: pageURL, HTML: []byte("<html></html>"), StatusCode: http.StatusOK}, nil
}

func TestAnalyzeParseFailure(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	rec := &memoryRecorder{}
	svc := New(staticPage{}, noRobots{}, analyzer.DefaultRules(), zap.NewNop(), m, rec)
	svc.parse = func([]byte) (*goquery.Document, error) {
		return nil, errors.New("parse html: unexpected EOF")
	}

	report, err := svc.Analyze(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, "error", report.Status)
	assert.Equal(t, "could not parse the page HTML", report.Error)
	assert.NotContains(t, report.Error, "status 200")
	assert.NotEmpty(t, report.AnalysisID)
	require.Len(t, rec.outcomes, 1)
	assert.True(t, rec.outcomes[0].Failed)
}
