package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ai-visibility/backend/config"
	"github.com/ai-visibility/backend/fetcher"
	"github.com/ai-visibility/backend/logging"
	"github.com/ai-visibility/backend/metrics"
	"github.com/ai-visibility/backend/middleware"
	"github.com/ai-visibility/backend/service"
	"github.com/ai-visibility/backend/stats"
)

const maintenanceInterval = time.Hour

// analyzeRequest is the body of POST /api/analyze.
type analyzeRequest struct {
	URL string `json:"url" binding:"required"`
}

type server struct {
	svc      *service.Service
	stats    *stats.Storage
	logger   *zap.Logger
	metrics  *metrics.Metrics
	limiter  *middleware.RateLimiter
	origins  []string
	gatherer prometheus.Gatherer
}

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		logger.Fatal("failed to load rules", zap.String("file", cfg.RulesFile), zap.Error(err))
	}

	store, err := stats.NewStorage(cfg.StatsDir)
	if err != nil {
		logger.Fatal("failed to open statistics storage", zap.String("dir", cfg.StatsDir), zap.Error(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	svc := service.New(
		fetcher.NewPageFetcher(fetcher.NewHTTPClient(cfg.FetchTimeout)),
		fetcher.NewRobotsFetcher(fetcher.NewHTTPClient(cfg.RobotsTimeout)),
		rules,
		logger,
		m,
		store,
	)

	s := &server{
		svc:      svc,
		stats:    store,
		logger:   logger,
		metrics:  m,
		limiter:  middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		origins:  cfg.CORSOrigins,
		gatherer: prometheus.DefaultGatherer,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go s.maintain(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := store.Shutdown(); err != nil {
		logger.Error("statistics flush", zap.Error(err))
	}
}

func (s *server) router() *gin.Engine {
	r := gin.New()

	r.Use(middleware.ErrorHandler(s.logger))
	r.Use(middleware.RequestLogger(s.logger, s.metrics))
	r.Use(middleware.CORS(s.origins))

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})

		api.POST("/analyze", s.limiter.RateLimit(), s.analyzeURL)

		api.GET("/statistics", s.statistics)
	}

	return r
}

func (s *server) analyzeURL(c *gin.Context) {
	var request analyzeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid URL provided",
		})
		return
	}

	report, err := s.svc.Analyze(c.Request.Context(), request.URL)
	switch {
	case errors.Is(err, fetcher.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid URL provided",
		})
		return
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to analyze URL",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *server) statistics(c *gin.Context) {
	current := s.stats.GetCurrentStats()
	c.JSON(http.StatusOK, gin.H{
		"analyses":       current.Analyses,
		"errors":         current.Errors,
		"ai_blocked":     current.AIBlocked,
		"spa_empty":      current.SPAEmpty,
		"robots_blocked": current.RobotsBlocked,
		"average_score":  current.AverageScore(),
		"status_counts":  current.StatusCounts,
		"months":         s.stats.GetAllMonths(),
	})
}

// maintain prunes idle rate-limit buckets and old statistics.
func (s *server) maintain(ctx context.Context) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned := s.limiter.Prune()
			s.stats.Cleanup()
			s.logger.Debug("maintenance", zap.Int("pruned_clients", pruned))
		}
	}
}
