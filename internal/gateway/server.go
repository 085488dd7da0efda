package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// PageFetcher is the upstream the service fronts. *Direct implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string) (*Page, error)
}

// Server is the HTTP fetch gateway. GET /fetch?url= answers with the page as
// text, or with "Error: <message>" and the X-Fetch-Error header on failure.
type Server struct {
	router    *gin.Engine
	fetcher   PageFetcher
	cache     *cache.Cache
	sanitizer *bluemonday.Policy
	metrics   *Metrics
	logger    *zap.Logger
	config    Config
}

// NewServer wires routes and middleware around fetcher.
func NewServer(cfg Config, fetcher PageFetcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		fetcher: fetcher,
		metrics: NewMetrics(),
		logger:  logger,
		config:  cfg,
	}
	if cfg.CacheTTL > 0 {
		s.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	if cfg.Sanitize {
		s.sanitizer = documentPolicy()
	}

	if !cfg.LogDev {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(logger))
	router.Use(s.metrics.Middleware())
	router.Use(CORS(cfg.AllowOrigins))

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	fetch := router.Group("/")
	if cfg.RateLimitEnabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimitRPS),
			zap.Int("burst", cfg.RateLimitBurst),
		)
		fetch.Use(RateLimit(RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
			IdleTTL:           cfg.RateLimitIdle,
		}))
	}
	fetch.GET("/fetch", s.handleFetch)

	s.router = router
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics exposes the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting fetch gateway", zap.String("addr", s.config.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("gateway server: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down fetch gateway")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"cache":  s.cache != nil,
	})
}

func (s *Server) handleFetch(c *gin.Context) {
	target, err := validateTarget(c.Query("url"))
	if err != nil {
		s.metrics.RecordFetch(OutcomeRejected, 0, 0)
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	if s.cache != nil {
		if v, ok := s.cache.Get(target); ok {
			page := v.(*Page)
			s.metrics.RecordFetch(OutcomeCacheHit, 0, len(page.Body))
			c.Header("X-Cache", "HIT")
			s.respond(c, page)
			return
		}
	}

	page, err := s.fetcher.FetchPage(c.Request.Context(), target)
	if err != nil {
		s.metrics.RecordFetch(OutcomeError, 0, 0)
		s.logger.Info("upstream fetch failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("url", target),
			zap.Error(err),
		)
		s.fail(c, http.StatusBadGateway, err)
		return
	}

	if s.sanitizer != nil {
		sanitized := *page
		sanitized.Body = s.sanitizer.Sanitize(page.Body)
		page = &sanitized
	}
	s.metrics.RecordFetch(OutcomeOK, page.Duration, len(page.Body))

	if s.cache != nil {
		s.cache.SetDefault(target, page)
		c.Header("X-Cache", "MISS")
	}
	s.respond(c, page)
}

func (s *Server) respond(c *gin.Context, page *Page) {
	if page.FinalURL != "" {
		c.Header("X-Final-URL", page.FinalURL)
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page.Body))
}

// fail writes the textual error sentinel plus the structured header.
func (s *Server) fail(c *gin.Context, status int, err error) {
	c.Header(HeaderFetchError, "1")
	c.String(status, "Error: %s", err.Error())
}

// validateTarget accepts absolute http(s) URLs only.
func validateTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("missing url parameter")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("url has no host")
	}
	return u.String(), nil
}

// documentPolicy is a UGC policy that keeps whole-document structure so the
// rewriter still finds <head>, <title> and <link>.
func documentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("html", "head", "body", "title", "main", "nav", "header", "footer", "section", "article", "aside")
	p.AllowAttrs("href").OnElements("base", "link")
	p.AllowAttrs("rel", "type").OnElements("link")
	p.AllowAttrs("charset", "name", "content").OnElements("meta")
	p.AllowAttrs("action", "method").OnElements("form")
	return p
}
