// Package api exposes the sentence pipeline over HTTP.
//
// Routes:
//
//	POST /api/v2/generate  run the pipeline for one request
//	GET  /api/v2/targets/en English target phonemes with IPA and examples
//	GET  /health           static liveness document
//	GET  /healthz, /readyz liveness and readiness probes
//	GET  /metrics          Prometheus exposition
//
// Every response from /api/v2 uses the success or error envelope from
// package therapy.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/talktalk/internal/health"
	"github.com/MrWong99/talktalk/internal/observe"
	"github.com/MrWong99/talktalk/internal/phoneme"
	"github.com/MrWong99/talktalk/internal/pipeline"
	"github.com/MrWong99/talktalk/pkg/therapy"
)

// Version is reported by GET /health.
const Version = "2.0.0"

// Runner runs one generation request. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req *therapy.Request) (*pipeline.Result, error)
}

// Server holds the HTTP routes. Build it with [New] and mount
// [Server.Handler] on an http.Server.
type Server struct {
	runner         Runner
	health         *health.Handler
	metrics        *observe.Metrics
	gatherer       prometheus.Gatherer
	allowedOrigins []string
	requestTimeout time.Duration
}

// Option configures a [Server].
type Option func(*Server)

// WithHealth mounts /healthz and /readyz backed by h.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetrics sets the instruments used by the request middleware.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithAllowedOrigins enables CORS for the listed origins. "*" allows any.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithRequestTimeout bounds each pipeline run. Zero means no limit beyond
// the client's own connection.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.requestTimeout = d }
}

// New creates a [Server] that forwards generation requests to runner.
func New(runner Runner, opts ...Option) *Server {
	s := &Server{
		runner:   runner,
		metrics:  observe.DefaultMetrics(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the gin engine with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), observe.Middleware(s.metrics))
	if len(s.allowedOrigins) > 0 {
		r.Use(corsMiddleware(s.allowedOrigins))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": Version})
	})
	if s.health != nil {
		s.health.Register(r)
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	v2 := r.Group("/api/v2")
	v2.POST("/generate", s.generate)
	v2.GET("/targets/en", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": phoneme.EnglishTargets()})
	})
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "Traceparent"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			cfg.AllowOrigins = nil
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}
