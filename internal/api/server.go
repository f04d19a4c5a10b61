// Package api serves scores, gaps and gap classifications over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/compliance-cli/internal/model"
)

// Scorer computes scores on demand. *scoring.Engine satisfies it.
type Scorer interface {
	ComputeQuestionScore(ctx context.Context, answerID string) (*model.QuestionScore, error)
	ComputeSectionScore(ctx context.Context, sectionID, assessmentID string) (*model.SectionScore, error)
	ComputeOverallScore(ctx context.Context, assessmentID string) (*model.OverallScore, error)
}

// ScoreCache returns previously stored overall scores.
type ScoreCache interface {
	GetOverallScore(ctx context.Context, assessmentID string) (*model.OverallScore, error)
}

// Options configures the router.
type Options struct {
	// GapThreshold is the default gap threshold when a request sets none.
	GapThreshold float64
	// RateLimit is the allowed requests per second. Zero disables limiting.
	RateLimit float64
	RateBurst int
	// AllowedOrigins lists CORS origins. Empty allows any origin.
	AllowedOrigins []string
	// Cache serves ?cached=true overall score requests. Nil disables caching.
	Cache ScoreCache
	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	// RequestTimeout bounds each request. Zero means no timeout.
	RequestTimeout time.Duration
}

type server struct {
	scorer Scorer
	opts   Options
}

// NewRouter returns the HTTP handler for the scoring API.
func NewRouter(scorer Scorer, opts Options) http.Handler {
	s := &server{scorer: scorer, opts: opts}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(rateLimit(opts.RateLimit, opts.RateBurst))
		if opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(opts.RequestTimeout))
		}

		r.Get("/answers/{answerID}/score", s.questionScore)
		r.Route("/assessments/{assessmentID}", func(r chi.Router) {
			r.Get("/score", s.overallScore)
			r.Get("/sections/{sectionID}/score", s.sectionScore)
			r.Get("/gaps", s.gaps)
		})
		r.Post("/gaps/classify", s.classify)
	})

	return r
}
