package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "concept_explainer"

// Metrics groups the collectors used across the pipeline. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	RetrievalResults *prometheus.CounterVec
	LLMCalls         *prometheus.CounterVec
	LLMDuration      prometheus.Histogram
	QuizGenerations  *prometheus.CounterVec
	QuizEvaluations  prometheus.Counter
	MasteryAchieved  prometheus.Counter
	Explanations     *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestCount: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route"}),
		RetrievalResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_results_total",
			Help:      "Source lookups by backend and outcome.",
		}, []string{"backend", "outcome"}),
		LLMCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Generation calls by outcome.",
		}, []string{"outcome"}),
		LLMDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "Generation call latency.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}),
		QuizGenerations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quiz_generations_total",
			Help:      "Generated quizzes by outcome (valid or fallback).",
		}, []string{"outcome"}),
		QuizEvaluations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quiz_evaluations_total",
			Help:      "Graded quiz submissions.",
		}),
		MasteryAchieved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mastery_achieved_total",
			Help:      "Submissions that reached the mastery threshold.",
		}),
		Explanations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explanations_total",
			Help:      "Explanations by mode (sourced, unsourced, placeholder, error).",
		}, []string{"mode"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRetrieval(backend string, found bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if found {
		outcome = "hit"
	}
	m.RetrievalResults.WithLabelValues(backend, outcome).Inc()
}

func (m *Metrics) ObserveLLMCall(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.LLMCalls.WithLabelValues(outcome).Inc()
	m.LLMDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveQuizGeneration(fallback bool) {
	if m == nil {
		return
	}
	outcome := "valid"
	if fallback {
		outcome = "fallback"
	}
	m.QuizGenerations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveEvaluation(mastery bool) {
	if m == nil {
		return
	}
	m.QuizEvaluations.Inc()
	if mastery {
		m.MasteryAchieved.Inc()
	}
}

func (m *Metrics) ObserveExplanation(mode string) {
	if m == nil {
		return
	}
	m.Explanations.WithLabelValues(mode).Inc()
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestCount.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Status(http.StatusNotFound) }
	}
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
