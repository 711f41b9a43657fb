package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservers(t *testing.T) {
	m := New()

	m.ObserveRetrieval("wikipedia", true)
	m.ObserveRetrieval("wikipedia", false)
	m.ObserveRetrieval("duckduckgo", false)
	m.ObserveLLMCall(time.Second, nil)
	m.ObserveLLMCall(time.Second, errors.New("quota"))
	m.ObserveQuizGeneration(true)
	m.ObserveEvaluation(true)
	m.ObserveEvaluation(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetrievalResults.WithLabelValues("wikipedia", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetrievalResults.WithLabelValues("duckduckgo", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMCalls.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuizGenerations.WithLabelValues("fallback")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.QuizEvaluations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MasteryAchieved))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRetrieval("wikipedia", true)
		m.ObserveLLMCall(time.Second, nil)
		m.ObserveQuizGeneration(false)
		m.ObserveEvaluation(true)
		m.ObserveExplanation("placeholder")
	})
	assert.Nil(t, m.Registry())
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	router.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("GET", "/ping", "200")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "concept_explainer_http_requests_total")
}
