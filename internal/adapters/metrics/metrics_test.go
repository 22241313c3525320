package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bnema/cyclerun/internal/application"
	"github.com/bnema/cyclerun/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountsAttemptsByOutcome(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveAttempt("a", nil)
	m.ObserveAttempt("a", errors.New("timeout"))
	m.ObserveAttempt("a", errors.New("timeout"))
	m.ObserveAttempt("b", domain.ErrAuthExpired)
	m.ObserveAttempt("c", domain.ErrNothingToDo)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("auth_expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("nothing_to_do")))
}

func TestMetricsResultsAndCycles(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	start := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	m.ObserveResult(domain.JobResult{Kind: domain.ResultSuccess, StartedAt: start, FinishedAt: start.Add(3 * time.Second)})
	m.ObserveResult(domain.Skipped("b", domain.SkipReasonCooldown))
	m.ObserveCycle(application.CycleReport{Cycle: 1, FinishedAt: start.Add(time.Minute)})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.results.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.results.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycles))
	assert.Equal(t, float64(start.Add(time.Minute).Unix()), testutil.ToFloat64(m.lastCycleTime))
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := New(reg)
	require.NoError(t, err)
	second, err := New(reg)
	require.NoError(t, err)

	first.ObserveAttempt("a", nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(second.attempts.WithLabelValues("success")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAttempt("a", nil)
	m.ObserveResult(domain.JobResult{})
	m.ObserveCycle(application.CycleReport{})
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.ObserveCycle(application.CycleReport{FinishedAt: time.Now()})

	recorder := httptest.NewRecorder()
	Handler(reg).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "cyclerun_cycles_total 1")
}
