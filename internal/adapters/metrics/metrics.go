// Package metrics exports executor and scheduler activity as Prometheus collectors.
package metrics

import (
	"errors"
	"net/http"

	"github.com/bnema/cyclerun/internal/application"
	"github.com/bnema/cyclerun/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cyclerun"

type Metrics struct {
	attempts      *prometheus.CounterVec
	results       *prometheus.CounterVec
	duration      prometheus.Histogram
	cycles        prometheus.Counter
	lastCycleTime prometheus.Gauge
}

var _ application.Observer = (*Metrics)(nil)

// New registers the collectors on reg, reusing any that are already registered.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	attempts, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_attempts_total",
		Help:      "Action attempts by outcome.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}

	results, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_results_total",
		Help:      "Job results by kind.",
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Wall time of one job, retries and cool-off included.",
		Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 180, 600, 3600, 7200},
	}))
	if err != nil {
		return nil, err
	}

	cycles, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "Completed scheduler cycles.",
	}))
	if err != nil {
		return nil, err
	}

	lastCycleTime, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_cycle_timestamp_seconds",
		Help:      "Unix time the last cycle finished.",
	}))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		attempts:      attempts,
		results:       results,
		duration:      duration,
		cycles:        cycles,
		lastCycleTime: lastCycleTime,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return collector, err
	}

	return collector, nil
}

func (m *Metrics) ObserveAttempt(_ domain.AccountID, err error) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(attemptOutcome(err)).Inc()
}

func (m *Metrics) ObserveResult(result domain.JobResult) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(string(result.Kind)).Inc()
	if d := result.Duration(); d > 0 {
		m.duration.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveCycle(report application.CycleReport) {
	if m == nil {
		return
	}
	m.cycles.Inc()
	if !report.FinishedAt.IsZero() {
		m.lastCycleTime.Set(float64(report.FinishedAt.Unix()))
	}
}

func attemptOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrNothingToDo):
		return "nothing_to_do"
	case errors.Is(err, domain.ErrAuthExpired):
		return "auth_expired"
	default:
		return "error"
	}
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
