// Package metrics holds the Prometheus collectors of the FitForge server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests           *prometheus.CounterVec
	CounterHandleRequestPanic prometheus.Counter
	CounterRecommendations    *prometheus.CounterVec
	CounterBottlenecks        prometheus.Counter
	CounterWorkouts           prometheus.Counter
	CounterSets               prometheus.Counter

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistRequestDuration *prometheus.HistogramVec
	HistWorkoutSets     prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("fitforge", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("fitforge", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterRecommendations := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "recommendations",
		Help:      "The total number of recommended exercises, by safety",
	}, []string{"safety"})
	counterBottlenecks := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "forecast_bottlenecks",
		Help:      "The total number of muscles flagged as bottlenecks by forecasts",
	})
	counterWorkouts := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workouts_completed",
		Help:      "The total number of completed workouts",
	})
	counterSets := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sets_logged",
		Help:      "The total number of logged sets",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})

	histRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})
	histWorkoutSets := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workout_sets",
		Help:      "Number of sets per completed workout",
		Buckets:   []float64{1, 5, 10, 15, 20, 30, 50},
	})

	return &Manager{
		CounterRequests:           counterRequests,
		CounterHandleRequestPanic: counterHandleRequestPanic,
		CounterRecommendations:    counterRecommendations,
		CounterBottlenecks:        counterBottlenecks,
		CounterWorkouts:           counterWorkouts,
		CounterSets:               counterSets,
		GaugeRequests:             gaugeRequests,
		HistRequestDuration:       histRequestDuration,
		HistWorkoutSets:           histWorkoutSets,
	}
}

// RecommendationsServed counts one recommendation response.
func (m *Manager) RecommendationsServed(safe, unsafe int) {
	m.CounterRecommendations.WithLabelValues("safe").Add(float64(safe))
	m.CounterRecommendations.WithLabelValues("unsafe").Add(float64(unsafe))
}

func (m *Manager) BottlenecksFlagged(n int) {
	m.CounterBottlenecks.Add(float64(n))
}

func (m *Manager) WorkoutCompleted(sets int) {
	m.CounterWorkouts.Inc()
	m.CounterSets.Add(float64(sets))
	m.HistWorkoutSets.Observe(float64(sets))
}
