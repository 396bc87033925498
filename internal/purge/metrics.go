package purge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registripe_purge_runs_total",
			Help: "Registration purge runs by outcome",
		},
		[]string{"outcome"},
	)

	registrationsPurged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registripe_purge_registrations_total",
			Help: "Registrations removed by the purge task",
		},
		[]string{"action"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "registripe_purge_duration_seconds",
			Help:    "Registration purge run latency",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)
)
