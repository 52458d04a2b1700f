package batch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors of a Pool.
type Metrics struct {
	flights  *prometheus.CounterVec
	duration prometheus.Histogram
	apogee   prometheus.Histogram
	steps    prometheus.Counter
}

// NewMetrics registers the collectors of a Pool on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		flights: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rocketsim_flights_total",
				Help: "Total number of simulated flights by outcome.",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rocketsim_flight_duration_seconds",
				Help:    "Wall clock duration of a simulated flight in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
		apogee: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rocketsim_apogee_meters",
				Help:    "Apogee of the simulated flights above the launch platform.",
				Buckets: prometheus.ExponentialBuckets(10, 2, 12),
			},
		),
		steps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rocketsim_steps_total",
				Help: "Total number of integration steps.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.flights, m.duration, m.apogee, m.steps)
	}
	return m
}
