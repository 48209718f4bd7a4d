// Package metrics exposes Prometheus collectors for the booking engine.
// A nil *Metrics is valid and records nothing, which keeps tests free of
// registry plumbing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	requests  *prometheus.CounterVec
	seats     prometheus.Counter
	conflicts prometheus.Counter
	replans   prometheus.Counter
	attempts  prometheus.Histogram
	resets    prometheus.Counter
}

// New builds the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "requests_total",
			Help:      "Booking requests by outcome.",
		}, []string{"outcome"}),
		seats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "seats_booked_total",
			Help:      "Seats committed to successful bookings.",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "commit_conflicts_total",
			Help:      "Row commits rejected because a seat was taken concurrently.",
		}),
		replans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "replans_total",
			Help:      "Plans discarded as stale and recomputed from a fresh snapshot.",
		}),
		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "booking",
			Name:      "attempts",
			Help:      "Planner attempts needed per booking.",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "resets_total",
			Help:      "Administrative inventory resets.",
		}),
	}
	reg.MustRegister(m.requests, m.seats, m.conflicts, m.replans, m.attempts, m.resets)
	return m
}

// Request records the outcome of one booking call ("ok" or an error kind).
func (m *Metrics) Request(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SeatsBooked(n int) {
	if m == nil {
		return
	}
	m.seats.Add(float64(n))
}

func (m *Metrics) Conflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

func (m *Metrics) Replan() {
	if m == nil {
		return
	}
	m.replans.Inc()
}

func (m *Metrics) Attempts(n int) {
	if m == nil {
		return
	}
	m.attempts.Observe(float64(n))
}

func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.resets.Inc()
}
