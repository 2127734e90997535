// Package monitoring keeps the bot's cycle counters and exposes them to
// Prometheus.
package monitoring

import (
	"maps"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	CycleErrors        = "cycle_errors"
	CycleDurationTotal = "cycle_duration_total"
	LastCycleDuration  = "last_cycle_duration"
)

// Recorder accumulates named counters in memory and mirrors every update
// into its own Prometheus registry.
type Recorder struct {
	mu       sync.Mutex
	counters map[string]float64
	last     time.Duration

	registry *prometheus.Registry
	events   *prometheus.CounterVec
	duration prometheus.Histogram
	lastDur  prometheus.Gauge
}

// NewRecorder creates a Recorder with a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		counters: make(map[string]float64),
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spreadbot_events_total",
				Help: "Bot events by name (orders attempted, placed, blocked, cycle errors).",
			},
			[]string{"event"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spreadbot_cycle_duration_seconds",
			Help:    "Duration of a full trading cycle in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		lastDur: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spreadbot_last_cycle_duration_seconds",
			Help: "Duration of the most recent cycle in seconds.",
		}),
	}
	r.registry.MustRegister(r.events, r.duration, r.lastDur)
	return r
}

// Registry returns the registry the /metrics handler serves.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Increment adds v to the named counter.
func (r *Recorder) Increment(name string, v float64) {
	r.mu.Lock()
	r.counters[name] += v
	r.mu.Unlock()
	// Prometheus counters only go up.
	if v > 0 {
		r.events.WithLabelValues(name).Add(v)
	}
}

// MergeCounts adds every non-zero entry of counts.
func (r *Recorder) MergeCounts(counts map[string]float64) {
	for name, v := range counts {
		if v == 0 {
			continue
		}
		r.Increment(name, v)
	}
}

// ObserveCycleDuration records the duration of a finished cycle.
func (r *Recorder) ObserveCycleDuration(d time.Duration) {
	r.mu.Lock()
	r.last = d
	r.counters[CycleDurationTotal] += d.Seconds()
	r.mu.Unlock()

	r.duration.Observe(d.Seconds())
	r.lastDur.Set(d.Seconds())
}

// Snapshot returns a copy of the counters plus last_cycle_duration.
func (r *Recorder) Snapshot() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := maps.Clone(r.counters)
	if out == nil {
		out = make(map[string]float64)
	}
	out[LastCycleDuration] = r.last.Seconds()
	return out
}
