package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	wakeups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rdaemon",
			Subsystem: "daemon",
			Name:      "wakeups_total",
			Help:      "Periodic loop wakeups, partitioned into scheduled and notified.",
		}, []string{"name", "kind"},
	)
	taskFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rdaemon",
			Subsystem: "daemon",
			Name:      "task_failures_total",
			Help:      "Task callback failures absorbed by the scheduler, by lifecycle phase.",
		}, []string{"name", "phase"},
	)
	terminations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rdaemon",
			Subsystem: "daemon",
			Name:      "terminations_total",
			Help:      "Number of times a daemon run loop was terminated.",
		}, []string{"name"},
	)
	runningDaemons = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rdaemon",
			Subsystem: "daemon",
			Name:      "running",
			Help:      "Number of daemon run loops currently active in this process.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{wakeups, taskFailures, terminations, runningDaemons}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving the DefaultGatherer. The caller
// wires the route and server.
func Handler() http.Handler { return promhttp.Handler() }

// Lightweight helpers used by internal packages. They no-op until
// Register has been called.

func IncWakeup(name string, scheduled bool) {
	if !regOK.Load() {
		return
	}
	kind := "notified"
	if scheduled {
		kind = "scheduled"
	}
	wakeups.WithLabelValues(name, kind).Inc()
}

func IncTaskFailure(name, phase string) {
	if regOK.Load() {
		taskFailures.WithLabelValues(name, phase).Inc()
	}
}

func IncTermination(name string) {
	if regOK.Load() {
		terminations.WithLabelValues(name).Inc()
	}
}

func RunLoopStarted() {
	if regOK.Load() {
		runningDaemons.Inc()
	}
}

func RunLoopFinished() {
	if regOK.Load() {
		runningDaemons.Dec()
	}
}
