package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives engine outcomes. The engine depends on this narrow
// interface so tests can pass a nop.
type Recorder interface {
	ObserveRun(configID string, iterations int, converged bool)
	SetViolations(configID, constraint string, count int)
	AddUnscheduled(configID string, count int)
}

// Nop discards all observations.
type Nop struct{}

func (Nop) ObserveRun(string, int, bool)    {}
func (Nop) SetViolations(string, string, int) {}
func (Nop) AddUnscheduled(string, int)      {}

// Registry encapsulates Prometheus instrumentation for scheduling runs.
type Registry struct {
	registry      *prometheus.Registry
	runsTotal     *prometheus.CounterVec
	runIterations prometheus.Histogram
	violations    *prometheus.GaugeVec
	unscheduled   *prometheus.CounterVec
}

// NewRegistry registers the scheduling collectors.
func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_runs_total",
		Help: "Total scheduling runs by outcome",
	}, []string{"config_id", "outcome"})

	runIterations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_run_iterations",
		Help:    "Resolver iterations consumed per run",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 40, 50},
	})

	violations := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scheduler_final_violations",
		Help: "Remaining violations after resolution, per constraint",
	}, []string{"config_id", "constraint"})

	unscheduled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_unscheduled_subjects_total",
		Help: "Subjects left unscheduled due to resource exhaustion",
	}, []string{"config_id"})

	registry.MustRegister(runsTotal, runIterations, violations, unscheduled)

	return &Registry{
		registry:      registry,
		runsTotal:     runsTotal,
		runIterations: runIterations,
		violations:    violations,
		unscheduled:   unscheduled,
	}
}

// Registry exposes the underlying Prometheus registry for scraping or
// push-gateway publication by the hosting process.
func (r *Registry) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRun records a completed scheduling run.
func (r *Registry) ObserveRun(configID string, iterations int, converged bool) {
	outcome := "capped"
	if converged {
		outcome = "converged"
	}
	r.runsTotal.WithLabelValues(configID, outcome).Inc()
	r.runIterations.Observe(float64(iterations))
}

// SetViolations publishes the remaining violation count for a constraint.
func (r *Registry) SetViolations(configID, constraint string, count int) {
	r.violations.WithLabelValues(configID, constraint).Set(float64(count))
}

// AddUnscheduled counts subjects the generator had to skip.
func (r *Registry) AddUnscheduled(configID string, count int) {
	if count <= 0 {
		return
	}
	r.unscheduled.WithLabelValues(configID).Add(float64(count))
}
