package scans

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

// Metrics exposes Prometheus collectors for pipeline runs. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	runs         *prometheus.CounterVec
	taskResults  *prometheus.CounterVec
	attempts     *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
}

// MustNewMetrics registers the collectors with reg (the default registerer
// when nil). Collectors already registered under the same name are reused.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "automaton",
			Subsystem: "scans",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		taskResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "automaton",
			Subsystem: "scans",
			Name:      "task_results_total",
			Help:      "Finished tasks by tool and result.",
		}, []string{"tool", "result"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "automaton",
			Subsystem: "scans",
			Name:      "attempts_total",
			Help:      "Process attempts by tool and result.",
		}, []string{"tool", "result"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "automaton",
			Subsystem: "scans",
			Name:      "task_duration_seconds",
			Help:      "Wall time per task including retries.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		}, []string{"tool"}),
	}
	m.runs = register(reg, m.runs)
	m.taskResults = register(reg, m.taskResults)
	m.attempts = register(reg, m.attempts)
	m.taskDuration = register(reg, m.taskDuration)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) ObserveRun(outcome domain.Outcome) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) ObserveTask(tool domain.Tool, succeeded bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "failed"
	if succeeded {
		result = "succeeded"
	}
	m.taskResults.WithLabelValues(string(tool), result).Inc()
	m.taskDuration.WithLabelValues(string(tool)).Observe(d.Seconds())
}

func (m *Metrics) ObserveAttempt(tool domain.Tool, a domain.Attempt) {
	if m == nil {
		return
	}
	result := "success"
	switch {
	case a.Fault != "":
		result = "fault"
	case a.ExitCode != 0:
		result = "exit_nonzero"
	}
	m.attempts.WithLabelValues(string(tool), result).Inc()
}
