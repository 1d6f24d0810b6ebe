package mockdata

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation outcomes recorded by Metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics counts service operations and their latency.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg. Collectors
// already registered by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kennel",
		Subsystem: "mockdata",
		Name:      "operations_total",
		Help:      "Mock data operations by entity, operation and outcome.",
	}, []string{"entity", "operation", "outcome"})
	dur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kennel",
		Subsystem: "mockdata",
		Name:      "operation_seconds",
		Help:      "Mock data operation latency including the simulated delay.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	var err error
	if ops, err = register(reg, ops); err != nil {
		return nil, err
	}
	if dur, err = register(reg, dur); err != nil {
		return nil, err
	}
	return &Metrics{operations: ops, duration: dur}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observe(entity, op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(entity, op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}
