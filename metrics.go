package dropin

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	probeOutcomes   *prometheus.CounterVec
	dependencySetup *prometheus.HistogramVec
	vaultOperations *prometheus.CounterVec
}

// newMetrics builds the model collectors and registers them on reg. Models
// sharing a registerer share the already registered collectors.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		probeOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dropin_probe_outcomes_total",
				Help: "Enablement probe outcomes per payment option",
			},
			[]string{"option", "outcome"},
		),
		dependencySetup: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dropin_dependency_setup_duration_seconds",
				Help:    "Time from dependency start to its terminal state",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"dependency", "state"},
		),
		vaultOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dropin_vault_operations_total",
				Help: "Vault fetch and delete calls by result",
			},
			[]string{"operation", "result"},
		),
	}
	if reg == nil {
		return m, nil
	}
	var err error
	if m.probeOutcomes, err = register(reg, m.probeOutcomes); err != nil {
		return nil, err
	}
	if m.dependencySetup, err = register(reg, m.dependencySetup); err != nil {
		return nil, err
	}
	if m.vaultOperations, err = register(reg, m.vaultOperations); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *metrics) probeOutcome(option PaymentOption, outcome string) {
	if m == nil {
		return
	}
	m.probeOutcomes.WithLabelValues(string(option), outcome).Inc()
}

func (m *metrics) dependencySettled(key DependencyKey, state DependencyState, d time.Duration) {
	if m == nil {
		return
	}
	m.dependencySetup.WithLabelValues(string(key), string(state)).Observe(d.Seconds())
}

func (m *metrics) vaultOperation(operation, result string) {
	if m == nil {
		return
	}
	m.vaultOperations.WithLabelValues(operation, result).Inc()
}
