package dropin

import (
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type config struct {
	integrations map[PaymentOption]Integration
	dependencies map[DependencyKey]Dependency
	vault        VaultClient
	bus          *Bus
	logger       logr.Logger
	registerer   prometheus.Registerer
	newID        func() string
	clock        func() time.Time
}

func defaultConfig() config {
	return config{
		integrations: make(map[PaymentOption]Integration),
		dependencies: make(map[DependencyKey]Dependency),
		logger:       logr.Discard(),
		newID:        uuid.NewString,
		clock:        time.Now,
	}
}

// Option customizes the model.
type Option func(*config)

// WithIntegration registers the integration backing option.
func WithIntegration(option PaymentOption, integration Integration) Option {
	if !option.Valid() {
		panic("dropin: unknown payment option " + string(option))
	}
	return func(cfg *config) {
		cfg.integrations[option] = integration
	}
}

// WithDependency registers the auxiliary dependency started when key is
// turned on in the merchant settings.
func WithDependency(key DependencyKey, dependency Dependency) Option {
	if !key.auxiliary() {
		panic("dropin: unknown auxiliary dependency " + string(key))
	}
	return func(cfg *config) {
		cfg.dependencies[key] = dependency
	}
}

// WithVaultClient enables vaulted payment methods for identified customers.
func WithVaultClient(vault VaultClient) Option {
	return func(cfg *config) {
		cfg.vault = vault
	}
}

// WithBus publishes events to bus instead of a private one.
func WithBus(bus *Bus) Option {
	return func(cfg *config) {
		cfg.bus = bus
	}
}

// WithLogger sets the logger used for non-fatal diagnostics.
func WithLogger(logger logr.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithMetricsRegisterer registers the model's prometheus collectors on reg.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(cfg *config) {
		cfg.registerer = reg
	}
}

// WithIDGenerator overrides how model IDs are generated.
func WithIDGenerator(fn func() string) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.newID = fn
		}
	}
}

// withClock provides deterministic time in tests.
func withClock(fn func() time.Time) Option {
	return func(cfg *config) {
		cfg.clock = fn
	}
}
