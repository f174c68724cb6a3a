package dropin

import (
	"context"
	"sync"
	"testing"
)

// recorder collects published events in order.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) types() []EventType {
	var out []EventType
	for _, e := range r.all() {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) count(typ EventType) int {
	n := 0
	for _, e := range r.all() {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (r *recorder) last(typ EventType) (Event, bool) {
	events := r.all()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == typ {
			return events[i], true
		}
	}
	return Event{}, false
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// manualIntegration accepts or rejects its probe and leaves setup pending
// until the test drives the captured host.
type manualIntegration struct {
	accept   bool
	probeErr error
	startErr error

	mu   sync.Mutex
	host *IntegrationHost
	ctx  context.Context
}

func (m *manualIntegration) Probe(context.Context, ProbeContext) (bool, error) {
	return m.accept, m.probeErr
}

func (m *manualIntegration) Start(ctx context.Context, host *IntegrationHost) error {
	m.mu.Lock()
	m.host = host
	m.ctx = ctx
	m.mu.Unlock()
	return m.startErr
}

func (m *manualIntegration) started() (*IntegrationHost, context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.host, m.ctx
}

// manualDependency captures its host so the test decides when setup ends.
type manualDependency struct {
	mu   sync.Mutex
	host *DependencyHost
}

func (d *manualDependency) Start(_ context.Context, host *DependencyHost) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.host = host
	return nil
}

func (d *manualDependency) started() *DependencyHost {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.host
}

func accept() Integration {
	return ProbeFunc(func(context.Context, ProbeContext) (bool, error) { return true, nil })
}

func reject() Integration {
	return ProbeFunc(func(context.Context, ProbeContext) (bool, error) { return false, nil })
}

func mustConfig(t *testing.T, s Settings) *ModelConfig {
	t.Helper()
	cfg, err := NewModelConfig(s)
	if err != nil {
		t.Fatalf("NewModelConfig: %v", err)
	}
	return cfg
}

// newRecordedModel builds a model whose bus feeds a recorder.
func newRecordedModel(t *testing.T, s Settings, opts ...Option) (*Model, *recorder) {
	t.Helper()
	rec := &recorder{}
	bus := NewBus()
	bus.OnAny(rec.Publish)
	m, err := New(s, append([]Option{WithBus(bus), WithIDGenerator(func() string { return "model_test" })}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(m.Teardown)
	return m, rec
}

func staticVault(methods ...PaymentMethod) VaultClientFuncs {
	return VaultClientFuncs{
		Fetch: func(context.Context, FetchOptions) ([]PaymentMethod, error) {
			return append([]PaymentMethod(nil), methods...), nil
		},
	}
}
