package dropin

import "context"

// ProbeContext is handed to every enablement probe.
type ProbeContext struct {
	Option   PaymentOption
	Config   *ModelConfig
	Settings OptionSettings
	IsGuest  bool
}

// Integration is implemented once per [PaymentOption] by the concrete payment
// flow (card fields, PayPal button, wallet sheet, ...).
type Integration interface {
	// Probe reports whether the option can be offered in this context.
	// Errors reject the option without affecting its siblings.
	Probe(ctx context.Context, probe ProbeContext) (bool, error)
	// Start begins the asynchronous setup of an accepted option. The
	// integration reports completion through host; returning an error marks
	// the dependency failed. ctx is cancelled on [Model.Teardown].
	Start(ctx context.Context, host *IntegrationHost) error
}

// ProbeFunc lifts a bare probe into an [Integration] whose setup completes as
// soon as it is started.
type ProbeFunc func(ctx context.Context, probe ProbeContext) (bool, error)

// Probe delegates to the wrapped function.
func (f ProbeFunc) Probe(ctx context.Context, probe ProbeContext) (bool, error) {
	return f(ctx, probe)
}

// Start marks the option ready immediately.
func (f ProbeFunc) Start(_ context.Context, host *IntegrationHost) error {
	host.Ready()
	return nil
}

// Dependency is implemented by auxiliary subsystems such as the fraud data
// collector. It is started by [Model.Init] when the merchant turns it on and
// reports completion through host, like [Integration.Start].
type Dependency interface {
	Start(ctx context.Context, host *DependencyHost) error
}

// DependencyFunc lifts a bare start function into a [Dependency].
type DependencyFunc func(ctx context.Context, host *DependencyHost) error

// Start delegates to the wrapped function.
func (f DependencyFunc) Start(ctx context.Context, host *DependencyHost) error {
	return f(ctx, host)
}

// DependencyHost reports the setup outcome of a single dependency key.
type DependencyHost struct {
	model *Model
	key   DependencyKey
}

// Key returns the dependency the host is bound to.
func (h *DependencyHost) Key() DependencyKey {
	return h.key
}

// Ready reports that the dependency finished its setup.
func (h *DependencyHost) Ready() {
	h.model.DependencyReady(h.key)
}

// Failed reports that the dependency could not finish its setup. Only the
// first failure is kept.
func (h *DependencyHost) Failed(err error) {
	h.model.DependencyFailed(h.key, err)
}

// IntegrationHost is the handle an integration uses to call back into the
// model. It is bound to a single payment option.
type IntegrationHost struct {
	DependencyHost
	option PaymentOption
}

func newIntegrationHost(m *Model, option PaymentOption) *IntegrationHost {
	return &IntegrationHost{
		DependencyHost: DependencyHost{model: m, key: option.Key()},
		option:         option,
	}
}

// Option returns the payment option the host is bound to.
func (h *IntegrationHost) Option() PaymentOption {
	return h.option
}

// Settings returns the current merchant settings of the bound option.
func (h *IntegrationHost) Settings() OptionSettings {
	return h.model.Config().OptionSettings(h.option)
}

// AddPaymentMethod hands a freshly tokenized method to the model.
func (h *IntegrationHost) AddPaymentMethod(pm *PaymentMethod) error {
	return h.model.AddPaymentMethod(pm)
}

// SetRequestable forwards the integration's requestability to the model.
func (h *IntegrationHost) SetRequestable(r Requestable) {
	if r.Type == "" {
		r.Type = h.option.MethodType()
	}
	h.model.SetPaymentMethodRequestable(r)
}

// ReportError surfaces an inline error for the bound option.
func (h *IntegrationHost) ReportError(err error) {
	h.model.ReportError(err)
}

// ClearError removes a previously reported error.
func (h *IntegrationHost) ClearError() {
	h.model.ClearError()
}
