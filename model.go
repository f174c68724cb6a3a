package dropin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
)

var (
	// ErrAlreadyInitialized is returned by a second call to [Model.Init].
	ErrAlreadyInitialized = errors.New("dropin: model already initialized")
	// ErrTornDown is returned by operations on a model after [Model.Teardown].
	ErrTornDown = errors.New("dropin: model torn down")
)

type phase int32

const (
	phaseNew phase = iota
	phaseInitializing
	phaseReady
	phaseFailed
	phaseTornDown
)

// Model is the checkout coordinator. It is constructed per widget instance,
// initialized once with [Model.Init] and released with [Model.Teardown].
type Model struct {
	id      string
	cfg     config
	log     logr.Logger
	bus     *Bus
	metrics *metrics
	prober  *prober

	phase atomic.Int32

	mu          sync.Mutex
	modelConfig *ModelConfig
	supported   []PaymentOption
	editMode    bool
	cancel      context.CancelFunc
	unsubscribe []func()

	tracker   *DependencyTracker
	store     *VaultedMethodStore
	selection *SelectionEngine
}

// New validates settings and builds a [Model].
func New(settings Settings, opts ...Option) (*Model, error) {
	mc, err := NewModelConfig(settings)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(mc, opts...)
}

// NewWithConfig builds a [Model] from an already resolved configuration.
func NewWithConfig(mc *ModelConfig, opts ...Option) (*Model, error) {
	if mc == nil {
		return nil, NewError(InvalidConfiguration, "model config is required")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	met, err := newMetrics(cfg.registerer)
	if err != nil {
		return nil, fmt.Errorf("dropin: register metrics: %w", err)
	}
	bus := cfg.bus
	if bus == nil {
		bus = NewBus()
	}

	m := &Model{
		id:          cfg.newID(),
		cfg:         cfg,
		bus:         bus,
		metrics:     met,
		modelConfig: mc,
	}
	m.log = cfg.logger.WithValues("model", m.id)
	m.prober = &prober{integrations: cfg.integrations, log: m.log, metrics: met}

	pub := PublisherFunc(m.publish)
	m.tracker = NewDependencyTracker(pub)
	m.tracker.metrics = met
	m.tracker.clock = cfg.clock
	m.store = NewVaultedMethodStore(cfg.vault, mc, nil, pub)
	m.store.log = m.log
	m.store.metrics = met
	m.selection = NewSelectionEngine(pub)
	return m, nil
}

func (m *Model) publish(e Event) {
	if phase(m.phase.Load()) == phaseTornDown {
		return
	}
	m.bus.Publish(e)
}

func (m *Model) live() bool {
	return phase(m.phase.Load()) != phaseTornDown
}

// ID returns the model's identifier.
func (m *Model) ID() string {
	return m.id
}

// Bus returns the bus events are published on.
func (m *Model) Bus() *Bus {
	return m.bus
}

// On subscribes handler to events of type typ until the returned function is
// called or the model is torn down.
func (m *Model) On(typ EventType, handler Handler) func() {
	return m.track(m.bus.On(typ, handler))
}

// OnAny subscribes handler to every event until the model is torn down.
func (m *Model) OnAny(handler Handler) func() {
	return m.track(m.bus.OnAny(handler))
}

func (m *Model) track(off func()) func() {
	m.mu.Lock()
	m.unsubscribe = append(m.unsubscribe, off)
	m.mu.Unlock()
	return off
}

// Init resolves the supported options, registers their dependencies, loads
// vaulted methods, seeds the selection and starts every accepted integration
// followed by the enabled auxiliary dependencies. Fatal errors leave the model unusable.
func (m *Model) Init(ctx context.Context) error {
	if !m.phase.CompareAndSwap(int32(phaseNew), int32(phaseInitializing)) {
		if !m.live() {
			return ErrTornDown
		}
		return ErrAlreadyInitialized
	}
	cfg := m.Config()

	results := m.prober.probeAll(ctx, cfg, resolveCandidates(cfg))
	var supported []PaymentOption
	for _, r := range results {
		if r.accepted {
			supported = append(supported, r.option)
			m.tracker.Start(r.option.Key())
			continue
		}
		m.tracker.MarkNotEnabled(r.option.Key())
	}
	if len(supported) == 0 {
		m.phase.CompareAndSwap(int32(phaseInitializing), int32(phaseFailed))
		err := NewError(NoSupportedOptions, "no payment options are available")
		m.log.Error(err, "initialization failed")
		return err
	}
	for _, key := range cfg.AuxiliaryDependencies() {
		m.tracker.Start(key)
	}

	m.store.setSupported(supported)
	methods := m.store.Fetch(ctx)
	m.store.Load(methods)
	if len(methods) > 0 {
		m.selection.seed(methods[0])
	}

	session := &SessionInfo{
		ModelID:          m.id,
		CustomerID:       cfg.CustomerID(),
		SupportedOptions: slices.Clone(supported),
	}
	runCtx, cancel := context.WithCancel(contextWithSession(context.WithoutCancel(ctx), session))
	m.mu.Lock()
	m.supported = supported
	m.cancel = cancel
	m.mu.Unlock()
	if !m.phase.CompareAndSwap(int32(phaseInitializing), int32(phaseReady)) {
		cancel()
		return ErrTornDown
	}
	m.log.V(1).Info("payment options resolved", "supported", supported, "vaulted", len(methods))

	for _, option := range supported {
		integration := m.cfg.integrations[option]
		host := newIntegrationHost(m, option)
		m.startDependency(runCtx, option.Key(), func(ctx context.Context) error {
			return integration.Start(ctx, host)
		})
	}
	for _, key := range cfg.AuxiliaryDependencies() {
		dependency, ok := m.cfg.dependencies[key]
		if !ok {
			m.DependencyFailed(key, fmt.Errorf("no dependency registered for %s", key))
			continue
		}
		host := &DependencyHost{model: m, key: key}
		m.startDependency(runCtx, key, func(ctx context.Context) error {
			return dependency.Start(ctx, host)
		})
	}
	m.tracker.Arm()
	return nil
}

// startDependency runs start for key. Start must not block; long running
// setup reports back through the host.
func (m *Model) startDependency(ctx context.Context, key DependencyKey, start func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			m.DependencyFailed(key, fmt.Errorf("dependency start panicked: %v", r))
		}
	}()
	if err := start(ctx); err != nil {
		m.DependencyFailed(key, err)
	}
}

// Teardown cancels running integrations, drops subscriptions made through the
// model and stops all further notifications.
func (m *Model) Teardown() {
	if phase(m.phase.Swap(int32(phaseTornDown))) == phaseTornDown {
		return
	}
	m.mu.Lock()
	cancel := m.cancel
	offs := m.unsubscribe
	m.cancel = nil
	m.unsubscribe = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, off := range offs {
		off()
	}
}

// Config returns the current resolved configuration.
func (m *Model) Config() *ModelConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modelConfig
}

// SupportedOptions returns the options that survived probing.
func (m *Model) SupportedOptions() []PaymentOption {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.supported)
}

// IsGuestCheckout reports whether vaulting is disabled for this session.
func (m *Model) IsGuestCheckout() bool {
	return m.Config().IsGuest()
}

// DependencyReady marks key ready.
func (m *Model) DependencyReady(key DependencyKey) {
	if !m.live() {
		return
	}
	m.tracker.MarkReady(key)
}

// DependencyFailed marks key failed. Only the first error per key is kept.
func (m *Model) DependencyFailed(key DependencyKey, err error) {
	if !m.live() {
		return
	}
	if m.tracker.MarkFailed(key, err) {
		m.log.Error(err, "dependency setup failed", "dependency", key)
	}
}

// DependencyState returns the lifecycle state of key.
func (m *Model) DependencyState(key DependencyKey) (DependencyState, bool) {
	return m.tracker.State(key)
}

// DependencyError returns the failure recorded for key, if any.
func (m *Model) DependencyError(key DependencyKey) error {
	return m.tracker.Err(key)
}

// DependenciesSettled reports whether [EventAsyncDependenciesReady] fired.
func (m *Model) DependenciesSettled() bool {
	return m.tracker.Settled()
}

// IsPaymentMethodRequestable reports the last recorded requestability.
func (m *Model) IsPaymentMethodRequestable() bool {
	return m.selection.IsRequestable()
}

// GetPaymentMethods returns a copy of the payment method collection.
func (m *Model) GetPaymentMethods() []*PaymentMethod {
	return m.store.PaymentMethods()
}

// HasPaymentMethods reports whether any payment method is available.
func (m *Model) HasPaymentMethods() bool {
	return len(m.store.PaymentMethods()) > 0
}

// GetActivePaymentMethod returns the selected payment method, if any.
func (m *Model) GetActivePaymentMethod() *PaymentMethod {
	return m.selection.Active()
}

// AddPaymentMethod prepends a freshly tokenized method and selects it. Fresh
// methods are never vaulted; pm.Vaulted is reset.
func (m *Model) AddPaymentMethod(pm *PaymentMethod) error {
	if !m.live() {
		return ErrTornDown
	}
	if err := pm.Validate(); err != nil {
		return err
	}
	pm.Vaulted = false
	m.store.Add(pm)
	m.selection.SetActive(pm)
	return nil
}

// RemovePaymentMethod removes pm by identity, clearing the selection when pm
// was active.
func (m *Model) RemovePaymentMethod(pm *PaymentMethod) bool {
	if !m.live() || !m.store.Remove(pm) {
		return false
	}
	if m.selection.Active() == pm {
		m.selection.ClearActive()
	}
	return true
}

// RemoveUnvaultedPaymentMethods removes every non-vaulted method matching
// filter (all of them when filter is nil).
func (m *Model) RemoveUnvaultedPaymentMethods(filter func(*PaymentMethod) bool) []*PaymentMethod {
	if !m.live() {
		return nil
	}
	removed := m.store.RemoveUnvaulted(filter)
	if active := m.selection.Active(); active != nil && slices.Contains(removed, active) {
		m.selection.ClearActive()
	}
	return removed
}

// RefreshPaymentMethods reloads the vaulted methods.
func (m *Model) RefreshPaymentMethods(ctx context.Context) []*PaymentMethod {
	if !m.live() {
		return nil
	}
	methods := m.store.Refresh(ctx)
	m.dropStaleSelection()
	return methods
}

// dropStaleSelection follows the active method across a refresh. It moves the
// selection to the refreshed copy of the same method, or clears it when the
// method left the collection.
func (m *Model) dropStaleSelection() {
	active := m.selection.Active()
	if active == nil || m.store.Contains(active) {
		return
	}
	for _, pm := range m.store.PaymentMethods() {
		if pm.Type == active.Type && pm.Nonce == active.Nonce {
			m.selection.rebind(active, pm)
			return
		}
	}
	m.selection.ClearActive()
}

// ChangeActivePaymentMethod selects pm.
func (m *Model) ChangeActivePaymentMethod(pm *PaymentMethod) {
	if !m.live() {
		return
	}
	m.selection.SetActive(pm)
}

// RemoveActivePaymentMethod clears the selection.
func (m *Model) RemoveActivePaymentMethod() {
	if !m.live() {
		return
	}
	m.selection.ClearActive()
}

// SetPaymentMethodRequestable feeds the requestability gate.
func (m *Model) SetPaymentMethodRequestable(r Requestable) {
	if !m.live() {
		return
	}
	m.selection.SetRequestable(r)
}

// ConfirmDropinReady opens the requestability notification gate.
func (m *Model) ConfirmDropinReady() {
	m.selection.ConfirmReady()
}

// ConfirmPaymentMethodDeletion stages pm for deletion.
func (m *Model) ConfirmPaymentMethodDeletion(pm *PaymentMethod) {
	if !m.live() {
		return
	}
	m.store.ConfirmDeletion(pm)
}

// CancelDeletePaymentMethod drops the staged deletion.
func (m *Model) CancelDeletePaymentMethod() {
	if !m.live() {
		return
	}
	m.store.CancelDeletion()
}

// DeleteVaultedPaymentMethod deletes pm, or the staged method when pm is nil,
// and refreshes the collection. The selection is cleared when the active
// method is gone afterwards. The returned error is non-fatal.
func (m *Model) DeleteVaultedPaymentMethod(ctx context.Context, pm *PaymentMethod) error {
	if !m.live() {
		return ErrTornDown
	}
	err := m.store.DeleteVaulted(ctx, pm)
	m.dropStaleSelection()
	return err
}

// PendingDeletion returns the method staged for deletion.
func (m *Model) PendingDeletion() *PaymentMethod {
	return m.store.PendingDeletion()
}

// EnableEditMode switches the vaulted list into edit mode.
func (m *Model) EnableEditMode() {
	if !m.live() {
		return
	}
	m.mu.Lock()
	m.editMode = true
	m.mu.Unlock()
	m.publish(Event{Type: EventEnableEditMode})
}

// DisableEditMode leaves edit mode, cancelling a staged deletion.
func (m *Model) DisableEditMode() {
	if !m.live() {
		return
	}
	m.mu.Lock()
	m.editMode = false
	m.mu.Unlock()
	if m.store.PendingDeletion() != nil {
		m.store.CancelDeletion()
	}
	m.publish(Event{Type: EventDisableEditMode})
}

// IsInEditMode reports whether edit mode is on.
func (m *Model) IsInEditMode() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.editMode
}

// ChangeActiveView records the view the customer is looking at.
func (m *Model) ChangeActiveView(id string) {
	if !m.live() {
		return
	}
	m.selection.SetActiveView(id)
}

// ActiveView returns the current view ID.
func (m *Model) ActiveView() string {
	return m.selection.ActiveView()
}

// BeginLoading tells the view to show a loading indicator.
func (m *Model) BeginLoading() {
	m.publish(Event{Type: EventLoadBegin})
}

// EndLoading hides the loading indicator.
func (m *Model) EndLoading() {
	m.publish(Event{Type: EventLoadEnd})
}

// PreventUserAction blocks customer interaction, e.g. while a popup is open.
func (m *Model) PreventUserAction() {
	m.publish(Event{Type: EventPreventUserAction})
}

// AllowUserAction re-enables customer interaction.
func (m *Model) AllowUserAction() {
	m.publish(Event{Type: EventAllowUserAction})
}

// ReportError surfaces err to the view.
func (m *Model) ReportError(err error) {
	if err == nil {
		return
	}
	m.publish(Event{Type: EventErrorOccurred, Err: err})
}

// ClearError removes the error shown by the view.
func (m *Model) ClearError() {
	m.publish(Event{Type: EventErrorCleared})
}
