package dropin

import (
	"slices"
	"sync"
	"time"
)

// DependencyKey names an asynchronously initializing subsystem.
type DependencyKey string

// Auxiliary dependencies that are not payment options.
const (
	DataCollector DependencyKey = "dataCollector"
	ThreeDSecure  DependencyKey = "threeDSecure"
)

func (k DependencyKey) auxiliary() bool {
	return k == DataCollector || k == ThreeDSecure
}

// DependencyState is the lifecycle state of a tracked dependency.
type DependencyState string

// Defines values for DependencyState.
const (
	StateInitializing DependencyState = "initializing"
	StateReady        DependencyState = "ready"
	StateFailed       DependencyState = "failed"
	StateNotEnabled   DependencyState = "not-enabled"
)

// allowedTransitions lists the valid targets per state; terminal states map to
// an empty list.
var allowedTransitions = map[DependencyState][]DependencyState{
	StateInitializing: {StateReady, StateFailed, StateNotEnabled},
	StateReady:        {},
	StateFailed:       {},
	StateNotEnabled:   {},
}

func canTransition(from, to DependencyState) bool {
	return slices.Contains(allowedTransitions[from], to)
}

// DependencyTracker records per-dependency setup state and publishes
// [EventAsyncDependenciesReady] exactly once, after it is armed and no started
// dependency is still initializing. Events are delivered in the order the
// transitions happened, so a failure is always published before the settled
// signal it contributed to. Transitions made from inside a handler are
// delivered after that handler returns.
type DependencyTracker struct {
	mu        sync.Mutex
	publisher Publisher
	metrics   *metrics
	clock     func() time.Time

	order     []DependencyKey
	states    map[DependencyKey]DependencyState
	errs      map[DependencyKey]error
	startedAt map[DependencyKey]time.Time
	armed     bool
	settled   bool

	// events computed under mu, delivered in that order by one goroutine at
	// a time.
	pending  []Event
	draining bool
}

// NewDependencyTracker returns an empty tracker publishing to pub.
func NewDependencyTracker(pub Publisher) *DependencyTracker {
	if pub == nil {
		pub = PublisherFunc(func(Event) {})
	}
	return &DependencyTracker{
		publisher: pub,
		clock:     time.Now,
		states:    make(map[DependencyKey]DependencyState),
		errs:      make(map[DependencyKey]error),
		startedAt: make(map[DependencyKey]time.Time),
	}
}

// Start registers key as initializing. Keys that are already tracked keep
// their state.
func (t *DependencyTracker) Start(key DependencyKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.states[key]; ok {
		return
	}
	t.order = append(t.order, key)
	t.states[key] = StateInitializing
	t.startedAt[key] = t.clock()
}

// MarkReady moves key from initializing to ready.
func (t *DependencyTracker) MarkReady(key DependencyKey) bool {
	changed := t.transition(key, StateReady, nil)
	t.flush()
	return changed
}

// MarkFailed moves key from initializing to failed and records err. Later
// failures for the same key are ignored.
func (t *DependencyTracker) MarkFailed(key DependencyKey, err error) bool {
	setupErr := NewError(DependencySetupFailure, "dependency setup failed", WithCause(err))
	if PaymentOption(key).Valid() {
		setupErr.Option = PaymentOption(key)
	}
	changed := t.transition(key, StateFailed, setupErr)
	t.flush()
	return changed
}

// MarkNotEnabled records key as not enabled. Unknown keys are registered
// directly in that terminal state.
func (t *DependencyTracker) MarkNotEnabled(key DependencyKey) bool {
	t.mu.Lock()
	if _, ok := t.states[key]; !ok {
		t.order = append(t.order, key)
		t.states[key] = StateNotEnabled
		t.mu.Unlock()
		return true
	}
	t.mu.Unlock()

	changed := t.transition(key, StateNotEnabled, nil)
	t.flush()
	return changed
}

// Arm enables the settled signal. It fires immediately when nothing is
// initializing, including when no dependency was ever started.
func (t *DependencyTracker) Arm() {
	t.mu.Lock()
	t.armed = true
	t.checkLocked()
	t.mu.Unlock()
	t.flush()
}

func (t *DependencyTracker) transition(key DependencyKey, to DependencyState, err *Error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	from, ok := t.states[key]
	if !ok || !canTransition(from, to) {
		return false
	}
	t.states[key] = to
	if err != nil {
		t.errs[key] = err
		t.pending = append(t.pending, Event{Type: EventAsyncDependencyFailed, Dependency: key, Err: err})
	}
	if started, ok := t.startedAt[key]; ok {
		t.metrics.dependencySettled(key, to, t.clock().Sub(started))
	}
	t.checkLocked()
	return true
}

// checkLocked queues the settled signal once the tracker is armed and nothing
// is initializing.
func (t *DependencyTracker) checkLocked() {
	if !t.armed || t.settled {
		return
	}
	for _, state := range t.states {
		if state == StateInitializing {
			return
		}
	}
	t.settled = true
	t.pending = append(t.pending, Event{Type: EventAsyncDependenciesReady})
}

// flush delivers queued events unless another call is already doing so.
func (t *DependencyTracker) flush() {
	t.mu.Lock()
	if t.draining {
		t.mu.Unlock()
		return
	}
	t.draining = true
	for len(t.pending) > 0 {
		e := t.pending[0]
		t.pending = t.pending[1:]
		t.mu.Unlock()
		t.deliver(e)
		t.mu.Lock()
	}
	t.draining = false
	t.mu.Unlock()
}

func (t *DependencyTracker) deliver(e Event) {
	delivered := false
	defer func() {
		if !delivered {
			t.mu.Lock()
			t.draining = false
			t.mu.Unlock()
		}
	}()
	t.publisher.Publish(e)
	delivered = true
}

// State returns the state of key and whether it is tracked.
func (t *DependencyTracker) State(key DependencyKey) (DependencyState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.states[key]
	return state, ok
}

// Err returns the first failure recorded for key.
func (t *DependencyTracker) Err(key DependencyKey) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errs[key]
}

// Failed returns a copy of the recorded failures.
func (t *DependencyTracker) Failed() map[DependencyKey]error {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[DependencyKey]error, len(t.errs))
	for k, err := range t.errs {
		out[k] = err
	}
	return out
}

// Keys returns the tracked keys in registration order.
func (t *DependencyTracker) Keys() []DependencyKey {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.order)
}

// Settled reports whether the settled signal was issued.
func (t *DependencyTracker) Settled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settled
}
