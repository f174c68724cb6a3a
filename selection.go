package dropin

import "sync"

// Requestable is a candidate requestability state reported by a view or an
// integration.
type Requestable struct {
	IsRequestable         bool
	Type                  PaymentMethodType
	SelectedPaymentMethod *PaymentMethod
}

// SelectionEngine tracks the active payment method and view and turns
// requestability updates into de-duplicated notifications.
type SelectionEngine struct {
	mu        sync.Mutex
	publisher Publisher

	active           *PaymentMethod
	activeView       string
	isRequestable    bool
	requestableNonce string
	setupComplete    bool
}

// NewSelectionEngine returns an engine with nothing selected.
func NewSelectionEngine(pub Publisher) *SelectionEngine {
	if pub == nil {
		pub = PublisherFunc(func(Event) {})
	}
	return &SelectionEngine{publisher: pub}
}

// SetActive makes pm the active payment method.
func (s *SelectionEngine) SetActive(pm *PaymentMethod) {
	s.mu.Lock()
	s.active = pm
	s.mu.Unlock()
	s.publisher.Publish(Event{Type: EventChangeActivePaymentMethod, PaymentMethod: pm})
}

// ClearActive drops the active payment method and reports that nothing is
// requestable.
func (s *SelectionEngine) ClearActive() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
	s.publisher.Publish(Event{Type: EventRemoveActivePaymentMethod})
	s.SetRequestable(Requestable{IsRequestable: false})
}

// Active returns the active payment method, if any.
func (s *SelectionEngine) Active() *PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// rebind swaps the active method for an equivalent value without notifying.
// It does nothing when the selection changed in between.
func (s *SelectionEngine) rebind(from, to *PaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == from {
		s.active = to
	}
}

// seed selects pm as the initial method without waiting for a view to report
// it requestable.
func (s *SelectionEngine) seed(pm *PaymentMethod) {
	s.mu.Lock()
	s.isRequestable = true
	s.mu.Unlock()
	s.SetActive(pm)
}

// ConfirmReady opens the notification gate once the surrounding widget has
// finished its own setup.
func (s *SelectionEngine) ConfirmReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setupComplete = true
}

// IsReady reports whether [SelectionEngine.ConfirmReady] was called.
func (s *SelectionEngine) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setupComplete
}

// IsRequestable reports the last recorded requestability.
func (s *SelectionEngine) IsRequestable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRequestable
}

// SetRequestable records r and publishes [EventPaymentMethodRequestable] or
// [EventNoPaymentMethodRequestable] when it crosses a boundary: off to on, on
// to off, or on with a different selected nonce. Nothing is published before
// [SelectionEngine.ConfirmReady]. It reports whether an event was published.
func (s *SelectionEngine) SetRequestable(r Requestable) bool {
	var nonce string
	if r.SelectedPaymentMethod != nil {
		nonce = r.SelectedPaymentMethod.Nonce
	}

	s.mu.Lock()
	unchanged := s.isRequestable == r.IsRequestable
	emit := s.setupComplete && !(unchanged && (!r.IsRequestable || nonce == s.requestableNonce))
	s.isRequestable = r.IsRequestable
	if !emit {
		s.mu.Unlock()
		return false
	}
	var e Event
	if r.IsRequestable {
		s.requestableNonce = nonce
		e = Event{
			Type: EventPaymentMethodRequestable,
			Requestable: &RequestablePayload{
				Type:                    r.Type,
				PaymentMethodIsSelected: r.SelectedPaymentMethod != nil,
			},
		}
	} else {
		s.requestableNonce = ""
		e = Event{Type: EventNoPaymentMethodRequestable}
	}
	s.mu.Unlock()

	s.publisher.Publish(e)
	return true
}

// SetActiveView records the view the customer is looking at.
func (s *SelectionEngine) SetActiveView(id string) {
	s.mu.Lock()
	previous := s.activeView
	s.activeView = id
	s.mu.Unlock()
	s.publisher.Publish(Event{
		Type: EventChangeActiveView,
		View: &ViewChange{PreviousViewID: previous, NewViewID: id},
	})
}

// ActiveView returns the current view ID.
func (s *SelectionEngine) ActiveView() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeView
}
