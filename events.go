package dropin

import "sync"

// EventType enumerates the notifications the model publishes to the view
// layer and the host application.
type EventType string

// Defines values for EventType.
const (
	EventAsyncDependenciesReady             EventType = "asyncDependenciesReady"             // no dependency is initializing any more; fires once
	EventAsyncDependencyFailed              EventType = "asyncDependencyFailed"              // a dependency failed its setup; carries Dependency and Err
	EventAddPaymentMethod                   EventType = "addPaymentMethod"                   // a freshly tokenized method was added
	EventRemovePaymentMethod                EventType = "removePaymentMethod"                // a method left the collection
	EventRefreshPaymentMethods              EventType = "refreshPaymentMethods"              // the collection was reloaded from the vault
	EventChangeActivePaymentMethod          EventType = "changeActivePaymentMethod"          // a method was selected
	EventRemoveActivePaymentMethod          EventType = "removeActivePaymentMethod"          // the selection was cleared
	EventPaymentMethodRequestable           EventType = "paymentMethodRequestable"           // the selection became requestable; carries Requestable
	EventNoPaymentMethodRequestable         EventType = "noPaymentMethodRequestable"         // nothing is requestable any more
	EventConfirmPaymentMethodDeletion       EventType = "confirmPaymentMethodDeletion"       // a vaulted method was staged for deletion
	EventStartVaultedPaymentMethodDeletion  EventType = "startVaultedPaymentMethodDeletion"  // vault deletion started
	EventFinishVaultedPaymentMethodDeletion EventType = "finishVaultedPaymentMethodDeletion" // vault deletion finished; Err is set on failure
	EventCancelVaultedPaymentMethodDeletion EventType = "cancelVaultedPaymentMethodDeletion" // the staged deletion was dropped
	EventErrorOccurred                      EventType = "errorOccurred"                      // an inline error should be shown
	EventErrorCleared                       EventType = "errorCleared"                       // the inline error should be hidden
	EventChangeActiveView                   EventType = "changeActiveView"                   // the visible view changed; carries View
	EventEnableEditMode                     EventType = "enableEditMode"                     // the vaulted list entered edit mode
	EventDisableEditMode                    EventType = "disableEditMode"                    // the vaulted list left edit mode
	EventLoadBegin                          EventType = "loadBegin"                          // a blocking operation started
	EventLoadEnd                            EventType = "loadEnd"                            // the blocking operation ended
	EventPreventUserAction                  EventType = "preventUserAction"                  // user input should be disabled
	EventAllowUserAction                    EventType = "allowUserAction"                    // user input is allowed again
)

// RequestablePayload accompanies [EventPaymentMethodRequestable].
type RequestablePayload struct {
	Type                    PaymentMethodType `json:"type"`
	PaymentMethodIsSelected bool              `json:"paymentMethodIsSelected"`
}

// ViewChange accompanies [EventChangeActiveView].
type ViewChange struct {
	PreviousViewID string `json:"previousViewId"`
	NewViewID      string `json:"newViewId"`
}

// Event is a single notification. Only the fields relevant to Type are set.
type Event struct {
	Type          EventType           `json:"type"`
	PaymentMethod *PaymentMethod      `json:"paymentMethod,omitempty"`
	Requestable   *RequestablePayload `json:"requestable,omitempty"`
	View          *ViewChange         `json:"view,omitempty"`
	Dependency    DependencyKey       `json:"dependency,omitempty"`
	Err           error               `json:"-"`
}

// Publisher receives every event the model emits.
type Publisher interface {
	Publish(e Event)
}

// PublisherFunc lifts bare functions into [Publisher].
type PublisherFunc func(e Event)

// Publish delegates to the wrapped function.
func (f PublisherFunc) Publish(e Event) {
	f(e)
}

// Handler consumes events delivered by a [Bus].
type Handler func(e Event)

// Bus is a synchronous in-process publish/subscribe hub. Handlers run on the
// publishing goroutine in subscription order and may call back into the model.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

type subscription struct {
	id      uint64
	typ     EventType
	any     bool
	handler Handler
}

// NewBus returns an empty [Bus].
func NewBus() *Bus {
	return &Bus{}
}

// On subscribes handler to events of type typ. The returned function
// unsubscribes it.
func (b *Bus) On(typ EventType, handler Handler) func() {
	return b.subscribe(subscription{typ: typ, handler: handler})
}

// OnAny subscribes handler to every event.
func (b *Bus) OnAny(handler Handler) func() {
	return b.subscribe(subscription{any: true, handler: handler})
}

func (b *Bus) subscribe(sub subscription) func() {
	if sub.handler == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	sub.id = b.nextID
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(sub.id) })
	}
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every matching handler.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := make([]subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.any || sub.typ == e.Type {
			subs = append(subs, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(e)
	}
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
