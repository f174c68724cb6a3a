package dropin

import (
	"context"
	"slices"
	"sync"

	"github.com/go-logr/logr"
)

// VaultedMethodStore owns the ordered collection of payment methods shown to
// the customer, most recently added first.
type VaultedMethodStore struct {
	mu        sync.Mutex
	vault     VaultClient
	publisher Publisher
	log       logr.Logger
	metrics   *metrics

	guest     bool
	supported map[PaymentMethodType]struct{}
	hidden    func(PaymentMethodType) bool

	methods         []*PaymentMethod
	pendingDeletion *PaymentMethod
}

// NewVaultedMethodStore returns an empty store. Fetched methods are limited to
// the types of supported options that cfg does not hide.
func NewVaultedMethodStore(vault VaultClient, cfg *ModelConfig, supported []PaymentOption, pub Publisher) *VaultedMethodStore {
	if pub == nil {
		pub = PublisherFunc(func(Event) {})
	}
	s := &VaultedMethodStore{
		vault:     vault,
		publisher: pub,
		log:       logr.Discard(),
		guest:     cfg.IsGuest(),
		hidden:    cfg.IsHidden,
	}
	s.setSupported(supported)
	return s
}

func (s *VaultedMethodStore) setSupported(supported []PaymentOption) {
	types := make(map[PaymentMethodType]struct{}, len(supported))
	for _, option := range supported {
		types[option.MethodType()] = struct{}{}
	}
	s.mu.Lock()
	s.supported = types
	s.mu.Unlock()
}

func (s *VaultedMethodStore) isEligible(t PaymentMethodType) bool {
	s.mu.Lock()
	_, ok := s.supported[t]
	s.mu.Unlock()
	return ok && !s.hidden(t)
}

// Fetch loads the customer's stored methods without touching the collection.
// Guest sessions and vault failures yield an empty result.
func (s *VaultedMethodStore) Fetch(ctx context.Context) []*PaymentMethod {
	if s.guest || s.vault == nil {
		return []*PaymentMethod{}
	}
	fetched, ferr := s.callFetch(ctx)
	if ferr != nil {
		s.log.Error(ferr, "vaulted payment methods unavailable")
		s.metrics.vaultOperation("fetch", "failed")
		return []*PaymentMethod{}
	}
	s.metrics.vaultOperation("fetch", "ok")

	out := make([]*PaymentMethod, 0, len(fetched))
	for i := range fetched {
		pm := fetched[i]
		if !s.isEligible(pm.Type) {
			continue
		}
		pm.Vaulted = true
		out = append(out, &pm)
	}
	return out
}

func (s *VaultedMethodStore) callFetch(ctx context.Context) ([]PaymentMethod, *Error) {
	methods, err := s.vault.FetchPaymentMethods(ctx, FetchOptions{DefaultFirst: true})
	if err != nil {
		return nil, NewError(VaultFetchFailure, "fetch vaulted payment methods", WithCause(err))
	}
	return methods, nil
}

func (s *VaultedMethodStore) callDelete(ctx context.Context, nonce string) *Error {
	if err := s.vault.DeletePaymentMethod(ctx, nonce); err != nil {
		return NewError(VaultDeleteFailure, "delete vaulted payment method", WithCause(err))
	}
	return nil
}

// Load replaces the collection without publishing; used for the initial fetch.
func (s *VaultedMethodStore) Load(methods []*PaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods = slices.Clone(methods)
}

// PaymentMethods returns a copy of the collection.
func (s *VaultedMethodStore) PaymentMethods() []*PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.methods)
}

// Contains reports whether pm (by identity) is in the collection.
func (s *VaultedMethodStore) Contains(pm *PaymentMethod) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.methods, pm)
}

// Add prepends pm and publishes [EventAddPaymentMethod].
func (s *VaultedMethodStore) Add(pm *PaymentMethod) {
	s.mu.Lock()
	s.methods = slices.Insert(s.methods, 0, pm)
	s.mu.Unlock()
	s.publisher.Publish(Event{Type: EventAddPaymentMethod, PaymentMethod: pm})
}

// Remove deletes pm by identity. It reports false, without publishing, when
// pm is not in the collection.
func (s *VaultedMethodStore) Remove(pm *PaymentMethod) bool {
	s.mu.Lock()
	idx := slices.Index(s.methods, pm)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.methods = slices.Delete(s.methods, idx, idx+1)
	s.mu.Unlock()
	s.publisher.Publish(Event{Type: EventRemovePaymentMethod, PaymentMethod: pm})
	return true
}

// RemoveUnvaulted removes every method not yet vaulted that matches filter. A
// nil filter matches everything. Vaulted entries are never removed.
func (s *VaultedMethodStore) RemoveUnvaulted(filter func(*PaymentMethod) bool) []*PaymentMethod {
	var removed []*PaymentMethod
	for _, pm := range s.PaymentMethods() {
		if pm.Vaulted {
			continue
		}
		if filter != nil && !filter(pm) {
			continue
		}
		if s.Remove(pm) {
			removed = append(removed, pm)
		}
	}
	return removed
}

// Refresh re-fetches the vault, replaces the collection and publishes
// [EventRefreshPaymentMethods].
func (s *VaultedMethodStore) Refresh(ctx context.Context) []*PaymentMethod {
	methods := s.Fetch(ctx)
	s.mu.Lock()
	s.methods = methods
	s.mu.Unlock()
	s.publisher.Publish(Event{Type: EventRefreshPaymentMethods})
	return slices.Clone(methods)
}

// ConfirmDeletion stages pm for deletion.
func (s *VaultedMethodStore) ConfirmDeletion(pm *PaymentMethod) {
	s.mu.Lock()
	s.pendingDeletion = pm
	s.mu.Unlock()
	s.publisher.Publish(Event{Type: EventConfirmPaymentMethodDeletion, PaymentMethod: pm})
}

// CancelDeletion drops the staged deletion.
func (s *VaultedMethodStore) CancelDeletion() {
	s.mu.Lock()
	s.pendingDeletion = nil
	s.mu.Unlock()
	s.publisher.Publish(Event{Type: EventCancelVaultedPaymentMethodDeletion})
}

// PendingDeletion returns the staged method, if any.
func (s *VaultedMethodStore) PendingDeletion() *PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingDeletion
}

// DeleteVaulted deletes pm (or the staged method when pm is nil) from the
// vault, then refreshes the collection. A delete failure does not stop the
// refresh; it is carried by [EventFinishVaultedPaymentMethodDeletion] and
// returned.
func (s *VaultedMethodStore) DeleteVaulted(ctx context.Context, pm *PaymentMethod) error {
	if pm == nil {
		pm = s.PendingDeletion()
	}
	s.publisher.Publish(Event{Type: EventStartVaultedPaymentMethodDeletion, PaymentMethod: pm})

	var deleteErr *Error
	if !s.guest && s.vault != nil && pm != nil {
		deleteErr = s.callDelete(ctx, pm.Nonce)
		if deleteErr != nil {
			s.log.Error(deleteErr, "vaulted payment method deletion failed", "type", pm.Type)
			s.metrics.vaultOperation("delete", "failed")
		} else {
			s.metrics.vaultOperation("delete", "ok")
		}
	}

	s.Refresh(ctx)

	s.mu.Lock()
	s.pendingDeletion = nil
	s.mu.Unlock()

	finish := Event{Type: EventFinishVaultedPaymentMethodDeletion}
	if deleteErr != nil {
		finish.Err = deleteErr
		s.publisher.Publish(finish)
		return deleteErr
	}
	s.publisher.Publish(finish)
	return nil
}
