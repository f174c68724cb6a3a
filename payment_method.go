package dropin

import "context"

// PaymentMethod is a tokenized, usable payment credential.
type PaymentMethod struct {
	Type        PaymentMethodType `json:"type" validate:"required"`
	Nonce       string            `json:"nonce" validate:"required"`
	Details     map[string]any    `json:"details,omitempty"`
	Description string            `json:"description,omitempty"`
	// Default marks the customer's preferred stored method.
	Default bool `json:"default,omitempty"`
	// Vaulted is set once the method has been loaded from the vault.
	Vaulted bool `json:"vaulted"`
}

// FetchOptions customizes a vault fetch.
type FetchOptions struct {
	// DefaultFirst orders the customer's default method first.
	DefaultFirst bool
}

// VaultClient loads and deletes a customer's stored payment methods.
type VaultClient interface {
	FetchPaymentMethods(ctx context.Context, opts FetchOptions) ([]PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, nonce string) error
}

// VaultClientFuncs lifts bare functions into [VaultClient]. Nil functions
// behave as an empty vault.
type VaultClientFuncs struct {
	Fetch  func(ctx context.Context, opts FetchOptions) ([]PaymentMethod, error)
	Delete func(ctx context.Context, nonce string) error
}

// FetchPaymentMethods delegates to Fetch.
func (f VaultClientFuncs) FetchPaymentMethods(ctx context.Context, opts FetchOptions) ([]PaymentMethod, error) {
	if f.Fetch == nil {
		return nil, nil
	}
	return f.Fetch(ctx, opts)
}

// DeletePaymentMethod delegates to Delete.
func (f VaultClientFuncs) DeletePaymentMethod(ctx context.Context, nonce string) error {
	if f.Delete == nil {
		return nil
	}
	return f.Delete(ctx, nonce)
}
