package dropin

import "context"

// SessionInfo describes the checkout session an integration runs in.
type SessionInfo struct {
	// Identifier of the owning model, also used as the logger key.
	ModelID string
	// Durable customer identity, empty for guest checkout.
	//
	// Example: cus_123
	CustomerID string
	// Options that survived probing, in priority order.
	SupportedOptions []PaymentOption
}

// Guest reports whether the session has no durable customer identity.
func (s *SessionInfo) Guest() bool {
	return s == nil || s.CustomerID == ""
}

type sessionContextKey struct{}

func contextWithSession(ctx context.Context, session *SessionInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFromContext extracts the session previously stored in the context
// handed to [Integration.Start].
func SessionFromContext(ctx context.Context) *SessionInfo {
	if ctx == nil {
		return nil
	}
	if session, ok := ctx.Value(sessionContextKey{}).(*SessionInfo); ok {
		return session
	}
	return nil
}
