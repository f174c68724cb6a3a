package dropin

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures raised by the coordinator.
type ErrorKind string

const (
	InvalidConfiguration   ErrorKind = "invalid_configuration"    // Malformed merchant settings.
	UnknownOption          ErrorKind = "unknown_option"           // Priority entry outside the known option set.
	NoSupportedOptions     ErrorKind = "no_supported_options"     // Every candidate was rejected by its probe.
	ProbeFailure           ErrorKind = "probe_failure"            // An enablement probe errored; the option is rejected.
	DependencySetupFailure ErrorKind = "dependency_setup_failure" // An integration failed to finish its setup.
	VaultFetchFailure      ErrorKind = "vault_fetch_failure"      // Stored methods could not be loaded.
	VaultDeleteFailure     ErrorKind = "vault_delete_failure"     // A vaulted method could not be deleted.
)

// Fatal reports whether errors of this kind make the widget unusable.
func (k ErrorKind) Fatal() bool {
	switch k {
	case InvalidConfiguration, UnknownOption, NoSupportedOptions:
		return true
	default:
		return false
	}
}

// Error is the structured error returned and published by the coordinator.
type Error struct {
	Kind    ErrorKind     `json:"kind"`
	Message string        `json:"message"`
	Option  PaymentOption `json:"option,omitempty"`
	Param   *string       `json:"param,omitempty"`

	cause error
}

// Error makes *Error satisfy the stdlib error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Fatal reports whether e must abort initialization.
func (e *Error) Fatal() bool {
	return e != nil && e.Kind.Fatal()
}

type errorOption func(*Error)

// WithOffendingParam sets the settings path for the field that triggered the error.
func WithOffendingParam(path string) errorOption {
	return func(er *Error) {
		er.Param = &path
	}
}

// WithOption records the payment option the error belongs to.
func WithOption(option PaymentOption) errorOption {
	return func(er *Error) {
		er.Option = option
	}
}

// WithCause wraps the collaborator error that produced er.
func WithCause(err error) errorOption {
	return func(er *Error) {
		er.cause = err
	}
}

// NewError builds a typed coordinator error.
func NewError(kind ErrorKind, message string, opts ...errorOption) *Error {
	errPayload := &Error{
		Kind:    kind,
		Message: message,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(errPayload)
	}
	return errPayload
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var dropinErr *Error
	if !errors.As(err, &dropinErr) {
		return false
	}
	return dropinErr.Kind == kind
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var dropinErr *Error
	if !errors.As(err, &dropinErr) {
		return ""
	}
	return dropinErr.Kind
}
