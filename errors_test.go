package dropin

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindFatal(t *testing.T) {
	t.Parallel()

	tests := map[ErrorKind]bool{
		InvalidConfiguration:   true,
		UnknownOption:          true,
		NoSupportedOptions:     true,
		ProbeFailure:           false,
		DependencySetupFailure: false,
		VaultFetchFailure:      false,
		VaultDeleteFailure:     false,
	}

	for kind, want := range tests {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			if got := kind.Fatal(); got != want {
				t.Fatalf("expected Fatal()=%t for %s", want, kind)
			}
			if got := NewError(kind, "msg").Fatal(); got != want {
				t.Fatalf("expected *Error.Fatal()=%t for %s", want, kind)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := NewError(VaultFetchFailure, "fetch vaulted payment methods", WithCause(cause), WithOption(OptionCard), nil)
	wrapped := fmt.Errorf("refresh: %w", err)

	if err.Error() != "fetch vaulted payment methods: connection reset" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(wrapped, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	if !IsKind(wrapped, VaultFetchFailure) || KindOf(wrapped) != VaultFetchFailure {
		t.Fatalf("expected kind to survive wrapping")
	}
	if err.Option != OptionCard {
		t.Fatalf("unexpected option %q", err.Option)
	}
	if KindOf(cause) != "" || IsKind(nil, VaultFetchFailure) {
		t.Fatalf("plain errors carry no kind")
	}

	var nilErr *Error
	if nilErr.Error() != "" || nilErr.Unwrap() != nil || nilErr.Fatal() {
		t.Fatalf("nil *Error must be inert")
	}
}

func TestErrorOffendingParam(t *testing.T) {
	t.Parallel()

	err := NewError(InvalidConfiguration, "bad", WithOffendingParam("options[paypal]"))
	if err.Param == nil || *err.Param != "options[paypal]" {
		t.Fatalf("unexpected param %v", err.Param)
	}
}
