package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumup/dropin"
)

func newVaultServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClientFetchPaymentMethods(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery, gotAuth string
	srv := newVaultServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"payment_methods": []map[string]any{
				{"type": "CreditCard", "nonce": "n1", "default": true},
				{"type": "PayPalAccount", "nonce": "n2"},
			},
		})
	})

	client := NewHTTPClient(srv.URL+"/", "cus_1", WithAPIKey("secret"))
	methods, err := client.FetchPaymentMethods(context.Background(), dropin.FetchOptions{DefaultFirst: true})
	require.NoError(t, err)

	assert.Equal(t, "/customers/cus_1/payment-methods", gotPath)
	assert.Equal(t, "default_first=true", gotQuery)
	assert.Equal(t, "Bearer secret", gotAuth)
	require.Len(t, methods, 2)
	assert.Equal(t, dropin.TypeCreditCard, methods[0].Type)
	assert.Equal(t, "n1", methods[0].Nonce)
	assert.True(t, methods[0].Default)
	assert.Equal(t, dropin.TypePayPalAccount, methods[1].Type)
}

func TestHTTPClientFetchErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		status int
		body   string
		errMsg string
	}{
		"server error": {
			status: http.StatusInternalServerError,
			body:   "vault unavailable",
			errMsg: "unexpected status 500: vault unavailable",
		},
		"malformed body": {
			status: http.StatusOK,
			body:   "{",
			errMsg: "vault: decode payment methods",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := newVaultServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			client := NewHTTPClient(srv.URL, "cus_1")
			_, err := client.FetchPaymentMethods(context.Background(), dropin.FetchOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestHTTPClientDeletePaymentMethod(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		status  int
		wantErr error
		errMsg  string
	}{
		"deleted": {
			status: http.StatusNoContent,
		},
		"missing": {
			status:  http.StatusNotFound,
			wantErr: ErrNotFound,
		},
		"rejected": {
			status: http.StatusConflict,
			errMsg: "unexpected status 409",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var gotMethod, gotPath string
			srv := newVaultServer(t, func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotPath = r.URL.Path
				w.WriteHeader(tc.status)
			})

			client := NewHTTPClient(srv.URL, "cus_1")
			err := client.DeletePaymentMethod(context.Background(), "nonce-1")

			assert.Equal(t, http.MethodDelete, gotMethod)
			assert.Equal(t, "/customers/cus_1/payment-methods/nonce-1", gotPath)
			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			case tc.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestHTTPClientHonoursContext(t *testing.T) {
	t.Parallel()

	srv := newVaultServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"payment_methods":[]}`))
	})
	client := NewHTTPClient(srv.URL, "cus_1")

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.FetchPaymentMethods(ctx, dropin.FetchOptions{})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := client.FetchPaymentMethods(ctx, dropin.FetchOptions{})
		assert.Error(t, err)
	})
}

func TestWithTimeoutRejectsNonPositive(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { WithTimeout(0) })
}

func TestHTTPClientAsVaultClient(t *testing.T) {
	t.Parallel()

	srv := newVaultServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"payment_methods":[{"type":"VenmoAccount","nonce":"v1"}]}`))
	})

	var client dropin.VaultClient = NewHTTPClient(srv.URL, "cus_1", WithTimeout(time.Second))
	methods, err := client.FetchPaymentMethods(context.Background(), dropin.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, dropin.TypeVenmoAccount, methods[0].Type)
}
