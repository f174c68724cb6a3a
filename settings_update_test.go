package dropin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeOptionSettings(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		current     OptionSettings
		patch       OptionSettings
		want        OptionSettings
		wantChanged bool
	}{
		"empty patch": {
			current: OptionSettings{"flow": "vault"},
			patch:   OptionSettings{},
			want:    OptionSettings{"flow": "vault"},
		},
		"same value": {
			current: OptionSettings{"flow": "vault", "amount": 10},
			patch:   OptionSettings{"amount": 10.0},
			want:    OptionSettings{"flow": "vault", "amount": float64(10)},
		},
		"new key on nil settings": {
			current:     nil,
			patch:       OptionSettings{"flow": "checkout"},
			want:        OptionSettings{"flow": "checkout"},
			wantChanged: true,
		},
		"nested merge": {
			current: OptionSettings{"buttonStyle": map[string]any{"color": "gold", "size": "small"}},
			patch:   OptionSettings{"buttonStyle": map[string]any{"size": "large"}},
			want: OptionSettings{"buttonStyle": map[string]any{
				"color": "gold",
				"size":  "large",
			}},
			wantChanged: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, changed, err := mergeOptionSettings(tc.current, tc.patch)
			require.NoError(t, err)
			assert.Equal(t, tc.wantChanged, changed)
			if tc.wantChanged {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestUpdateOptionSettings(t *testing.T) {
	t.Parallel()

	paypal := &manualIntegration{accept: true}
	m, rec := newRecordedModel(t, Settings{
		PaymentOptionPriority: []string{"card", "paypal"},
		Options:               map[string]OptionSettings{"paypal": {"flow": "vault"}},
		CustomerID:            "cus_1",
	},
		WithIntegration(OptionCard, accept()),
		WithIntegration(OptionPayPal, paypal),
		WithVaultClient(staticVault(PaymentMethod{Type: TypePayPalAccount, Nonce: "stored"})),
	)
	require.NoError(t, m.Init(context.Background()))
	before := m.Config()

	fresh := &PaymentMethod{Type: TypePayPalAccount, Nonce: "fresh"}
	card := &PaymentMethod{Type: TypeCreditCard, Nonce: "card"}
	require.NoError(t, m.AddPaymentMethod(card))
	require.NoError(t, m.AddPaymentMethod(fresh))
	rec.reset()

	changed, err := m.UpdateOptionSettings(OptionPayPal, OptionSettings{"flow": "vault"})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, before, m.Config())
	assert.Empty(t, rec.all())

	changed, err = m.UpdateOptionSettings(OptionPayPal, OptionSettings{"flow": "checkout", "amount": "10.00"})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotSame(t, before, m.Config())
	assert.Equal(t, OptionSettings{"flow": "vault"}, before.OptionSettings(OptionPayPal))

	host, _ := paypal.started()
	assert.Equal(t, OptionSettings{"flow": "checkout", "amount": "10.00"}, host.Settings())

	nonces := make([]string, 0)
	for _, pm := range m.GetPaymentMethods() {
		nonces = append(nonces, pm.Nonce)
	}
	assert.Equal(t, []string{"card", "stored"}, nonces, "only the unvaulted PayPal method is dropped")
	assert.Nil(t, m.GetActivePaymentMethod())
	assert.Equal(t, 1, rec.count(EventRemovePaymentMethod))
}

func TestUpdateOptionSettingsRejectsUnknownOption(t *testing.T) {
	t.Parallel()

	m, _ := newRecordedModel(t, Settings{PaymentOptionPriority: []string{"card"}}, WithIntegration(OptionCard, accept()))
	_, err := m.UpdateOptionSettings("bitcoin", OptionSettings{"x": 1})
	assert.True(t, IsKind(err, UnknownOption))

	m.Teardown()
	_, err = m.UpdateOptionSettings(OptionCard, OptionSettings{"x": 1})
	assert.ErrorIs(t, err, ErrTornDown)
}
