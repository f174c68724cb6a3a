package dropin

import (
	"encoding/json"
	"fmt"

	"github.com/oapi-codegen/runtime"

	"github.com/sumup/dropin/fingerprint"
)

// UpdateOptionSettings merges patch into the merchant settings of option and
// swaps in a new [ModelConfig]. When the merged settings differ from the
// current ones, methods of the option's type that are not vaulted yet are
// removed: they were tokenized under the old settings. It reports whether the
// settings changed.
func (m *Model) UpdateOptionSettings(option PaymentOption, patch OptionSettings) (bool, error) {
	if !option.Valid() {
		return false, NewError(UnknownOption, fmt.Sprintf("unknown payment option %q", option), WithOption(option))
	}
	if !m.live() {
		return false, ErrTornDown
	}

	m.mu.Lock()
	current := m.modelConfig
	next, changed, err := mergeOptionSettings(current.settings[option], patch)
	if err != nil {
		m.mu.Unlock()
		return false, NewError(InvalidConfiguration, "merge option settings", WithOption(option), WithCause(err))
	}
	if changed {
		m.modelConfig = current.withOptionSettings(option, next)
	}
	m.mu.Unlock()

	if !changed {
		return false, nil
	}
	methodType := option.MethodType()
	removed := m.RemoveUnvaultedPaymentMethods(func(pm *PaymentMethod) bool {
		return pm.Type == methodType
	})
	m.log.V(1).Info("option settings updated", "option", option, "removedUnvaulted", len(removed))
	return true, nil
}

func mergeOptionSettings(current, patch OptionSettings) (OptionSettings, bool, error) {
	if current == nil {
		current = OptionSettings{}
	}
	if len(patch) == 0 {
		return current, false, nil
	}
	base, err := json.Marshal(current)
	if err != nil {
		return nil, false, err
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, false, err
	}
	merged, err := runtime.JSONMerge(base, raw)
	if err != nil {
		return nil, false, err
	}
	var next OptionSettings
	if err := json.Unmarshal(merged, &next); err != nil {
		return nil, false, err
	}
	if next == nil {
		next = OptionSettings{}
	}
	same, err := fingerprint.Equal(current, next)
	if err != nil {
		return nil, false, err
	}
	return next, !same, nil
}
