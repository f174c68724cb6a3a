package dropin

import (
	"fmt"
	"slices"
)

// ResolvePriority turns a merchant supplied paymentOptionPriority into an
// ordered, deduplicated list of known options. A nil value selects
// [DefaultPaymentOptionPriority].
func ResolvePriority(raw any) ([]PaymentOption, error) {
	names, err := priorityNames(raw)
	if err != nil {
		return nil, err
	}
	if names == nil {
		return slices.Clone(DefaultPaymentOptionPriority), nil
	}
	if err := validate.Struct(priorityRules{PaymentOptionPriority: names}); err != nil {
		return nil, normalizeValidationError(err)
	}

	seen := make(map[PaymentOption]struct{}, len(names))
	resolved := make([]PaymentOption, 0, len(names))
	for _, name := range names {
		option := PaymentOption(name)
		if _, dup := seen[option]; dup {
			continue
		}
		seen[option] = struct{}{}
		resolved = append(resolved, option)
	}
	return resolved, nil
}

func priorityNames(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []PaymentOption:
		names := make([]string, len(v))
		for i, o := range v {
			names[i] = string(o)
		}
		return names, nil
	case []string:
		return slices.Clone(v), nil
	case []any:
		names := make([]string, len(v))
		for i, item := range v {
			name, ok := item.(string)
			if !ok {
				param := fmt.Sprintf("paymentOptionPriority[%d]", i)
				return nil, NewError(UnknownOption, fmt.Sprintf("%s is not a payment option name: %v", param, item), WithOffendingParam(param))
			}
			names[i] = name
		}
		return names, nil
	default:
		return nil, NewError(InvalidConfiguration, "paymentOptionPriority must be an array", WithOffendingParam("paymentOptionPriority"))
	}
}

// candidate is an option that survived resolution together with whether it
// should be probed at all.
type candidate struct {
	option  PaymentOption
	enabled bool
}

// resolveCandidates applies the default-on flags to the resolved priority.
func resolveCandidates(cfg *ModelConfig) []candidate {
	priority := cfg.PaymentOptionPriority()
	out := make([]candidate, 0, len(priority))
	for _, option := range priority {
		enabled := true
		if option == OptionCard && cfg.CardDisabled() {
			enabled = false
		}
		out = append(out, candidate{option: option, enabled: enabled})
	}
	return out
}
