package dropin

import (
	"maps"
	"slices"
	"strings"
)

// OptionSettings holds the merchant settings object of a single payment option.
type OptionSettings map[string]any

// Clone returns a deep copy of s. Nested objects and lists are copied too.
func (s OptionSettings) Clone() OptionSettings {
	if s == nil {
		return nil
	}
	out := make(OptionSettings, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case OptionSettings:
		return v.Clone()
	case map[string]any:
		return map[string]any(OptionSettings(v).Clone())
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(v)
	default:
		return v
	}
}

// Settings is the merchant configuration as decoded from JSON or YAML.
type Settings struct {
	// Ordered list of payment options to offer. Must be list-shaped; nil
	// selects [DefaultPaymentOptionPriority].
	PaymentOptionPriority any `json:"paymentOptionPriority,omitempty" mapstructure:"paymentOptionPriority"`
	// Card is offered by default; set to opt out.
	CardDisabled bool `json:"cardDisabled,omitempty" mapstructure:"cardDisabled"`
	// Per-option settings keyed by option name.
	//
	// Example: {"paypal": {"flow": "vault"}}
	Options map[string]OptionSettings `json:"options,omitempty" mapstructure:"options"`
	// Option names whose vaulted methods must not be shown.
	HiddenVaultedPaymentMethodTypes []string `json:"hiddenVaultedPaymentMethodTypes,omitempty" mapstructure:"hiddenVaultedPaymentMethodTypes"`
	// Durable customer identity. Empty means guest checkout.
	CustomerID string `json:"customerId,omitempty" mapstructure:"customerId"`
	// Start the fraud data collector alongside the payment options.
	DataCollector bool `json:"dataCollector,omitempty" mapstructure:"dataCollector"`
	// Start the 3-D Secure integration alongside the payment options.
	ThreeDSecure bool `json:"threeDSecure,omitempty" mapstructure:"threeDSecure"`
}

// ModelConfig is the resolved merchant configuration. It is never mutated
// after [NewModelConfig]; updates build a new value.
type ModelConfig struct {
	priority     []PaymentOption
	settings     map[PaymentOption]OptionSettings
	cardDisabled bool
	customerID   string
	hiddenTypes  map[PaymentMethodType]struct{}
	auxiliary    []DependencyKey
}

// NewModelConfig validates s and resolves it into a [ModelConfig].
func NewModelConfig(s Settings) (*ModelConfig, error) {
	priority, err := ResolvePriority(s.PaymentOptionPriority)
	if err != nil {
		return nil, err
	}
	if err := validateSettings(s); err != nil {
		return nil, err
	}

	cfg := &ModelConfig{
		priority:     priority,
		settings:     make(map[PaymentOption]OptionSettings, len(s.Options)),
		cardDisabled: s.CardDisabled,
		customerID:   strings.TrimSpace(s.CustomerID),
		hiddenTypes:  make(map[PaymentMethodType]struct{}),
	}
	for name, opts := range s.Options {
		option, _ := lookupOption(name)
		cfg.settings[option] = opts.Clone()
	}
	for _, t := range alwaysHiddenTypes {
		cfg.hiddenTypes[t] = struct{}{}
	}
	for _, name := range s.HiddenVaultedPaymentMethodTypes {
		cfg.hiddenTypes[PaymentOption(name).MethodType()] = struct{}{}
	}
	if s.DataCollector {
		cfg.auxiliary = append(cfg.auxiliary, DataCollector)
	}
	if s.ThreeDSecure {
		cfg.auxiliary = append(cfg.auxiliary, ThreeDSecure)
	}
	return cfg, nil
}

// PaymentOptionPriority returns the deduplicated requested options.
func (c *ModelConfig) PaymentOptionPriority() []PaymentOption {
	return slices.Clone(c.priority)
}

// OptionSettings returns a deep copy of the merchant settings for option.
func (c *ModelConfig) OptionSettings(option PaymentOption) OptionSettings {
	return c.settings[option].Clone()
}

// CardDisabled reports whether the merchant opted out of card payments.
func (c *ModelConfig) CardDisabled() bool {
	return c.cardDisabled
}

// CustomerID returns the durable customer identity, if any.
func (c *ModelConfig) CustomerID() string {
	return c.customerID
}

// IsGuest reports whether the session has no durable customer identity.
func (c *ModelConfig) IsGuest() bool {
	return c.customerID == ""
}

// IsHidden reports whether vaulted methods of type t must not be surfaced.
func (c *ModelConfig) IsHidden(t PaymentMethodType) bool {
	_, ok := c.hiddenTypes[t]
	return ok
}

// AuxiliaryDependencies lists the non payment option dependencies turned on.
func (c *ModelConfig) AuxiliaryDependencies() []DependencyKey {
	return slices.Clone(c.auxiliary)
}

func (c *ModelConfig) withOptionSettings(option PaymentOption, s OptionSettings) *ModelConfig {
	next := *c
	next.settings = maps.Clone(c.settings)
	if next.settings == nil {
		next.settings = make(map[PaymentOption]OptionSettings)
	}
	next.settings[option] = s.Clone()
	return &next
}

// lookupOption matches option names case-insensitively; map keys read through
// viper arrive lower-cased.
func lookupOption(name string) (PaymentOption, bool) {
	if o := PaymentOption(name); o.Valid() {
		return o, true
	}
	for _, o := range DefaultPaymentOptionPriority {
		if strings.EqualFold(string(o), name) {
			return o, true
		}
	}
	return "", false
}
