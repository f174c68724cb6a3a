package dropin

// PaymentOption identifies a checkout method the widget can offer.
type PaymentOption string

// Defines values for PaymentOption.
const (
	OptionCard         PaymentOption = "card"
	OptionPayPal       PaymentOption = "paypal"
	OptionPayPalCredit PaymentOption = "paypalCredit"
	OptionVenmo        PaymentOption = "venmo"
	OptionApplePay     PaymentOption = "applePay"
	OptionGooglePay    PaymentOption = "googlePay"
)

// PaymentMethodType tags a tokenized payment method with the kind of
// credential it carries.
type PaymentMethodType string

// Defines values for PaymentMethodType.
const (
	TypeCreditCard     PaymentMethodType = "CreditCard"
	TypePayPalAccount  PaymentMethodType = "PayPalAccount"
	TypeVenmoAccount   PaymentMethodType = "VenmoAccount"
	TypeApplePayCard   PaymentMethodType = "ApplePayCard"
	TypeAndroidPayCard PaymentMethodType = "AndroidPayCard"
)

// DefaultPaymentOptionPriority is used when the merchant does not supply
// paymentOptionPriority.
var DefaultPaymentOptionPriority = []PaymentOption{
	OptionCard,
	OptionPayPal,
	OptionPayPalCredit,
	OptionVenmo,
	OptionApplePay,
	OptionGooglePay,
}

var paymentMethodTypes = map[PaymentOption]PaymentMethodType{
	OptionCard:         TypeCreditCard,
	OptionPayPal:       TypePayPalAccount,
	OptionPayPalCredit: TypePayPalAccount,
	OptionVenmo:        TypeVenmoAccount,
	OptionApplePay:     TypeApplePayCard,
	OptionGooglePay:    TypeAndroidPayCard,
}

// alwaysHiddenTypes are never surfaced from the vault: wallet credentials are
// re-tokenized on every checkout.
var alwaysHiddenTypes = []PaymentMethodType{
	TypeApplePayCard,
	TypeAndroidPayCard,
}

// Valid reports whether o belongs to the known option set.
func (o PaymentOption) Valid() bool {
	_, ok := paymentMethodTypes[o]
	return ok
}

// MethodType returns the payment method type produced by o, or "" for an
// unknown option.
func (o PaymentOption) MethodType() PaymentMethodType {
	return paymentMethodTypes[o]
}

// Key returns the dependency key tracking o's integration setup.
func (o PaymentOption) Key() DependencyKey {
	return DependencyKey(o)
}

func (o PaymentOption) String() string {
	return string(o)
}

// knownOptionNames lists the option identifiers in default priority order.
func knownOptionNames() []string {
	names := make([]string, 0, len(DefaultPaymentOptionPriority))
	for _, o := range DefaultPaymentOptionPriority {
		names = append(names, string(o))
	}
	return names
}
