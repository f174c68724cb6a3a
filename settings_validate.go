package dropin

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

type priorityRules struct {
	PaymentOptionPriority []string `json:"paymentOptionPriority" validate:"dive,payment_option"`
}

type settingsRules struct {
	Options                         map[string]OptionSettings `json:"options" validate:"dive,keys,payment_option_name,endkeys"`
	HiddenVaultedPaymentMethodTypes []string                  `json:"hiddenVaultedPaymentMethodTypes" validate:"dive,payment_option"`
	CustomerID                      string                    `json:"customerId" validate:"omitempty,max=255,printascii"`
}

func validateSettings(s Settings) error {
	rules := settingsRules{
		Options:                         s.Options,
		HiddenVaultedPaymentMethodTypes: s.HiddenVaultedPaymentMethodTypes,
		CustomerID:                      s.CustomerID,
	}
	if err := validate.Struct(rules); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}

// Validate ensures the payment method carries a type and a nonce.
func (pm *PaymentMethod) Validate() error {
	if pm == nil {
		return NewError(InvalidConfiguration, "payment method is required")
	}
	if err := validate.Struct(pm); err != nil {
		return normalizeValidationError(err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	if err := v.RegisterValidation("payment_option", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return PaymentOption(value).Valid()
	}); err != nil {
		panic(err)
	}

	if err := v.RegisterValidation("payment_option_name", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, known := lookupOption(value)
		return known
	}); err != nil {
		panic(err)
	}

	return v
}

func normalizeValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return NewError(InvalidConfiguration, "invalid settings", WithCause(err))
	}
	first := validationErrs[0]
	fieldPath := jsonPath(first)
	kind := InvalidConfiguration
	switch first.Tag() {
	case "payment_option", "payment_option_name":
		kind = UnknownOption
	}
	return NewError(kind, fmt.Sprintf("%s %s", fieldPath, validationMessage(first)), WithOffendingParam(fieldPath))
}

func jsonPath(fe validator.FieldError) string {
	path := fe.Namespace()
	if idx := strings.Index(path, "."); idx >= 0 {
		path = path[idx+1:]
	}
	if path == "" {
		return fe.Field()
	}
	return path
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("cannot exceed %s characters", fe.Param())
	case "printascii":
		return "must contain printable ASCII characters only"
	case "payment_option", "payment_option_name":
		return fmt.Sprintf("must be one of [%s]", strings.Join(knownOptionNames(), ", "))
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
