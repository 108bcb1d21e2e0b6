// Package validation wires the GST specific rules into go-playground/validator.
//
// The same rules back gin's request binding (see Register) and the service
// layer, which validates its input structs with Struct before opening a
// transaction.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/sangkips/gst-billing/internal/domain/tax"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

// PhoneRegion is the default region used to parse phone numbers
const PhoneRegion = "IN"

var (
	gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	hsnPattern   = regexp.MustCompile(`^([0-9]{4}|[0-9]{6}|[0-9]{8})$`)
)

var (
	once     sync.Once
	validate *validator.Validate
)

// IsGSTIN checks the GSTIN layout and its state prefix
func IsGSTIN(gstin string) bool {
	return gstinPattern.MatchString(gstin) && IsStateCode(gstin[:2])
}

// IsHSN accepts 4, 6 or 8 digit HSN codes
func IsHSN(code string) bool {
	return hsnPattern.MatchString(code)
}

// ValidatePhoneNumber parses the number for the given region and checks it is dialable
func ValidatePhoneNumber(phone, region string) error {
	p, err := libphonenumber.Parse(phone, region)
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(p) {
		return errors.New("phone number is not valid")
	}
	return nil
}

// NormalizePhone formats a valid number in E.164, returning the input unchanged otherwise
func NormalizePhone(phone string) string {
	p, err := libphonenumber.Parse(phone, PhoneRegion)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return phone
	}
	return libphonenumber.Format(p, libphonenumber.E164)
}

// Stored precision of quantities and money values
const (
	QuantityPlaces int32 = 3
	MoneyPlaces    int32 = 2
)

// WithinPlaces reports whether d has no significant digits past the given
// number of decimal places. Trailing zeros do not count.
func WithinPlaces(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// Places returns a field validation error when d is finer than places
func Places(field string, d decimal.Decimal, places int32) error {
	if WithinPlaces(d, places) {
		return nil
	}
	return apperror.NewFieldValidationError(field, "must have at most "+strconv.Itoa(int(places))+" decimal places")
}

// Register installs the custom tags and the decimal type adapter on v
func Register(v *validator.Validate) error {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	v.RegisterTagNameFunc(jsonName)

	rules := map[string]validator.Func{
		"gstin": func(fl validator.FieldLevel) bool {
			return IsGSTIN(fl.Field().String())
		},
		"hsn": func(fl validator.FieldLevel) bool {
			return IsHSN(fl.Field().String())
		},
		"statecode": func(fl validator.FieldLevel) bool {
			return IsStateCode(fl.Field().String())
		},
		"phone_in": func(fl validator.FieldLevel) bool {
			return ValidatePhoneNumber(fl.Field().String(), PhoneRegion) == nil
		},
		"gstrate": func(fl validator.FieldLevel) bool {
			return tax.IsValidRate(decimal.NewFromFloat(fl.Field().Float()))
		},
		// decimals reach rules as float64 through decimalValue
		"places": func(fl validator.FieldLevel) bool {
			places, err := strconv.Atoi(fl.Param())
			if err != nil {
				return false
			}
			return WithinPlaces(decimal.NewFromFloat(fl.Field().Float()), int32(places))
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// Validator returns the shared validator instance
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		if err := Register(validate); err != nil {
			panic(err)
		}
	})
	return validate
}

// Struct validates s and converts failures into a validation AppError
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewBadRequestError(err.Error())
	}
	return apperror.NewValidationError(FieldErrors(verrs))
}

// FieldErrors maps validator errors to the API field error shape
func FieldErrors(verrs validator.ValidationErrors) []apperror.FieldError {
	out := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperror.FieldError{
			Field:   fieldPath(fe),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " entries"
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "places":
		return "must have at most " + fe.Param() + " decimal places"
	case "gstin":
		return "is not a valid GSTIN"
	case "hsn":
		return "must be a 4, 6 or 8 digit HSN code"
	case "statecode":
		return "is not a known state code"
	case "phone_in":
		return "is not a valid phone number"
	case "gstrate":
		return "must be one of 0, 5, 12, 18, 28"
	case "email":
		return "is not a valid email"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// fieldPath drops the root struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}
