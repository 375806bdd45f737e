// Package validation performs client-side presence and format checks on request payloads
// before they are sent, producing the same field-error shape the API returns.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/target/storefront-go/internal/errors"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ().-]{6,19}$`)

// labels overrides the humanized field name for a few JSON keys.
var labels = map[string]string{
	"re_password":      "Password confirmation",
	"shipping_address": "Shipping address",
}

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
		})
		instance = v
	})
	return instance
}

// Struct validates s against its `validate` tags. It returns nil or a validation AppError
// whose Details hold {"field": ["message", ...]} and whose Message is the first failure.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "validation failed")
	}

	fields := make(map[string][]string)
	var first, firstField string
	for _, fe := range verrs {
		name := fieldPath(fe)
		msg := Message(fe)
		fields[name] = append(fields[name], msg)
		if first == "" {
			first, firstField = msg, name
		}
	}
	details, _ := json.Marshal(fields)
	return &apperrors.AppError{
		Code:    apperrors.ErrCodeValidation,
		Message: first,
		Details: details,
		Field:   firstField,
	}
}

// fieldPath drops the root struct name from the namespace ("RegisterInput.email" → "email").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

// Message renders a single field error in the API's sentence style.
func Message(fe validator.FieldError) string {
	label := Label(fe.Field())
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "email":
		return "Enter a valid email address."
	case "phone":
		return "Enter a valid phone number."
	case "eqfield":
		if fe.Field() == "re_password" {
			return "Passwords do not match."
		}
		return fmt.Sprintf("%s must match %s.", label, Label(fe.Param()))
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s).", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s cannot exceed %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return label + " has an invalid format."
	}
}

// Label turns a JSON field name into a sentence-case label ("first_name" → "First name").
func Label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Required checks a single free-standing value, for inputs that are not structs.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.ValidationField(field, Label(field)+" is required.")
	}
	return nil
}

// OneOf checks value against a closed set, case-insensitively.
func OneOf(field, value string, options []string) error {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, opt := range options {
		if v == strings.ToLower(opt) {
			return nil
		}
	}
	return apperrors.ValidationField(field,
		fmt.Sprintf("%s must be one of: %s", Label(field), strings.Join(options, ", ")))
}
