// Package validation turns go-playground/validator struct tags into the
// per-field messages the forms display.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a form field (its json name) to the message shown next to it
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + ": " + fe[field]
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

// Messages maps "field.tag" (for example "email.required") to a message.
// A bare "field" entry is the fallback for every tag of that field.
type Messages map[string]string

// Validator validates structs and reports failures by json field name
type Validator struct {
	validate *validator.Validate
	messages Messages
}

// New creates a validator that uses messages for its reports
func New(messages Messages) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: v, messages: messages}
}

// Struct validates s. Field names in the result are prefixed with prefix, so
// nested values can be reported as "metadata.hotelName". A nil result means s
// is valid.
func (v *Validator) Struct(s any, prefix string) (FieldErrors, error) {
	err := v.validate.Struct(s)
	if err == nil {
		return nil, nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil, fmt.Errorf("[validation Struct] %w", err)
	}

	fieldErrs := make(FieldErrors, len(validationErrs))
	for _, fe := range validationErrs {
		field := prefix + fe.Field()
		if _, exists := fieldErrs[field]; exists {
			continue
		}
		fieldErrs[field] = v.message(field, fe)
	}
	return fieldErrs, nil
}

func (v *Validator) message(field string, fe validator.FieldError) string {
	if msg, ok := v.messages[field+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := v.messages[field]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email"
	case "min", "gte":
		return "Must be at least " + fe.Param()
	case "max", "lte":
		return "Must be at most " + fe.Param()
	case "eqfield":
		return "Does not match"
	}
	return "Invalid value"
}

// Merge adds every entry of other to fe, keeping existing messages
func (fe FieldErrors) Merge(other FieldErrors) FieldErrors {
	if len(other) == 0 {
		return fe
	}
	if fe == nil {
		fe = make(FieldErrors, len(other))
	}
	for field, msg := range other {
		if _, exists := fe[field]; !exists {
			fe[field] = msg
		}
	}
	return fe
}
