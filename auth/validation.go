package auth

import (
	"strings"

	apperrors "github.com/jrsteele09/claims-web/internal/errors"
	"github.com/jrsteele09/claims-web/internal/validation"
)

// LoginForm is the sign-in form
type LoginForm struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=50"`
}

// RegisterForm is the registration form
type RegisterForm struct {
	FirstName       string `json:"firstName" validate:"min=2"`
	LastName        string `json:"lastName" validate:"min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

var validator = validation.New(validation.Messages{
	"email.required":           "Required",
	"email.email":              "Invalid email",
	"email.max":                "Email is too long",
	"password.required":        "Required",
	"password.min":             "Min 8 chars",
	"password.max":             "Max 50 chars",
	"register.firstName":       "First name is required",
	"register.lastName":        "Last name is required",
	"register.email":           "Invalid email address",
	"register.password":        "Password must be at least 8 characters",
	"register.confirmPassword": "Passwords do not match",
})

// FormError carries per-field messages for a rejected form
type FormError struct {
	Fields validation.FieldErrors
}

func (e *FormError) Error() string {
	return e.Fields.Error()
}

func (e *FormError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// Normalize trims the email. Passwords are taken as typed.
func (f LoginForm) Normalize() LoginForm {
	f.Email = strings.TrimSpace(f.Email)
	return f
}

// Validate returns a *FormError when the form is not acceptable
func (f LoginForm) Validate() error {
	fieldErrs, err := validator.Struct(f.Normalize(), "")
	if err != nil {
		return err
	}
	if len(fieldErrs) > 0 {
		return &FormError{Fields: fieldErrs}
	}
	return nil
}

func (f RegisterForm) Normalize() RegisterForm {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	return f
}

// Validate returns a *FormError when the form is not acceptable
func (f RegisterForm) Validate() error {
	fieldErrs, err := validator.Struct(f.Normalize(), "register.")
	if err != nil {
		return err
	}
	if len(fieldErrs) == 0 {
		return nil
	}

	// The register messages are namespaced so they differ from sign-in's
	unprefixed := make(validation.FieldErrors, len(fieldErrs))
	for field, msg := range fieldErrs {
		unprefixed[strings.TrimPrefix(field, "register.")] = msg
	}
	return &FormError{Fields: unprefixed}
}
