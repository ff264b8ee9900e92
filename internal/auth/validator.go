// Package auth implements the mocked credential checks that gate the chat.
// Nothing is verified against a store: a submission is accepted as soon as
// it passes client-side validation.
package auth

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// emailPattern is deliberately loose: something@something.something with no
// whitespace or extra @.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

// newValidator panics if the custom rules cannot be registered, since every
// email check would otherwise fail the tag lookup.
func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic("auth: register basic_email: " + err.Error())
	}
	return v
}

// LoginRequest is the login form payload.
type LoginRequest struct {
	Email    string `validate:"required,basic_email"`
	Password string `validate:"required"`
}

// RegisterRequest is the register form payload.
type RegisterRequest struct {
	Name            string `validate:"required"`
	Email           string `validate:"required,basic_email"`
	Password        string `validate:"required"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// ValidEmail reports whether email matches the basic address pattern.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateLogin returns nil, ErrMissingFields or ErrInvalidEmail.
func ValidateLogin(req LoginRequest) error {
	return classify(validate.Struct(req))
}

// ValidateRegister returns nil, ErrMissingFields, ErrInvalidEmail or
// ErrPasswordMismatch. Missing fields win over a bad email, which wins over
// a mismatch.
func ValidateRegister(req RegisterRequest) error {
	return classify(validate.Struct(req))
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var missing, badEmail, mismatch bool
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			missing = true
		case "basic_email":
			badEmail = true
		case "eqfield":
			mismatch = true
		}
	}

	switch {
	case missing:
		return ErrMissingFields
	case badEmail:
		return ErrInvalidEmail
	case mismatch:
		return ErrPasswordMismatch
	}
	return err
}

// DisplayName derives the name shown for a login: the part of the email
// before the first @.
func DisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
