package auth

import "errors"

// User-facing validation messages, shown inline under the form.
const (
	MsgMissingFields    = "Please fill in all fields."
	MsgInvalidEmail     = "Please enter a valid email address."
	MsgPasswordMismatch = "Passwords do not match."
)

// Message returns the inline text for a validation error, or "" for nil.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingFields):
		return MsgMissingFields
	case errors.Is(err, ErrInvalidEmail):
		return MsgInvalidEmail
	case errors.Is(err, ErrPasswordMismatch):
		return MsgPasswordMismatch
	default:
		return err.Error()
	}
}
