package leads

import "errors"

var (
	// ErrMissingEmail is returned when registration has no email
	ErrMissingEmail = errors.New("email is required")

	// ErrInvalidEmail is returned when the email does not look like one
	ErrInvalidEmail = errors.New("email is invalid")

	// ErrInvalidStatus is returned for an unknown lead status
	ErrInvalidStatus = errors.New("invalid lead status")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")
)
