package validation

import "errors"

// Errors returned when validation itself cannot run. They are distinct from
// contract violations, which are reported as messages.
var (
	ErrNoContract     = errors.New("no contract loaded")
	ErrValidatorPanic = errors.New("validator panicked")
	ErrInvalidRequest = errors.New("request cannot be validated")
)
