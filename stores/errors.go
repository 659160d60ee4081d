package stores

import "errors"

// Sentinel errors returned by the store layer. Validation failures are
// detected before any statement is issued; storage failures are wrapped with
// %w so the driver message survives for logging. A lookup that finds no row
// returns a nil record and a nil error, never ErrValidation or a wrapped
// gorm.ErrRecordNotFound.
var (
	// ErrValidation marks a missing or malformed required field.
	ErrValidation = errors.New("invalid input")
	// ErrDuplicateEmail marks a registration attempt with a taken email.
	ErrDuplicateEmail = errors.New("email already registered")
)
