package types

import "errors"

var (
	ErrOracleUnavailable = errors.New("recommendation oracle unavailable")
	ErrMalformedResponse = errors.New("malformed oracle response")
	ErrCouldNotAnswer    = errors.New("could not answer")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("forbidden")
	ErrNoImage           = errors.New("no image returned")
)
