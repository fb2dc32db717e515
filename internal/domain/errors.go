package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrConflict            = errors.New("concurrent update conflict")
	ErrInvalidSignature    = errors.New("invalid payment signature")
	ErrUnsupportedPlan     = errors.New("unsupported plan")
	ErrProviderFailure     = errors.New("provider failure")
)
