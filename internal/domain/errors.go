package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when a request is rejected before any I/O happens.
	ErrValidation = errors.New("invalid request")
	// ErrUpstream indicates the object store, generative service or reference source is unreachable.
	ErrUpstream = errors.New("upstream service unavailable")
	// ErrInsufficientAssets indicates the pipeline could not gather enough images for a quiz.
	ErrInsufficientAssets = errors.New("insufficient assets")
	// ErrPersistence indicates a progress read or write failed.
	ErrPersistence = errors.New("progress persistence failed")
	// ErrUnauthorized indicates a missing, invalid or revoked token.
	ErrUnauthorized = errors.New("unauthorized")
)

// InsufficientAssetsError carries the shortfall that made a quiz impossible to assemble.
type InsufficientAssetsError struct {
	Reason string
	Have   int
	Need   int
}

func (e *InsufficientAssetsError) Error() string {
	return fmt.Sprintf("insufficient assets: %s (have %d, need %d)", e.Reason, e.Have, e.Need)
}

func (e *InsufficientAssetsError) Is(target error) bool {
	return target == ErrInsufficientAssets
}

// Validationf builds an ErrValidation-wrapped error.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// UpstreamError records a failed call to an external service. Status is the HTTP status when known.
type UpstreamError struct {
	Service string
	Status  int
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Service, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Temporary reports whether retrying may help: rate limits, server errors and transport failures.
func (e *UpstreamError) Temporary() bool {
	return e.Status == 0 || e.Status == 429 || e.Status >= 500
}
