// Package errdefs holds the error kinds shared by the analysis pipeline.
// Providers return them, the orchestrator records their message on the task.
package errdefs

import (
	"errors"
	"fmt"
)

// ErrConfiguration means a credential or setting required by the selected provider is missing.
type ErrConfiguration struct {
	error
}

func NewErrConfiguration(format string, args ...any) *ErrConfiguration {
	return &ErrConfiguration{fmt.Errorf("configuration error: "+format, args...)}
}

func (e *ErrConfiguration) Unwrap() error { return errors.Unwrap(e.error) }

// ErrNotFound means a resource referenced by the task does not exist.
type ErrNotFound struct {
	error
}

func NewErrNotFound(resourceType string, id any) *ErrNotFound {
	return &ErrNotFound{fmt.Errorf("%s %v not found", resourceType, id)}
}

// ErrUpstream is a failure reported by, or while talking to, an external provider.
type ErrUpstream struct {
	error
	Provider string
}

func NewErrUpstream(provider string, err error) *ErrUpstream {
	return &ErrUpstream{error: fmt.Errorf("%s: %w", provider, err), Provider: provider}
}

func (e *ErrUpstream) Unwrap() error { return errors.Unwrap(e.error) }

// ErrValidation is an upstream response that does not match the expected schema.
// It is reported as an upstream failure, never coerced.
type ErrValidation struct {
	*ErrUpstream
}

func NewErrValidation(provider string, err error) *ErrValidation {
	return &ErrValidation{NewErrUpstream(provider, fmt.Errorf("invalid structured output: %w", err))}
}

func IsConfiguration(err error) bool {
	var e *ErrConfiguration
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *ErrNotFound
	return errors.As(err, &e)
}

// IsUpstream reports true for upstream and validation errors.
func IsUpstream(err error) bool {
	var e *ErrUpstream
	if errors.As(err, &e) {
		return true
	}
	return IsValidation(err)
}

func IsValidation(err error) bool {
	var e *ErrValidation
	return errors.As(err, &e)
}
