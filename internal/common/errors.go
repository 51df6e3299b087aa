// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Classification errors.
	ErrNoCategories    = errors.New("no categories in store")
	ErrUnknownCategory = errors.New("category not in taxonomy")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ProviderError reports a failure reaching the embedding or generation
// service: network, auth, timeout, or a non-2xx status. It must always
// propagate to the caller; a silently empty vector would corrupt the
// similarity math downstream.
type ProviderError struct {
	Err      error
	Provider string
	Op       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err with the provider and operation that failed.
func NewProviderError(provider, op string, err error) error {
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// IsProviderError reports whether err originated in an external model call.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// ParseError reports data that could not be decoded into the expected shape:
// a model response with no recoverable JSON, or a malformed stored embedding.
type ParseError struct {
	Err   error
	Input string
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %v", e.Err)
	}
	return "parse error"
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError wraps err together with the offending input.
func NewParseError(input string, err error) error {
	return &ParseError{Input: input, Err: err}
}

// IsParseError reports whether err is a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
