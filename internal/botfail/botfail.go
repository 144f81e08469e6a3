// Package botfail carries the categorized error type used across the
// bot. Categories decide how a failure is handled: retryable errors go
// back through the retry layer, fatal ones stop the process, and
// invariant violations abort the current tick.
package botfail

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies an error by how the caller should react to it.
type Category string

const (
	CategoryFatal      Category = "FATAL"
	CategoryConfig     Category = "CONFIG"
	CategoryInvariant  Category = "INVARIANT"
	CategoryBroker     Category = "BROKER"
	CategoryMarketData Category = "MARKET_DATA"
	CategoryOrder      Category = "ORDER"
	CategoryValidation Category = "VALIDATION"
	CategoryNetwork    Category = "NETWORK"
	CategoryTimeout    Category = "TIMEOUT"
	CategoryRateLimit  Category = "RATE_LIMIT"
	CategoryState      Category = "STATE"
)

// Error is a categorized error with the component it came from.
type Error struct {
	Category   Category
	Component  string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Component, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Component, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether the process should stop on this error.
func (e *Error) IsFatal() bool {
	return e.Category == CategoryFatal || e.Category == CategoryConfig
}

func newError(cat Category, component, message string, underlying error) *Error {
	return &Error{
		Category:   cat,
		Component:  component,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryableCategory(cat),
	}
}

func NewFatalError(component, message string, err error) *Error {
	return newError(CategoryFatal, component, message, err)
}

func NewConfigError(component, message string, err error) *Error {
	return newError(CategoryConfig, component, message, err)
}

// NewInvariantError marks a state inconsistency. Invariant violations
// are never retried; the current cycle aborts and the state is dumped.
func NewInvariantError(component, message string, err error) *Error {
	return newError(CategoryInvariant, component, message, err)
}

func NewBrokerError(component, message string, err error) *Error {
	return newError(CategoryBroker, component, message, err)
}

func NewMarketDataError(component, message string, err error) *Error {
	return newError(CategoryMarketData, component, message, err)
}

func NewOrderError(component, message string, err error) *Error {
	return newError(CategoryOrder, component, message, err)
}

func NewValidationError(component, message string, err error) *Error {
	return newError(CategoryValidation, component, message, err)
}

func NewStateError(component, message string, err error) *Error {
	return newError(CategoryState, component, message, err)
}

// WithRetryable overrides the category default.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

func retryableCategory(cat Category) bool {
	switch cat {
	case CategoryNetwork, CategoryTimeout, CategoryRateLimit, CategoryMarketData, CategoryBroker:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err, at any level of wrapping, is a
// retryable categorized error. Uncategorized errors are not retried.
func IsRetryable(err error) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Retryable
	}
	return false
}

// IsInvariant reports whether err is an invariant violation.
func IsInvariant(err error) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Category == CategoryInvariant
	}
	return false
}

// IsFatal reports whether err should stop the process.
func IsFatal(err error) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.IsFatal()
	}
	return false
}

// Categorize wraps a generic error from an external call, guessing the
// category from its text. Already-categorized errors pass through.
func Categorize(err error, component string) *Error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return be
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "context deadline exceeded") || strings.Contains(msg, "timeout"):
		return newError(CategoryTimeout, component, "operation timed out", err)
	case strings.Contains(msg, "connection") || strings.Contains(msg, "dial") || strings.Contains(msg, "dns"):
		return newError(CategoryNetwork, component, "network failure", err)
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return newError(CategoryRateLimit, component, "rate limited", err)
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "forbidden") || strings.Contains(msg, "api key"):
		return NewFatalError(component, "credentials rejected", err)
	case strings.Contains(msg, "insufficient"):
		return NewOrderError(component, "order rejected", err)
	default:
		return NewBrokerError(component, "call failed", err).WithRetryable(false)
	}
}
