// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInsufficientHistory = errors.New("insufficient price history")
	ErrInvalidFundamentals = errors.New("required fundamental fields missing")
	ErrInvalidPeriod       = errors.New("invalid indicator period")
	ErrRateLimited         = errors.New("rate limited")
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrNotSupported        = errors.New("operation not supported by this provider")
	ErrMarketClosed        = errors.New("market is closed")
	ErrPositionNotFound    = errors.New("position not found")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrDataNotFound        = errors.New("data not found")
	ErrDatabaseError       = errors.New("database error")
)

// ProviderError represents an error from an upstream data provider.
type ProviderError struct {
	Provider string
	Endpoint string
	Symbol   string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s [%s] %s: %s: %v", e.Provider, e.Endpoint, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("provider %s [%s] %s: %s", e.Provider, e.Endpoint, e.Symbol, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, endpoint, symbol, message string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Endpoint: endpoint,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// AnalysisError represents an error raised while analyzing a symbol.
type AnalysisError struct {
	Symbol    string
	Dimension string
	Message   string
	Err       error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis error [%s] %s: %s: %v", e.Symbol, e.Dimension, e.Message, e.Err)
	}
	return fmt.Sprintf("analysis error [%s] %s: %s", e.Symbol, e.Dimension, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// NewAnalysisError creates a new AnalysisError.
func NewAnalysisError(symbol, dimension, message string, err error) *AnalysisError {
	return &AnalysisError{
		Symbol:    symbol,
		Dimension: dimension,
		Message:   message,
		Err:       err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsRetryable reports whether a provider error is worth retrying.
// Rate limits and unknown symbols never are; transient upstream
// failures are.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrSymbolNotFound) || errors.Is(err, ErrNotSupported) {
		return false
	}
	return errors.Is(err, ErrUpstreamUnavailable)
}
