package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestProviderErrorUnwrap(t *testing.T) {
	err := NewProviderError("yahoo", "chart", "AAPL", "http 429", ErrRateLimited)

	if !errors.Is(err, ErrRateLimited) {
		t.Fatal("sentinel lost through ProviderError")
	}
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatal("errors.As failed")
	}
	if perr.Provider != "yahoo" || perr.Endpoint != "chart" || perr.Symbol != "AAPL" {
		t.Fatalf("unexpected fields %+v", perr)
	}
	for _, want := range []string{"yahoo", "chart", "AAPL", "http 429", "rate limited"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("Error() = %q, missing %q", err.Error(), want)
		}
	}
}

func TestProviderErrorWithoutCause(t *testing.T) {
	err := NewProviderError("yahoo", "chart", "AAPL", "odd response", nil)
	if errors.Unwrap(err) != nil {
		t.Fatal("expected no wrapped cause")
	}
	if !strings.Contains(err.Error(), "odd response") {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestAnalysisErrorUnwrap(t *testing.T) {
	err := NewAnalysisError("AAPL", "trend", "too few bars", ErrInsufficientHistory)
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatal("sentinel lost through AnalysisError")
	}
	var aerr *AnalysisError
	if !errors.As(err, &aerr) || aerr.Dimension != "trend" {
		t.Fatalf("errors.As failed or wrong fields: %+v", aerr)
	}
}

func TestDataErrorUnwrap(t *testing.T) {
	err := NewDataError("fundamentals", "AAPL", "missing metrics", ErrInvalidFundamentals)
	if !errors.Is(err, ErrInvalidFundamentals) {
		t.Fatal("sentinel lost through DataError")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("shares", -5, "must be positive")
	for _, want := range []string{"shares", "-5", "must be positive"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("Error() = %q, missing %q", err.Error(), want)
		}
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Fatal("Wrap(nil) must be nil")
	}
	err := Wrap(ErrSymbolNotFound, "looking up quote")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Fatal("sentinel lost through Wrap")
	}
	if !strings.HasPrefix(err.Error(), "looking up quote: ") {
		t.Fatalf("Error() = %q", err.Error())
	}

	if Wrapf(nil, "fetching %s", "AAPL") != nil {
		t.Fatal("Wrapf(nil) must be nil")
	}
	err = Wrapf(ErrRateLimited, "fetching %s", "AAPL")
	if !errors.Is(err, ErrRateLimited) || !strings.Contains(err.Error(), "fetching AAPL") {
		t.Fatalf("Wrapf = %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"upstream unavailable", ErrUpstreamUnavailable, true},
		{"wrapped upstream unavailable", NewProviderError("yahoo", "chart", "AAPL", "http 503", ErrUpstreamUnavailable), true},
		{"rate limited", ErrRateLimited, false},
		{"wrapped rate limited", NewProviderError("alphavantage", "overview", "AAPL", "note", ErrRateLimited), false},
		{"symbol not found", ErrSymbolNotFound, false},
		{"not supported", ErrNotSupported, false},
		{"unrelated", errors.New("boom"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.want {
				t.Fatalf("IsRetryable = %v, want %v", got, tc.want)
			}
		})
	}
}
