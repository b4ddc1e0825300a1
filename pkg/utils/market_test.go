package utils

import (
	"testing"
	"time"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// eastern builds an instant on a given wall clock in US Eastern time.
func eastern(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, Eastern)
}

func TestStatusAtSessions(t *testing.T) {
	// Wednesday June 11 2025.
	tests := []struct {
		name string
		at   time.Time
		want models.MarketStatus
	}{
		{"overnight", eastern(2025, 6, 11, 2, 0), models.MarketClosed},
		{"pre-market opens", eastern(2025, 6, 11, 4, 0), models.MarketPreOpen},
		{"last pre-market minute", eastern(2025, 6, 11, 9, 29), models.MarketPreOpen},
		{"opening bell", eastern(2025, 6, 11, 9, 30), models.MarketOpen},
		{"midday", eastern(2025, 6, 11, 12, 30), models.MarketOpen},
		{"last session minute", eastern(2025, 6, 11, 15, 59), models.MarketOpen},
		{"closing bell", eastern(2025, 6, 11, 16, 0), models.MarketAfterHours},
		{"after hours", eastern(2025, 6, 11, 18, 0), models.MarketAfterHours},
		{"after hours end", eastern(2025, 6, 11, 20, 0), models.MarketClosed},
		{"saturday", eastern(2025, 6, 14, 12, 0), models.MarketClosed},
		{"sunday", eastern(2025, 6, 15, 12, 0), models.MarketClosed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusAt(tc.at); got != tc.want {
				t.Fatalf("StatusAt(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestStatusAtConvertsZones(t *testing.T) {
	// 18:00 UTC in June is 14:00 Eastern, mid-session.
	at := time.Date(2025, 6, 11, 18, 0, 0, 0, time.UTC)
	if got := StatusAt(at); got != models.MarketOpen {
		t.Fatalf("StatusAt(%v) = %v, want open", at, got)
	}
}

func TestNextMarketOpen(t *testing.T) {
	// Before the open on a weekday: same day.
	at := eastern(2025, 6, 11, 8, 0)
	next := NextMarketOpen(at)
	if !next.Equal(eastern(2025, 6, 11, 9, 30)) {
		t.Fatalf("NextMarketOpen = %v", next)
	}

	// After the open: next day.
	at = eastern(2025, 6, 11, 10, 0)
	next = NextMarketOpen(at)
	if !next.Equal(eastern(2025, 6, 12, 9, 30)) {
		t.Fatalf("NextMarketOpen = %v", next)
	}

	// Friday afternoon rolls over the weekend to Monday.
	at = eastern(2025, 6, 13, 17, 0)
	next = NextMarketOpen(at)
	if !next.Equal(eastern(2025, 6, 16, 9, 30)) {
		t.Fatalf("NextMarketOpen = %v", next)
	}
	if next.Weekday() != time.Monday {
		t.Fatalf("next open on %v", next.Weekday())
	}
}

func TestMarketCloseFor(t *testing.T) {
	at := time.Date(2025, 6, 11, 3, 0, 0, 0, time.UTC)
	close := MarketCloseFor(at)
	// 3:00 UTC on June 11 is still June 10 in New York.
	want := eastern(2025, 6, 10, 16, 0)
	if !close.Equal(want) {
		t.Fatalf("MarketCloseFor = %v, want %v", close, want)
	}
}
