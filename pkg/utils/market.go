package utils

import (
	"time"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// Eastern is the timezone for US markets.
var Eastern *time.Location

func init() {
	var err error
	Eastern, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback to UTC-5, ignoring DST
		Eastern = time.FixedZone("EST", -5*60*60)
	}
}

// StatusAt returns the US equity market session for the given instant.
// Holidays are not modelled; a holiday reads as a regular weekday.
func StatusAt(t time.Time) models.MarketStatus {
	now := t.In(Eastern)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return models.MarketClosed
	}

	minutes := now.Hour()*60 + now.Minute()

	// Pre-market: 4:00 - 9:30
	if minutes >= 240 && minutes < 570 {
		return models.MarketPreOpen
	}

	// Regular session: 9:30 - 16:00
	if minutes >= 570 && minutes < 960 {
		return models.MarketOpen
	}

	// After hours: 16:00 - 20:00
	if minutes >= 960 && minutes < 1200 {
		return models.MarketAfterHours
	}

	return models.MarketClosed
}

// GetMarketStatus returns the current market session.
func GetMarketStatus() models.MarketStatus {
	return StatusAt(time.Now())
}

// IsMarketOpen returns true during the regular session.
func IsMarketOpen() bool {
	return GetMarketStatus() == models.MarketOpen
}

// IsPreMarket returns true during the pre-market session.
func IsPreMarket() bool {
	return GetMarketStatus() == models.MarketPreOpen
}

// NextMarketOpen returns the next regular session open after t.
func NextMarketOpen(t time.Time) time.Time {
	now := t.In(Eastern)

	next := time.Date(now.Year(), now.Month(), now.Day(), 9, 30, 0, 0, Eastern)
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// MarketCloseFor returns the regular session close (16:00 Eastern) on
// t's date.
func MarketCloseFor(t time.Time) time.Time {
	now := t.In(Eastern)
	return time.Date(now.Year(), now.Month(), now.Day(), 16, 0, 0, 0, Eastern)
}

// TimeUntilMarketClose returns the duration until today's close.
// Negative after the close.
func TimeUntilMarketClose() time.Duration {
	return time.Until(MarketCloseFor(time.Now()))
}
