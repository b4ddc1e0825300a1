package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/batman-haker/Professional-Trading-Terminal/pkg/utils"
)

// FormatUSD formats a dollar amount with thousands separators.
func FormatUSD(amount float64) string {
	return utils.FormatUSD(amount)
}

// FormatPercent formats a percentage with an explicit sign.
func FormatPercent(value float64) string {
	return utils.FormatPercent(value)
}

// FormatPnL formats a signed dollar amount.
func FormatPnL(pnl float64) string {
	return utils.FormatPnL(pnl)
}

// FormatQuantity formats a share count with commas.
func FormatQuantity(qty int64) string {
	return utils.FormatQuantity(qty)
}

// FormatCompact formats a dollar amount in compact K/M/B/T form.
func FormatCompact(amount float64) string {
	return utils.FormatCompact(amount)
}

// FormatScore formats a score in [-1, 1] with an explicit sign.
func FormatScore(score float64) string {
	return utils.FormatScore(score)
}

// FormatVolume formats a share volume in compact form without a dollar
// sign.
func FormatVolume(volume int64) string {
	abs := volume
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", float64(volume)/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", float64(volume)/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.2fK", float64(volume)/1e3)
	}
	return FormatQuantity(volume)
}

// FormatTime formats a timestamp in US Eastern time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(utils.Eastern).Format("2006-01-02 15:04:05 MST")
}

// FormatDate formats a date in US Eastern time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(utils.Eastern).Format("2006-01-02")
}

// FormatRatio formats a valuation ratio, using "-" for unreported
// values.
func FormatRatio(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

// TruncateString truncates a string to maxLen with an ellipsis.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// PadRight pads a string to the given width.
func PadRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// PadLeft pads a string on the left to the given width.
func PadLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
