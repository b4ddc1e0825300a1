package scoring

import (
	"fmt"
	"time"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// sentimentFullScale is the upstream news feed's bullish/bearish
// boundary; article scores at or beyond it count as fully directional.
const sentimentFullScale = 0.35

// scoreSentiment maps an aggregated sentiment snapshot onto [-1, 1].
// A missing or empty snapshot leaves the dimension unavailable; the
// engine then drops its weight from completeness instead of failing.
func scoreSentiment(s *models.SentimentSnapshot) dimScore {
	if s == nil || s.Articles == 0 {
		return dimScore{}
	}

	v := clamp(s.Score/sentimentFullScale, -1, 1)

	var label string
	switch {
	case v >= 0.5:
		label = "bullish news flow"
	case v >= 0.15:
		label = "mildly positive news"
	case v <= -0.5:
		label = "bearish news flow"
	case v <= -0.15:
		label = "mildly negative news"
	default:
		label = "neutral news"
	}
	return dimScore{
		value:     v,
		label:     label,
		detail:    fmt.Sprintf("%d articles, %d bullish / %d bearish, mean score %+.2f", s.Articles, s.Bullish, s.Bearish, s.Score),
		available: true,
	}
}

// BuildSentimentSnapshot aggregates per-article sentiment scores into a
// single snapshot. Returns nil when there are no articles, which the
// engine treats as sentiment unavailable.
func BuildSentimentSnapshot(symbol string, items []models.NewsItem) *models.SentimentSnapshot {
	if len(items) == 0 {
		return nil
	}

	snap := &models.SentimentSnapshot{Symbol: symbol, Articles: len(items)}
	var total float64
	var latest time.Time
	for _, it := range items {
		total += it.SentimentScore
		if it.SentimentScore >= sentimentFullScale {
			snap.Bullish++
		} else if it.SentimentScore <= -sentimentFullScale {
			snap.Bearish++
		}
		if it.PublishedAt.After(latest) {
			latest = it.PublishedAt
		}
	}
	snap.Score = total / float64(len(items))
	snap.AsOf = latest
	return snap
}
