// Package store provides data persistence for positions and the
// analysis journal.
package store

import (
	"context"
	"time"

	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// Store defines the persistence boundary. The analysis engine never
// touches it; recording is the caller's decision.
type Store interface {
	// Positions
	SavePosition(ctx context.Context, pos *models.Position) error
	GetPosition(ctx context.Context, symbol string) (*models.Position, error)
	ListPositions(ctx context.Context) ([]models.Position, error)
	DeletePosition(ctx context.Context, symbol string) error

	// Analysis journal
	SaveAnalysis(ctx context.Context, rec *models.AnalysisRecord) error
	GetAnalyses(ctx context.Context, filter AnalysisFilter) ([]models.AnalysisRecord, error)

	// Lifecycle
	Close() error
}

// AnalysisFilter filters journal queries. Zero fields are ignored.
type AnalysisFilter struct {
	Symbol    string
	Action    string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}
