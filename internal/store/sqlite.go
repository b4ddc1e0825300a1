package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	terrors "github.com/batman-haker/Professional-Trading-Terminal/internal/errors"
	"github.com/batman-haker/Professional-Trading-Terminal/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Portfolio positions, one row per symbol
	CREATE TABLE IF NOT EXISTS positions (
		symbol TEXT PRIMARY KEY,
		shares REAL NOT NULL,
		avg_cost REAL NOT NULL,
		purchase_date DATETIME NOT NULL,
		notes TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Recorded recommendations
	CREATE TABLE IF NOT EXISTS analysis_journal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		action TEXT NOT NULL,
		composite REAL NOT NULL,
		confidence REAL NOT NULL,
		rationale TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_symbol ON analysis_journal(symbol);
	CREATE INDEX IF NOT EXISTS idx_journal_created ON analysis_journal(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SavePosition inserts or replaces a position.
func (s *SQLiteStore) SavePosition(ctx context.Context, pos *models.Position) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO positions (symbol, shares, avg_cost, purchase_date, notes, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, pos.Symbol, pos.Shares, pos.AvgCost, pos.PurchaseDate, pos.Notes)
	if err != nil {
		return fmt.Errorf("failed to save position %s: %w", pos.Symbol, err)
	}
	return nil
}

// GetPosition returns the position for symbol, or ErrPositionNotFound.
func (s *SQLiteStore) GetPosition(ctx context.Context, symbol string) (*models.Position, error) {
	var pos models.Position
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, shares, avg_cost, purchase_date, notes
		FROM positions WHERE symbol = ?
	`, symbol).Scan(&pos.Symbol, &pos.Shares, &pos.AvgCost, &pos.PurchaseDate, &pos.Notes)
	if err == sql.ErrNoRows {
		return nil, terrors.ErrPositionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query position %s: %w", symbol, err)
	}
	return &pos, nil
}

// ListPositions returns all positions ordered by symbol.
func (s *SQLiteStore) ListPositions(ctx context.Context) ([]models.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, shares, avg_cost, purchase_date, notes
		FROM positions ORDER BY symbol ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var pos models.Position
		if err := rows.Scan(&pos.Symbol, &pos.Shares, &pos.AvgCost, &pos.PurchaseDate, &pos.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

// DeletePosition removes the position for symbol. Deleting a missing
// position returns ErrPositionNotFound.
func (s *SQLiteStore) DeletePosition(ctx context.Context, symbol string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE symbol = ?`, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete position %s: %w", symbol, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return terrors.ErrPositionNotFound
	}
	return nil
}

// SaveAnalysis appends a journal entry and fills in rec.ID.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, rec *models.AnalysisRecord) error {
	rationale, err := json.Marshal(rec.Rationale)
	if err != nil {
		return fmt.Errorf("failed to encode rationale: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_journal (symbol, action, composite, confidence, rationale, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.Symbol, rec.Action, rec.Composite, rec.Confidence, string(rationale), createdAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis for %s: %w", rec.Symbol, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		rec.ID = id
	}
	rec.CreatedAt = createdAt
	return nil
}

// GetAnalyses returns journal entries matching the filter, newest first.
func (s *SQLiteStore) GetAnalyses(ctx context.Context, filter AnalysisFilter) ([]models.AnalysisRecord, error) {
	query := "SELECT id, symbol, action, composite, confidence, rationale, created_at FROM analysis_journal WHERE 1=1"
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}
	if !filter.StartDate.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, filter.EndDate)
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		var rec models.AnalysisRecord
		var rationale string
		if err := rows.Scan(&rec.ID, &rec.Symbol, &rec.Action, &rec.Composite, &rec.Confidence, &rationale, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if rationale != "" {
			json.Unmarshal([]byte(rationale), &rec.Rationale)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
