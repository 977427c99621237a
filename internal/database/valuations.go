package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/trogers1052/position-valuation/internal/models"
)

const resultColumns = `
	row_number, position_id, ticker, entry_total, current_total, pnl, pnl_pct,
	dividends, dte, status, effective_spot, spot_source, barriers, history_error
`

// CreateValuationRun stores a run and all of its results in one transaction
func (db *DB) CreateValuationRun(run *models.ValuationRun) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO valuation_runs (id, evaluation_date, position_count, skipped_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, run.ID, models.DateOf(run.EvaluationDate), len(run.Results), run.Skipped, createdAt)
	if err != nil {
		return fmt.Errorf("failed to create valuation run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO valuation_results (run_id,` + resultColumns + `, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range run.Results {
		barriers := r.Barriers
		if barriers == nil {
			barriers = []string{}
		}
		_, err := stmt.Exec(
			run.ID, r.Row, nullString(r.PositionID), r.Ticker,
			r.EntryTotal, r.CurrentTotal, r.PnL, r.PnLPct,
			r.Dividends, r.DTE, r.Status, r.EffectiveSpot, r.SpotSource,
			pq.Array(barriers), nullString(r.HistoryError), createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert valuation result for row %d: %w", r.Row, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	run.CreatedAt = createdAt
	return nil
}

// GetValuationRun retrieves a run and its results ordered by row
func (db *DB) GetValuationRun(runID string) (*models.ValuationRun, error) {
	var run models.ValuationRun
	err := db.conn.QueryRow(`
		SELECT id, evaluation_date, skipped_count, created_at
		FROM valuation_runs
		WHERE id = $1
	`, runID).Scan(&run.ID, &run.EvaluationDate, &run.Skipped, &run.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("valuation run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get valuation run: %w", err)
	}
	run.EvaluationDate = models.DateOf(run.EvaluationDate)

	rows, err := db.conn.Query(`
		SELECT`+resultColumns+`
		FROM valuation_results
		WHERE run_id = $1
		ORDER BY row_number ASC, id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get valuation results: %w", err)
	}
	defer rows.Close()

	run.Results = []models.ValuationResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		run.Results = append(run.Results, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate valuation results: %w", err)
	}
	return &run, nil
}

// GetLatestResultByTicker retrieves the most recently stored result for a ticker
func (db *DB) GetLatestResultByTicker(ticker string) (*models.ValuationResult, error) {
	row := db.conn.QueryRow(`
		SELECT`+resultColumns+`
		FROM valuation_results
		WHERE ticker = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, ticker)

	r, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no valuation result for %s: %w", ticker, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(s rowScanner) (*models.ValuationResult, error) {
	var r models.ValuationResult
	var positionID, historyError sql.NullString
	var barriers pq.StringArray

	err := s.Scan(
		&r.Row, &positionID, &r.Ticker, &r.EntryTotal, &r.CurrentTotal, &r.PnL, &r.PnLPct,
		&r.Dividends, &r.DTE, &r.Status, &r.EffectiveSpot, &r.SpotSource, &barriers, &historyError,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan valuation result: %w", err)
	}

	r.PositionID = positionID.String
	r.HistoryError = historyError.String
	r.Barriers = []string(barriers)
	if r.Barriers == nil {
		r.Barriers = []string{}
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
