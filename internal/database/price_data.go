package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/trogers1052/position-valuation/internal/models"
)

// ArchiveHistory upserts the bars and dividends of a fetched history
func (db *DB) ArchiveHistory(ticker string, h *models.PriceHistory) error {
	if h == nil || (len(h.Bars) == 0 && len(h.Dividends) == 0) {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	barStmt, err := tx.Prepare(`
		INSERT INTO price_data_daily (ticker, date, high, low, close, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ticker, date) DO UPDATE SET
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer barStmt.Close()

	now := time.Now()
	for _, b := range h.Bars {
		if _, err := barStmt.Exec(ticker, models.DateOf(b.Date), b.High, b.Low, b.Close, now); err != nil {
			return fmt.Errorf("failed to insert price data for %s: %w", ticker, err)
		}
	}

	divStmt, err := tx.Prepare(`
		INSERT INTO dividend_events (ticker, date, amount, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker, date) DO UPDATE SET amount = EXCLUDED.amount
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer divStmt.Close()

	for _, d := range h.Dividends {
		if _, err := divStmt.Exec(ticker, models.DateOf(d.Date), d.Amount, now); err != nil {
			return fmt.Errorf("failed to insert dividend for %s: %w", ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPriceHistory retrieves archived bars and dividends for a ticker within a date range
func (db *DB) GetPriceHistory(ticker string, startDate, endDate time.Time) (*models.PriceHistory, error) {
	h := &models.PriceHistory{Ticker: ticker}

	rows, err := db.conn.Query(`
		SELECT date, high, low, close
		FROM price_data_daily
		WHERE ticker = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`, ticker, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get price data range: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Date, &b.High, &b.Low, &b.Close); err != nil {
			return nil, fmt.Errorf("failed to scan price data: %w", err)
		}
		b.Date = models.DateOf(b.Date)
		h.Bars = append(h.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price data: %w", err)
	}

	divRows, err := db.conn.Query(`
		SELECT date, amount
		FROM dividend_events
		WHERE ticker = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`, ticker, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get dividends: %w", err)
	}
	defer divRows.Close()

	for divRows.Next() {
		var d models.DividendEvent
		if err := divRows.Scan(&d.Date, &d.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan dividend: %w", err)
		}
		d.Date = models.DateOf(d.Date)
		h.Dividends = append(h.Dividends, d)
	}
	if err := divRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dividends: %w", err)
	}

	return h, nil
}

// GetLatestPriceBar retrieves the most recent archived bar for a ticker
func (db *DB) GetLatestPriceBar(ticker string) (*models.PriceBar, error) {
	var b models.PriceBar
	err := db.conn.QueryRow(`
		SELECT date, high, low, close
		FROM price_data_daily
		WHERE ticker = $1
		ORDER BY date DESC
		LIMIT 1
	`, ticker).Scan(&b.Date, &b.High, &b.Low, &b.Close)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no price data found for %s: %w", ticker, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest price data: %w", err)
	}
	b.Date = models.DateOf(b.Date)
	return &b, nil
}

// DeletePriceDataOlderThan removes archived bars and dividends dated before date
func (db *DB) DeletePriceDataOlderThan(date time.Time) (int64, error) {
	result, err := db.conn.Exec(`DELETE FROM price_data_daily WHERE date < $1`, date)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old price data: %w", err)
	}
	if _, err := db.conn.Exec(`DELETE FROM dividend_events WHERE date < $1`, date); err != nil {
		return 0, fmt.Errorf("failed to delete old dividends: %w", err)
	}
	return result.RowsAffected()
}
