package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expiry status constants
const (
	StatusActive  = "ACTIVE"
	StatusExpired = "EXPIRED"
)

// ValuationResult holds the mark-to-market figures of one position
type ValuationResult struct {
	Row           int                 `json:"row"`
	PositionID    string              `json:"position_id,omitempty"`
	Ticker        string              `json:"ticker"`
	EntryTotal    decimal.Decimal     `json:"entry_total"`
	CurrentTotal  decimal.Decimal     `json:"current_total"`
	PnL           decimal.Decimal     `json:"pnl"`
	PnLPct        decimal.NullDecimal `json:"pnl_pct"`
	Dividends     decimal.Decimal     `json:"dividends"`
	DTE           int                 `json:"dte"`
	Status        string              `json:"status"`
	EffectiveSpot decimal.NullDecimal `json:"effective_spot"`
	SpotSource    string              `json:"spot_source"`
	Barriers      []string            `json:"barriers"`
	HistoryError  string              `json:"history_error,omitempty"`
}

// ValuationRun groups the results produced by one batch evaluation
type ValuationRun struct {
	ID             string            `json:"run_id"`
	EvaluationDate time.Time         `json:"evaluation_date"`
	Results        []ValuationResult `json:"results"`
	Skipped        int               `json:"skipped"`
	CreatedAt      time.Time         `json:"created_at"`
}
