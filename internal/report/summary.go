// Package report writes the per-run JSON summary next to the processed workbook.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/position-valuation/internal/models"
)

// Row is the masked, rounded view of one valued position
type Row struct {
	ID           string   `json:"id"`
	Ticker       string   `json:"ticker"`
	EntryTotal   float64  `json:"entry_total"`
	CurrentTotal float64  `json:"current_total"`
	PnL          float64  `json:"pnl"`
	DTE          int      `json:"dte"`
	Status       string   `json:"status"`
	Barriers     []string `json:"barriers"`
	Spot         *float64 `json:"spot"`
	Source       string   `json:"source"`
	HistoryError *string  `json:"history_error"`
}

// Summary is the file written for each run
type Summary struct {
	RunID          string `json:"run_id"`
	EvaluationDate string `json:"evaluation_date"`
	Rows           []Row  `json:"rows"`
	Total          int    `json:"total"`
}

// MaskID hides the middle of a position identifier
func MaskID(id string) string {
	r := []rune(id)
	switch {
	case len(r) == 0:
		return "row"
	case len(r) <= 6:
		return string(r[:min(2, len(r))]) + "***"
	default:
		return string(r[:3]) + "***" + string(r[len(r)-3:])
	}
}

// Build converts a run into its summary
func Build(run *models.ValuationRun) Summary {
	s := Summary{
		RunID:          run.ID,
		EvaluationDate: run.EvaluationDate.Format(models.DateLayout),
		Rows:           make([]Row, 0, len(run.Results)),
	}

	for _, res := range run.Results {
		row := Row{
			ID:           MaskID(res.PositionID),
			Ticker:       res.Ticker,
			EntryTotal:   round(res.EntryTotal, 2),
			CurrentTotal: round(res.CurrentTotal, 2),
			PnL:          round(res.PnL, 2),
			DTE:          res.DTE,
			Status:       res.Status,
			Barriers:     res.Barriers,
			Source:       res.SpotSource,
		}
		if row.Barriers == nil {
			row.Barriers = []string{}
		}
		if res.EffectiveSpot.Valid {
			spot := round(res.EffectiveSpot.Decimal, 4)
			row.Spot = &spot
		}
		if res.HistoryError != "" {
			msg := res.HistoryError
			row.HistoryError = &msg
		}
		s.Rows = append(s.Rows, row)
	}
	s.Total = len(s.Rows)
	return s
}

func round(d decimal.Decimal, places int32) float64 {
	return d.Round(places).InexactFloat64()
}

// Path returns "<dir>/summary_<date>.json"
func Path(dir string, run *models.ValuationRun) string {
	return filepath.Join(dir, fmt.Sprintf("summary_%s.json", run.EvaluationDate.Format(models.DateLayout)))
}

// Write stores the run summary in dir and returns the file path
func Write(dir string, run *models.ValuationRun) (string, error) {
	data, err := json.MarshalIndent(Build(run), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	path := Path(dir, run)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary %s: %w", path, err)
	}
	return path, nil
}
