package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventValuationRequested = "VALUATION_REQUESTED"
	EventPositionValued     = "POSITION_VALUED"
	EventValuationCompleted = "VALUATION_COMPLETED"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// ValuationRequest is the wire form of a batch of positions to value
type ValuationRequest struct {
	EvaluationDate string            `json:"evaluation_date,omitempty"`
	Positions      []PositionRequest `json:"positions"`
}

// ValuationRequestedEvent represents a Kafka event asking for a valuation run
type ValuationRequestedEvent struct {
	EventType string           `json:"event_type"`
	RequestID string           `json:"request_id"`
	Request   ValuationRequest `json:"request"`
	Timestamp time.Time        `json:"timestamp"`
}

// PositionValuedEvent represents a Kafka event carrying one position's result
type PositionValuedEvent struct {
	EventType      string           `json:"event_type"`
	RunID          string           `json:"run_id"`
	EvaluationDate string           `json:"evaluation_date"`
	Result         *ValuationResult `json:"result,omitempty"`
	Total          int              `json:"total,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// PositionRequest is the wire form of a Position with calendar dates as strings
type PositionRequest struct {
	Row           int                 `json:"row"`
	ID            string              `json:"id,omitempty"`
	Ticker        string              `json:"ticker"`
	RegisteredAt  string              `json:"registration_date"`
	ExpiresAt     string              `json:"expiry_date"`
	EntrySpot     decimal.NullDecimal `json:"entry_spot"`
	EntryUnitCost decimal.NullDecimal `json:"entry_unit_cost"`
	Legs          []Leg               `json:"legs"`
}

// ToPosition parses the wire dates into a Position
func (r PositionRequest) ToPosition() (Position, error) {
	registered, err := time.Parse(DateLayout, r.RegisteredAt)
	if err != nil {
		return Position{}, fmt.Errorf("invalid registration_date %q: %w", r.RegisteredAt, err)
	}
	expires, err := time.Parse(DateLayout, r.ExpiresAt)
	if err != nil {
		return Position{}, fmt.Errorf("invalid expiry_date %q: %w", r.ExpiresAt, err)
	}
	return Position{
		Row:           r.Row,
		ID:            r.ID,
		Ticker:        r.Ticker,
		RegisteredAt:  registered,
		ExpiresAt:     expires,
		EntrySpot:     r.EntrySpot,
		EntryUnitCost: r.EntryUnitCost,
		Legs:          r.Legs,
	}, nil
}

// ToPositions converts every request, dropping rows whose dates do not parse.
// The second return value is the number of dropped rows.
func (v ValuationRequest) ToPositions() ([]Position, int) {
	positions := make([]Position, 0, len(v.Positions))
	dropped := 0
	for _, pr := range v.Positions {
		p, err := pr.ToPosition()
		if err != nil {
			dropped++
			continue
		}
		positions = append(positions, p)
	}
	return positions, dropped
}

// Date parses the evaluation date, defaulting to today when empty
func (v ValuationRequest) Date(now time.Time) (time.Time, error) {
	if v.EvaluationDate == "" {
		return DateOf(now), nil
	}
	d, err := time.Parse(DateLayout, v.EvaluationDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid evaluation_date %q: %w", v.EvaluationDate, err)
	}
	return d, nil
}
