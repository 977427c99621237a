package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxLegs is the number of leg slots a position row can carry
const MaxLegs = 4

// DefaultMultiplier is the contract size used when a leg has none
var DefaultMultiplier = decimal.NewFromInt(100)

// Position represents one row of a structured-product position report
type Position struct {
	Row           int                 `json:"row"`
	ID            string              `json:"id,omitempty"`
	Ticker        string              `json:"ticker"`
	RegisteredAt  time.Time           `json:"registered_at"`
	ExpiresAt     time.Time           `json:"expires_at"`
	EntrySpot     decimal.NullDecimal `json:"entry_spot"`
	EntryUnitCost decimal.NullDecimal `json:"entry_unit_cost"`
	Legs          []Leg               `json:"legs"`
}

// Leg represents one instrument slice of a position
type Leg struct {
	Index        int                 `json:"index"`
	Quantity     decimal.NullDecimal `json:"quantity"`
	Kind         string              `json:"kind"`
	Strike       decimal.NullDecimal `json:"strike"`
	BarrierValue decimal.NullDecimal `json:"barrier_value"`
	BarrierType  string              `json:"barrier_type,omitempty"`
	Rebate       decimal.NullDecimal `json:"rebate"`
	Multiplier   decimal.NullDecimal `json:"multiplier"`
}

// TickerKey returns the key positions are grouped by for market data
func (p *Position) TickerKey() string {
	return strings.ToUpper(strings.TrimSpace(p.Ticker))
}

// Valid reports whether the identifying fields needed for valuation are present
func (p *Position) Valid() bool {
	return p.TickerKey() != "" && !p.RegisteredAt.IsZero() && !p.ExpiresAt.IsZero()
}

// WindowEnd is the last date of the position's observation window:
// the evaluation date, or the expiry date if it comes first.
func (p *Position) WindowEnd(evalDate time.Time) time.Time {
	expiry := DateOf(p.ExpiresAt)
	eval := DateOf(evalDate)
	if expiry.Before(eval) {
		return expiry
	}
	return eval
}

// Used reports whether the leg carries a non-zero quantity
func (l *Leg) Used() bool {
	return l.Quantity.Valid && !l.Quantity.Decimal.IsZero()
}

// EffectiveMultiplier returns the leg multiplier, defaulting to 100 when absent or zero
func (l *Leg) EffectiveMultiplier() decimal.Decimal {
	if !l.Multiplier.Valid || l.Multiplier.Decimal.IsZero() {
		return DefaultMultiplier
	}
	return l.Multiplier.Decimal
}

// DateOf truncates t to its calendar date at UTC midnight
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of whole days from a to b
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// NewNullDecimal wraps a known value
func NewNullDecimal(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
