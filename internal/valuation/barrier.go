package valuation

import (
	"strings"

	"github.com/shopspring/decimal"
)

// BarrierMode is the activation mode of a barrier
type BarrierMode int

const (
	BarrierNone BarrierMode = iota
	KnockIn
	KnockOut
)

// Tag returns the label used in barrier status tags
func (m BarrierMode) Tag() string {
	switch m {
	case KnockIn:
		return "IN"
	case KnockOut:
		return "OUT"
	default:
		return ""
	}
}

// BarrierDirection is the side of the spot a barrier sits on
type BarrierDirection int

const (
	DirectionUnspecified BarrierDirection = iota
	DirectionUp
	DirectionDown
)

// Barrier is the classified form of a barrier-type label
type Barrier struct {
	Mode      BarrierMode
	Direction BarrierDirection
}

// Activation is the tri-state outcome of a barrier check
type Activation int

const (
	ActivationUndefined Activation = iota
	Activated
	NotActivated
)

// ClassifyBarrier parses a free-text barrier label. A knock-out token wins
// over a knock-in token, and an upper token wins over a lower one.
func ClassifyBarrier(label string) Barrier {
	text := strings.ToUpper(label)
	var b Barrier

	if containsAny(text, "OUT", "KO") {
		b.Mode = KnockOut
	}
	if b.Mode == BarrierNone && containsAny(text, "IN", "KI") {
		b.Mode = KnockIn
	}

	switch {
	case containsAny(text, "UP", "UO", "UI"):
		b.Direction = DirectionUp
	case containsAny(text, "DOWN", "DO", "DI"):
		b.Direction = DirectionDown
	}
	return b
}

// BarrierObservation is what the evaluator needs to decide activation
type BarrierObservation struct {
	Level     decimal.NullDecimal
	EntrySpot decimal.NullDecimal
	HighMax   decimal.NullDecimal
	LowMin    decimal.NullDecimal
}

// EvaluateBarrier decides whether the barrier was touched over the window.
// An unspecified direction is inferred from the entry spot when known.
func EvaluateBarrier(b Barrier, obs BarrierObservation) Activation {
	if !obs.Level.Valid || b.Mode == BarrierNone {
		return ActivationUndefined
	}
	level := obs.Level.Decimal

	direction := b.Direction
	if direction == DirectionUnspecified && obs.EntrySpot.Valid {
		if level.GreaterThanOrEqual(obs.EntrySpot.Decimal) {
			direction = DirectionUp
		} else {
			direction = DirectionDown
		}
	}

	switch direction {
	case DirectionUp:
		if obs.HighMax.Valid && obs.HighMax.Decimal.GreaterThanOrEqual(level) {
			return Activated
		}
		return NotActivated
	case DirectionDown:
		if obs.LowMin.Valid && obs.LowMin.Decimal.LessThanOrEqual(level) {
			return Activated
		}
		return NotActivated
	default:
		return ActivationUndefined
	}
}

func containsAny(text string, tokens ...string) bool {
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}
