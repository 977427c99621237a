package valuation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/position-valuation/internal/models"
)

// InstrumentKind is the classified instrument of a leg
type InstrumentKind int

const (
	KindUnrecognized InstrumentKind = iota
	KindStock
	KindCall
	KindPut
)

func (k InstrumentKind) String() string {
	switch k {
	case KindStock:
		return "stock"
	case KindCall:
		return "call"
	case KindPut:
		return "put"
	default:
		return "unrecognized"
	}
}

var stockTokens = []string{"ESTOQUE", "ACAO", "AÇÃO", "STOCK", "EQUITY"}

// ClassifyInstrument maps a free-text instrument label to its kind
func ClassifyInstrument(label string) InstrumentKind {
	text := strings.ToUpper(label)
	switch {
	case containsAny(text, stockTokens...):
		return KindStock
	case strings.Contains(text, "CALL"):
		return KindCall
	case strings.Contains(text, "PUT"):
		return KindPut
	default:
		return KindUnrecognized
	}
}

// ClassifiedLeg is a leg whose labels have been resolved into enums
type ClassifiedLeg struct {
	models.Leg
	Instrument InstrumentKind
	Barrier    Barrier
}

// ClassifyLeg resolves the instrument and barrier labels of a leg
func ClassifyLeg(leg models.Leg) ClassifiedLeg {
	return ClassifiedLeg{
		Leg:        leg,
		Instrument: ClassifyInstrument(leg.Kind),
		Barrier:    ClassifyBarrier(leg.BarrierType),
	}
}

// LegMarket carries the position-level inputs every leg is valued against
type LegMarket struct {
	EntrySpot     decimal.NullDecimal
	EntryUnitCost decimal.NullDecimal
	CurrentSpot   decimal.NullDecimal
	EffectiveSpot decimal.NullDecimal
	Dividends     decimal.Decimal
	HighMax       decimal.NullDecimal
	LowMin        decimal.NullDecimal
}

// LegValue is the contribution of one leg to its position's totals
type LegValue struct {
	Entry      decimal.Decimal
	Current    decimal.Decimal
	Dividends  decimal.Decimal
	PayoffUnit decimal.NullDecimal
	Tag        string
}

// ValueLeg computes a leg's entry cost and current value. The second return
// value is false when the leg is unused or its instrument is unrecognized.
func ValueLeg(leg ClassifiedLeg, m LegMarket) (LegValue, bool) {
	if !leg.Used() {
		return LegValue{}, false
	}
	qty := leg.Quantity.Decimal

	switch leg.Instrument {
	case KindStock:
		return valueStock(qty, m), true
	case KindCall, KindPut:
		return valueOption(leg, qty, m), true
	default:
		return LegValue{}, false
	}
}

func valueStock(qty decimal.Decimal, m LegMarket) LegValue {
	v := LegValue{
		Entry:     qty.Mul(orZero(m.EntrySpot)),
		Current:   decimal.Zero,
		Dividends: qty.Mul(m.Dividends),
	}
	if m.CurrentSpot.Valid {
		v.Current = qty.Mul(m.CurrentSpot.Decimal)
	}
	return v
}

func valueOption(leg ClassifiedLeg, qty decimal.Decimal, m LegMarket) LegValue {
	v := LegValue{
		Entry:     qty.Mul(orZero(m.EntryUnitCost).Abs()),
		Current:   decimal.Zero,
		Dividends: decimal.Zero,
	}

	payoff := IntrinsicPayoff(leg.Instrument, m.EffectiveSpot, leg.Strike)
	activation := EvaluateBarrier(leg.Barrier, BarrierObservation{
		Level:     leg.BarrierValue,
		EntrySpot: m.EntrySpot,
		HighMax:   m.HighMax,
		LowMin:    m.LowMin,
	})
	v.PayoffUnit, v.Tag = ApplyBarrier(payoff, leg.Barrier.Mode, activation, leg.Rebate, leg.Index)

	if v.PayoffUnit.Valid {
		v.Current = qty.Mul(leg.EffectiveMultiplier()).Mul(v.PayoffUnit.Decimal)
	}
	return v
}

// IntrinsicPayoff returns the per-unit exercise value of a call or put.
// It is null when the spot or the strike is unknown.
func IntrinsicPayoff(kind InstrumentKind, spot, strike decimal.NullDecimal) decimal.NullDecimal {
	if !spot.Valid || !strike.Valid {
		return decimal.NullDecimal{}
	}
	switch kind {
	case KindCall:
		return models.NewNullDecimal(decimal.Max(decimal.Zero, spot.Decimal.Sub(strike.Decimal)))
	case KindPut:
		return models.NewNullDecimal(decimal.Max(decimal.Zero, strike.Decimal.Sub(spot.Decimal)))
	default:
		return decimal.NullDecimal{}
	}
}

// ApplyBarrier adjusts an intrinsic payoff for the barrier outcome and
// returns the status tag to record for the leg, if any.
func ApplyBarrier(payoff decimal.NullDecimal, mode BarrierMode, activation Activation, rebate decimal.NullDecimal, index int) (decimal.NullDecimal, string) {
	switch {
	case mode == KnockOut && activation == Activated:
		unit := decimal.Zero
		if rebate.Valid && !rebate.Decimal.IsZero() {
			unit = rebate.Decimal
		}
		return models.NewNullDecimal(unit), fmt.Sprintf("OUT_%d", index)
	case mode == KnockIn && activation == NotActivated:
		return models.NewNullDecimal(decimal.Zero), fmt.Sprintf("IN_NAO_%d", index)
	case mode != BarrierNone:
		return payoff, fmt.Sprintf("%s_%d", mode.Tag(), index)
	default:
		return payoff, ""
	}
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if d.Valid {
		return d.Decimal
	}
	return decimal.Zero
}
