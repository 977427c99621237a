package valuation

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/position-valuation/internal/models"
)

// TickerData is the market data fetched once for a ticker
type TickerData struct {
	History    *models.PriceHistory
	HistoryErr error
	Spot       models.SpotQuote
}

// EffectiveSpot picks the price options settle against: the last close in
// the window once the position has expired, the live quote otherwise.
func EffectiveSpot(p *models.Position, evalDate time.Time, slice models.HistorySlice, spot models.SpotQuote) decimal.NullDecimal {
	if models.DateOf(p.ExpiresAt).Before(models.DateOf(evalDate)) {
		return slice.LastClose
	}
	return spot.Price
}

// ValuePosition values every leg of a position against its ticker's market
// data and aggregates the totals. It is a pure function of its inputs.
func ValuePosition(p models.Position, evalDate time.Time, data TickerData) models.ValuationResult {
	window := models.MarketWindow{
		Ticker: p.TickerKey(),
		Start:  models.DateOf(p.RegisteredAt),
		End:    p.WindowEnd(evalDate),
	}
	slice := SliceHistory(data.History, window)

	market := LegMarket{
		EntrySpot:     p.EntrySpot,
		EntryUnitCost: p.EntryUnitCost,
		CurrentSpot:   data.Spot.Price,
		EffectiveSpot: EffectiveSpot(&p, evalDate, slice, data.Spot),
		Dividends:     AccumulateDividends(data.History, window),
		HighMax:       slice.HighMax,
		LowMin:        slice.LowMin,
	}

	res := models.ValuationResult{
		Row:           p.Row,
		PositionID:    p.ID,
		Ticker:        window.Ticker,
		EntryTotal:    decimal.Zero,
		CurrentTotal:  decimal.Zero,
		Dividends:     decimal.Zero,
		EffectiveSpot: market.EffectiveSpot,
		SpotSource:    data.Spot.Source,
		Barriers:      []string{},
	}
	if data.HistoryErr != nil {
		res.HistoryError = data.HistoryErr.Error()
	}

	for i, leg := range p.Legs {
		if i >= models.MaxLegs {
			break
		}
		if leg.Index == 0 {
			leg.Index = i + 1
		}
		v, ok := ValueLeg(ClassifyLeg(leg), market)
		if !ok {
			continue
		}
		res.EntryTotal = res.EntryTotal.Add(v.Entry)
		res.CurrentTotal = res.CurrentTotal.Add(v.Current)
		res.Dividends = res.Dividends.Add(v.Dividends)
		if v.Tag != "" {
			res.Barriers = append(res.Barriers, v.Tag)
		}
	}

	res.PnL = res.CurrentTotal.Sub(res.EntryTotal)
	if !res.EntryTotal.IsZero() {
		res.PnLPct = models.NewNullDecimal(res.PnL.Div(res.EntryTotal))
	}
	res.DTE = models.DaysBetween(evalDate, p.ExpiresAt)
	res.Status = models.StatusActive
	if res.DTE < 0 {
		res.Status = models.StatusExpired
	}
	return res
}
