package valuation

import (
	"github.com/shopspring/decimal"
	"github.com/trogers1052/position-valuation/internal/models"
)

// SliceHistory clips a history to the window and derives its extremes.
// A nil history (failed fetch) yields an empty slice with null extremes.
func SliceHistory(h *models.PriceHistory, w models.MarketWindow) models.HistorySlice {
	var s models.HistorySlice
	if h == nil {
		return s
	}

	for _, bar := range h.Bars {
		if !w.Contains(bar.Date) {
			continue
		}
		if bar.High.Valid {
			s.Highs = append(s.Highs, bar.High.Decimal)
		}
		if bar.Low.Valid {
			s.Lows = append(s.Lows, bar.Low.Decimal)
		}
		if bar.Close.Valid {
			s.Closes = append(s.Closes, bar.Close.Decimal)
		}
	}

	if len(s.Highs) > 0 {
		s.HighMax = models.NewNullDecimal(decimal.Max(s.Highs[0], s.Highs[1:]...))
	}
	if len(s.Lows) > 0 {
		s.LowMin = models.NewNullDecimal(decimal.Min(s.Lows[0], s.Lows[1:]...))
	}
	if len(s.Closes) > 0 {
		s.LastClose = models.NewNullDecimal(s.Closes[len(s.Closes)-1])
	}
	return s
}
