package valuation

import (
	"github.com/shopspring/decimal"
	"github.com/trogers1052/position-valuation/internal/models"
)

// AccumulateDividends sums the cash dividends paid inside the window
func AccumulateDividends(h *models.PriceHistory, w models.MarketWindow) decimal.Decimal {
	total := decimal.Zero
	if h == nil {
		return total
	}
	for _, ev := range h.Dividends {
		if w.Contains(ev.Date) {
			total = total.Add(ev.Amount)
		}
	}
	return total
}
