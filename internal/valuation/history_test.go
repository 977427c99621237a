package valuation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/trogers1052/position-valuation/internal/models"
)

func TestSliceHistory(t *testing.T) {
	history := &models.PriceHistory{
		Ticker: "PETR4.SA",
		Bars: []models.PriceBar{
			bar(day(2024, 1, 10), "36.5", "35.1", "36.0"),
			bar(day(2024, 1, 11), "37.2", "35.9", "37.0"),
			bar(day(2024, 1, 12), "", "34.8", ""),
			bar(day(2024, 1, 15), "38.0", "", "37.4"),
			bar(day(2024, 1, 16), "36.9", "36.1", "36.3"),
		},
	}

	t.Run("window outside all samples yields empty series and null extremes", func(t *testing.T) {
		w := models.MarketWindow{Start: day(2024, 2, 1), End: day(2024, 2, 28)}

		s := SliceHistory(history, w)
		assert.Empty(t, s.Highs)
		assert.Empty(t, s.Lows)
		assert.Empty(t, s.Closes)
		assert.False(t, s.HighMax.Valid)
		assert.False(t, s.LowMin.Valid)
		assert.False(t, s.LastClose.Valid)
	})

	t.Run("window with one sample yields that sample as every extreme", func(t *testing.T) {
		w := models.MarketWindow{Start: day(2024, 1, 11), End: day(2024, 1, 11)}

		s := SliceHistory(history, w)
		assert.Len(t, s.Highs, 1)
		assert.Len(t, s.Lows, 1)
		assert.Len(t, s.Closes, 1)
		assert.True(t, dec("37.2").Equal(s.HighMax.Decimal))
		assert.True(t, dec("35.9").Equal(s.LowMin.Decimal))
		assert.True(t, dec("37.0").Equal(s.LastClose.Decimal))
	})

	t.Run("drops null points instead of treating them as zero", func(t *testing.T) {
		w := models.MarketWindow{Start: day(2024, 1, 10), End: day(2024, 1, 16)}

		s := SliceHistory(history, w)
		assert.Len(t, s.Highs, 4)
		assert.Len(t, s.Lows, 4)
		assert.Len(t, s.Closes, 4)
		assert.True(t, dec("38.0").Equal(s.HighMax.Decimal))
		assert.True(t, dec("34.8").Equal(s.LowMin.Decimal))
		assert.True(t, dec("36.3").Equal(s.LastClose.Decimal))
	})

	t.Run("window bounds are inclusive", func(t *testing.T) {
		w := models.MarketWindow{Start: day(2024, 1, 12), End: day(2024, 1, 15)}

		s := SliceHistory(history, w)
		assert.Equal(t, []decimal.Decimal{dec("38.0")}, s.Highs)
		assert.Equal(t, []decimal.Decimal{dec("34.8")}, s.Lows)
		assert.True(t, dec("37.4").Equal(s.LastClose.Decimal))
	})

	t.Run("nil history propagates no data", func(t *testing.T) {
		w := models.MarketWindow{Start: day(2024, 1, 1), End: day(2024, 12, 31)}

		s := SliceHistory(nil, w)
		assert.Empty(t, s.Closes)
		assert.False(t, s.HighMax.Valid)
	})
}

func TestAccumulateDividends(t *testing.T) {
	history := &models.PriceHistory{
		Dividends: []models.DividendEvent{
			{Date: day(2024, 1, 5), Amount: dec("0.50")},
			{Date: day(2024, 3, 1), Amount: dec("1.00")},
			{Date: day(2024, 6, 3), Amount: dec("0.75")},
		},
	}

	t.Run("sums events inside the window", func(t *testing.T) {
		w := models.MarketWindow{Start: day(2024, 1, 5), End: day(2024, 3, 1)}
		assert.True(t, dec("1.50").Equal(AccumulateDividends(history, w)))
	})

	t.Run("returns zero with no events in range", func(t *testing.T) {
		w := models.MarketWindow{Start: day(2024, 7, 1), End: day(2024, 8, 1)}
		assert.True(t, AccumulateDividends(history, w).IsZero())
	})

	t.Run("returns zero with no history", func(t *testing.T) {
		w := models.MarketWindow{Start: day(2024, 1, 1), End: day(2024, 12, 31)}
		assert.True(t, AccumulateDividends(nil, w).IsZero())
	})
}
