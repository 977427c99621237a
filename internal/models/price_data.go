package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar represents one daily bar; any price may be missing
type PriceBar struct {
	Date  time.Time           `json:"date"`
	High  decimal.NullDecimal `json:"high"`
	Low   decimal.NullDecimal `json:"low"`
	Close decimal.NullDecimal `json:"close"`
}

// DividendEvent represents a cash dividend paid on Date
type DividendEvent struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// PriceHistory is the daily history returned by a market data provider
type PriceHistory struct {
	Ticker    string          `json:"ticker"`
	Bars      []PriceBar      `json:"bars"`
	Dividends []DividendEvent `json:"dividends,omitempty"`
}

// SpotQuote is the latest tradable price and the provider it came from
type SpotQuote struct {
	Price  decimal.NullDecimal `json:"price"`
	Source string              `json:"source"`
}

// MarketWindow is the date span of history fetched for a ticker
type MarketWindow struct {
	Ticker string    `json:"ticker"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Contains reports whether date falls inside the window, both ends inclusive
func (w MarketWindow) Contains(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(DateOf(w.Start)) && !d.After(DateOf(w.End))
}

// HistorySlice holds the in-window series and the extremes derived from them
type HistorySlice struct {
	Highs     []decimal.Decimal
	Lows      []decimal.Decimal
	Closes    []decimal.Decimal
	HighMax   decimal.NullDecimal
	LowMin    decimal.NullDecimal
	LastClose decimal.NullDecimal
}
