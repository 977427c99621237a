package valuation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/position-valuation/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return models.NewNullDecimal(dec(s))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bar(date time.Time, high, low, close string) models.PriceBar {
	b := models.PriceBar{Date: date}
	if high != "" {
		b.High = nd(high)
	}
	if low != "" {
		b.Low = nd(low)
	}
	if close != "" {
		b.Close = nd(close)
	}
	return b
}

type historyCall struct {
	Ticker     string
	Start, End time.Time
}

// fakeProvider serves canned market data and records every call
type fakeProvider struct {
	mu          sync.Mutex
	histories   map[string]*models.PriceHistory
	spots       map[string]decimal.NullDecimal
	historyErrs map[string]error
	spotErrs    map[string]error

	HistoryCalls []historyCall
	SpotCalls    []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		histories:   make(map[string]*models.PriceHistory),
		spots:       make(map[string]decimal.NullDecimal),
		historyErrs: make(map[string]error),
		spotErrs:    make(map[string]error),
	}
}

func (f *fakeProvider) FetchHistory(_ context.Context, ticker string, start, end time.Time) (*models.PriceHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.HistoryCalls = append(f.HistoryCalls, historyCall{Ticker: ticker, Start: start, End: end})
	if err := f.historyErrs[ticker]; err != nil {
		return nil, err
	}
	h, ok := f.histories[ticker]
	if !ok {
		return nil, errors.New("empty result")
	}
	return h, nil
}

func (f *fakeProvider) FetchSpot(_ context.Context, ticker string) (models.SpotQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SpotCalls = append(f.SpotCalls, ticker)
	if err := f.spotErrs[ticker]; err != nil {
		return models.SpotQuote{Source: "fake"}, err
	}
	return models.SpotQuote{Price: f.spots[ticker], Source: "fake"}, nil
}
