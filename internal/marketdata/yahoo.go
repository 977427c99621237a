package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/trogers1052/position-valuation/internal/metrics"
	"github.com/trogers1052/position-valuation/internal/models"
)

// SourceYahoo tags quotes served by the Yahoo chart API
const SourceYahoo = "yahoo"

// YahooConfig holds Yahoo chart provider settings
type YahooConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RPS       float64
	Burst     int
	UserAgent string
}

// YahooProvider fetches daily history and spot quotes from the Yahoo v8 chart API
type YahooProvider struct {
	baseURL   string
	userAgent string
	cli       *http.Client
	cache     Cache
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
}

// NewYahooProvider creates a provider; a nil cache disables response caching
func NewYahooProvider(cfg YahooConfig, cache Cache) *YahooProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	}

	st := gobreaker.Settings{
		Name:    "yahoo-chart",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var fe *FetchError
			if errors.As(err, &fe) {
				return !fe.Temporary()
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &YahooProvider{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		cli:       &http.Client{Timeout: cfg.Timeout},
		cache:     cache,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		breaker:   gobreaker.NewCircuitBreaker(st),
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			High  []*float64 `json:"high"`
			Low   []*float64 `json:"low"`
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
	Events struct {
		Dividends map[string]struct {
			Amount *float64 `json:"amount"`
		} `json:"dividends"`
	} `json:"events"`
}

// FetchHistory returns daily bars and dividends between start and end, both inclusive
func (p *YahooProvider) FetchHistory(ctx context.Context, ticker string, start, end time.Time) (*models.PriceHistory, error) {
	symbol := NormalizeSymbol(ticker)
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	period1 := models.DateOf(start).Unix()
	period2 := models.DateOf(end).Add(24*time.Hour - time.Second).Unix()
	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=div",
		p.baseURL, url.PathEscape(symbol), period1, period2)

	var raw chartResponse
	if err := p.getJSON(ctx, "history", u, &raw); err != nil {
		return nil, err
	}
	if len(raw.Chart.Result) == 0 {
		return nil, newFetchError(http.StatusBadGateway, ErrNoResult.Error(), u)
	}
	return toHistory(symbol, raw.Chart.Result[0]), nil
}

// FetchSpot returns the latest market price, falling back to the last close
func (p *YahooProvider) FetchSpot(ctx context.Context, ticker string) (models.SpotQuote, error) {
	symbol := NormalizeSymbol(ticker)
	if symbol == "" {
		return models.SpotQuote{Source: "none"}, ErrEmptySymbol
	}
	quote := models.SpotQuote{Source: SourceYahoo}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=5d", p.baseURL, url.PathEscape(symbol))

	var raw chartResponse
	if err := p.getJSON(ctx, "spot", u, &raw); err != nil {
		return quote, err
	}
	if len(raw.Chart.Result) == 0 {
		return quote, nil
	}

	r := raw.Chart.Result[0]
	if r.Meta.RegularMarketPrice != nil {
		quote.Price = models.NewNullDecimal(decimal.NewFromFloat(*r.Meta.RegularMarketPrice))
		return quote, nil
	}
	if len(r.Indicators.Quote) > 0 {
		closes := r.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil {
				quote.Price = models.NewNullDecimal(decimal.NewFromFloat(*closes[i]))
				break
			}
		}
	}
	return quote, nil
}

func toHistory(symbol string, r chartResult) *models.PriceHistory {
	h := &models.PriceHistory{Ticker: symbol}

	var highs, lows, closes []*float64
	if len(r.Indicators.Quote) > 0 {
		q := r.Indicators.Quote[0]
		highs, lows, closes = q.High, q.Low, q.Close
	}

	for i, ts := range r.Timestamp {
		h.Bars = append(h.Bars, models.PriceBar{
			Date:  models.DateOf(time.Unix(ts, 0).UTC()),
			High:  nullAt(highs, i),
			Low:   nullAt(lows, i),
			Close: nullAt(closes, i),
		})
	}

	for key, div := range r.Events.Dividends {
		ts, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		if div.Amount == nil || *div.Amount == 0 {
			continue
		}
		h.Dividends = append(h.Dividends, models.DividendEvent{
			Date:   models.DateOf(time.Unix(ts, 0).UTC()),
			Amount: decimal.NewFromFloat(*div.Amount),
		})
	}
	sort.Slice(h.Dividends, func(i, j int) bool {
		return h.Dividends[i].Date.Before(h.Dividends[j].Date)
	})
	return h
}

func nullAt(values []*float64, i int) decimal.NullDecimal {
	if i >= len(values) || values[i] == nil {
		return decimal.NullDecimal{}
	}
	return models.NewNullDecimal(decimal.NewFromFloat(*values[i]))
}

// getJSON serves the request from cache when possible, otherwise performs a
// paced, breaker-guarded GET and caches the body once it decodes.
func (p *YahooProvider) getJSON(ctx context.Context, kind, u string, v any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.MarketDataFetches.WithLabelValues(kind, outcome).Inc()
		metrics.MarketDataLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	key := "GET:" + u
	if p.cache != nil {
		if body, ok := p.cache.Get(ctx, key); ok && json.Unmarshal(body, v) == nil {
			metrics.MarketDataCache.WithLabelValues("hit").Inc()
			return nil
		}
		metrics.MarketDataCache.WithLabelValues("miss").Inc()
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return newFetchError(0, err.Error(), u)
	}

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.do(ctx, u)
	})
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return fe
		}
		return newFetchError(0, err.Error(), u)
	}
	body := out.([]byte)

	if err := json.Unmarshal(body, v); err != nil {
		return newFetchError(0, string(body), u)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, body); err != nil {
			log.Warn().Err(err).Str("url", u).Msg("failed to cache market data response")
		}
	}
	return nil
}

func (p *YahooProvider) do(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, newFetchError(0, err.Error(), u)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.cli.Do(req)
	if err != nil {
		return nil, newFetchError(0, err.Error(), u)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newFetchError(0, err.Error(), u)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newFetchError(resp.StatusCode, string(body), u)
	}
	return body, nil
}
