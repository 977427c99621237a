package valuation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/trogers1052/position-valuation/internal/metrics"
	"github.com/trogers1052/position-valuation/internal/models"
)

// MarketDataProvider defines the market data the engine consumes
type MarketDataProvider interface {
	FetchHistory(ctx context.Context, ticker string, start, end time.Time) (*models.PriceHistory, error)
	FetchSpot(ctx context.Context, ticker string) (models.SpotQuote, error)
}

// HistoryArchive stores fetched history for later inspection
type HistoryArchive interface {
	ArchiveHistory(ticker string, h *models.PriceHistory) error
}

// Engine values batches of positions against a market data provider
type Engine struct {
	provider MarketDataProvider
	archive  HistoryArchive
	now      func() time.Time
}

// NewEngine creates a new Engine
func NewEngine(provider MarketDataProvider) *Engine {
	return &Engine{
		provider: provider,
		now:      time.Now,
	}
}

// WithArchive makes the engine archive every history it fetches.
// Archive failures are logged and do not affect valuation.
func (e *Engine) WithArchive(a HistoryArchive) *Engine {
	e.archive = a
	return e
}

// Run values every valid position as of evalDate. Market data is fetched
// once per distinct ticker before any position is valued; fetch failures
// are recorded on the affected results and never abort the run.
func (e *Engine) Run(ctx context.Context, positions []models.Position, evalDate time.Time) *models.ValuationRun {
	start := e.now()
	evalDate = models.DateOf(evalDate)

	run := &models.ValuationRun{
		ID:             uuid.NewString(),
		EvaluationDate: evalDate,
		Results:        make([]models.ValuationResult, 0, len(positions)),
		CreatedAt:      start,
	}

	data := e.FetchMarketData(ctx, BuildWindows(positions, evalDate))

	for _, p := range positions {
		if !p.Valid() {
			run.Skipped++
			metrics.PositionsSkipped.Inc()
			log.Debug().Int("row", p.Row).Str("ticker", p.Ticker).Msg("skipping position with missing ticker or dates")
			continue
		}

		res := ValuePosition(p, evalDate, data[p.TickerKey()])
		for _, tag := range res.Barriers {
			metrics.BarrierTags.WithLabelValues(metrics.TagKind(tag)).Inc()
		}
		metrics.PositionsValued.Inc()

		log.Debug().
			Int("row", res.Row).
			Str("ticker", res.Ticker).
			Str("entry_total", res.EntryTotal.String()).
			Str("current_total", res.CurrentTotal.String()).
			Int("dte", res.DTE).
			Strs("barriers", res.Barriers).
			Msg("position valued")

		run.Results = append(run.Results, res)
	}

	metrics.RunDuration.Observe(e.now().Sub(start).Seconds())
	log.Info().
		Str("run_id", run.ID).
		Str("evaluation_date", evalDate.Format(models.DateLayout)).
		Int("valued", len(run.Results)).
		Int("skipped", run.Skipped).
		Msg("valuation run complete")

	return run
}

// FetchMarketData issues exactly one history and one spot request per window
func (e *Engine) FetchMarketData(ctx context.Context, windows []models.MarketWindow) map[string]TickerData {
	data := make(map[string]TickerData, len(windows))

	for _, w := range windows {
		var td TickerData

		history, err := e.provider.FetchHistory(ctx, w.Ticker, w.Start, w.End)
		if err != nil {
			log.Warn().Err(err).Str("ticker", w.Ticker).Msg("history fetch failed")
			td.HistoryErr = err
		} else {
			td.History = history
			if e.archive != nil {
				if err := e.archive.ArchiveHistory(w.Ticker, history); err != nil {
					log.Warn().Err(err).Str("ticker", w.Ticker).Msg("failed to archive history")
				}
			}
		}

		spot, err := e.provider.FetchSpot(ctx, w.Ticker)
		if err != nil {
			log.Warn().Err(err).Str("ticker", w.Ticker).Msg("spot fetch failed")
			spot.Price.Valid = false
		}
		if spot.Source == "" {
			spot.Source = "none"
		}
		td.Spot = spot

		data[w.Ticker] = td
	}
	return data
}
