package valuation

import (
	"time"

	"github.com/trogers1052/position-valuation/internal/models"
)

// BuildWindows merges the observation windows of all positions sharing a
// ticker into a single MarketWindow per ticker. Windows are returned in the
// order their ticker first appears. Invalid positions are ignored.
func BuildWindows(positions []models.Position, evalDate time.Time) []models.MarketWindow {
	index := make(map[string]int)
	var windows []models.MarketWindow

	for i := range positions {
		p := &positions[i]
		if !p.Valid() {
			continue
		}
		key := p.TickerKey()
		start := models.DateOf(p.RegisteredAt)
		end := p.WindowEnd(evalDate)

		idx, ok := index[key]
		if !ok {
			index[key] = len(windows)
			windows = append(windows, models.MarketWindow{Ticker: key, Start: start, End: end})
			continue
		}
		if start.Before(windows[idx].Start) {
			windows[idx].Start = start
		}
		if end.After(windows[idx].End) {
			windows[idx].End = end
		}
	}
	return windows
}
