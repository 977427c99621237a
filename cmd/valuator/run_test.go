package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/position-valuation/internal/config"
	"github.com/trogers1052/position-valuation/internal/marketdata"
	"github.com/trogers1052/position-valuation/internal/models"
	"github.com/trogers1052/position-valuation/internal/recorder"
	"github.com/trogers1052/position-valuation/internal/valuation"
	"github.com/xuri/excelize/v2"
)

// chartBody serves both history and spot requests: three daily bars in
// January 2024, one dividend and a live price of 25
const chartBody = `{"chart":{"result":[{
	"meta":{"regularMarketPrice":25},
	"timestamp":[1704891600,1704978000,1705064400],
	"indicators":{"quote":[{"high":[21,22,23],"low":[19,20,21],"close":[20,21,22]}]},
	"events":{"dividends":{"1704967200":{"amount":1.5,"date":1704967200}}}
}]}}`

func writeInput(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	rows := [][]interface{}{
		{"Cliente", "Ativo", "Código", "Data Registro", "Data Vencimento", "Valor Ativo", "Quantidade Ativa (1)", "Tipo (1)"},
		{"Ana", "PETR4", "ABC123456", "2024-01-02", "2024-12-20", 20, 100, "ESTOQUE"},
		{"Bia", "", "XYZ", "2024-01-02", "2024-12-20", 20, 100, "ESTOQUE"},
	}
	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, ref, &row))
	}

	path := filepath.Join(dir, "vencimentos.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

type capturedRuns struct {
	runs []*models.ValuationRun
}

func (c *capturedRuns) PublishRun(_ context.Context, run *models.ValuationRun) error {
	c.runs = append(c.runs, run)
	return nil
}

func TestRunWorkbook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	dir := t.TempDir()
	input := writeInput(t, dir)
	evalDate := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

	provider := marketdata.NewYahooProvider(marketdata.YahooConfig{BaseURL: srv.URL, RPS: 100, Burst: 10}, nil)
	published := &capturedRuns{}

	out, err := runWorkbook(context.Background(), valuation.NewEngine(provider), recorder.New(nil, published), input, "", evalDate)
	require.NoError(t, err)

	t.Run("reports output paths and counts", func(t *testing.T) {
		assert.Equal(t, filepath.Join(dir, "vencimentos_updated_2024-06-28.xlsx"), out.Workbook)
		assert.Equal(t, filepath.Join(dir, "summary_2024-06-28.json"), out.Summary)
		assert.Equal(t, 1, out.Rows)
		assert.NotEmpty(t, out.RunID)
	})

	t.Run("writes result columns into the updated workbook", func(t *testing.T) {
		f, err := excelize.OpenFile(out.Workbook)
		require.NoError(t, err)
		defer f.Close()
		sheet := f.GetSheetName(0)

		get := func(ref string) string {
			v, err := f.GetCellValue(sheet, ref, excelize.Options{RawCellValue: true})
			require.NoError(t, err)
			return v
		}
		assert.Equal(t, "Entry_Total", get("I1"))
		assert.Equal(t, "2000", get("I2"))
		assert.Equal(t, "2500", get("J2"))
		assert.Equal(t, "500", get("K2"))
		assert.Equal(t, "150", get("M2"))
		assert.Equal(t, "175", get("N2"))
		assert.Equal(t, "ACTIVE", get("O2"))
		assert.Equal(t, "yahoo", get("Q2"))
	})

	t.Run("writes the masked summary", func(t *testing.T) {
		data, err := os.ReadFile(out.Summary)
		require.NoError(t, err)

		var summary struct {
			RunID string `json:"run_id"`
			Rows  []struct {
				ID  string  `json:"id"`
				PnL float64 `json:"pnl"`
			} `json:"rows"`
			Total int `json:"total"`
		}
		require.NoError(t, json.Unmarshal(data, &summary))
		assert.Equal(t, out.RunID, summary.RunID)
		assert.Equal(t, 1, summary.Total)
		assert.Equal(t, "ABC***456", summary.Rows[0].ID)
		assert.Equal(t, 500.0, summary.Rows[0].PnL)
	})

	t.Run("hands the run to the recorder", func(t *testing.T) {
		require.Len(t, published.runs, 1)
		assert.Equal(t, out.RunID, published.runs[0].ID)
	})
}

func TestRunWorkbookMissingInput(t *testing.T) {
	_, err := runWorkbook(context.Background(), nil, nil, filepath.Join(t.TempDir(), "nope.xlsx"), "", time.Now())
	assert.Error(t, err)
}

func TestParseEvalDate(t *testing.T) {
	now := time.Date(2024, 7, 1, 22, 15, 0, 0, time.UTC)

	d, err := parseEvalDate("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = parseEvalDate("2024-06-28", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC), d)

	_, err = parseEvalDate("28/06/2024", now)
	assert.Error(t, err)
}

func TestNewCacheFallsBackToFiles(t *testing.T) {
	cfg := &config.Config{
		Redis:      config.RedisConfig{Addr: "127.0.0.1:1"},
		MarketData: config.MarketDataConfig{CacheDir: filepath.Join(t.TempDir(), "cache"), CacheTTL: time.Hour},
	}

	cache, closeFn, err := newCache(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()

	_, ok := cache.(*marketdata.FileCache)
	assert.True(t, ok)
}
