package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/position-valuation/internal/models"
)

func TestMaskID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "row"},
		{"A", "A***"},
		{"123", "12***"},
		{"ABCDEF", "AB***"},
		{"ABC123456", "ABC***456"},
		{"ABCDEFG", "ABC***EFG"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskID(tt.in))
		})
	}
}

func sampleRun() *models.ValuationRun {
	return &models.ValuationRun{
		ID:             "run-1",
		EvaluationDate: time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC),
		Results: []models.ValuationResult{
			{
				PositionID:    "ABC123456",
				Ticker:        "PETR4",
				EntryTotal:    decimal.RequireFromString("2000.004"),
				CurrentTotal:  decimal.RequireFromString("2500.126"),
				PnL:           decimal.RequireFromString("500.122"),
				DTE:           175,
				Status:        models.StatusActive,
				EffectiveSpot: models.NewNullDecimal(decimal.RequireFromString("25.123456")),
				SpotSource:    "yahoo",
				Barriers:      []string{"OUT_1"},
			},
			{
				Ticker:       "VALE3",
				DTE:          -3,
				Status:       models.StatusExpired,
				SpotSource:   "none",
				HistoryError: "empty result",
			},
		},
	}
}

func TestBuild(t *testing.T) {
	s := Build(sampleRun())

	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, "2024-06-28", s.EvaluationDate)
	assert.Equal(t, 2, s.Total)
	require.Len(t, s.Rows, 2)

	t.Run("rounds money to cents and spot to four places", func(t *testing.T) {
		r := s.Rows[0]
		assert.Equal(t, "ABC***456", r.ID)
		assert.Equal(t, 2000.0, r.EntryTotal)
		assert.Equal(t, 2500.13, r.CurrentTotal)
		assert.Equal(t, 500.12, r.PnL)
		require.NotNil(t, r.Spot)
		assert.Equal(t, 25.1235, *r.Spot)
		assert.Nil(t, r.HistoryError)
	})

	t.Run("null spot and missing id", func(t *testing.T) {
		r := s.Rows[1]
		assert.Equal(t, "row", r.ID)
		assert.Nil(t, r.Spot)
		assert.Equal(t, []string{}, r.Barriers)
		require.NotNil(t, r.HistoryError)
		assert.Equal(t, "empty result", *r.HistoryError)
	})
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()

	path, err := Write(dir, sampleRun())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "summary_2024-06-28.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(2), raw["total"])

	rows := raw["rows"].([]interface{})
	second := rows[1].(map[string]interface{})
	assert.Nil(t, second["spot"])
	assert.Equal(t, "empty result", second["history_error"])
}
