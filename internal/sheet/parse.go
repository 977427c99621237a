package sheet

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/position-valuation/internal/models"
	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

// ParseDate accepts Excel serial numbers and the textual layouts seen in position reports
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial <= 0 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return models.DateOf(t), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return models.DateOf(t), true
		}
	}
	return time.Time{}, false
}

// ParseNumber reads a decimal, accepting a comma as the decimal separator.
// Blank or unparsable cells yield an invalid NullDecimal.
func ParseNumber(raw string) decimal.NullDecimal {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return models.NewNullDecimal(d)
}
