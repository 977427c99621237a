// Package sheet reads positions from and writes valuations back to Excel position reports.
package sheet

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/position-valuation/internal/models"
	"github.com/xuri/excelize/v2"
)

var (
	ErrMissingColumns = errors.New("required columns not found (ticker, registration date, expiry date)")
	ErrNoInput        = errors.New("no position report found")
)

// headerScanRows bounds the search for the header row
const headerScanRows = 10

// Workbook is an opened position report
type Workbook struct {
	path      string
	file      *excelize.File
	sheet     string
	rows      [][]string
	headerRow int
	lastCol   int
	cols      columnMap
}

// Open loads a workbook and locates its header row. An empty sheet name
// selects the first sheet.
func Open(path, sheetName string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}

	wb, err := load(f, sheetName)
	if err != nil {
		f.Close()
		return nil, err
	}
	wb.path = path
	return wb, nil
}

func load(f *excelize.File, sheetName string) (*Workbook, error) {
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheetName)
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}

	wb := &Workbook{file: f, sheet: sheetName, rows: rows, headerRow: findHeaderRow(rows)}
	for _, row := range rows {
		if len(row) > wb.lastCol {
			wb.lastCol = len(row)
		}
	}

	cols, err := newHeaderIndex(wb.row(wb.headerRow)).columns()
	if err != nil {
		return nil, err
	}
	wb.cols = cols
	return wb, nil
}

// findHeaderRow returns the first of the leading rows holding any non-blank cell
func findHeaderRow(rows [][]string) int {
	for r := 1; r <= headerScanRows && r <= len(rows); r++ {
		for _, cell := range rows[r-1] {
			if strings.TrimSpace(cell) != "" {
				return r
			}
		}
	}
	return 1
}

// row returns the cells of 1-based row r
func (w *Workbook) row(r int) []string {
	if r < 1 || r > len(w.rows) {
		return nil
	}
	return w.rows[r-1]
}

func cell(row []string, col int) string {
	if col < 1 || col > len(row) {
		return ""
	}
	return strings.TrimSpace(row[col-1])
}

// Sheet returns the name of the sheet being read
func (w *Workbook) Sheet() string {
	return w.sheet
}

// Path returns the file the workbook was opened from
func (w *Workbook) Path() string {
	return w.path
}

// Positions parses every data row below the header. Rows with a blank
// ticker are ignored; rows whose dates do not parse are counted as skipped.
func (w *Workbook) Positions() ([]models.Position, int) {
	var positions []models.Position
	skipped := 0

	for r := w.headerRow + 1; r <= len(w.rows); r++ {
		row := w.row(r)
		ticker := cell(row, w.cols.ticker)
		if ticker == "" {
			continue
		}

		registered, ok1 := ParseDate(cell(row, w.cols.registration))
		expires, ok2 := ParseDate(cell(row, w.cols.expiry))
		if !ok1 || !ok2 {
			skipped++
			continue
		}

		p := models.Position{
			Row:           r,
			ID:            cell(row, idColumn),
			Ticker:        ticker,
			RegisteredAt:  registered,
			ExpiresAt:     expires,
			EntrySpot:     ParseNumber(cell(row, w.cols.entrySpot)),
			EntryUnitCost: ParseNumber(cell(row, w.cols.unitCost)),
		}
		for i, lc := range w.cols.legs {
			if lc.quantity == 0 {
				continue
			}
			p.Legs = append(p.Legs, models.Leg{
				Index:        i + 1,
				Quantity:     ParseNumber(cell(row, lc.quantity)),
				Kind:         cell(row, lc.kind),
				Strike:       ParseNumber(cell(row, lc.strike)),
				BarrierValue: ParseNumber(cell(row, lc.barrierValue)),
				BarrierType:  cell(row, lc.barrierType),
				Rebate:       ParseNumber(cell(row, lc.rebate)),
				Multiplier:   ParseNumber(cell(row, lc.multiplier)),
			})
		}
		positions = append(positions, p)
	}
	return positions, skipped
}

// WriteResults appends the result columns after the last used column and
// fills one row per result
func (w *Workbook) WriteResults(results []models.ValuationResult) error {
	start := w.lastCol + 1

	for i, name := range ResultHeaders {
		if err := w.set(start+i, w.headerRow, name); err != nil {
			return err
		}
	}

	for _, res := range results {
		values := []interface{}{
			res.EntryTotal.InexactFloat64(),
			res.CurrentTotal.InexactFloat64(),
			res.PnL.InexactFloat64(),
			nullable(res.PnLPct),
			res.Dividends.InexactFloat64(),
			res.DTE,
			res.Status,
			nullable(res.EffectiveSpot),
			res.SpotSource,
		}
		for i, v := range values {
			if v == nil {
				continue
			}
			if err := w.set(start+i, res.Row, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func nullable(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}

func (w *Workbook) set(col, row int, v interface{}) error {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to address cell (%d,%d): %w", col, row, err)
	}
	if err := w.file.SetCellValue(w.sheet, ref, v); err != nil {
		return fmt.Errorf("failed to write cell %s: %w", ref, err)
	}
	return nil
}

// SaveAs writes the workbook to path
func (w *Workbook) SaveAs(path string) error {
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// Close releases the underlying file
func (w *Workbook) Close() error {
	return w.file.Close()
}

// OutputPath returns "<dir>/<base>_updated_<date><ext>" for input
func OutputPath(input string, evalDate time.Time) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), ext)
	if ext == "" {
		ext = ".xlsx"
	}
	name := fmt.Sprintf("%s_updated_%s%s", base, evalDate.Format(models.DateLayout), ext)
	return filepath.Join(filepath.Dir(input), name)
}

// FindInput returns the most recently modified .xlsx/.xlsm under root whose
// name mentions "vencimento" or "expiry". Previously written outputs and
// Excel lock files are ignored.
func FindInput(root string) (string, error) {
	var best string
	var bestMod time.Time

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		name := strings.ToLower(d.Name())
		ext := filepath.Ext(name)
		if ext != ".xlsx" && ext != ".xlsm" {
			return nil
		}
		if strings.HasPrefix(name, "~$") || strings.Contains(name, "_updated_") {
			return nil
		}
		if !strings.Contains(name, "vencimento") && !strings.Contains(name, "expiry") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if best == "" || info.ModTime().After(bestMod) {
			best, bestMod = path, info.ModTime()
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", root, err)
	}
	if best == "" {
		return "", ErrNoInput
	}
	return best, nil
}
