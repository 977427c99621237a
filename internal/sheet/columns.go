package sheet

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/trogers1052/position-valuation/internal/models"
)

var headerJunk = regexp.MustCompile(`[^a-z0-9()]+`)

// NormalizeHeader lower-cases a header and drops every character outside [a-z0-9()]
func NormalizeHeader(s string) string {
	return headerJunk.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

var (
	tickerAliases       = []string{"Ativo", "Ticker", "Underlying"}
	registrationAliases = []string{"Data Registro", "Registration Date", "Trade Date"}
	expiryAliases       = []string{"Data Vencimento", "Expiry Date", "Expiration Date"}
	entrySpotAliases    = []string{"Valor Ativo", "Entry Spot"}
	unitCostAliases     = []string{"Custo Unitário Cliente", "Custo Unitario Cliente", "Entry Unit Cost"}
)

// idColumn holds the position identifier in the source report
const idColumn = 3

// ResultHeaders are appended after the last used column
var ResultHeaders = []string{
	"Entry_Total",
	"Current_Total",
	"PnL",
	"PnL_%",
	"Dividends",
	"DTE",
	"Expiry_Status",
	"Spot_Current",
	"Spot_Source",
}

type legColumns struct {
	quantity, kind, strike, barrierValue, barrierType, rebate, multiplier int
}

type columnMap struct {
	ticker, registration, expiry, entrySpot, unitCost int
	legs                                               [models.MaxLegs]legColumns
}

// headerIndex maps normalized header text to 1-based column numbers
type headerIndex map[string]int

func newHeaderIndex(row []string) headerIndex {
	idx := make(headerIndex, len(row))
	for i, cell := range row {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		idx[NormalizeHeader(cell)] = i + 1
	}
	return idx
}

// lookup returns the column of the first alias present, or 0
func (h headerIndex) lookup(aliases ...string) int {
	for _, a := range aliases {
		if col, ok := h[NormalizeHeader(a)]; ok {
			return col
		}
	}
	return 0
}

func legAliases(pt, en string, n int) []string {
	return []string{
		fmt.Sprintf("%s (%d)", pt, n),
		fmt.Sprintf("%s (%d)", en, n),
	}
}

func (h headerIndex) columns() (columnMap, error) {
	m := columnMap{
		ticker:       h.lookup(tickerAliases...),
		registration: h.lookup(registrationAliases...),
		expiry:       h.lookup(expiryAliases...),
		entrySpot:    h.lookup(entrySpotAliases...),
		unitCost:     h.lookup(unitCostAliases...),
	}
	if m.ticker == 0 || m.registration == 0 || m.expiry == 0 {
		return m, ErrMissingColumns
	}

	for i := range m.legs {
		n := i + 1
		m.legs[i] = legColumns{
			quantity:     h.lookup(legAliases("Quantidade Ativa", "Quantity", n)...),
			kind:         h.lookup(legAliases("Tipo", "Type", n)...),
			strike:       h.lookup(legAliases("Valor do Strike", "Strike", n)...),
			barrierValue: h.lookup(legAliases("Valor da Barreira", "Barrier", n)...),
			barrierType:  h.lookup(legAliases("Tipo da Barreira", "Barrier Type", n)...),
			rebate:       h.lookup(legAliases("Valor do Rebate", "Rebate", n)...),
			multiplier:   h.lookup(legAliases("Multiplicador", "Multiplier", n)...),
		}
	}
	return m, nil
}
