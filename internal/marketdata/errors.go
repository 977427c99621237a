package marketdata

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySymbol = errors.New("empty symbol")
	ErrNoResult    = errors.New("empty result")
)

// maxErrorBody bounds how many characters of a failed response are kept
const maxErrorBody = 300

// FetchError describes a failed market data request
type FetchError struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
	URL    string `json:"url"`
}

func (e *FetchError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("market data fetch failed: %s", e.Body)
	}
	return fmt.Sprintf("market data fetch failed: http %d: %s", e.Status, e.Body)
}

// Temporary reports whether retrying later could succeed
func (e *FetchError) Temporary() bool {
	return e.Status == 0 || e.Status == 429 || e.Status >= 500
}

func newFetchError(status int, body, url string) *FetchError {
	if r := []rune(body); len(r) > maxErrorBody {
		body = string(r[:maxErrorBody])
	}
	return &FetchError{Status: status, Body: body, URL: url}
}
