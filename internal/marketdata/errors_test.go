package marketdata

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNewFetchError(t *testing.T) {
	t.Run("keeps short bodies intact", func(t *testing.T) {
		fe := newFetchError(404, "Not Found", "https://example/x")
		assert.Equal(t, "Not Found", fe.Body)
		assert.Equal(t, "market data fetch failed: http 404: Not Found", fe.Error())
	})

	t.Run("truncates long bodies on character boundaries", func(t *testing.T) {
		body := "a" + strings.Repeat("ção", 200)

		fe := newFetchError(500, body, "https://example/x")

		assert.True(t, utf8.ValidString(fe.Body))
		assert.Equal(t, maxErrorBody, utf8.RuneCountInString(fe.Body))
		assert.True(t, strings.HasPrefix(body, fe.Body))
	})
}
