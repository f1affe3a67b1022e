package redis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeocodeKeyNormalizesQuery(t *testing.T) {
	a := GeocodeKey("Austin, TX")
	b := GeocodeKey("  austin, tx ")

	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "geocode:"))
	assert.NotEqual(t, a, GeocodeKey("Austin, MN"))
}

func TestKeysAreNamespaced(t *testing.T) {
	assert.Equal(t, "ratelimit:user:42", RateLimitKey("user:42"))
	assert.Equal(t, "telegram:link:ABC123", TelegramLinkKey("ABC123"))
	assert.Equal(t, "catalog:signals", CatalogKey())
}
