package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.ObserveHTTP("GET", "/api/posts", 200, time.Millisecond)
		c.ObserveFeed("smart", 3, time.Millisecond, nil)
		c.ObserveSignalDecision(true)
		c.ObserveCatalogRefresh(errors.New("boom"))
		c.ObserveGeocode("cache")
	})
	assert.NotNil(t, c.Handler())
}

func TestObserveFeed(t *testing.T) {
	c := New("test")

	c.ObserveFeed("smart", 10, time.Millisecond, nil)
	c.ObserveFeed("smart", 0, time.Millisecond, errors.New("db down"))
	c.ObserveFeed("own", 2, time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.FeedBuilds.WithLabelValues("smart", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FeedBuilds.WithLabelValues("smart", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FeedBuilds.WithLabelValues("own", "ok")))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(201))
	assert.Equal(t, "3xx", statusClass(302))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(502))
}
