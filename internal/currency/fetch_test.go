package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss><channel>
<item><title>USD</title><description>512,34</description></item>
<item><title>EUR</title><description>601.10</description></item>
<item><title>GOLD BAR</title><description>1000</description></item>
<item><title>RUB</title><description>not a number</description></item>
</channel></rss>`

func TestRatesFetchesAndCaches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	cachePath := filepath.Join(t.TempDir(), "rates_cache.json")
	f := NewFetcher(cachePath)
	f.URL = srv.URL

	rates := f.Rates(context.Background())
	require.Len(t, rates, 2)
	assert.True(t, rates["USD"].Equal(decimal.RequireFromString("512.34")))
	assert.True(t, rates["EUR"].Equal(decimal.RequireFromString("601.10")))
	assert.FileExists(t, cachePath)
}

func TestRatesFallsBackToCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedXML))
	}))
	cachePath := filepath.Join(t.TempDir(), "rates_cache.json")
	f := NewFetcher(cachePath)
	f.URL = srv.URL
	_ = f.Rates(context.Background())
	srv.Close()

	// Feed gone: the cached map answers.
	rates := f.Rates(context.Background())
	require.Len(t, rates, 2)
	assert.True(t, rates["USD"].Equal(decimal.RequireFromString("512.34")))
}

func TestRatesFallsBackToDefaults(t *testing.T) {
	f := NewFetcher(filepath.Join(t.TempDir(), "missing_cache.json"))
	f.URL = "http://127.0.0.1:0/unreachable"

	rates := f.Rates(context.Background())
	assert.True(t, rates["USD"].Equal(DefaultRates()["USD"]))
}

func TestFetchRejectsEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<rss><channel></channel></rss>`))
	}))
	defer srv.Close()

	f := NewFetcher(filepath.Join(t.TempDir(), "cache.json"))
	f.URL = srv.URL

	_, err := f.fetch(context.Background())
	require.Error(t, err)
}
