package currency

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultFeedURL is the National Bank of Kazakhstan daily rates feed.
const DefaultFeedURL = "https://www.nationalbank.kz/rss/rates_all.xml"

// DefaultFetchTimeout bounds the remote fetch; the fetcher must fall back to
// the cache rather than propagate a hang.
const DefaultFetchTimeout = 10 * time.Second

// Fetcher polls the rates feed and keeps a JSON cache of the last good fetch.
type Fetcher struct {
	URL       string
	CachePath string
	Client    *http.Client
}

// NewFetcher creates a Fetcher caching under cachePath.
func NewFetcher(cachePath string) *Fetcher {
	return &Fetcher{
		URL:       DefaultFeedURL,
		CachePath: cachePath,
		Client:    &http.Client{Timeout: DefaultFetchTimeout},
	}
}

type feed struct {
	Items []feedItem `xml:"channel>item"`
}

type feedItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
}

// Rates returns the freshest rate map available: a live fetch when the feed
// answers in time, otherwise the cached map, otherwise the built-in defaults.
// The degradation is logged, never surfaced as an error.
func (f *Fetcher) Rates(ctx context.Context) map[string]decimal.Decimal {
	rates, err := f.fetch(ctx)
	if err == nil {
		if cacheErr := f.saveCache(rates); cacheErr != nil {
			slog.Warn("rate cache write failed", "path", f.CachePath, "error", cacheErr)
		}
		return rates
	}
	slog.Warn("rate feed unavailable, using cache", "url", f.URL, "error", err)

	if cached, cacheErr := f.loadCache(); cacheErr == nil {
		return cached
	}
	return DefaultRates()
}

func (f *Fetcher) fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rates feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates feed returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading rates feed: %w", err)
	}

	var doc feed
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing rates feed: %w", err)
	}

	rates := make(map[string]decimal.Decimal)
	for _, item := range doc.Items {
		code := strings.TrimSpace(item.Title)
		if len(code) != 3 {
			continue
		}
		raw := strings.ReplaceAll(strings.TrimSpace(item.Description), ",", ".")
		rate, err := decimal.NewFromString(raw)
		if err != nil || !rate.IsPositive() {
			continue
		}
		rates[strings.ToUpper(code)] = rate
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("rates feed held no parsable rates")
	}
	return rates, nil
}

func (f *Fetcher) saveCache(rates map[string]decimal.Decimal) error {
	data, err := json.MarshalIndent(rates, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling rate cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.CachePath), 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	if err := os.WriteFile(f.CachePath, data, 0o644); err != nil {
		return fmt.Errorf("writing rate cache: %w", err)
	}
	return nil
}

func (f *Fetcher) loadCache() (map[string]decimal.Decimal, error) {
	data, err := os.ReadFile(f.CachePath)
	if err != nil {
		return nil, fmt.Errorf("reading rate cache: %w", err)
	}
	var rates map[string]decimal.Decimal
	if err := json.Unmarshal(data, &rates); err != nil {
		return nil, fmt.Errorf("parsing rate cache: %w", err)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("rate cache is empty")
	}
	return rates, nil
}
