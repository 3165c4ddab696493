// Package rates fetches daily exchange rates from the public currency-api
// dataset and converts them into per-unit rates against a base currency.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"
)

// The dataset quotes crypto assets in fractions of a whole coin; scale
// BTC and ETH quotes so one unit of the asset converts correctly.
var cryptoScale = map[string]float64{
	"BTC": 1e6,
	"ETH": 1e6,
}

// Client fetches exchange rates for a base currency. URLs are templates
// with a %s placeholder for the lowercase base code, tried in order until
// one succeeds. Rates are cached per base for the TTL.
type Client struct {
	httpClient *http.Client
	urls       []string
	ttl        time.Duration

	mu     sync.RWMutex
	cache  map[string]map[string]float64
	expiry map[string]time.Time
}

// NewClient creates a rates client with the given fallback URL templates.
func NewClient(httpClient *http.Client, urls []string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		urls:       urls,
		ttl:        time.Hour,
		cache:      make(map[string]map[string]float64),
		expiry:     make(map[string]time.Time),
	}
}

// GetRates returns rates keyed by uppercase currency code. Each rate is
// the multiplier that converts one unit of that currency into the base
// currency, rounded to six decimal places.
func (c *Client) GetRates(ctx context.Context, base string) (map[string]float64, error) {
	key := strings.ToUpper(base)

	c.mu.RLock()
	cached, ok := c.cache[key]
	fresh := ok && time.Now().Before(c.expiry[key])
	c.mu.RUnlock()
	if fresh {
		return cached, nil
	}

	quotes, err := c.fetchQuotes(ctx, strings.ToLower(base))
	if err != nil {
		return nil, err
	}

	rates := make(map[string]float64, len(quotes))
	for code, quote := range quotes {
		if quote <= 0 {
			continue
		}
		upper := strings.ToUpper(code)
		rate := math.Round(1/quote*1e6) / 1e6
		if scale, ok := cryptoScale[upper]; ok {
			rate /= scale
		}
		rates[upper] = rate
	}

	c.mu.Lock()
	c.cache[key] = rates
	c.expiry[key] = time.Now().Add(c.ttl)
	c.mu.Unlock()

	return rates, nil
}

// fetchQuotes tries each URL template in order, returning quotes of the
// base currency against every other currency in the dataset.
func (c *Client) fetchQuotes(ctx context.Context, base string) (map[string]float64, error) {
	var lastErr error
	for _, tmpl := range c.urls {
		quotes, err := c.fetchFrom(ctx, fmt.Sprintf(tmpl, base), base)
		if err != nil {
			lastErr = err
			continue
		}
		return quotes, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no rate sources configured")
	}
	return nil, fmt.Errorf("fetching rates for %s: %w", base, lastErr)
}

func (c *Client) fetchFrom(ctx context.Context, url, base string) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building rates request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rates http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates request: unexpected status %d", resp.StatusCode)
	}

	// Response shape: {"date": "...", "<base>": {"usd": 1.07, ...}}
	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding rates response: %w", err)
	}

	raw, ok := payload[base]
	if !ok {
		return nil, fmt.Errorf("rates response missing %q quotes", base)
	}

	var quotes map[string]float64
	if err := json.Unmarshal(raw, &quotes); err != nil {
		return nil, fmt.Errorf("decoding %q quotes: %w", base, err)
	}
	return quotes, nil
}
