package rates

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newRatesMockServer serves the currency-api dataset shape: the base code
// is the last path segment before ".json" and quotes are nested under it.
func newRatesMockServer(quotes map[string]map[string]float64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".json")
		w.Header().Set("Content-Type", "application/json")

		q, ok := quotes[base]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"date": "2026-08-01",
			base:   q,
		})
	}))
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(server.Client(), []string{server.URL + "/%s.json"})
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestGetRates_InvertsQuotes(t *testing.T) {
	server := newRatesMockServer(map[string]map[string]float64{
		"eur": {"usd": 1.25, "gbp": 0.8, "eur": 1.0},
	})
	defer server.Close()

	c := newTestClient(server)
	rates, err := c.GetRates(context.Background(), "EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 1 USD = 1/1.25 EUR
	if !closeEnough(rates["USD"], 0.8) {
		t.Errorf("USD rate = %f, want 0.8", rates["USD"])
	}
	if !closeEnough(rates["GBP"], 1.25) {
		t.Errorf("GBP rate = %f, want 1.25", rates["GBP"])
	}
	if !closeEnough(rates["EUR"], 1.0) {
		t.Errorf("EUR rate = %f, want 1.0", rates["EUR"])
	}
}

func TestGetRates_RoundsToSixPlaces(t *testing.T) {
	server := newRatesMockServer(map[string]map[string]float64{
		"usd": {"jpy": 150.123456},
	})
	defer server.Close()

	c := newTestClient(server)
	rates, err := c.GetRates(context.Background(), "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := math.Round(1/150.123456*1e6) / 1e6
	if rates["JPY"] != want {
		t.Errorf("JPY rate = %v, want %v", rates["JPY"], want)
	}
}

func TestGetRates_ScalesCrypto(t *testing.T) {
	server := newRatesMockServer(map[string]map[string]float64{
		"usd": {"btc": 0.00002, "eth": 0.0004},
	})
	defer server.Close()

	c := newTestClient(server)
	rates, err := c.GetRates(context.Background(), "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantBTC := (math.Round(1 / 0.00002 * 1e6) / 1e6) / 1e6
	if !closeEnough(rates["BTC"], wantBTC) {
		t.Errorf("BTC rate = %v, want %v", rates["BTC"], wantBTC)
	}
	wantETH := (math.Round(1 / 0.0004 * 1e6) / 1e6) / 1e6
	if !closeEnough(rates["ETH"], wantETH) {
		t.Errorf("ETH rate = %v, want %v", rates["ETH"], wantETH)
	}
}

func TestGetRates_SkipsNonPositiveQuotes(t *testing.T) {
	server := newRatesMockServer(map[string]map[string]float64{
		"usd": {"xxx": 0, "yyy": -1, "eur": 0.9},
	})
	defer server.Close()

	c := newTestClient(server)
	rates, err := c.GetRates(context.Background(), "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := rates["XXX"]; ok {
		t.Error("zero quote should be dropped")
	}
	if _, ok := rates["YYY"]; ok {
		t.Error("negative quote should be dropped")
	}
	if _, ok := rates["EUR"]; !ok {
		t.Error("valid quote missing")
	}
}

func TestGetRates_FallsBackToSecondURL(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	working := newRatesMockServer(map[string]map[string]float64{
		"usd": {"eur": 0.9},
	})
	defer working.Close()

	c := NewClient(working.Client(), []string{
		broken.URL + "/%s.json",
		working.URL + "/%s.json",
	})

	rates, err := c.GetRates(context.Background(), "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := rates["EUR"]; !ok {
		t.Error("expected rates from fallback URL")
	}
}

func TestGetRates_AllSourcesFail(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	c := NewClient(broken.Client(), []string{broken.URL + "/%s.json"})
	if _, err := c.GetRates(context.Background(), "USD"); err == nil {
		t.Fatal("expected error when every source fails")
	}
}

func TestGetRates_CachesPerBase(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"date": "2026-08-01",
			"usd":  map[string]float64{"eur": 0.9},
		})
	}))
	defer server.Close()

	c := NewClient(server.Client(), []string{server.URL + "/%s.json"})
	c.ttl = time.Minute

	for i := 0; i < 3; i++ {
		if _, err := c.GetRates(context.Background(), "USD"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if hits != 1 {
		t.Errorf("server hit %d times, want 1", hits)
	}
}
