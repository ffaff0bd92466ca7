package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newChartServer serves v8 chart responses; tickers not in prices get a
// chart error.
func newChartServer(prices map[string]float64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ticker := strings.TrimPrefix(r.URL.Path, "/")
		w.Header().Set("Content-Type", "application/json")

		var resp yahooChartResponse
		price, ok := prices[ticker]
		if !ok {
			resp.Chart.Error = &struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			}{Code: "Not Found", Description: "No data found, symbol may be delisted"}
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		resp.Chart.Result = make([]struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		}, 1)
		resp.Chart.Result[0].Meta.Symbol = ticker
		resp.Chart.Result[0].Meta.RegularMarketPrice = price
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestYahooProvider_Read(t *testing.T) {
	server := newChartServer(map[string]float64{"7203.T": 2850.5, "9432.T": 160})
	defer server.Close()

	p := &YahooProvider{httpClient: server.Client(), baseURL: server.URL}
	prices, err := p.Read(context.Background(), []string{"7203", "9432", "0000"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prices["7203"] != 2850.5 || prices["9432"] != 160 {
		t.Errorf("unexpected prices %v", prices)
	}
	if _, ok := prices["0000"]; ok {
		t.Error("expected unknown symbol left out")
	}
}

func TestYahooProvider_AllFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := &YahooProvider{httpClient: server.Client(), baseURL: server.URL}
	if _, err := p.Read(context.Background(), []string{"7203"}); err == nil {
		t.Error("expected error when every request fails")
	}
	if err := p.Submit(context.Background(), []string{"7203"}); err != nil {
		t.Errorf("expected no-op submit, got %v", err)
	}
}

func TestYahooProvider_RateLimited(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := NewYahooProvider(server.Client())
	p.baseURL = server.URL
	if p.limiter == nil {
		t.Fatal("expected default provider to carry a rate limiter")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Read(ctx, []string{"7203", "9432"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected limiter wait to stop on cancel, got %v", err)
	}
	if requests != 0 {
		t.Errorf("expected no requests after cancel, got %d", requests)
	}
}
