package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooUA      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
	// tokyoSuffix is Yahoo's ticker suffix for the Tokyo Stock Exchange.
	tokyoSuffix = ".T"
	// yahooRequestInterval spaces the per-code chart requests.
	yahooRequestInterval = 250 * time.Millisecond
)

// yahooChartResponse is the subset of the v8 chart response we read.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooProvider reads Tokyo listings from the Yahoo Finance chart API. It
// is synchronous: Submit is a no-op and no settle wait is needed.
type YahooProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	limiter    *rate.Limiter
}

// NewYahooProvider creates a new Yahoo Finance price provider.
func NewYahooProvider(httpClient *http.Client) *YahooProvider {
	return &YahooProvider{
		httpClient: httpClient,
		baseURL:    yahooBaseURL,
		limiter:    rate.NewLimiter(rate.Every(yahooRequestInterval), 1),
	}
}

// Name returns the provider's display name.
func (p *YahooProvider) Name() string { return "Yahoo Finance" }

// Submit implements Provider.
func (p *YahooProvider) Submit(context.Context, []string) error { return nil }

// Read fetches each code's chart. Unknown symbols are left out of the
// result; the chunk fails only when every request failed outright.
func (p *YahooProvider) Read(ctx context.Context, codes []string) (map[string]float64, error) {
	out := make(map[string]float64, len(codes))
	var lastErr error
	failures := 0
	for _, code := range codes {
		price, err := p.fetchOne(ctx, code)
		if err != nil {
			failures++
			lastErr = err
			continue
		}
		if price > 0 {
			out[code] = price
		}
	}
	if len(codes) > 0 && failures == len(codes) {
		return nil, lastErr
	}
	return out, nil
}

func (p *YahooProvider) fetchOne(ctx context.Context, code string) (float64, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	u := p.baseURL + "/" + url.PathEscape(code+tokyoSuffix) + "?interval=1d&range=1d"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUA)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var chart yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}
	if chart.Chart.Error != nil || len(chart.Chart.Result) == 0 {
		return 0, nil
	}
	return chart.Chart.Result[0].Meta.RegularMarketPrice, nil
}
