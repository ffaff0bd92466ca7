package services

import (
	"context"

	"github.com/dobashik/cashflow-maker-web/internal/mastercsv"
	"github.com/dobashik/cashflow-maker-web/internal/models"
	"github.com/dobashik/cashflow-maker-web/internal/pagination"
	"github.com/dobashik/cashflow-maker-web/internal/pricing"
)

// stubDirectory serves a fixed master file.
type stubDirectory struct {
	entries map[string]mastercsv.Entry
	err     error
	calls   int
}

func (d *stubDirectory) All(_ context.Context) (map[string]mastercsv.Entry, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.entries, nil
}

func (d *stubDirectory) Lookup(ctx context.Context, codes []string) (map[string]mastercsv.Entry, error) {
	all, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]mastercsv.Entry)
	for _, c := range codes {
		if e, ok := all[c]; ok {
			out[c] = e
		}
	}
	return out, nil
}

var _ MasterDirectory = (*stubDirectory)(nil)

// mockFetcher records requested codes and returns fetchFn's result.
type mockFetcher struct {
	fetchFn   func(ctx context.Context, codes []string) (*pricing.Result, error)
	requested [][]string
}

func (m *mockFetcher) Fetch(ctx context.Context, codes []string) (*pricing.Result, error) {
	m.requested = append(m.requested, append([]string(nil), codes...))
	if m.fetchFn != nil {
		return m.fetchFn(ctx, codes)
	}
	return &pricing.Result{Prices: map[string]float64{}}, nil
}

var _ PriceFetcher = (*mockFetcher)(nil)

// fixedPrices completes every code, returning 0 for codes not in prices.
func fixedPrices(prices map[string]float64) func(context.Context, []string) (*pricing.Result, error) {
	return func(_ context.Context, codes []string) (*pricing.Result, error) {
		res := &pricing.Result{Prices: map[string]float64{}}
		for _, c := range codes {
			res.Prices[c] = prices[c]
		}
		return res, nil
	}
}

// mockSecurityService lets import tests fail master registration.
type mockSecurityService struct {
	registerNewFn func(ctx context.Context, codes []string) ([]string, error)
}

func (m *mockSecurityService) RegisterNew(ctx context.Context, codes []string) ([]string, error) {
	return m.registerNewFn(ctx, codes)
}

func (m *mockSecurityService) RefreshMetadata(context.Context) (*MetadataResult, error) {
	return &MetadataResult{Success: true}, nil
}

func (m *mockSecurityService) UpdateSectors(context.Context, string) (*MetadataResult, error) {
	return &MetadataResult{Success: true}, nil
}

func (m *mockSecurityService) ListSecurities(context.Context, string, pagination.PageRequest) (*pagination.PageResponse[models.Security], error) {
	return &pagination.PageResponse[models.Security]{}, nil
}

func (m *mockSecurityService) GetSecurity(context.Context, string) (*models.Security, error) {
	return &models.Security{}, nil
}

var _ SecurityServicer = (*mockSecurityService)(nil)
