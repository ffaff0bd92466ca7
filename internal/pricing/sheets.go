package pricing

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dobashik/cashflow-maker-web/internal/csvimport"
)

// sheetClearRows is the block of column A cleared before every submission.
const sheetClearRows = 500

// SheetsConfig locates the calculation sheet. The sheet computes a price in
// column B for every code written to column A.
type SheetsConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

// SheetsProvider looks prices up through a Google Sheets calculation sheet.
type SheetsProvider struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	sheet         string
}

// NewSheetsProvider creates a provider authenticated with a service account.
// Extra options are appended after the credentials.
func NewSheetsProvider(ctx context.Context, cfg SheetsConfig, extra ...option.ClientOption) (*SheetsProvider, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id not configured")
	}

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope))
	opts = append(opts, extra...)

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	sheet := cfg.SheetName
	if sheet == "" {
		sheet = "シート2"
	}
	return &SheetsProvider{values: srv.Spreadsheets.Values, spreadsheetID: cfg.SpreadsheetID, sheet: sheet}, nil
}

// Name returns the provider's display name.
func (p *SheetsProvider) Name() string { return "Google Sheets" }

// Submit clears the input column and writes codes from row 2 down.
func (p *SheetsProvider) Submit(ctx context.Context, codes []string) error {
	clearRange := fmt.Sprintf("%s!A2:A%d", p.sheet, sheetClearRows)
	if _, err := p.values.Clear(p.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clearing %s: %w", clearRange, err)
	}

	rows := make([][]interface{}, len(codes))
	for i, c := range codes {
		rows[i] = []interface{}{c}
	}
	writeRange := p.sheet + "!A2"
	_, err := p.values.Update(p.spreadsheetID, writeRange, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing codes: %w", err)
	}
	return nil
}

// Read returns the computed prices next to the submitted codes.
func (p *SheetsProvider) Read(ctx context.Context, codes []string) (map[string]float64, error) {
	readRange := fmt.Sprintf("%s!A2:B%d", p.sheet, len(codes)+1)
	resp, err := p.values.Get(p.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", readRange, err)
	}

	out := make(map[string]float64, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		code := strings.TrimSpace(strings.Split(fmt.Sprint(row[0]), ".")[0])
		if code == "" {
			continue
		}
		var price float64
		if len(row) > 1 {
			price = csvimport.ParseNumber(fmt.Sprint(row[1]))
		}
		out[code] = price
	}
	return out, nil
}
