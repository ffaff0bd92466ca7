// Package mastercsv reads the authoritative security master file that maps
// codes to display names and sectors.
package mastercsv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"

	"github.com/dobashik/cashflow-maker-web/internal/cache"
	"github.com/dobashik/cashflow-maker-web/internal/csvimport"
	"github.com/dobashik/cashflow-maker-web/internal/logger"
)

// Column positions in the master file. Row 0 is a header.
const (
	colCode   = 1
	colName   = 2
	colSector = 7
)

const cacheKey = "master"

// Entry is master metadata for one code.
type Entry struct {
	Code   string
	Name   string
	Sector string
}

// Loader returns the raw master file.
type Loader interface {
	Load(ctx context.Context) ([]byte, error)
}

// Source loads the master file from an http(s) URL or a local path.
type Source struct {
	location   string
	httpClient *http.Client
}

// NewSource creates a Source for location.
func NewSource(location string, httpClient *http.Client) *Source {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Source{location: location, httpClient: httpClient}
}

// Load implements Loader.
func (s *Source) Load(ctx context.Context) ([]byte, error) {
	if s.location == "" {
		return nil, fmt.Errorf("master csv location not configured")
	}
	if !strings.HasPrefix(s.location, "http://") && !strings.HasPrefix(s.location, "https://") {
		return os.ReadFile(s.location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching master csv: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching master csv: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Parse reads master rows keyed by code. Codes written as "7203.0" or
// "7203.T" are cut at the dot; rows without a code are skipped.
func Parse(raw []byte) map[string]Entry {
	decoded := csvimport.Decode(raw)
	text := decoded.Text
	// the master header carries none of the export keywords, so a Shift_JIS
	// file ties on score and has to be recognized by invalid UTF-8
	if decoded.Encoding == csvimport.EncodingUTF8 && !utf8.Valid(raw) {
		if sjis, err := japanese.ShiftJIS.NewDecoder().Bytes(raw); err == nil {
			text = string(sjis)
		}
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	out := make(map[string]Entry, len(lines))
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		cells := csvimport.SplitLine(line)
		code := cellAt(cells, colCode)
		if dot := strings.IndexByte(code, '.'); dot >= 0 {
			code = strings.TrimSpace(code[:dot])
		}
		if code == "" {
			continue
		}
		out[code] = Entry{Code: code, Name: cellAt(cells, colName), Sector: cellAt(cells, colSector)}
	}
	return out
}

func cellAt(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// Directory serves master entries from a TTL cache over a Loader.
type Directory struct {
	loader Loader
	cache  *cache.TTL[map[string]Entry]
	ttl    time.Duration
}

// NewDirectory creates a Directory that reloads the master file after ttl.
func NewDirectory(loader Loader, ttl time.Duration) *Directory {
	return &Directory{loader: loader, cache: cache.New[map[string]Entry](), ttl: ttl}
}

// All returns every master entry.
func (d *Directory) All(ctx context.Context) (map[string]Entry, error) {
	return d.cache.Get(ctx, cacheKey, d.ttl, func(ctx context.Context) (map[string]Entry, error) {
		raw, err := d.loader.Load(ctx)
		if err != nil {
			return nil, err
		}
		entries := Parse(raw)
		logger.Get().Infow("Loaded master securities", "count", len(entries))
		return entries, nil
	})
}

// Lookup returns the entries for the given codes that exist in the master.
func (d *Directory) Lookup(ctx context.Context, codes []string) (map[string]Entry, error) {
	all, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Entry, len(codes))
	for _, c := range codes {
		if e, ok := all[c]; ok {
			out[c] = e
		}
	}
	return out, nil
}

// Reset drops the cached master data.
func (d *Directory) Reset() {
	d.cache.Invalidate(cacheKey)
}
