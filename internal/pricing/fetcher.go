package pricing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dobashik/cashflow-maker-web/internal/logger"
)

// Config bounds the load a Fetcher puts on its provider.
type Config struct {
	ChunkSize   int
	SettleWait  time.Duration
	RetryDelay  time.Duration
	Cooldown    time.Duration
	MaxAttempts int
}

// DefaultConfig matches the calculation sheet's limits.
func DefaultConfig() Config {
	return Config{
		ChunkSize:   30,
		SettleWait:  15 * time.Second,
		RetryDelay:  2 * time.Second,
		Cooldown:    time.Second,
		MaxAttempts: 3,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	return c
}

// Result is the outcome of one fetch.
type Result struct {
	// Prices holds every code of the chunks that completed, 0 when the
	// provider had no price for it.
	Prices map[string]float64
	// Failed lists chunks skipped after exhausting their attempts. Their
	// codes are absent from Prices.
	Failed []ChunkError
}

// Found counts codes with a positive price.
func (r *Result) Found() int {
	n := 0
	for _, p := range r.Prices {
		if p > 0 {
			n++
		}
	}
	return n
}

// FailedCodes counts codes in skipped chunks.
func (r *Result) FailedCodes() int {
	n := 0
	for _, f := range r.Failed {
		n += len(f.Codes)
	}
	return n
}

// Fetcher drives a Provider chunk by chunk. Each chunk is retried up to
// MaxAttempts times before it is skipped, and the cooldown separates the
// end of one chunk from the submit of the next.
type Fetcher struct {
	provider Provider
	cfg      Config
	sleep    func(ctx context.Context, d time.Duration) error
	log      *zap.SugaredLogger
}

// NewFetcher creates a Fetcher. Zero sizes in cfg take the defaults; zero
// durations disable the corresponding wait.
func NewFetcher(p Provider, cfg Config) *Fetcher {
	cfg = cfg.normalized()
	return &Fetcher{
		provider: p,
		cfg:      cfg,
		sleep:    sleepContext,
		log:      logger.Named("pricing"),
	}
}

// Fetch looks up prices for codes. Chunk failures are reported in the
// result and never returned as an error; the error is non-nil only when
// ctx ends, in which case the partial result is still returned.
func (f *Fetcher) Fetch(ctx context.Context, codes []string) (*Result, error) {
	res := &Result{Prices: make(map[string]float64, len(codes))}
	codes = dedupe(codes)
	if len(codes) == 0 {
		return res, nil
	}

	chunks := chunk(codes, f.cfg.ChunkSize)
	f.log.Infow("Fetching prices", "provider", f.provider.Name(), "codes", len(codes), "chunks", len(chunks))

	for i, c := range chunks {
		if i > 0 && f.cfg.Cooldown > 0 {
			if err := f.sleep(ctx, f.cfg.Cooldown); err != nil {
				return res, err
			}
		}

		prices, attempts, err := f.fetchChunk(ctx, c)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		if err != nil {
			f.log.Warnw("Skipping price chunk", "chunk", i+1, "codes", len(c), "attempts", attempts, "error", err)
			res.Failed = append(res.Failed, ChunkError{Index: i, Codes: c, Attempts: attempts, Err: err})
			continue
		}

		found := 0
		for _, code := range c {
			p := prices[code]
			if p < 0 {
				p = 0
			}
			if p > 0 {
				found++
			}
			res.Prices[code] = p
		}
		f.log.Infow("Price chunk complete", "chunk", i+1, "codes", len(c), "found", found, "attempts", attempts)
	}
	return res, nil
}

func (f *Fetcher) fetchChunk(ctx context.Context, codes []string) (map[string]float64, int, error) {
	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := f.sleep(ctx, f.cfg.RetryDelay); err != nil {
				return nil, attempt - 1, err
			}
		}

		prices, err := f.roundTrip(ctx, codes)
		if err == nil {
			return prices, attempt, nil
		}
		lastErr = err
		f.log.Debugw("Price chunk attempt failed", "attempt", attempt, "error", err)
		if ctx.Err() != nil {
			return nil, attempt, ctx.Err()
		}
	}
	return nil, f.cfg.MaxAttempts, lastErr
}

func (f *Fetcher) roundTrip(ctx context.Context, codes []string) (map[string]float64, error) {
	if err := f.provider.Submit(ctx, codes); err != nil {
		return nil, err
	}
	if err := f.sleep(ctx, f.cfg.SettleWait); err != nil {
		return nil, err
	}
	return f.provider.Read(ctx, codes)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func chunk(codes []string, size int) [][]string {
	var out [][]string
	for i := 0; i < len(codes); i += size {
		end := min(i+size, len(codes))
		out = append(out, codes[i:end])
	}
	return out
}

func dedupe(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
