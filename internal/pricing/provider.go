// Package pricing fetches current security prices from an external lookup
// in bounded chunks with retries.
package pricing

import (
	"context"
	"fmt"
	"strings"
)

// Provider is an external price lookup. Submit hands codes to the backend
// and Read returns prices for them; asynchronous backends need a settle
// wait between the two. Codes missing from the Read result, or mapped to 0,
// were not found this cycle.
type Provider interface {
	// Name returns the provider's display name.
	Name() string
	Submit(ctx context.Context, codes []string) error
	Read(ctx context.Context, codes []string) (map[string]float64, error)
}

// ChunkError describes a chunk that exhausted its attempts.
type ChunkError struct {
	Index    int
	Codes    []string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d (%s) failed after %d attempts: %v",
		e.Index, strings.Join(e.Codes, ","), e.Attempts, e.Err)
}

// Unwrap returns the last attempt's error.
func (e *ChunkError) Unwrap() error { return e.Err }
