package probe

import (
	"context"
	"fmt"
	"time"
)

type RetryProber struct {
	Inner    Prober
	Attempts int
	Backoff  time.Duration
}

func (r *RetryProber) Probe(ctx context.Context, address string) (string, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last error
	for i := 0; i < attempts; i++ {
		out, err := r.Inner.Probe(ctx, address)
		if err == nil {
			return out, nil
		}
		last = err
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w (retries aborted)", last)
			case <-time.After(r.Backoff):
			}
		}
	}
	if attempts == 1 {
		return "", last
	}
	// annotate so the raw text shows it was a retry series
	return "", fmt.Errorf("%w (after %d attempts)", last, attempts)
}
