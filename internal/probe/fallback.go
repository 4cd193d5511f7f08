package probe

import (
	"context"
	"errors"

	"go.uber.org/multierr"
)

// FallbackProber tries each prober in order and returns the first success.
// When every prober fails the errors are combined so the classifier sees
// all of their text.
type FallbackProber struct {
	Probers []Prober
}

func NewFallbackProber(probers ...Prober) *FallbackProber {
	return &FallbackProber{Probers: probers}
}

func (f *FallbackProber) Probe(ctx context.Context, address string) (string, error) {
	if len(f.Probers) == 0 {
		return "", errors.New("no probers configured")
	}
	var errs error
	for _, p := range f.Probers {
		out, err := p.Probe(ctx, address)
		if err == nil {
			return out, nil
		}
		errs = multierr.Append(errs, err)
	}
	return "", errs
}
