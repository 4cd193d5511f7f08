package probe

import "context"

// Prober measures a single address, either "ip" or "ip:port".
//
// On success the returned text carries a "<n>ms (TCP)" or "<n>ms (ICMP)"
// fragment somewhere inside it. Failures come back as an error whose text
// is later run through ClassifyError. No other structure is guaranteed.
type Prober interface {
	Probe(ctx context.Context, address string) (string, error)
}

// ProberFunc adapts a plain function to the Prober interface.
type ProberFunc func(ctx context.Context, address string) (string, error)

func (f ProberFunc) Probe(ctx context.Context, address string) (string, error) {
	return f(ctx, address)
}
