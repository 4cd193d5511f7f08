package repo

import (
	"context"
	"time"
)

// AlertRecord holds last-known reachability and the last time we sent a
// notification for an endpoint. LastSentAt drives the cooldown.
type AlertRecord struct {
	EndpointID string
	LastUp     bool
	LastSentAt *time.Time
}

// AlertStore keeps alert state between scans.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, endpointID string) (*AlertRecord, error)
	// Set upserts the record. A zero sentAt leaves LastSentAt nil.
	Set(ctx context.Context, endpointID string, up bool, sentAt time.Time) error
}
