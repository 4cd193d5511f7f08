package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/pingboard/internal/repo"
)

type Alerts struct {
	mu sync.Mutex
	m  map[string]repo.AlertRecord
}

func NewAlerts() *Alerts {
	return &Alerts{m: make(map[string]repo.AlertRecord)}
}

func (a *Alerts) Get(ctx context.Context, endpointID string) (*repo.AlertRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.m[endpointID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (a *Alerts) Set(ctx context.Context, endpointID string, up bool, sentAt time.Time) error {
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	a.mu.Lock()
	a.m[endpointID] = repo.AlertRecord{EndpointID: endpointID, LastUp: up, LastSentAt: ts}
	a.mu.Unlock()
	return nil
}

var _ repo.AlertStore = (*Alerts)(nil)
