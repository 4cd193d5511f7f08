package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pingboard/internal/domain"
)

var ErrNoEndpoints = errors.New("no endpoints found")

// Service hands out the endpoint list the engine sweeps.
type Service interface {
	List(ctx context.Context) (map[domain.EndpointID]domain.Endpoint, error)
	Refresh(ctx context.Context) (map[domain.EndpointID]domain.Endpoint, error)
}

// Source produces a fresh endpoint list on every call.
type Source interface {
	Fetch(ctx context.Context) ([]domain.Endpoint, error)
}

// Directory caches a Source for TTL. A failed refetch keeps serving the
// previous list when there is one.
type Directory struct {
	Logger *zap.Logger
	Source Source
	TTL    time.Duration

	mu        sync.Mutex
	endpoints map[domain.EndpointID]domain.Endpoint
	fetchedAt time.Time
	now       func() time.Time
}

func New(logger *zap.Logger, src Source, ttl time.Duration) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{Logger: logger, Source: src, TTL: ttl, now: time.Now}
}

func (d *Directory) List(ctx context.Context) (map[domain.EndpointID]domain.Endpoint, error) {
	d.mu.Lock()
	fresh := d.endpoints != nil && (d.TTL <= 0 || d.now().Sub(d.fetchedAt) < d.TTL)
	if fresh {
		out := copyMap(d.endpoints)
		d.mu.Unlock()
		return out, nil
	}
	d.mu.Unlock()

	out, err := d.Refresh(ctx)
	if err == nil {
		return out, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.endpoints != nil {
		d.Logger.Warn("directory_refresh_error", zap.Error(err), zap.Int("serving_cached", len(d.endpoints)))
		return copyMap(d.endpoints), nil
	}
	return nil, err
}

// Refresh refetches unconditionally.
func (d *Directory) Refresh(ctx context.Context) (map[domain.EndpointID]domain.Endpoint, error) {
	list, err := d.Source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch endpoints: %w", err)
	}
	if len(list) == 0 {
		return nil, ErrNoEndpoints
	}

	m := make(map[domain.EndpointID]domain.Endpoint, len(list))
	for i, ep := range list {
		if ep.ID == "" {
			ep.ID = domain.EndpointID("server_" + strconv.Itoa(i))
		}
		m[ep.ID] = Normalize(ep)
	}

	d.mu.Lock()
	d.endpoints = m
	d.fetchedAt = d.now()
	d.mu.Unlock()

	d.Logger.Info("directory_refreshed", zap.Int("endpoints", len(m)))
	return copyMap(m), nil
}

// Lookup returns nil without error when id is unknown.
func Lookup(ctx context.Context, svc Service, id domain.EndpointID) (*domain.Endpoint, error) {
	all, err := svc.List(ctx)
	if err != nil {
		return nil, err
	}
	ep, ok := all[id]
	if !ok {
		return nil, nil
	}
	return &ep, nil
}

// Sorted flattens m into a stable order: ids with a shared prefix compare
// by their numeric suffix, so server_2 precedes server_10.
func Sorted(m map[domain.EndpointID]domain.Endpoint) []domain.Endpoint {
	out := make([]domain.Endpoint, 0, len(m))
	for _, ep := range m {
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(string(out[i].ID), string(out[j].ID)) })
	return out
}

func lessID(a, b string) bool {
	pa, na, oka := splitNumericSuffix(a)
	pb, nb, okb := splitNumericSuffix(b)
	if oka && okb && pa == pb && na != nb {
		return na < nb
	}
	return a < b
}

func splitNumericSuffix(s string) (string, int, bool) {
	i := strings.LastIndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if i == len(s)-1 {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return s, 0, false
	}
	return s[:i+1], n, true
}

func copyMap(m map[domain.EndpointID]domain.Endpoint) map[domain.EndpointID]domain.Endpoint {
	out := make(map[domain.EndpointID]domain.Endpoint, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
