package repo

import (
	"context"

	"github.com/hamed0406/pingboard/internal/domain"
)

// ResultStore is the result cache: one entry per endpoint id, last write
// wins.
type ResultStore interface {
	Put(ctx context.Context, e *domain.ResultEntry) error
	Get(ctx context.Context, id domain.EndpointID) (*domain.ResultEntry, error)
	List(ctx context.Context) ([]domain.ResultEntry, error)
	// Replace swaps the whole content for a new generation in one step.
	// Readers never observe a partially populated cache.
	Replace(ctx context.Context, entries []domain.ResultEntry) error
}
