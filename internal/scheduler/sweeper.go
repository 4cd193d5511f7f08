package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pingboard/internal/directory"
	"github.com/hamed0406/pingboard/internal/domain"
	"github.com/hamed0406/pingboard/internal/engine"
	"github.com/hamed0406/pingboard/internal/report"
)

// SweepRunner is the part of the engine the sweeper drives.
type SweepRunner interface {
	SweepAll(ctx context.Context, endpoints []domain.Endpoint, progress engine.ProgressFunc) (report.Report, error)
}

// Sweeper sweeps the whole directory on a fixed interval.
type Sweeper struct {
	Logger    *zap.Logger
	Directory directory.Service
	Engine    SweepRunner
	Interval  time.Duration
}

func NewSweeper(logger *zap.Logger, dir directory.Service, eng SweepRunner, interval time.Duration) *Sweeper {
	if interval < 0 {
		interval = 0
	}
	return &Sweeper{Logger: logger, Directory: dir, Engine: eng, Interval: interval}
}

// Run does an immediate pass, then one per tick, until ctx is cancelled.
// A zero interval disables the loop.
func (s *Sweeper) Run(ctx context.Context) {
	if s.Interval == 0 {
		s.Logger.Info("sweeper_disabled")
		return
	}
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("sweeper_stopped")
			return
		case <-t.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	all, err := s.Directory.List(ctx)
	if err != nil {
		s.Logger.Warn("directory_list_error", zap.Error(err))
		return
	}
	eps := directory.Sorted(all)

	r, err := s.Engine.SweepAll(ctx, eps, nil)
	switch {
	case errors.Is(err, engine.ErrSweepInProgress):
		s.Logger.Info("sweep_skipped", zap.String("reason", "already running"))
		return
	case err != nil:
		s.Logger.Warn("sweep_error", zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.Int("checked", r.TotalChecked),
		zap.Int("successful", r.SuccessCount),
		zap.Int("failed", r.FailureCount),
		zap.String("overall", string(r.OverallStatus)),
	}
	if r.AverageOfLowestThreeMS != nil {
		fields = append(fields, zap.Int("best3_avg_ms", *r.AverageOfLowestThreeMS))
	}
	s.Logger.Info("sweep_summary", fields...)
}
