package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pingboard/internal/domain"
	"github.com/hamed0406/pingboard/internal/probe"
	"github.com/hamed0406/pingboard/internal/report"
)

// Progress is a point-in-time view of a sweep.
type Progress struct {
	Completed  int       `json:"completed"`
	Total      int       `json:"total"`
	Successful int       `json:"successful"`
	Running    bool      `json:"running"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// ProgressFunc is called once per settled probe, in increasing Completed
// order.
type ProgressFunc func(Progress)

type progressState struct {
	mu sync.Mutex
	p  Progress
}

func (s *progressState) begin(total int, at time.Time) {
	s.mu.Lock()
	s.p = Progress{Total: total, Running: true, StartedAt: at}
	s.mu.Unlock()
}

func (s *progressState) settle(ok bool) Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Completed++
	if ok {
		s.p.Successful++
	}
	return s.p
}

func (s *progressState) finish(at time.Time) Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Running = false
	s.p.FinishedAt = at
	return s.p
}

func (s *progressState) snapshot() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p
}

// Progress reports the running sweep, or the last finished one.
func (e *Engine) Progress() Progress {
	return e.progress.snapshot()
}

// SweepAll probes every endpoint, endpoint i starting i*stagger after the
// sweep begins. All probes run concurrently and each one is isolated: a
// failing or panicking prober only affects its own entry. The results form
// a new cache generation that replaces the previous one once every probe
// has settled. Only one sweep runs at a time.
func (e *Engine) SweepAll(ctx context.Context, endpoints []domain.Endpoint, progress ProgressFunc) (report.Report, error) {
	if !e.sweepMu.TryLock() {
		return report.Report{}, ErrSweepInProgress
	}
	defer e.sweepMu.Unlock()

	start := time.Now()
	total := len(endpoints)
	e.progress.begin(total, e.now())
	e.Logger.Info("sweep_started", zap.Int("endpoints", total), zap.Duration("stagger", e.stagger))

	var sem chan struct{}
	if e.concurrency > 0 {
		sem = make(chan struct{}, e.concurrency)
	}

	// each task owns exactly one slot
	entries := make([]domain.ResultEntry, total)
	var (
		wg       sync.WaitGroup
		notifyMu sync.Mutex
	)
	for i, ep := range endpoints {
		wg.Add(1)
		go func(i int, ep domain.Endpoint) {
			defer wg.Done()
			e.wait(ctx, time.Duration(i)*e.stagger)
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}

			entry := e.sweepOne(ctx, ep)
			entries[i] = entry
			e.logEntry("sweep_checked", entry)

			notifyMu.Lock()
			p := e.progress.settle(entry.Outcome.OK())
			if progress != nil {
				progress(p)
			}
			notifyMu.Unlock()
		}(i, ep)
	}
	wg.Wait()

	if err := e.Results.Replace(ctx, entries); err != nil {
		e.Logger.Warn("result_store_error", zap.Error(err))
	}
	final := e.progress.finish(e.now())
	e.metrics.ObserveSweep(time.Since(start), final.Successful, final.Completed-final.Successful)
	e.Logger.Info("sweep_completed",
		zap.Int("endpoints", total),
		zap.Int("successful", final.Successful),
		zap.Int("failed", final.Completed-final.Successful),
		zap.Duration("took", time.Since(start)),
	)

	return e.reportOptions().Build(entries, e.now()), nil
}

// sweepOne never fails: a missing address becomes a Failure entry.
func (e *Engine) sweepOne(ctx context.Context, ep domain.Endpoint) domain.ResultEntry {
	if strings.TrimSpace(ep.IP) == "" {
		out := probe.ClassifyError(ErrMissingAddress.Error())
		out.ErrorKind = domain.ErrMissingAddress
		return domain.ResultEntry{Endpoint: ep, Outcome: out, CheckedAt: e.now()}
	}
	return e.measure(ctx, ep)
}

// wait sleeps for d. A cancelled context ends the wait early; the probe
// still runs and reports the cancellation as its failure.
func (e *Engine) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
