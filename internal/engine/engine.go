package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pingboard/internal/domain"
	"github.com/hamed0406/pingboard/internal/metrics"
	"github.com/hamed0406/pingboard/internal/probe"
	"github.com/hamed0406/pingboard/internal/report"
	"github.com/hamed0406/pingboard/internal/repo"
)

var (
	ErrEndpointNotFound = errors.New("endpoint not found")
	ErrMissingAddress   = errors.New("endpoint IP address is missing")
	ErrEmptyTarget      = errors.New("custom target is empty")
	ErrSweepInProgress  = errors.New("a sweep is already running")
)

// DefaultStagger is the delay added per position before a sweep launches
// each probe.
const DefaultStagger = 100 * time.Millisecond

type Options struct {
	Stagger time.Duration
	// Concurrency caps in-flight probes during a sweep; 0 means no cap.
	Concurrency int
	StaleAfter  time.Duration
	Metrics     *metrics.Metrics
}

// Engine is the connectivity assessment core. It owns the result cache
// handle and is safe for concurrent use.
type Engine struct {
	Logger  *zap.Logger
	Prober  probe.Prober
	Results repo.ResultStore

	stagger     time.Duration
	concurrency int
	staleAfter  time.Duration
	metrics     *metrics.Metrics
	trend       *Trend
	now         func() time.Time

	sweepMu  sync.Mutex
	progress progressState
}

func New(logger *zap.Logger, prober probe.Prober, results repo.ResultStore, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Stagger == 0 {
		opts.Stagger = DefaultStagger
	}
	if opts.Stagger < 0 {
		opts.Stagger = 0
	}
	if opts.Concurrency < 0 {
		opts.Concurrency = 0
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = report.DefaultStaleAfter
	}
	return &Engine{
		Logger:      logger,
		Prober:      prober,
		Results:     results,
		stagger:     opts.Stagger,
		concurrency: opts.Concurrency,
		staleAfter:  opts.StaleAfter,
		metrics:     opts.Metrics,
		trend:       NewTrend(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Probe measures one endpoint and stores the result under its id. Only
// precondition failures are returned as errors; prober failures come back
// as a Failure outcome.
func (e *Engine) Probe(ctx context.Context, ep *domain.Endpoint) (domain.ResultEntry, error) {
	if ep == nil {
		return domain.ResultEntry{}, ErrEndpointNotFound
	}
	if strings.TrimSpace(ep.IP) == "" {
		return domain.ResultEntry{}, fmt.Errorf("%w: %s", ErrMissingAddress, ep.ID)
	}

	entry := e.measure(ctx, *ep)
	e.store(ctx, &entry)
	return entry, nil
}

// Report builds the aggregate view of the live cache.
func (e *Engine) Report(ctx context.Context) (report.Report, error) {
	entries, err := e.Results.List(ctx)
	if err != nil {
		return report.Report{}, fmt.Errorf("list results: %w", err)
	}
	return e.reportOptions().Build(entries, e.now()), nil
}

// Trend returns the smoothed latency seen for id across probes.
func (e *Engine) Trend(id domain.EndpointID) (float64, bool) {
	return e.trend.Value(id)
}

func (e *Engine) reportOptions() report.Options {
	return report.Options{StaleAfter: e.staleAfter, Trend: e.trend.Value}
}

func (e *Engine) measure(ctx context.Context, ep domain.Endpoint) domain.ResultEntry {
	out := e.call(ctx, ep.IP)
	if out.LatencyMS != nil {
		e.trend.Observe(ep.ID, *out.LatencyMS)
	}
	return domain.ResultEntry{Endpoint: ep, Outcome: out, CheckedAt: e.now()}
}

// call invokes the prober and classifies whatever comes back. Rejections
// and panics both end up as Failure outcomes.
func (e *Engine) call(ctx context.Context, address string) (out domain.ProbeOutcome) {
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error("prober_panic", zap.String("address", address), zap.Any("panic", r))
			out = probe.ClassifyError(fmt.Sprintf("prober panic: %v", r))
			e.metrics.ObserveOutcome(out)
		}
	}()

	text, err := e.Prober.Probe(ctx, address)
	if err != nil {
		out = probe.ClassifyError(err.Error())
	} else {
		out = probe.Classify(text)
	}
	e.metrics.ObserveOutcome(out)
	return out
}

func (e *Engine) store(ctx context.Context, entry *domain.ResultEntry) {
	if err := e.Results.Put(ctx, entry); err != nil {
		e.Logger.Warn("result_store_error",
			zap.String("endpoint_id", string(entry.Endpoint.ID)),
			zap.Error(err),
		)
		return
	}
	e.logEntry("probe_checked", *entry)
}

func (e *Engine) logEntry(msg string, entry domain.ResultEntry) {
	fields := []zap.Field{
		zap.String("endpoint_id", string(entry.Endpoint.ID)),
		zap.String("ip", entry.Endpoint.IP),
		zap.String("status", string(entry.Outcome.Status)),
		zap.String("method", string(entry.Outcome.Method)),
	}
	if entry.Outcome.LatencyMS != nil {
		fields = append(fields, zap.Int("latency_ms", *entry.Outcome.LatencyMS))
	}
	if entry.Outcome.ErrorKind != "" {
		fields = append(fields,
			zap.String("error_kind", string(entry.Outcome.ErrorKind)),
			zap.String("raw", entry.Outcome.Raw),
		)
	}
	e.Logger.Debug(msg, fields...)
}
