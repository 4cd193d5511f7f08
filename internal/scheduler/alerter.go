package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pingboard/internal/engine"
	"github.com/hamed0406/pingboard/internal/notify"
	"github.com/hamed0406/pingboard/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
}

// Alerter watches the result cache and notifies when an endpoint changes
// between reachable and unreachable.
type Alerter struct {
	logger   *zap.Logger
	results  repo.ResultStore
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
	now      func() time.Time
}

func NewAlerter(
	logger *zap.Logger,
	results repo.ResultStore,
	alertDB repo.AlertStore,
	notifier notify.Notifier,
	cfg AlerterConfig,
) *Alerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	return &Alerter{
		logger:   logger,
		results:  results,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	a.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			a.scan(ctx)
		}
	}
}

func (a *Alerter) scan(ctx context.Context) {
	if err := a.scanOnce(ctx); err != nil {
		a.logger.Warn("alerter_scan_error", zap.Error(err))
	}
}

func (a *Alerter) scanOnce(ctx context.Context) error {
	entries, err := a.results.List(ctx)
	if err != nil {
		return err
	}

	now := a.now()

	for _, e := range entries {
		// ad-hoc checks are not monitored endpoints
		if e.Endpoint.ID == engine.CustomEndpointID {
			continue
		}
		id := string(e.Endpoint.ID)
		up := e.Outcome.OK()

		rec, err := a.alertDB.Get(ctx, id)
		if err != nil {
			return err
		}

		stateChanged := rec == nil || rec.LastUp != up

		// cooldown only gates down alerts
		cooled := true
		if rec != nil && rec.LastSentAt != nil {
			cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
		}

		downAlert := stateChanged && !up && cooled
		// a first sighting that is already up is not a recovery
		recoveryAlert := stateChanged && up && rec != nil && a.cfg.AlertOnRecovery

		if downAlert || recoveryAlert {
			ev := notify.Event{Endpoint: e.Endpoint, Up: up, Outcome: e.Outcome, At: e.CheckedAt}
			if err := a.notifier.Notify(ctx, ev); err != nil {
				a.logger.Warn("notify_error", zap.String("endpoint_id", id), zap.Error(err))
			}
			if err := a.alertDB.Set(ctx, id, up, now); err != nil {
				return err
			}
			continue
		}

		// record the new state; the last send time keeps gating down alerts
		if stateChanged {
			var sentAt time.Time
			if rec != nil && rec.LastSentAt != nil {
				sentAt = *rec.LastSentAt
			}
			if err := a.alertDB.Set(ctx, id, up, sentAt); err != nil {
				return err
			}
		}
	}

	return nil
}
