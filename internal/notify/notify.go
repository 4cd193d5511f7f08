package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/pingboard/internal/domain"
)

// Event is a reachability transition for one endpoint.
type Event struct {
	Endpoint domain.Endpoint
	Up       bool
	Outcome  domain.ProbeOutcome
	At       time.Time
}

func (e Event) Title() string {
	if e.Up {
		return fmt.Sprintf("%s is reachable again", e.Endpoint.Name)
	}
	return fmt.Sprintf("%s is unreachable", e.Endpoint.Name)
}

func (e Event) Text() string {
	where := e.Endpoint.IP
	if e.Endpoint.Region != "" {
		where += " (" + e.Endpoint.Region + ")"
	}
	if e.Up {
		if e.Outcome.LatencyMS != nil {
			return fmt.Sprintf("%s answered in %dms via %s", where, *e.Outcome.LatencyMS, e.Outcome.Method)
		}
		return where + " answered"
	}
	return fmt.Sprintf("%s: %s. %s", where, e.Outcome.ErrorKind.Label(), e.Outcome.ErrorKind.Tip())
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Multi delivers to every notifier and reports all failures together.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Notify(ctx, ev))
	}
	return err
}

// Log writes events to the service log.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Notify(_ context.Context, ev Event) error {
	l.Logger.Info("reachability_changed",
		zap.String("endpoint_id", string(ev.Endpoint.ID)),
		zap.Bool("up", ev.Up),
		zap.String("title", ev.Title()),
		zap.String("detail", ev.Text()),
	)
	return nil
}
