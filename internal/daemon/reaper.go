package daemon

import (
	"context"
	"log/slog"
	"time"

	"systemqa/internal/logging"
	"systemqa/internal/notifications"
)

// Enqueuer sends a job for a manual.
type Enqueuer interface {
	Send(ctx context.Context, manualID string) (string, error)
}

type reclaimer interface {
	ReclaimExpired(ctx context.Context, now time.Time) ([]string, error)
}

// Reaper returns PROCESSING manuals whose lease lapsed to WAITING and
// re-enqueues them.
type Reaper struct {
	store    reclaimer
	enqueuer Enqueuer
	interval time.Duration
	notifier notifications.Service
	logger   *slog.Logger
	now      func() time.Time
}

// NewReaper builds a Reaper that sweeps every interval.
func NewReaper(store reclaimer, enqueuer Enqueuer, interval time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{
		store:    store,
		enqueuer: enqueuer,
		interval: interval,
		notifier: notifications.NewService(nil),
		logger:   logging.NewComponentLogger(logger, "reaper"),
		now:      time.Now,
	}
}

// Sweep reclaims expired leases once and returns the re-enqueued ids.
func (r *Reaper) Sweep(ctx context.Context) ([]string, error) {
	ids, err := r.store.ReclaimExpired(ctx, r.now())
	if err != nil {
		return nil, err
	}
	enqueued := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := r.enqueuer.Send(ctx, id); err != nil {
			logging.ErrorWithContext(r.logger, "failed to re-enqueue reclaimed manual", "reclaim_enqueue_failed",
				logging.String(logging.FieldManualID, id),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'systemqa enqueue "+id+"' once the queue is reachable"),
			)
			continue
		}
		enqueued = append(enqueued, id)
	}
	if len(ids) > 0 {
		logging.WarnWithContext(r.logger, "reclaimed manuals with expired leases", "leases_reclaimed",
			logging.Int("reclaimed", len(ids)),
			logging.Int("enqueued", len(enqueued)),
			logging.String(logging.FieldImpact, "manuals will be processed again"),
		)
		if err := r.notifier.Publish(ctx, notifications.EventLeaseReclaimed, notifications.Payload{"count": len(ids)}); err != nil {
			r.logger.Warn("reclaim notification failed", logging.Error(err))
		}
	}
	return enqueued, nil
}

// Run sweeps immediately and then every interval until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	r.sweepAndLog(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepAndLog(ctx)
		}
	}
}

func (r *Reaper) sweepAndLog(ctx context.Context) {
	if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
		logging.WarnWithContext(r.logger, "lease sweep failed", "lease_sweep_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check database availability"),
		)
	}
}
