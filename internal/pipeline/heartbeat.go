package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"systemqa/internal/logging"
)

// leaseRenewer extends the lease of a PROCESSING manual.
type leaseRenewer interface {
	Heartbeat(ctx context.Context, id string, lease time.Duration) error
}

// heartbeatLoop renews the manual's lease every interval until ctx is done.
func heartbeatLoop(ctx context.Context, wg *sync.WaitGroup, store leaseRenewer, manualID string, interval, lease time.Duration, logger *slog.Logger) {
	defer wg.Done()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "pipeline-heartbeat"))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Heartbeat(ctx, manualID, lease); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				logging.WarnWithContext(logger, "lease renewal failed", "lease_renewal_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check database availability"),
					logging.String(logging.FieldImpact, "manual may be reclaimed and processed again"),
				)
			}
		}
	}
}
