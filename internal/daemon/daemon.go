package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"systemqa/internal/config"
	"systemqa/internal/logging"
	"systemqa/internal/manuals"
	"systemqa/internal/notifications"
	"systemqa/internal/sqsqueue"
)

// Consumer is the queue loop driven by the daemon.
type Consumer interface {
	Run(ctx context.Context) error
	Stats() sqsqueue.Stats
}

// Daemon coordinates the background processing services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *manuals.Store
	consumer Consumer
	reaper   *Reaper
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	started time.Time
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Uptime       time.Duration
	Manuals      manuals.Stats
	Consumer     sqsqueue.Stats
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *manuals.Store, consumer Consumer, enqueuer Enqueuer, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || consumer == nil || enqueuer == nil {
		return nil, errors.New("daemon requires config, store, consumer, and enqueuer")
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		consumer: consumer,
		reaper:   NewReaper(store, enqueuer, cfg.ReapInterval(), logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.reaper.notifier = notifications.NewService(cfg)
	d.api = newAPIServer(cfg.Paths.HealthBind, d, logger)
	return d, nil
}

// Start acquires the daemon lock and launches the reaper, consumer, and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another systemqa worker instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.started = time.Now()
	d.running.Store(true)

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		d.reaper.Run(runCtx)
	}()
	go func() {
		defer d.wg.Done()
		if err := d.consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logging.ErrorWithContext(d.logger, "queue consumer exited", "consumer_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue configuration"),
			)
		}
	}()

	d.logger.Info("systemqa worker started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.Int("listeners", d.cfg.Worker.Listeners),
	)
	return nil
}

// Stop stops background processing, waits for in-flight work, and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("systemqa worker stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// APIAddress returns the bound API address, or "" when the API is disabled.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		return Status{}, err
	}
	status := Status{
		Running:      d.running.Load(),
		Manuals:      stats,
		Consumer:     d.consumer.Stats(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
	}
	if status.Running {
		status.Uptime = time.Since(d.started)
	}
	return status, nil
}
