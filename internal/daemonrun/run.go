package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"systemqa/internal/config"
	"systemqa/internal/daemon"
	"systemqa/internal/logging"
	"systemqa/internal/preflight"
	"systemqa/internal/sqsqueue"
	"systemqa/internal/workspace"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// SkipPreflight disables the startup readiness checks.
	SkipPreflight bool
}

// Run starts the systemqa worker runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logPath := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		Outputs:     []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	if removed := logging.PruneLogs(logger, cfg.Paths.LogDir, "*.log*", logPath, cfg.Logging.RetentionDays); removed > 0 {
		logger.Info("pruned old logs", logging.Int("removed", removed))
	}
	pidPath := filepath.Join(cfg.Paths.StateDir, "systemqa.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	svc, err := NewServices(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("initialize services", logging.Error(err))
		return err
	}
	defer svc.Close()

	cleanStaleWorkspaces(signalCtx, cfg, logger)
	if !opts.SkipPreflight {
		runPreflight(signalCtx, cfg, svc, logger)
	}

	consumer := sqsqueue.NewConsumer(svc.Queue, svc.QueueURL, svc.Handler, sqsqueue.Options{
		Listeners:         cfg.Worker.Listeners,
		WaitSeconds:       int32(cfg.Queue.WaitSeconds),
		VisibilityTimeout: int32(cfg.Queue.VisibilityTimeout),
		MaxMessages:       int32(cfg.Queue.MaxMessages),
	}, logger)

	d, err := daemon.New(cfg, svc.Store, consumer, svc.Producer, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check for another running worker and the health_bind address"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("systemqa worker shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	d.Stop()
	return nil
}

func cleanStaleWorkspaces(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	maxAge := time.Duration(cfg.Worker.StaleWorkspaceHours) * time.Hour
	if maxAge <= 0 {
		return
	}
	removed, err := workspace.Sweep(ctx, cfg.WorkspaceRoot(), workspace.DefaultPrefix, maxAge)
	if len(removed) > 0 {
		logger.Info("removed stale workspaces",
			logging.String(logging.FieldEventType, "stale_workspaces_removed"),
			logging.Int("count", len(removed)),
		)
	}
	if err != nil {
		logging.WarnWithContext(logger, "stale workspace cleanup incomplete", "workspace_cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check workspace_dir permissions"),
			logging.String(logging.FieldImpact, "disk space is not reclaimed"),
		)
	}
}

func runPreflight(ctx context.Context, cfg *config.Config, svc *Services, logger *slog.Logger) {
	results := preflight.RunAll(ctx, cfg, preflight.Probes{Queue: svc.QueueDepth})
	for _, failed := range preflight.Failed(results) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldImpact, "jobs depending on this service will fail"),
		)
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("gemini_key_present", strings.TrimSpace(cfg.Gemini.APIKey) != ""),
		logging.String("gemini_model", cfg.Gemini.Model),
		logging.Bool("ffmpeg_available", binaryAvailable(cfg.FFmpeg.Binary)),
		logging.String("ffmpeg_binary", cfg.FFmpeg.Binary),
		logging.String("bucket", cfg.Storage.Bucket),
		logging.String("queue_url", cfg.QueueURL()),
		logging.String("workspace_root", cfg.WorkspaceRoot()),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
