package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"systemqa/internal/blob"
	"systemqa/internal/frames"
	"systemqa/internal/logging"
	"systemqa/internal/manuals"
	"systemqa/internal/notifications"
	"systemqa/internal/services"
	"systemqa/internal/title"
	"systemqa/internal/workspace"
)

// Store is the manual state the handler reads and mutates.
type Store interface {
	Claim(ctx context.Context, id string, lease time.Duration) (bool, error)
	Get(ctx context.Context, id string) (*manuals.Manual, error)
	Finish(ctx context.Context, id string, status manuals.Status) (bool, error)
	SetStepImage(ctx context.Context, stepID, imagePath string) error
	Heartbeat(ctx context.Context, id string, lease time.Duration) error
}

// TitleSynthesizer generates and stores a manual title.
type TitleSynthesizer interface {
	Synthesize(ctx context.Context, manualID string, steps []title.Step) (string, error)
}

// Options tunes workspace placement and lease timing.
type Options struct {
	WorkspaceRoot     string
	WorkspacePrefix   string
	LeaseTimeout      time.Duration
	HeartbeatInterval time.Duration
	// Prober is optional; without it offsets are not checked against the
	// video length.
	Prober frames.Prober
	// Notifier receives finished-manual events. Nil disables them.
	Notifier notifications.Service
}

// Handler processes manual job messages.
type Handler struct {
	store     Store
	blobs     blob.Client
	extractor frames.Extractor
	titles    TitleSynthesizer
	opts      Options
	logger    *slog.Logger
}

// NewHandler wires a Handler.
func NewHandler(store Store, blobs blob.Client, extractor frames.Extractor, titles TitleSynthesizer, opts Options, logger *slog.Logger) *Handler {
	if opts.WorkspacePrefix == "" {
		opts.WorkspacePrefix = workspace.DefaultPrefix
	}
	if opts.LeaseTimeout <= 0 {
		opts.LeaseTimeout = 10 * time.Minute
	}
	return &Handler{
		store:     store,
		blobs:     blobs,
		extractor: extractor,
		titles:    titles,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Handle processes one message body. A nil return acknowledges the message.
func (h *Handler) Handle(ctx context.Context, body []byte) error {
	job, ok := ParseJob(body)
	if !ok {
		h.logger.Debug("discarding message without manual id",
			logging.String(logging.FieldEventType, "job_discarded"),
			logging.Int("body_bytes", len(body)),
		)
		return nil
	}
	return h.Process(ctx, job.Manual.ID)
}

// Process runs the pipeline for manualID.
func (h *Handler) Process(ctx context.Context, manualID string) error {
	ctx = services.WithManualID(ctx, manualID)
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	logger := logging.WithContext(ctx, h.logger)

	claimed, err := h.store.Claim(ctx, manualID, h.opts.LeaseTimeout)
	if err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "claim", "claim manual", err)
	}
	if !claimed {
		logger.Info("manual does not exist or has already been processed",
			logging.String(logging.FieldEventType, "job_skipped"),
		)
		return nil
	}

	manual, err := h.store.Get(ctx, manualID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "pipeline", "load", "load manual", err)
	}
	if manual == nil {
		logger.Info("manual removed after claim", logging.String(logging.FieldEventType, "job_skipped"))
		return nil
	}
	logger.Info("manual claimed",
		logging.String(logging.FieldEventType, "job_claimed"),
		logging.Int("steps", len(manual.Steps)),
		logging.String("video_path", manual.VideoPath),
	)

	ws, err := workspace.Acquire(h.opts.WorkspaceRoot, h.opts.WorkspacePrefix, h.logger)
	if err != nil {
		logging.ErrorWithContext(logger, "workspace acquisition failed", "workspace_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check workspace_dir free space and permissions"),
		)
		return err
	}
	defer ws.Release()

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go heartbeatLoop(hbCtx, &wg, h.store, manualID, h.opts.HeartbeatInterval, h.opts.LeaseTimeout, h.logger)
	defer func() {
		stopHeartbeat()
		wg.Wait()
	}()

	steps, phaseErr := h.captureScreenshots(ctx, manual, ws)
	status := manuals.StatusSuccess
	if phaseErr != nil {
		status = manuals.StatusFail
		logging.ErrorWithContext(logger, "screenshot generation failed", "screenshots_failed",
			logging.Error(phaseErr),
			logging.ErrorKind(phaseErr),
			logging.String(logging.FieldErrorHint, "inspect the source video and ffmpeg output"),
		)
	}
	if ok, err := h.store.Finish(ctx, manualID, status); err != nil {
		logging.ErrorWithContext(logger, "failed to record processing status", "status_update_failed",
			logging.Error(err),
			logging.String("status", string(status)),
			logging.String(logging.FieldErrorHint, "check database availability"),
		)
	} else if !ok {
		logging.WarnWithContext(logger, "manual left PROCESSING before completion", "status_update_skipped",
			logging.String("status", string(status)),
			logging.String(logging.FieldImpact, "status reflects the other writer"),
		)
	} else {
		logger.Info("screenshot generation finished",
			logging.String(logging.FieldEventType, "screenshots_finished"),
			logging.String("status", string(status)),
		)
		if phaseErr != nil {
			h.notify(ctx, notifications.EventManualFailed, notifications.Payload{"manualID": manualID, "error": phaseErr.Error()})
		}
	}

	generated, err := h.titles.Synthesize(ctx, manualID, steps)
	if err != nil {
		return fmt.Errorf("generate title: %w", err)
	}
	if phaseErr == nil {
		h.notify(ctx, notifications.EventManualCompleted, notifications.Payload{"manualID": manualID, "title": generated})
	}
	return nil
}

func (h *Handler) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if h.opts.Notifier == nil {
		return
	}
	if err := h.opts.Notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, h.logger), "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "manual outcome was recorded but not announced"),
		)
	}
}

// captureScreenshots downloads the source video and processes every step in
// order. It returns the steps handled so far for title synthesis; on error the
// list stops at the failing step.
func (h *Handler) captureScreenshots(ctx context.Context, manual *manuals.Manual, ws *workspace.Workspace) ([]title.Step, error) {
	logger := logging.WithContext(ctx, h.logger)
	var steps []title.Step

	if !manual.HasVideo() {
		return steps, services.Wrap(services.ErrValidation, "pipeline", "download", "manual has no video", nil)
	}
	source, err := blob.Download(ctx, h.blobs, manual.VideoPath, ws)
	if err != nil {
		return steps, err
	}
	durationMs, err := h.probeSource(ctx, source)
	if err != nil {
		return steps, err
	}

	for _, step := range manual.Steps {
		if err := frames.CheckOffset(step, durationMs); err != nil {
			return steps, err
		}
		result, err := frames.ExtractStep(ctx, h.extractor, step, source, ws)
		if err != nil {
			return steps, err
		}
		if result.Skipped {
			steps = append(steps, title.Step{Description: step.Description})
			logger.Debug("step has no capture offset", logging.String(logging.FieldStepID, step.ID), logging.Int("step_order", step.StepOrder))
			continue
		}
		steps = append(steps, title.Step{Description: step.Description, ImagePath: result.Path})

		key, err := blob.Publish(ctx, h.blobs, result.Path, blob.ScreenshotKey(manual.VideoPath, result.Path))
		if err != nil {
			return steps, err
		}
		if err := h.store.SetStepImage(ctx, step.ID, key); err != nil {
			return steps, services.Wrap(services.ErrStorage, "pipeline", "commit", fmt.Sprintf("record image for step %d", step.StepOrder), err)
		}
		logger.Info("step screenshot published",
			logging.String(logging.FieldStepID, step.ID),
			logging.Int("step_order", step.StepOrder),
			logging.String("timestamp", frames.FormatTimestamp(result.OffsetMs)),
			logging.String("image_path", key),
		)
	}
	return steps, nil
}

// probeSource returns the source length in milliseconds, or zero when it is
// unknown. Probe failures are logged and left to ffmpeg to surface.
func (h *Handler) probeSource(ctx context.Context, source string) (int64, error) {
	if h.opts.Prober == nil {
		return 0, nil
	}
	logger := logging.WithContext(ctx, h.logger)
	info, err := h.opts.Prober.Probe(ctx, source)
	if err != nil {
		logging.WarnWithContext(logger, "source probe failed", "probe_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "capture offsets are not checked against the video length"),
		)
		return 0, nil
	}
	if err := frames.CheckSource(info); err != nil {
		return 0, err
	}
	logger.Debug("source probed",
		logging.String(logging.FieldEventType, "source_probed"),
		logging.String("duration", frames.FormatTimestamp(info.DurationMs)),
		logging.String("resolution", fmt.Sprintf("%dx%d", info.Width, info.Height)),
	)
	return info.DurationMs, nil
}
