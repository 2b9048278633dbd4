package daemonrun

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"systemqa/internal/blob"
	"systemqa/internal/config"
	"systemqa/internal/frames"
	"systemqa/internal/manuals"
	"systemqa/internal/notifications"
	"systemqa/internal/pipeline"
	"systemqa/internal/services/gemini"
	"systemqa/internal/sqsqueue"
	"systemqa/internal/title"
	"systemqa/internal/workspace"
)

// Services bundles the clients shared by the worker and one-off CLI commands.
type Services struct {
	Store    *manuals.Store
	Blobs    *blob.S3Client
	Queue    *sqs.Client
	QueueURL string
	Producer *sqsqueue.Producer
	Handler  *pipeline.Handler
}

// NewServices opens the store and builds AWS and Gemini clients from cfg.
func NewServices(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	if err := cfg.ValidateWorker(); err != nil {
		return nil, err
	}
	store, err := manuals.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open manual store: %w", err)
	}

	awsCfg, err := blob.LoadAWSConfig(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	blobs, err := blob.NewS3ClientFromConfig(awsCfg, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	queueClient := sqsqueue.NewClient(awsCfg, cfg)
	queueURL := cfg.QueueURL()

	model := gemini.NewClient(gemini.Config{
		APIKey:         cfg.Gemini.APIKey,
		BaseURL:        cfg.Gemini.BaseURL,
		Model:          cfg.Gemini.Model,
		TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
	}, gemini.WithRetryMaxAttempts(1))
	titles := title.NewSynthesizer(model, store, cfg.Gemini.MaxOutputTokens, logger)
	extractor := frames.NewFFmpeg(cfg.FFmpeg.Binary, cfg.FFmpegTimeout())

	handler := pipeline.NewHandler(store, blobs, extractor, titles, pipeline.Options{
		WorkspaceRoot:     cfg.WorkspaceRoot(),
		WorkspacePrefix:   workspace.DefaultPrefix,
		LeaseTimeout:      cfg.LeaseTimeout(),
		HeartbeatInterval: cfg.HeartbeatInterval(),
		Prober:            frames.NewFFprobe(cfg.FFmpeg.FFprobeBinary, cfg.FFmpegTimeout()),
		Notifier:          notifications.NewService(cfg),
	}, logger)

	return &Services{
		Store:    store,
		Blobs:    blobs,
		Queue:    queueClient,
		QueueURL: queueURL,
		Producer: sqsqueue.NewProducer(queueClient, queueURL, logger),
		Handler:  handler,
	}, nil
}

// QueueDepth probes the configured queue.
func (s *Services) QueueDepth(ctx context.Context) (int, int, error) {
	return sqsqueue.ApproximateDepth(ctx, s.Queue, s.QueueURL)
}

// Close releases the store.
func (s *Services) Close() error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.Close()
}
