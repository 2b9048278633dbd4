package sqsqueue

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"systemqa/internal/logging"
	"systemqa/internal/services"
)

// Handler processes one message body. Returning nil deletes the message.
type Handler interface {
	Handle(ctx context.Context, body []byte) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, body []byte) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, body []byte) error { return f(ctx, body) }

// Options tunes polling.
type Options struct {
	Listeners         int
	WaitSeconds       int32
	VisibilityTimeout int32
	MaxMessages       int32
	// ErrorBackoff is the pause after a failed receive.
	ErrorBackoff time.Duration
}

// Consumer long-polls a queue and dispatches messages to a Handler.
type Consumer struct {
	api      API
	queueURL string
	handler  Handler
	opts     Options
	logger   *slog.Logger

	mu        sync.Mutex
	received  int64
	handled   int64
	failed    int64
	lastError string
}

// Stats is a snapshot of consumer counters.
type Stats struct {
	Received  int64  `json:"received"`
	Handled   int64  `json:"handled"`
	Failed    int64  `json:"failed"`
	LastError string `json:"last_error,omitempty"`
}

// NewConsumer returns a Consumer for queueURL.
func NewConsumer(api API, queueURL string, handler Handler, opts Options, logger *slog.Logger) *Consumer {
	if opts.Listeners <= 0 {
		opts.Listeners = 1
	}
	if opts.MaxMessages <= 0 || opts.MaxMessages > 10 {
		opts.MaxMessages = 1
	}
	if opts.WaitSeconds < 0 || opts.WaitSeconds > 20 {
		opts.WaitSeconds = 20
	}
	if opts.ErrorBackoff <= 0 {
		opts.ErrorBackoff = 5 * time.Second
	}
	return &Consumer{
		api:      api,
		queueURL: queueURL,
		handler:  handler,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "sqs-consumer"),
	}
}

// Run starts the listeners and blocks until ctx is cancelled and in-flight
// messages finish.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("queue consumer started",
		logging.String(logging.FieldEventType, "consumer_started"),
		logging.String("queue_url", c.queueURL),
		logging.Int("listeners", c.opts.Listeners),
	)
	var wg sync.WaitGroup
	for i := 0; i < c.opts.Listeners; i++ {
		wg.Add(1)
		go func(listener int) {
			defer wg.Done()
			c.listen(ctx, listener)
		}(i)
	}
	wg.Wait()
	c.logger.Info("queue consumer stopped", logging.String(logging.FieldEventType, "consumer_stopped"))
	return nil
}

// Stats returns a snapshot of consumer counters.
func (c *Consumer) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Received: c.received, Handled: c.handled, Failed: c.failed, LastError: c.lastError}
}

func (c *Consumer) listen(ctx context.Context, listener int) {
	logger := c.logger.With(logging.Int("listener", listener))
	for {
		if ctx.Err() != nil {
			return
		}
		messages, err := c.receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.recordError(err)
			logging.WarnWithContext(logger, "receive failed", "receive_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue endpoint and credentials"),
				logging.Duration("retry_in", c.opts.ErrorBackoff),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.opts.ErrorBackoff):
			}
			continue
		}
		for _, msg := range messages {
			c.dispatch(ctx, logger, msg)
		}
	}
}

func (c *Consumer) receive(ctx context.Context) ([]types.Message, error) {
	input := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: aws.Int32(c.opts.MaxMessages),
		WaitTimeSeconds:     aws.Int32(c.opts.WaitSeconds),
	}
	if c.opts.VisibilityTimeout > 0 {
		input.VisibilityTimeout = aws.Int32(c.opts.VisibilityTimeout)
	}
	out, err := c.api.ReceiveMessage(ctx, input)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "sqs", "receive", "receive messages", err)
	}
	return out.Messages, nil
}

// dispatch runs the handler outside the listener's cancellation so a shutdown
// does not interrupt a half-processed manual.
func (c *Consumer) dispatch(ctx context.Context, logger *slog.Logger, msg types.Message) {
	c.mu.Lock()
	c.received++
	c.mu.Unlock()

	messageID := aws.ToString(msg.MessageId)
	logger = logger.With(logging.String("message_id", messageID))
	handlerCtx := services.WithRequestID(context.WithoutCancel(ctx), messageID)

	if err := c.safeHandle(handlerCtx, []byte(aws.ToString(msg.Body))); err != nil {
		c.recordError(err)
		logging.ErrorWithContext(logger, "message handling failed", "message_failed",
			logging.Error(err),
			logging.ErrorKind(err),
			logging.String(logging.FieldErrorHint, "message will be redelivered after the visibility timeout"),
		)
		return
	}

	if _, err := c.api.DeleteMessage(context.WithoutCancel(ctx), &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		c.recordError(err)
		logging.WarnWithContext(logger, "message delete failed", "message_delete_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "message will be redelivered and skipped by the claim"),
		)
		return
	}
	c.mu.Lock()
	c.handled++
	c.mu.Unlock()
}

func (c *Consumer) safeHandle(ctx context.Context, body []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return c.handler.Handle(ctx, body)
}

func (c *Consumer) recordError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed++
	c.lastError = err.Error()
}

// ApproximateDepth returns the visible and in-flight message counts.
func ApproximateDepth(ctx context.Context, api API, queueURL string) (visible, inFlight int, err error) {
	out, err := api.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl: aws.String(queueURL),
		AttributeNames: []types.QueueAttributeName{
			types.QueueAttributeNameApproximateNumberOfMessages,
			types.QueueAttributeNameApproximateNumberOfMessagesNotVisible,
		},
	})
	if err != nil {
		return 0, 0, services.Wrap(services.ErrTransient, "sqs", "attributes", "read queue attributes", err)
	}
	parse := func(name types.QueueAttributeName) (int, error) {
		raw, ok := out.Attributes[string(name)]
		if !ok {
			return 0, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", name, err)
		}
		return n, nil
	}
	if visible, err = parse(types.QueueAttributeNameApproximateNumberOfMessages); err != nil {
		return 0, 0, err
	}
	if inFlight, err = parse(types.QueueAttributeNameApproximateNumberOfMessagesNotVisible); err != nil {
		return 0, 0, err
	}
	return visible, inFlight, nil
}
