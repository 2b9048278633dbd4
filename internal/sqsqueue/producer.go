package sqsqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"systemqa/internal/logging"
	"systemqa/internal/pipeline"
	"systemqa/internal/services"
)

// MessageGroupID groups every manual job on a FIFO queue.
const MessageGroupID = "manuals-screenshots"

// Producer enqueues manual jobs.
type Producer struct {
	api      API
	queueURL string
	logger   *slog.Logger
}

// NewProducer returns a Producer for queueURL.
func NewProducer(api API, queueURL string, logger *slog.Logger) *Producer {
	return &Producer{api: api, queueURL: queueURL, logger: logging.NewComponentLogger(logger, "sqs-producer")}
}

// Send enqueues a job for manualID and returns the SQS message id.
func (p *Producer) Send(ctx context.Context, manualID string) (string, error) {
	if manualID == "" {
		return "", services.Wrap(services.ErrValidation, "sqs", "send", "manual id is required", nil)
	}
	body, err := pipeline.NewJob(manualID).Encode()
	if err != nil {
		return "", fmt.Errorf("encode job: %w", err)
	}
	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
	}
	if IsFIFO(p.queueURL) {
		input.MessageGroupId = aws.String(MessageGroupID)
		input.MessageDeduplicationId = aws.String("manual-" + manualID)
	}
	out, err := p.api.SendMessage(ctx, input)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "sqs", "send", fmt.Sprintf("enqueue manual %s", manualID), err)
	}
	messageID := aws.ToString(out.MessageId)
	p.logger.Info("manual job enqueued",
		logging.String(logging.FieldManualID, manualID),
		logging.String(logging.FieldEventType, "job_enqueued"),
		logging.String("message_id", messageID),
	)
	return messageID, nil
}
