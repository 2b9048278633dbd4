package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

// ValidateWorker checks the settings a running worker needs beyond what plain
// CLI inspection commands require: bucket, queue and model credentials.
func (c *Config) ValidateWorker() error {
	var missing []string
	if c.Storage.Bucket == "" {
		missing = append(missing, "storage.bucket (MANUAL_FILES_S3_BUCKET_NAME)")
	}
	if c.Queue.Endpoint == "" {
		missing = append(missing, "queue.endpoint (AWS_SQS_ENDPOINT)")
	}
	if c.Queue.AccountNumber == "" {
		missing = append(missing, "queue.account_number (AWS_SQS_ACCOUNT_NUMBER)")
	}
	if c.Queue.Name == "" {
		missing = append(missing, "queue.name (AWS_SQS_QUEUE_NAME)")
	}
	if c.Gemini.APIKey == "" {
		missing = append(missing, "gemini.api_key (GOOGLE_GEMINI_API_KEY)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) validateWorker() error {
	if err := ensurePositiveMap(map[string]int{
		"worker.listeners":             c.Worker.Listeners,
		"worker.reap_interval":         c.Worker.ReapInterval,
		"worker.stale_workspace_hours": c.Worker.StaleWorkspaceHours,
		"ffmpeg.timeout_seconds":       c.FFmpeg.TimeoutSeconds,
		"gemini.timeout_seconds":       c.Gemini.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Worker.HeartbeatInterval <= 0 {
		return errors.New("worker.heartbeat_interval must be positive")
	}
	if c.Worker.LeaseTimeout <= 0 {
		return errors.New("worker.lease_timeout must be positive")
	}
	if c.Worker.LeaseTimeout <= c.Worker.HeartbeatInterval {
		return errors.New("worker.lease_timeout must be greater than worker.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLimits() error {
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	if c.Queue.VisibilityTimeout < 0 {
		return errors.New("queue.visibility_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return errors.New("notifications.ntfy_topic must be an http(s) URL")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
