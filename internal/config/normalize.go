package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAWS()
	c.normalizeStorage()
	c.normalizeQueue()
	c.normalizeGemini()
	c.normalizeFFmpeg()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkspaceDir, err = expandPath(strings.TrimSpace(c.Paths.WorkspaceDir)); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.HealthBind = strings.TrimSpace(c.Paths.HealthBind)
	return nil
}

func (c *Config) normalizeAWS() {
	c.AWS.Region = strings.TrimSpace(c.AWS.Region)
	if value, ok := lookupEnv("AWS_REGION"); ok && c.AWS.Region == defaultAWSRegion {
		c.AWS.Region = value
	}
	if c.AWS.Region == "" {
		c.AWS.Region = defaultAWSRegion
	}
	if c.AWS.AccessKeyID == "" {
		if value, ok := lookupEnv("AWS_ACCESS_KEY_ID"); ok {
			c.AWS.AccessKeyID = value
		}
	}
	if c.AWS.SecretAccessKey == "" {
		if value, ok := lookupEnv("AWS_SECRET_ACCESS_KEY"); ok {
			c.AWS.SecretAccessKey = value
		}
	}
	c.AWS.AccessKeyID = strings.TrimSpace(c.AWS.AccessKeyID)
	c.AWS.SecretAccessKey = strings.TrimSpace(c.AWS.SecretAccessKey)
}

func (c *Config) normalizeStorage() {
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	if c.Storage.Bucket == "" {
		if value, ok := lookupEnv("MANUAL_FILES_S3_BUCKET_NAME"); ok {
			c.Storage.Bucket = value
		}
	}
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
}

func (c *Config) normalizeQueue() {
	c.Queue.Endpoint = strings.TrimSpace(c.Queue.Endpoint)
	if c.Queue.Endpoint == "" {
		if value, ok := lookupEnv("AWS_SQS_ENDPOINT"); ok {
			c.Queue.Endpoint = value
		}
	}
	c.Queue.AccountNumber = strings.TrimSpace(c.Queue.AccountNumber)
	if c.Queue.AccountNumber == "" {
		if value, ok := lookupEnv("AWS_SQS_ACCOUNT_NUMBER"); ok {
			c.Queue.AccountNumber = value
		}
	}
	c.Queue.Name = strings.TrimSpace(c.Queue.Name)
	if c.Queue.Name == "" {
		if value, ok := lookupEnv("AWS_SQS_QUEUE_NAME"); ok {
			c.Queue.Name = value
		}
	}
	if c.Queue.WaitSeconds <= 0 {
		c.Queue.WaitSeconds = defaultQueueWaitSeconds
	}
	if c.Queue.WaitSeconds > 20 {
		c.Queue.WaitSeconds = 20
	}
	if c.Queue.MaxMessages <= 0 {
		c.Queue.MaxMessages = defaultQueueMaxMessages
	}
	if c.Queue.MaxMessages > 10 {
		c.Queue.MaxMessages = 10
	}
}

func (c *Config) normalizeGemini() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		if value, ok := lookupEnv("GOOGLE_GEMINI_API_KEY"); ok {
			c.Gemini.APIKey = value
		}
	}
	if value, ok := lookupEnv("GOOGLE_GEMINI_MODEL_NAME"); ok && (c.Gemini.Model == "" || c.Gemini.Model == defaultGeminiModel) {
		c.Gemini.Model = value
	}
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
	c.Gemini.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gemini.BaseURL), "/")
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeoutSeconds
	}
	if c.Gemini.MaxOutputTokens <= 0 {
		c.Gemini.MaxOutputTokens = defaultGeminiMaxOutputTokens
	}
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = defaultFFmpegBinary
	}
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	if c.FFmpeg.FFprobeBinary == "" {
		c.FFmpeg.FFprobeBinary = defaultFFprobeBinary
	}
	if c.FFmpeg.TimeoutSeconds <= 0 {
		c.FFmpeg.TimeoutSeconds = defaultFFmpegTimeoutSeconds
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
