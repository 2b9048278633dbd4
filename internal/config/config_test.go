package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"systemqa/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"MANUAL_FILES_S3_BUCKET_NAME", "AWS_SQS_ENDPOINT", "AWS_SQS_ACCOUNT_NUMBER",
		"AWS_SQS_QUEUE_NAME", "GOOGLE_GEMINI_API_KEY", "GOOGLE_GEMINI_MODEL_NAME",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatalf("expected config to be reported missing, path=%s", path)
	}
	if cfg.AWS.Region != "ap-northeast-1" {
		t.Fatalf("unexpected region %q", cfg.AWS.Region)
	}
	if cfg.Gemini.Model != "gemini-1.5-pro" {
		t.Fatalf("unexpected model %q", cfg.Gemini.Model)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format %q", cfg.Logging.Format)
	}
	if cfg.WorkspaceRoot() != os.TempDir() {
		t.Fatalf("expected temp dir workspace root, got %q", cfg.WorkspaceRoot())
	}
}

func TestLoadReadsTOMLAndExpandsPaths(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
workspace_dir = "~/scratch"
state_dir = "~/state"

[storage]
bucket = "manual-files"

[queue]
endpoint = "https://sqs.ap-northeast-1.amazonaws.com/"
account_number = "123456789012"
name = "manual-video"

[gemini]
api_key = "key"
model = "gemini-test"

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config to exist")
	}
	if cfg.Paths.WorkspaceDir != filepath.Join(home, "scratch") {
		t.Fatalf("unexpected workspace dir %q", cfg.Paths.WorkspaceDir)
	}
	if cfg.DatabasePath() != filepath.Join(home, "state", "manuals.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
	if got := cfg.QueueURL(); got != "https://sqs.ap-northeast-1.amazonaws.com/123456789012/manual-video" {
		t.Fatalf("unexpected queue url %q", got)
	}
	if cfg.Gemini.Model != "gemini-test" {
		t.Fatalf("unexpected model %q", cfg.Gemini.Model)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json format, got %q", cfg.Logging.Format)
	}
	if err := cfg.ValidateWorker(); err != nil {
		t.Fatalf("ValidateWorker failed: %v", err)
	}
}

func TestEnvironmentFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MANUAL_FILES_S3_BUCKET_NAME", "env-bucket")
	t.Setenv("AWS_SQS_ENDPOINT", "http://localhost:4566")
	t.Setenv("AWS_SQS_ACCOUNT_NUMBER", "000000000000")
	t.Setenv("AWS_SQS_QUEUE_NAME", "jobs")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "env-key")
	t.Setenv("GOOGLE_GEMINI_MODEL_NAME", "gemini-env")
	t.Setenv("AWS_REGION", "us-west-2")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Bucket != "env-bucket" {
		t.Fatalf("unexpected bucket %q", cfg.Storage.Bucket)
	}
	if cfg.Gemini.APIKey != "env-key" || cfg.Gemini.Model != "gemini-env" {
		t.Fatalf("unexpected gemini settings %+v", cfg.Gemini)
	}
	if cfg.AWS.Region != "us-west-2" {
		t.Fatalf("unexpected region %q", cfg.AWS.Region)
	}
	if got := cfg.QueueURL(); got != "http://localhost:4566/000000000000/jobs" {
		t.Fatalf("unexpected queue url %q", got)
	}
}

func TestValidateWorkerReportsMissingSettings(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	err := cfg.ValidateWorker()
	if err == nil {
		t.Fatal("expected error for missing settings")
	}
	for _, want := range []string{"storage.bucket", "queue.name", "gemini.api_key"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestValidateRejectsShortLease(t *testing.T) {
	cfg := config.Default()
	cfg.Worker.LeaseTimeout = cfg.Worker.HeartbeatInterval
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected lease validation error")
	}
}

func TestCreateSampleLoads(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample to load, exists=%v err=%v", exists, err)
	}
}

func TestValidateNotificationsTopic(t *testing.T) {
	cfg := config.Default()
	if !cfg.Notifications.Failures || cfg.Notifications.Completed {
		t.Fatalf("unexpected notification defaults %+v", cfg.Notifications)
	}
	cfg.Notifications.NtfyTopic = "manuals"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "ntfy_topic") {
		t.Fatalf("expected ntfy_topic error, got %v", err)
	}
	cfg.Notifications.NtfyTopic = "https://ntfy.sh/manuals"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
