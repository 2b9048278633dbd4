package daemonrun

import (
	"context"
	"strings"
	"testing"

	"systemqa/internal/logging"
	"systemqa/internal/testsupport"
)

func TestNewServicesRequiresWorkerSettings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Storage.Bucket = ""
	cfg.Gemini.APIKey = ""

	_, err := NewServices(context.Background(), cfg, logging.NewNop())
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"storage.bucket", "gemini.api_key"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestNewServicesWiresClients(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.AWS.AccessKeyID = "test"
	cfg.AWS.SecretAccessKey = "test"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	svc, err := NewServices(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServices: %v", err)
	}
	defer svc.Close()

	if svc.QueueURL != "http://127.0.0.1:4566/000000000000/manual-video" {
		t.Fatalf("queue url = %q", svc.QueueURL)
	}
	if svc.Blobs.Bucket() != "test-bucket" {
		t.Fatalf("bucket = %q", svc.Blobs.Bucket())
	}
	if svc.Producer == nil || svc.Handler == nil || svc.Store == nil {
		t.Fatal("expected every service to be wired")
	}
}
