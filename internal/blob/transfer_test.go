package blob_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"systemqa/internal/blob"
	"systemqa/internal/services"
	"systemqa/internal/workspace"
)

func newWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.Acquire(t.TempDir(), "", nil)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	t.Cleanup(ws.Release)
	return ws
}

func TestDownloadKeepsBaseName(t *testing.T) {
	client := blob.NewMemoryClient()
	ctx := context.Background()
	if err := client.Put(ctx, "org/manual-1/recording.mp4", strings.NewReader("video-bytes"), "video/mp4"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	ws := newWorkspace(t)

	local, err := blob.Download(ctx, client, "org/manual-1/recording.mp4", ws)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if local != filepath.Join(ws.Path(), "recording.mp4") {
		t.Fatalf("unexpected local path %q", local)
	}
	data, err := os.ReadFile(local)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestDownloadMissingObjectIsStorageError(t *testing.T) {
	ws := newWorkspace(t)
	_, err := blob.Download(context.Background(), blob.NewMemoryClient(), "missing/video.mp4", ws)
	if !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestDownloadEmptyKeyIsValidationError(t *testing.T) {
	ws := newWorkspace(t)
	_, err := blob.Download(context.Background(), blob.NewMemoryClient(), "  ", ws)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

type brokenClient struct{}

func (brokenClient) Get(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(io.MultiReader(bytes.NewReader([]byte("partial")), errReader{})), nil
}

func (brokenClient) Put(context.Context, string, io.Reader, string) error {
	return errors.New("unreachable")
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestDownloadRemovesPartialFile(t *testing.T) {
	ws := newWorkspace(t)
	_, err := blob.Download(context.Background(), brokenClient{}, "v/video.mp4", ws)
	if !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if _, statErr := os.Stat(ws.Join("video.mp4")); !os.IsNotExist(statErr) {
		t.Fatalf("expected partial file removed, stat err=%v", statErr)
	}
}

func TestPublishUploadsPNG(t *testing.T) {
	ws := newWorkspace(t)
	local := ws.Join("step-001-abc.png")
	if err := os.WriteFile(local, []byte("PNG"), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	client := blob.NewMemoryClient()
	key := blob.ScreenshotKey("org/manual-1/recording.mp4", local)

	got, err := blob.Publish(context.Background(), client, local, key)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if got != "org/manual-1/step-001-abc.png" {
		t.Fatalf("unexpected key %q", got)
	}
	obj, ok := client.Object(got)
	if !ok {
		t.Fatalf("expected object at %q", got)
	}
	if obj.ContentType != blob.PNGContentType || string(obj.Data) != "PNG" {
		t.Fatalf("unexpected object %+v", obj)
	}
}

func TestPublishFailureIsStorageError(t *testing.T) {
	ws := newWorkspace(t)
	local := ws.Join("step-001-abc.png")
	if err := os.WriteFile(local, []byte("PNG"), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	_, err := blob.Publish(context.Background(), brokenClient{}, local, "k.png")
	if !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestScreenshotKey(t *testing.T) {
	cases := []struct {
		video string
		local string
		want  string
	}{
		{"a/b/video.mp4", "/tmp/x/step-002-id.png", "a/b/step-002-id.png"},
		{"video.mp4", "/tmp/x/step-001-id.png", "step-001-id.png"},
	}
	for _, tc := range cases {
		if got := blob.ScreenshotKey(tc.video, tc.local); got != tc.want {
			t.Fatalf("ScreenshotKey(%q, %q) = %q, want %q", tc.video, tc.local, got, tc.want)
		}
	}
}
