package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"systemqa/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if result := CheckBinary("FFmpeg", cfg.FFmpeg.Binary); !result.Passed {
		t.Fatalf("expected stubbed ffmpeg to resolve, got: %s", result.Detail)
	}
	if result := CheckBinary("Missing", "definitely-not-a-binary-xyz"); result.Passed {
		t.Fatal("expected failure for missing binary")
	}
	if result := CheckBinary("Empty", " "); result.Passed {
		t.Fatal("expected failure for empty command")
	}
}

func TestCheckGemini_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"models/gemini-1.5-pro"}`))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithGeminiEndpoint(srv.URL))
	result := CheckGemini(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckGemini_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithGeminiEndpoint(srv.URL))
	if result := CheckGemini(context.Background(), cfg); result.Passed {
		t.Fatal("expected failure for rejected key")
	}
}

func TestCheckGemini_MissingKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Gemini.APIKey = ""
	result := CheckGemini(context.Background(), cfg)
	if result.Passed || !strings.Contains(result.Detail, "missing") {
		t.Fatalf("expected missing key failure, got %+v", result)
	}
}

func TestCheckQueue(t *testing.T) {
	ok := CheckQueue(context.Background(), func(context.Context) (int, int, error) { return 3, 1, nil })
	if !ok.Passed || ok.Detail != "3 visible, 1 in flight" {
		t.Fatalf("unexpected result %+v", ok)
	}
	bad := CheckQueue(context.Background(), func(context.Context) (int, int, error) { return 0, 0, errors.New("refused") })
	if bad.Passed {
		t.Fatal("expected failure")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Probes{}); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestRunAll_SkipsNilProbes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Gemini.APIKey = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	results := RunAll(context.Background(), cfg, Probes{})
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	withQueue := RunAll(context.Background(), cfg, Probes{
		Queue: func(context.Context) (int, int, error) { return 0, 0, nil },
	})
	if len(withQueue) != 6 || withQueue[5].Name != "Job queue" {
		t.Fatalf("expected queue check last, got %+v", withQueue)
	}
	offline := RunAll(context.Background(), cfg, Probes{Offline: true})
	for _, r := range offline {
		if r.Name == "Gemini API" {
			t.Fatal("offline run should skip the Gemini check")
		}
	}
	failed := Failed(withQueue)
	for _, r := range failed {
		if r.Name == "Workspace directory" || r.Name == "State directory" || r.Name == "Job queue" {
			t.Fatalf("unexpected failure %+v", r)
		}
	}
}

func TestFailedIgnoresOptionalChecks(t *testing.T) {
	results := []Result{
		{Name: "FFmpeg", Passed: true},
		{Name: "FFprobe", Optional: true, Detail: "ffprobe not found"},
		{Name: "Gemini API", Detail: "missing key"},
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Gemini API" {
		t.Fatalf("unexpected failures %+v", failed)
	}
}
