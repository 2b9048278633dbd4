package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"systemqa/internal/api"
	"systemqa/internal/config"
	"systemqa/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.AWS.SecretAccessKey = "super-secret"
	configPath := filepath.Join(testsupport.BaseDir(cfg), "systemqa.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate", "--worker"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "super-secret") {
		t.Fatalf("secret leaked: %s", out)
	}
	requireContains(t, out, "test-bucket")

	out, _, err = runCLI(t, []string{"config", "show", "--reveal"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config show --reveal: %v", err)
	}
	requireContains(t, out, "super-secret")
}

const manualJSON = `{
  "title": "draft",
  "videoPath": "videos/demo/input.mp4",
  "steps": [
    {"description": "ログイン画面を開く", "metadata": {"actionAt": 1500}},
    {"description": "設定を保存する", "instruction": "click save", "metadata": {"actionAt": "61000"}},
    {"description": "確認する"}
  ]
}`

func TestManualsCreateListShowAndStats(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"--json", "manuals", "create", "--from", "-"}, env.configPath, manualJSON)
	if err != nil {
		t.Fatalf("manuals create: %v", err)
	}
	var created api.Manual
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("decode create output: %v\n%s", err, out)
	}
	if created.ProcessingStatus != "WAITING" || len(created.Steps) != 3 || created.Steps[2].StepOrder != 3 {
		t.Fatalf("unexpected manual %+v", created)
	}

	out, _, err = runCLI(t, []string{"manuals", "list", "--status", "waiting"}, env.configPath, "")
	if err != nil {
		t.Fatalf("manuals list: %v", err)
	}
	requireContains(t, out, created.ID)

	out, _, err = runCLI(t, []string{"manuals", "list", "--status", "SUCCESS"}, env.configPath, "")
	if err != nil {
		t.Fatalf("manuals list success: %v", err)
	}
	requireContains(t, out, "No manuals")

	out, _, err = runCLI(t, []string{"manuals", "show", created.ID}, env.configPath, "")
	if err != nil {
		t.Fatalf("manuals show: %v", err)
	}
	requireContains(t, out, "00:00:01.500")
	requireContains(t, out, "00:01:01.000")

	if _, _, err := runCLI(t, []string{"manuals", "show", "missing"}, env.configPath, ""); err == nil {
		t.Fatal("expected error for missing manual")
	}

	out, _, err = runCLI(t, []string{"--json", "stats"}, env.configPath, "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var stats api.Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Manuals["WAITING"] != 1 || stats.Total != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestManualsCreateRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)

	cases := []string{
		`{"videoPath":"v.mp4","steps":[]}`,
		`{"videoPath":"v.mp4","steps":[{"description":"x","metadata":{"actionAt":"soon"}}]}`,
		`{"videoPath":"v.mp4","unknown":1,"steps":[{"description":"x"}]}`,
	}
	for _, input := range cases {
		if _, _, err := runCLI(t, []string{"manuals", "create", "--from", "-"}, env.configPath, input); err == nil {
			t.Fatalf("expected error for %s", input)
		}
	}
}

func TestPreflightOffline(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"preflight", "--offline"}, env.configPath, "")
	if err != nil {
		t.Fatalf("preflight: %v\n%s", err, out)
	}
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "[OK]")
}

func TestLogsFiltersByManual(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.cfg.Paths.LogDir, "systemqa.log")
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "INFO [aaaaaaaa] pipeline: one\nINFO [bbbbbbbb] pipeline: two\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--manual", "aaaaaaaa-1111"}, env.configPath, "")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "one")
	if strings.Contains(out, "two") {
		t.Fatalf("unexpected line for other manual: %s", out)
	}
}

func TestTestNotifySendsToTopic(t *testing.T) {
	env := setupCLITestEnv(t)
	var title string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title = r.Header.Get("Title")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if _, _, err := runCLI(t, []string{"test-notify"}, env.configPath, ""); err == nil {
		t.Fatal("expected error without a topic")
	}

	env.cfg.Notifications.NtfyTopic = srv.URL
	writeTestConfig(t, env.configPath, env.cfg)
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath, "")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if title != "systemqa - Test" {
		t.Fatalf("unexpected title %q", title)
	}
}
