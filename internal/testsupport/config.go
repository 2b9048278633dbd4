package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"systemqa/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkspaceDir = filepath.Join(base, "work")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HealthBind = "127.0.0.1:0"
	cfgVal.Storage.Bucket = "test-bucket"
	cfgVal.Queue.Endpoint = "http://127.0.0.1:4566"
	cfgVal.Queue.AccountNumber = "000000000000"
	cfgVal.Queue.Name = "manual-video"
	cfgVal.Gemini.APIKey = "test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithGeminiEndpoint points the model client at a test server.
func WithGeminiEndpoint(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gemini.BaseURL = baseURL
	}
}

// WithLease overrides heartbeat and lease timing in seconds.
func WithLease(heartbeat, lease int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Worker.HeartbeatInterval = heartbeat
		b.cfg.Worker.LeaseTimeout = lease
	}
}

// stubFFmpegScript writes a placeholder PNG to the final argument, which is
// where ffmpeg expects its output path.
const stubFFmpegScript = "#!/bin/sh\nfor last; do :; done\nprintf 'PNG' > \"$last\"\nexit 0\n"

// stubFFprobeScript reports a one minute 1280x720 single video stream source.
const stubFFprobeScript = "#!/bin/sh\ncat <<'JSON'\n" +
	`{"streams":[{"index":0,"codec_type":"video","width":1280,"height":720,"duration":"60.000000"}],"format":{"nb_streams":1,"duration":"60.000000"}}` +
	"\nJSON\n"

const stubFailScript = "#!/bin/sh\necho \"stub failure\" >&2\nexit 1\n"

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg is stubbed. A stubbed ffmpeg
// writes a small file at its output path, a stubbed ffprobe reports a 60s
// video, and other names exit 0.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg"}
		}
		for _, name := range names {
			script := "#!/bin/sh\nexit 0\n"
			switch name {
			case "ffmpeg":
				script = stubFFmpegScript
			case "ffprobe":
				script = stubFFprobeScript
			}
			writeStub(b, name, script)
		}
	}
}

// WithFailingBinary writes a stub for name that exits non-zero.
func WithFailingBinary(name string) ConfigOption {
	return func(b *configBuilder) {
		writeStub(b, name, stubFailScript)
	}
}

func writeStub(b *configBuilder, name, script string) {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		b.t.Fatalf("write stub %s: %v", name, err)
	}
	switch name {
	case "ffmpeg":
		b.cfg.FFmpeg.Binary = target
	case "ffprobe":
		b.cfg.FFmpeg.FFprobeBinary = target
	}

	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
		b.t.Fatalf("set PATH: %v", err)
	}
	b.t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
