package frames

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Extractor writes a single frame of source at offsetMs to output.
type Extractor interface {
	Extract(ctx context.Context, source string, offsetMs int64, output string) error
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, source string, offsetMs int64, output string) error

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, source string, offsetMs int64, output string) error {
	return f(ctx, source, offsetMs, output)
}

// FFmpeg captures frames with the ffmpeg command line tool.
type FFmpeg struct {
	Binary  string
	Timeout time.Duration
}

// NewFFmpeg returns an FFmpeg extractor. An empty binary resolves "ffmpeg" from PATH.
func NewFFmpeg(binary string, timeout time.Duration) *FFmpeg {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{Binary: binary, Timeout: timeout}
}

// Args returns the ffmpeg arguments for one frame capture.
func (f *FFmpeg) Args(source string, offsetMs int64, output string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-ss", FormatTimestamp(offsetMs),
		"-i", source,
		"-frames:v", "1",
		output,
	}
}

// Extract runs ffmpeg and returns its stderr on failure.
func (f *FFmpeg) Extract(ctx context.Context, source string, offsetMs int64, output string) error {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, f.Binary, f.Args(source, offsetMs, output)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg capture at %s: %w: %s", FormatTimestamp(offsetMs), err, strings.TrimSpace(string(out)))
	}
	return nil
}
