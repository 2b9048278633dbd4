package frames

import (
	"context"
	"fmt"
	"time"

	"systemqa/internal/manuals"
	"systemqa/internal/media/ffprobe"
	"systemqa/internal/services"
)

// SourceInfo is what a Prober learned about a downloaded video.
type SourceInfo struct {
	VideoStreams int
	// DurationMs is zero when the container does not report a length.
	DurationMs int64
	// Width and Height are zero when no video stream reports a frame size.
	Width  int
	Height int
}

// Prober inspects a source video before frames are captured.
type Prober interface {
	Probe(ctx context.Context, source string) (SourceInfo, error)
}

// FFprobe probes sources with the ffprobe command line tool.
type FFprobe struct {
	Binary  string
	Timeout time.Duration
}

// NewFFprobe returns an FFprobe prober. An empty binary resolves "ffprobe" from PATH.
func NewFFprobe(binary string, timeout time.Duration) *FFprobe {
	return &FFprobe{Binary: binary, Timeout: timeout}
}

// Probe runs ffprobe against source.
func (p *FFprobe) Probe(ctx context.Context, source string) (SourceInfo, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	result, err := ffprobe.Inspect(ctx, p.Binary, source)
	if err != nil {
		return SourceInfo{}, err
	}
	width, height := result.Resolution()
	return SourceInfo{
		VideoStreams: result.VideoStreamCount(),
		DurationMs:   result.DurationMs(),
		Width:        width,
		Height:       height,
	}, nil
}

// CheckSource fails when the probed file carries no video stream.
func CheckSource(info SourceInfo) error {
	if info.VideoStreams == 0 {
		return services.Wrap(services.ErrValidation, "frames", "probe", "source file has no video stream", nil)
	}
	return nil
}

// CheckOffset fails when step's actionAt lies past the end of a source of
// durationMs. Unknown durations and steps without an offset pass.
func CheckOffset(step manuals.Step, durationMs int64) error {
	if durationMs <= 0 {
		return nil
	}
	offset, ok, err := ParseActionAt(step.Metadata)
	if err != nil || !ok {
		return nil
	}
	if offset > durationMs {
		return services.Wrap(services.ErrValidation, "frames", "probe",
			fmt.Sprintf("step %d actionAt %s is beyond video length %s", step.StepOrder, FormatTimestamp(offset), FormatTimestamp(durationMs)), nil)
	}
	return nil
}
