package preflight

import (
	"context"

	"systemqa/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional checks are reported but never counted by Failed.
	Optional bool
}

// QueueProbe reports the approximate queue depth.
type QueueProbe func(ctx context.Context) (visible, inFlight int, err error)

// Probes carries checks that need live clients. Nil probes are skipped.
type Probes struct {
	Queue QueueProbe

	// Offline skips checks that call remote APIs.
	Offline bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, probes Probes) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Workspace directory", cfg.WorkspaceRoot()),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckBinary("FFmpeg", cfg.FFmpeg.Binary),
		optional(CheckBinary("FFprobe", cfg.FFmpeg.FFprobeBinary)),
	}
	if !probes.Offline {
		results = append(results, CheckGemini(ctx, cfg))
	}
	if probes.Queue != nil {
		results = append(results, CheckQueue(ctx, probes.Queue))
	}
	return results
}

// Failed returns the required results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

func optional(r Result) Result {
	r.Optional = true
	return r
}
