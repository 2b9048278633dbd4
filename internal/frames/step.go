package frames

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"systemqa/internal/manuals"
	"systemqa/internal/services"
	"systemqa/internal/workspace"
)

// Result describes the outcome of extracting one step's frame.
type Result struct {
	// Skipped is true when the step carries no actionAt offset.
	Skipped bool
	// Path is the local PNG written into the workspace.
	Path     string
	OffsetMs int64
}

// ScreenshotName returns a unique file name for a step's screenshot.
func ScreenshotName(order int, id string) string {
	return fmt.Sprintf("step-%03d-%s.png", order, id)
}

// ExtractStep captures the frame for step from source into ws.
func ExtractStep(ctx context.Context, ext Extractor, step manuals.Step, source string, ws *workspace.Workspace) (Result, error) {
	offset, ok, err := ParseActionAt(step.Metadata)
	if err != nil {
		return Result{}, fmt.Errorf("step %d: %w", step.StepOrder, err)
	}
	if !ok {
		return Result{Skipped: true}, nil
	}

	output := ws.Join(ScreenshotName(step.StepOrder, uuid.NewString()))
	if err := ext.Extract(ctx, source, offset, output); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "frames", "extract",
			fmt.Sprintf("capture step %d at %s", step.StepOrder, FormatTimestamp(offset)), err)
	}
	if _, err := os.Stat(output); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "frames", "extract",
			fmt.Sprintf("step %d screenshot was not written", step.StepOrder), err)
	}
	return Result{Path: output, OffsetMs: offset}, nil
}
