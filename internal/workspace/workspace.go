// Package workspace manages per-job scratch directories.
//
// A Workspace is acquired once per job and released on every exit path.
// Release never fails the caller; removal problems are logged.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"systemqa/internal/logging"
	"systemqa/internal/services"
)

// DefaultPrefix names job workspaces created by the video pipeline.
const DefaultPrefix = "systemqa-manual"

// Workspace is a uniquely named temporary directory scoped to one job.
type Workspace struct {
	path   string
	logger *slog.Logger
	once   sync.Once
}

// Acquire creates a new workspace under root. An empty root uses the
// operating system temp directory; a missing root is created.
func Acquire(root, prefix string, logger *slog.Logger) (*Workspace, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = os.TempDir()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrWorkspace, "workspace", "acquire", "create workspace root", err)
	}
	dir, err := os.MkdirTemp(root, prefix+"-")
	if err != nil {
		return nil, services.Wrap(services.ErrWorkspace, "workspace", "acquire", "create temp directory", err)
	}
	ws := &Workspace{path: dir, logger: logging.NewComponentLogger(logger, "workspace")}
	ws.logger.Debug("workspace acquired", logging.String("path", dir))
	return ws, nil
}

// Path returns the workspace directory.
func (w *Workspace) Path() string {
	return w.path
}

// Join returns name resolved inside the workspace. Only the base name of
// name is used so callers cannot escape the directory.
func (w *Workspace) Join(name string) string {
	return filepath.Join(w.path, filepath.Base(name))
}

// Release removes the workspace tree. It is safe to call more than once.
func (w *Workspace) Release() {
	if w == nil {
		return
	}
	w.once.Do(func() {
		if err := os.RemoveAll(w.path); err != nil {
			logging.WarnWithContext(w.logger, "workspace cleanup failed", "workspace_cleanup_failed",
				logging.String("path", w.path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check workspace_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed until stale cleanup runs"),
			)
			return
		}
		w.logger.Debug("workspace released", logging.String("path", w.path))
	})
}

// String implements fmt.Stringer.
func (w *Workspace) String() string {
	return fmt.Sprintf("workspace(%s)", w.path)
}
