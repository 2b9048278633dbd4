package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Sweep deletes leftover workspaces under root that match prefix and have not
// been modified within maxAge. It returns the removed paths; failures for
// individual directories are joined into err and do not stop the sweep.
func Sweep(ctx context.Context, root, prefix string, maxAge time.Duration) (removed []string, err error) {
	if root = strings.TrimSpace(root); root == "" {
		root = os.TempDir()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	matches, err := filepath.Glob(filepath.Join(root, prefix+"-*"))
	if err != nil {
		return nil, fmt.Errorf("sweep %s: %w", root, err)
	}

	cutoff := time.Now().Add(-maxAge)
	var errs []error
	for _, dir := range matches {
		if ctx.Err() != nil {
			break
		}
		info, statErr := os.Lstat(dir)
		if statErr != nil {
			if !os.IsNotExist(statErr) {
				errs = append(errs, statErr)
			}
			continue
		}
		if !info.IsDir() || info.ModTime().After(cutoff) {
			continue
		}
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", dir, rmErr))
			continue
		}
		removed = append(removed, dir)
	}
	return removed, errors.Join(errs...)
}
