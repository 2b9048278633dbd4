package testsupport

import (
	"context"
	"fmt"
	"testing"

	"systemqa/internal/config"
	"systemqa/internal/manuals"
)

// MustOpenStore opens a manuals.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *manuals.Store {
	t.Helper()

	store, err := manuals.Open(cfg)
	if err != nil {
		t.Fatalf("manuals.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewManual inserts a WAITING manual whose steps carry the given actionAt
// offsets in milliseconds. A negative offset produces a step without actionAt.
func NewManual(t testing.TB, store *manuals.Store, videoPath string, actionAt ...int64) *manuals.Manual {
	t.Helper()

	input := manuals.NewManual{Title: "placeholder", VideoPath: videoPath}
	for i, offset := range actionAt {
		step := manuals.NewStep{Description: fmt.Sprintf("step %d", i+1)}
		if offset >= 0 {
			step.Metadata = fmt.Sprintf(`{"actionAt":%d}`, offset)
		}
		input.Steps = append(input.Steps, step)
	}
	manual, err := store.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return manual
}

// MustGet loads a manual and fails the test when it is missing.
func MustGet(t testing.TB, store *manuals.Store, id string) *manuals.Manual {
	t.Helper()

	manual, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if manual == nil {
		t.Fatalf("manual %s not found", id)
	}
	return manual
}
