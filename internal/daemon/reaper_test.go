package daemon

import (
	"context"
	"testing"
	"time"

	"systemqa/internal/logging"
	"systemqa/internal/manuals"
	"systemqa/internal/testsupport"
)

func TestReaperSweepReclaimsAndEnqueues(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	expired := testsupport.NewManual(t, store, "v/a.mp4", 100)
	live := testsupport.NewManual(t, store, "v/b.mp4", 100)
	broken := testsupport.NewManual(t, store, "v/c.mp4", 100)
	for _, m := range []*manuals.Manual{expired, live, broken} {
		if ok, err := store.Claim(ctx, m.ID, time.Minute); err != nil || !ok {
			t.Fatalf("Claim(%s) = %v, %v", m.ID, ok, err)
		}
	}

	enqueuer := &recordingEnqueuer{fail: map[string]bool{broken.ID: true}}
	reaper := NewReaper(store, enqueuer, time.Minute, logging.NewNop())
	// Two minutes ahead: the one-minute leases of expired and broken have lapsed;
	// live is renewed first so it survives.
	if err := store.Heartbeat(ctx, live.ID, time.Hour); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	reaper.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	enqueued, err := reaper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(enqueued) != 1 || enqueued[0] != expired.ID {
		t.Fatalf("enqueued = %v, want [%s]", enqueued, expired.ID)
	}
	if sent := enqueuer.sent(); len(sent) != 1 || sent[0] != expired.ID {
		t.Fatalf("sent = %v", sent)
	}
	if got := testsupport.MustGet(t, store, expired.ID); got.ProcessingStatus != manuals.StatusWaiting {
		t.Fatalf("expired status = %s", got.ProcessingStatus)
	}
	if got := testsupport.MustGet(t, store, broken.ID); got.ProcessingStatus != manuals.StatusWaiting {
		t.Fatalf("broken status = %s", got.ProcessingStatus)
	}
	if got := testsupport.MustGet(t, store, live.ID); got.ProcessingStatus != manuals.StatusProcessing {
		t.Fatalf("live status = %s", got.ProcessingStatus)
	}
}

func TestReaperRunStopsOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	reaper := NewReaper(store, &recordingEnqueuer{}, 10*time.Millisecond, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop")
	}
}
