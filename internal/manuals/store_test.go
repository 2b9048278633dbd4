package manuals_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"systemqa/internal/manuals"
	"systemqa/internal/testsupport"
)

func TestCreateAndGetOrdersSteps(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	created, err := store.Create(ctx, manuals.NewManual{
		Title:     "draft",
		VideoPath: "org/manual/video.mp4",
		Steps: []manuals.NewStep{
			{Description: "open settings", Metadata: `{"actionAt":1000}`},
			{Description: "click save"},
			{Description: "confirm", Metadata: `{"actionAt":"2500"}`},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ProcessingStatus != manuals.StatusWaiting {
		t.Fatalf("expected WAITING, got %s", created.ProcessingStatus)
	}

	fetched := testsupport.MustGet(t, store, created.ID)
	if fetched.VideoPath != "org/manual/video.mp4" || fetched.Title != "draft" {
		t.Fatalf("unexpected manual: %#v", fetched)
	}
	if len(fetched.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(fetched.Steps))
	}
	for i, step := range fetched.Steps {
		if step.StepOrder != i+1 {
			t.Fatalf("step %d has order %d", i, step.StepOrder)
		}
		if step.HasImage() {
			t.Fatalf("expected no image on new step %d", i)
		}
	}
	if fetched.Steps[1].Metadata != "" {
		t.Fatalf("expected empty metadata for step 2, got %q", fetched.Steps[1].Metadata)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	manual, err := store.Get(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if manual != nil {
		t.Fatalf("expected nil manual, got %#v", manual)
	}
	if _, err := store.MustGet(context.Background(), "does-not-exist"); err == nil {
		t.Fatal("expected MustGet to fail for missing manual")
	}
}

func TestClaimIsAtomic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	manual := testsupport.NewManual(t, store, "v/video.mp4", 0)

	claimed, err := store.Claim(ctx, manual.ID, time.Minute)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if !claimed {
		t.Fatal("expected first claim to succeed")
	}
	again, err := store.Claim(ctx, manual.ID, time.Minute)
	if err != nil {
		t.Fatalf("second Claim failed: %v", err)
	}
	if again {
		t.Fatal("expected second claim to be rejected")
	}

	fetched := testsupport.MustGet(t, store, manual.ID)
	if fetched.ProcessingStatus != manuals.StatusProcessing {
		t.Fatalf("expected PROCESSING, got %s", fetched.ProcessingStatus)
	}
	if fetched.LeaseExpiresAt == nil || !fetched.LeaseExpiresAt.After(time.Now()) {
		t.Fatalf("expected future lease, got %v", fetched.LeaseExpiresAt)
	}

	missing, err := store.Claim(ctx, "missing", time.Minute)
	if err != nil || missing {
		t.Fatalf("expected missing manual claim to be rejected, claimed=%v err=%v", missing, err)
	}
}

func TestFinishOnlyFromProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	manual := testsupport.NewManual(t, store, "v/video.mp4")

	if ok, err := store.Finish(ctx, manual.ID, manuals.StatusSuccess); err != nil || ok {
		t.Fatalf("expected Finish on WAITING manual to be rejected, ok=%v err=%v", ok, err)
	}
	if _, err := store.Finish(ctx, manual.ID, manuals.StatusWaiting); err == nil {
		t.Fatal("expected non-terminal status to be rejected")
	}

	if _, err := store.Claim(ctx, manual.ID, time.Minute); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if ok, err := store.Finish(ctx, manual.ID, manuals.StatusFail); err != nil || !ok {
		t.Fatalf("expected Finish to succeed, ok=%v err=%v", ok, err)
	}
	if ok, _ := store.Finish(ctx, manual.ID, manuals.StatusSuccess); ok {
		t.Fatal("expected terminal status to be final")
	}

	fetched := testsupport.MustGet(t, store, manual.ID)
	if fetched.ProcessingStatus != manuals.StatusFail {
		t.Fatalf("expected FAIL, got %s", fetched.ProcessingStatus)
	}
	if fetched.LeaseExpiresAt != nil {
		t.Fatalf("expected lease cleared, got %v", fetched.LeaseExpiresAt)
	}
}

func TestSetStepImageAndTitle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	manual := testsupport.NewManual(t, store, "v/video.mp4", 100, 200)

	if err := store.SetStepImage(ctx, manual.Steps[1].ID, "v/step-002-x.png"); err != nil {
		t.Fatalf("SetStepImage failed: %v", err)
	}
	if err := store.SetStepImage(ctx, "missing-step", "x.png"); err == nil {
		t.Fatal("expected error for missing step")
	}
	if err := store.SetTitle(ctx, manual.ID, "設定を保存する"); err != nil {
		t.Fatalf("SetTitle failed: %v", err)
	}

	fetched := testsupport.MustGet(t, store, manual.ID)
	if fetched.Title != "設定を保存する" {
		t.Fatalf("unexpected title %q", fetched.Title)
	}
	if fetched.Steps[0].HasImage() {
		t.Fatal("expected first step without image")
	}
	if fetched.Steps[1].ImagePath != "v/step-002-x.png" {
		t.Fatalf("unexpected image path %q", fetched.Steps[1].ImagePath)
	}
}

func TestReclaimExpired(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	stale := testsupport.NewManual(t, store, "v/a.mp4")
	fresh := testsupport.NewManual(t, store, "v/b.mp4")
	waiting := testsupport.NewManual(t, store, "v/c.mp4")

	if _, err := store.Claim(ctx, stale.ID, time.Millisecond); err != nil {
		t.Fatalf("Claim stale failed: %v", err)
	}
	if _, err := store.Claim(ctx, fresh.ID, time.Hour); err != nil {
		t.Fatalf("Claim fresh failed: %v", err)
	}

	reclaimed, err := store.ReclaimExpired(ctx, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("ReclaimExpired failed: %v", err)
	}
	if len(reclaimed) != 1 || reclaimed[0] != stale.ID {
		t.Fatalf("expected only stale manual reclaimed, got %v", reclaimed)
	}

	if got := testsupport.MustGet(t, store, stale.ID); got.ProcessingStatus != manuals.StatusWaiting || got.LeaseExpiresAt != nil {
		t.Fatalf("expected stale manual reset to WAITING, got %s lease=%v", got.ProcessingStatus, got.LeaseExpiresAt)
	}
	if got := testsupport.MustGet(t, store, fresh.ID); got.ProcessingStatus != manuals.StatusProcessing {
		t.Fatalf("expected fresh manual to stay PROCESSING, got %s", got.ProcessingStatus)
	}
	if got := testsupport.MustGet(t, store, waiting.ID); got.ProcessingStatus != manuals.StatusWaiting {
		t.Fatalf("expected waiting manual untouched, got %s", got.ProcessingStatus)
	}
}

func TestHeartbeatExtendsLease(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	manual := testsupport.NewManual(t, store, "v/a.mp4")

	if _, err := store.Claim(ctx, manual.ID, time.Millisecond); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if err := store.Heartbeat(ctx, manual.ID, time.Hour); err != nil {
		t.Fatalf("Heartbeat failed: %v", err)
	}
	reclaimed, err := store.ReclaimExpired(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("ReclaimExpired failed: %v", err)
	}
	if len(reclaimed) != 0 {
		t.Fatalf("expected renewed lease to survive, reclaimed %v", reclaimed)
	}
}

func TestListAndStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.NewManual(t, store, "v/a.mp4")
	testsupport.NewManual(t, store, "v/b.mp4")
	if _, err := store.Claim(ctx, a.ID, time.Minute); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 manuals, got %d", len(all))
	}
	processing, err := store.List(ctx, manuals.StatusProcessing)
	if err != nil {
		t.Fatalf("List processing failed: %v", err)
	}
	if len(processing) != 1 || processing[0].ID != a.ID {
		t.Fatalf("unexpected processing list: %#v", processing)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Counts[manuals.StatusWaiting] != 1 || stats.Counts[manuals.StatusProcessing] != 1 || stats.Total() != 2 {
		t.Fatalf("unexpected stats: %s", stats)
	}
}

func TestDatabasePathUnderStateDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if store.Path() != filepath.Join(cfg.Paths.StateDir, "manuals.db") {
		t.Fatalf("unexpected database path %q", store.Path())
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := manuals.ParseStatus(" processing "); !ok || status != manuals.StatusProcessing {
		t.Fatalf("expected PROCESSING, got %q ok=%v", status, ok)
	}
	if _, ok := manuals.ParseStatus("paused"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestOpenRejectsForeignSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manuals.db")
	store, err := manuals.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopening the same file is a no-op migration.
	store, err = manuals.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("stamp version: %v", err)
	}
	_ = db.Close()

	if _, err := manuals.OpenPath(path); !errors.Is(err, manuals.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
