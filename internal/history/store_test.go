package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestRunRoundTrip(t *testing.T) {
	store := openTestStore(t)
	store.now = fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	run, err := store.StartRun(ctx, "run-1", "/out/cfg.mp4", "/cfg/drumviz.toml", 4)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.Status != StatusRunning || run.SegmentCount != 4 || run.FinishedAt != nil {
		t.Fatalf("unexpected started run: %+v", run)
	}

	if err := store.AddDiagnostic(ctx, "run-1", 2, "w_2.0.wav", "load: no such file"); err != nil {
		t.Fatalf("AddDiagnostic: %v", err)
	}
	if err := store.AddDiagnostic(ctx, "run-1", 0, "baseline.wav", "load: bad header"); err != nil {
		t.Fatalf("AddDiagnostic: %v", err)
	}

	if err := store.FinishRun(ctx, "run-1", Outcome{
		SubstitutedCount: 2,
		FrameCount:       300,
		DurationSeconds:  10,
		OutputBytes:      4096,
	}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusSucceeded || got.FrameCount != 300 || got.OutputBytes != 4096 || got.SubstitutedCount != 2 {
		t.Fatalf("unexpected finished run: %+v", got)
	}
	if got.ConfigPath != "/cfg/drumviz.toml" {
		t.Fatalf("unexpected config path %q", got.ConfigPath)
	}
	if got.FinishedAt == nil || got.Elapsed() != 3*time.Second {
		t.Fatalf("expected 3s elapsed, got %v", got.Elapsed())
	}

	diags, err := store.Diagnostics(ctx, "run-1")
	if err != nil {
		t.Fatalf("Diagnostics: %v", err)
	}
	if len(diags) != 2 || diags[0].SegmentIndex != 0 || diags[1].Source != "w_2.0.wav" {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
}

func TestFinishRunRecordsFailure(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if _, err := store.StartRun(ctx, "run-fail", "/out/x.mp4", "", 4); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := store.FinishRun(ctx, "run-fail", Outcome{ErrorKind: "encode", Err: errors.New("ffmpeg exited 1")}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	got, err := store.Get(ctx, "run-fail")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusFailed || got.ErrorKind != "encode" || got.ErrorMessage != "ffmpeg exited 1" {
		t.Fatalf("unexpected failed run: %+v", got)
	}
	if got.ConfigPath != "" {
		t.Fatalf("expected empty config path, got %q", got.ConfigPath)
	}
}

func TestFinishRunUnknownID(t *testing.T) {
	store := openTestStore(t)
	if err := store.FinishRun(context.Background(), "missing", Outcome{}); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := openTestStore(t)
	run, err := store.Get(context.Background(), "nope")
	if err != nil || run != nil {
		t.Fatalf("expected nil run, got %+v (%v)", run, err)
	}
}

func TestListOrdersNewestFirstAndPrunes(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = fixedClock(base)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := store.StartRun(ctx, id, "/out/"+id+".mp4", "", 4); err != nil {
			t.Fatalf("StartRun %s: %v", id, err)
		}
	}
	if err := store.AddDiagnostic(ctx, "a", 1, "x.wav", "missing"); err != nil {
		t.Fatalf("AddDiagnostic: %v", err)
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected order: %v", runIDs(runs))
	}

	removed, err := store.Prune(ctx, base.Add(2500*time.Millisecond))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 pruned runs, got %d", removed)
	}
	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 || all[0].ID != "c" {
		t.Fatalf("unexpected remaining runs: %v", runIDs(all))
	}
	diags, err := store.Diagnostics(ctx, "a")
	if err != nil {
		t.Fatalf("Diagnostics: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("expected diagnostics to cascade, got %d", len(diags))
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.StartRun(context.Background(), "persist", "/out.mp4", "", 1); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	_ = store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	run, err := reopened.Get(context.Background(), "persist")
	if err != nil || run == nil {
		t.Fatalf("expected persisted run, got %+v (%v)", run, err)
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func runIDs(runs []*Run) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}
