package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"shortsdub/internal/pipeline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "logs", "jobs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	transitions := []pipeline.Transition{
		{JobID: "0123456789ab", SourceURL: "https://example.com/v", To: pipeline.StateCreated, At: base},
		{JobID: "0123456789ab", From: pipeline.StateCreated, To: pipeline.StateDownloading, Stage: pipeline.StageAcquire, At: base.Add(time.Second)},
		{JobID: "0123456789ab", From: pipeline.StateDownloading, To: pipeline.StateFailed, Stage: pipeline.StageAcquire, At: base.Add(2 * time.Second), Duration: 2 * time.Second, Message: "acquire failed: unsupported url"},
	}
	for _, tr := range transitions {
		if err := store.Record(ctx, tr); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	job, events, err := store.Get(ctx, "0123456789ab")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.State != pipeline.StateFailed || job.FailedStage != pipeline.StageAcquire {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.SourceURL != "https://example.com/v" || job.Message != "acquire failed: unsupported url" {
		t.Fatalf("unexpected job %+v", job)
	}
	if !job.CreatedAt.Equal(base) {
		t.Fatalf("expected created_at %s, got %s", base, job.CreatedAt)
	}
	if len(events) != 3 || events[2].To != pipeline.StateFailed || events[1].Stage != pipeline.StageAcquire {
		t.Fatalf("unexpected events %+v", events)
	}
	if events[2].Duration != 2*time.Second {
		t.Fatalf("expected event duration, got %s", events[2].Duration)
	}
}

func TestFinishStoresOutcome(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.Record(ctx, pipeline.Transition{JobID: "aaaaaaaaaaaa", To: pipeline.StateCreated}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	err := store.Finish(ctx, pipeline.Outcome{
		JobID:      "aaaaaaaaaaaa",
		SourceText: "안녕하세요",
		TargetText: "こんにちは",
		OutputPath: "/out/aaaaaaaaaaaa_final.mp4",
		State:      pipeline.StateDone,
		Elapsed:    1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	job, _, err := store.Get(ctx, "aaaaaaaaaaaa")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.State != pipeline.StateDone || job.TargetText != "こんにちは" || job.Elapsed != 1500*time.Millisecond {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestGetUnknownJob(t *testing.T) {
	store := openTestStore(t)
	if _, _, err := store.Get(context.Background(), "ffffffffffff"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ids := []string{"000000000001", "000000000002", "000000000003"}
	for i, id := range ids {
		state := pipeline.StateDone
		if i == 1 {
			state = pipeline.StateFailed
		}
		if err := store.Record(ctx, pipeline.Transition{JobID: id, To: state, At: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	jobs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != "000000000003" || jobs[1].ID != "000000000002" {
		t.Fatalf("expected newest first, got %+v", jobs)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[pipeline.StateDone] != 2 || stats[pipeline.StateFailed] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestPruneRemovesOldJobs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := store.Record(ctx, pipeline.Transition{JobID: "old000000000", To: pipeline.StateDone, At: old}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, pipeline.Transition{JobID: "new000000000", To: pipeline.StateDone, At: old.Add(48 * time.Hour)}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	removed, err := store.Prune(ctx, old.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, _, err := store.Get(ctx, "old000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected pruned job to be gone, got %v", err)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()
	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = store.Close()
}

func TestObserverRecordsTransitions(t *testing.T) {
	store := openTestStore(t)
	observer := store.Observer(nil)
	observer.Transition(context.Background(), pipeline.Transition{JobID: "bbbbbbbbbbbb", To: pipeline.StateCreated})
	if _, _, err := store.Get(context.Background(), "bbbbbbbbbbbb"); err != nil {
		t.Fatalf("expected observer to record job: %v", err)
	}
}
