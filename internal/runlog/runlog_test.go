package runlog_test

import (
	"context"
	"testing"

	"armangle/internal/pipeline"
	"armangle/internal/runlog"
	"armangle/internal/stage"
)

func sampleReport(runID string) *pipeline.Report {
	report := pipeline.NewReport(runID, false)
	report.Units = 3
	report.Stage("extract").Counts.Processed = 2
	report.Stage("extract").Counts.Skipped = 1
	report.Stage("pose").Counts.Processed = 2
	report.RecordFailure("pitch_c", "measure", stage.Result{Outcome: stage.OutcomeTimedOut, Reason: "tool hung"})
	return report
}

func TestRecordAndReadBack(t *testing.T) {
	store, err := runlog.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.RecordRun(ctx, sampleReport("run-1")); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.RecordRun(ctx, sampleReport("run-2")); err != nil {
		t.Fatalf("record: %v", err)
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].RunID != "run-2" {
		t.Fatalf("newest first: got %s", runs[0].RunID)
	}
	if runs[0].Units != 3 || runs[0].Failures != 1 {
		t.Fatalf("run record = %+v", runs[0])
	}
	if len(runs[0].Stages) != 3 {
		t.Fatalf("stages = %d, want 3", len(runs[0].Stages))
	}
	extract := runs[0].Stages[0]
	if extract.Stage != "extract" || extract.Processed != 2 || extract.Skipped != 1 {
		t.Fatalf("extract record = %+v", extract)
	}
}

func TestRecentRunsLimit(t *testing.T) {
	store, err := runlog.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := store.RecordRun(ctx, sampleReport(id)); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}
	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
}

func TestReopenPreservesHistory(t *testing.T) {
	dir := t.TempDir()
	store, err := runlog.Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.RecordRun(context.Background(), sampleReport("run-1")); err != nil {
		t.Fatalf("record: %v", err)
	}
	store.Close()

	reopened, err := runlog.Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	runs, err := reopened.RecentRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
}
