package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"armangle/internal/pipeline"
	"armangle/internal/stage"
	"armangle/internal/testsupport"
	"armangle/internal/unitstore"
)

func testStages() []stage.Stage {
	return []stage.Stage{
		{Kind: unitstore.StageExtract, Command: []string{"extract"}, Timeout: time.Second},
		{Kind: unitstore.StagePose, Command: []string{"pose"}, Timeout: time.Second},
		{Kind: unitstore.StageLabel, Command: []string{"label"}, Timeout: time.Second},
		{Kind: unitstore.StageMeasure, Command: []string{"measure"}, Timeout: time.Second},
	}
}

// markerRunner stands in for the external tools: on each call it writes the
// markers the real tool would, so completion checks behave as in production.
type markerRunner struct {
	t         testing.TB
	videosDir string
	store     *unitstore.Store
	calls     []string
	fail      map[string]stage.Outcome
}

func newMarkerRunner(t testing.TB, videosDir string) *markerRunner {
	return &markerRunner{
		t:         t,
		videosDir: videosDir,
		store:     unitstore.New(videosDir),
		fail:      make(map[string]stage.Outcome),
	}
}

func (r *markerRunner) failWith(unitID string, kind unitstore.StageKind, outcome stage.Outcome) {
	r.fail[unitID+"/"+kind.String()] = outcome
}

func (r *markerRunner) Run(_ context.Context, unit unitstore.Unit, st stage.Stage) stage.Result {
	key := unit.ID + "/" + st.Name()
	r.calls = append(r.calls, key)
	if outcome, ok := r.fail[key]; ok {
		return stage.Result{Outcome: outcome, Reason: "scripted failure"}
	}

	switch st.Kind {
	case unitstore.StageExtract:
		testsupport.WriteFrames(r.t, r.videosDir, unit.ID, 2)
	default:
		for _, frame := range r.store.ReleaseFrames(unit) {
			stem := unitstore.FrameStem(frame)
			switch st.Kind {
			case unitstore.StagePose:
				testsupport.WritePoseMarker(r.t, r.videosDir, unit.ID, stem)
			case unitstore.StageLabel:
				testsupport.WriteLabelMarker(r.t, r.videosDir, unit.ID, stem, true)
			case unitstore.StageMeasure:
				testsupport.WriteCalcMarker(r.t, r.videosDir, unit.ID, stem,
					testsupport.Angles{ShoulderWrist: testsupport.Angle(41.5), ElbowWrist: testsupport.Angle(39.0)})
			}
		}
	}
	return stage.Result{Outcome: stage.OutcomeSuccess}
}

func countCalls(calls []string, key string) int {
	n := 0
	for _, c := range calls {
		if c == key {
			n++
		}
	}
	return n
}

func TestRunProcessesAllStagesThenSecondRunSkips(t *testing.T) {
	videosDir := t.TempDir()
	testsupport.WriteRawVideo(t, videosDir, "pitch_a")
	testsupport.WriteRawVideo(t, videosDir, "pitch_b")

	store := unitstore.New(videosDir)
	runner := newMarkerRunner(t, videosDir)
	orch := pipeline.New(store, runner, nil)

	report, err := orch.Run(context.Background(), testStages(), pipeline.Options{KeepRaw: true})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if report.Units != 2 {
		t.Fatalf("units = %d, want 2", report.Units)
	}
	for _, sr := range report.Stages {
		if sr.Counts.Processed != 2 {
			t.Errorf("stage %s processed = %d, want 2", sr.Name, sr.Counts.Processed)
		}
	}
	if len(runner.calls) != 8 {
		t.Fatalf("runner calls = %d, want 8", len(runner.calls))
	}

	// A rerun must infer completion from disk and touch nothing.
	runner.calls = nil
	report, err = orch.Run(context.Background(), testStages(), pipeline.Options{KeepRaw: true})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("second run invoked tools: %v", runner.calls)
	}
	for _, sr := range report.Stages {
		if sr.Counts.Skipped != 2 {
			t.Errorf("stage %s skipped = %d, want 2", sr.Name, sr.Counts.Skipped)
		}
	}
}

func TestRunDeletesRawAfterVerifiedExtraction(t *testing.T) {
	videosDir := t.TempDir()
	rawPath := testsupport.WriteRawVideo(t, videosDir, "pitch_a")

	store := unitstore.New(videosDir)
	runner := newMarkerRunner(t, videosDir)
	orch := pipeline.New(store, runner, nil)

	report, err := orch.Run(context.Background(), testStages(), pipeline.Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, statErr := os.Stat(rawPath); !os.IsNotExist(statErr) {
		t.Fatalf("raw video still present after successful extraction")
	}
	if got := report.Stage("extract").Counts.Deleted; got != 1 {
		t.Fatalf("deleted = %d, want 1", got)
	}
	// Later stages must still run against the derived directory.
	if got := report.Stage("measure").Counts.Processed; got != 1 {
		t.Fatalf("measure processed = %d, want 1", got)
	}
}

func TestRunKeepRawRetainsVideo(t *testing.T) {
	videosDir := t.TempDir()
	rawPath := testsupport.WriteRawVideo(t, videosDir, "pitch_a")

	orch := pipeline.New(unitstore.New(videosDir), newMarkerRunner(t, videosDir), nil)
	report, err := orch.Run(context.Background(), testStages(), pipeline.Options{KeepRaw: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, statErr := os.Stat(rawPath); statErr != nil {
		t.Fatalf("raw video missing with keep requested: %v", statErr)
	}
	if got := report.Stage("extract").Counts.Deleted; got != 0 {
		t.Fatalf("deleted = %d, want 0", got)
	}
}

func TestRunFailureIsolatedPerUnit(t *testing.T) {
	videosDir := t.TempDir()
	testsupport.WriteRawVideo(t, videosDir, "pitch_a")
	rawB := testsupport.WriteRawVideo(t, videosDir, "pitch_b")

	runner := newMarkerRunner(t, videosDir)
	runner.failWith("pitch_b", unitstore.StageExtract, stage.OutcomeFailed)

	orch := pipeline.New(unitstore.New(videosDir), runner, nil)
	report, err := orch.Run(context.Background(), testStages(), pipeline.Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	extract := report.Stage("extract").Counts
	if extract.Processed != 1 || extract.Failed != 1 {
		t.Fatalf("extract counts = %+v, want 1 processed / 1 failed", extract)
	}
	// The failed unit produced no frames, so later stages see it as
	// extract-incomplete and must not invoke tools for it.
	if n := countCalls(runner.calls, "pitch_b/pose"); n != 0 {
		t.Fatalf("pose ran for failed unit %d times", n)
	}
	if got := report.Stage("measure").Counts.Processed; got != 1 {
		t.Fatalf("measure processed = %d, want 1", got)
	}
	// Failure means the raw artifact must survive for the retry.
	if _, statErr := os.Stat(rawB); statErr != nil {
		t.Fatalf("raw video of failed unit missing: %v", statErr)
	}
	if len(report.Failures) == 0 || report.Failures[0].UnitID != "pitch_b" {
		t.Fatalf("failures = %+v", report.Failures)
	}
	if report.TotalStageFailure() {
		t.Fatal("partial failure must not read as total stage failure")
	}
}

func TestRunTotalStageFailure(t *testing.T) {
	videosDir := t.TempDir()
	testsupport.WriteRawVideo(t, videosDir, "pitch_a")
	testsupport.WriteRawVideo(t, videosDir, "pitch_b")

	runner := newMarkerRunner(t, videosDir)
	runner.failWith("pitch_a", unitstore.StageExtract, stage.OutcomeFailed)
	runner.failWith("pitch_b", unitstore.StageExtract, stage.OutcomeTimedOut)

	orch := pipeline.New(unitstore.New(videosDir), runner, nil)
	report, err := orch.Run(context.Background(), testStages(), pipeline.Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.TotalStageFailure() {
		t.Fatal("expected total stage failure")
	}
	extract := report.Stage("extract").Counts
	if extract.Failed != 1 || extract.TimedOut != 1 {
		t.Fatalf("extract counts = %+v", extract)
	}
}

func TestRunForceReprocessesCompletedUnits(t *testing.T) {
	videosDir := t.TempDir()
	testsupport.MeasuredUnit(t, videosDir, "pitch_a", 2, 40, 38)

	runner := newMarkerRunner(t, videosDir)
	orch := pipeline.New(unitstore.New(videosDir), runner, nil)

	report, err := orch.Run(context.Background(), testStages(), pipeline.Options{Force: true, KeepRaw: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(runner.calls) != 4 {
		t.Fatalf("runner calls = %v, want all four stages", runner.calls)
	}
	for _, sr := range report.Stages {
		if sr.Counts.Processed != 1 {
			t.Errorf("stage %s processed = %d, want 1", sr.Name, sr.Counts.Processed)
		}
	}
}

func TestRunForceWithoutRawSkipsExtraction(t *testing.T) {
	videosDir := t.TempDir()
	testsupport.MeasuredUnit(t, videosDir, "pitch_a", 2, 40, 38)
	if err := os.Remove(filepath.Join(videosDir, "pitch_a.mp4")); err != nil {
		t.Fatal(err)
	}

	runner := newMarkerRunner(t, videosDir)
	orch := pipeline.New(unitstore.New(videosDir), runner, nil)

	report, err := orch.Run(context.Background(), testStages(), pipeline.Options{Force: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := countCalls(runner.calls, "pitch_a/extract"); n != 0 {
		t.Fatalf("extract forced without a raw video")
	}
	if got := report.Stage("extract").Counts.Skipped; got != 1 {
		t.Fatalf("extract skipped = %d, want 1", got)
	}
	// The surviving frames still let the downstream stages reprocess.
	if got := report.Stage("measure").Counts.Processed; got != 1 {
		t.Fatalf("measure processed = %d, want 1", got)
	}
}

func TestRunSkipDirectiveBypassesStage(t *testing.T) {
	videosDir := t.TempDir()
	testsupport.WriteRawVideo(t, videosDir, "pitch_a")

	runner := newMarkerRunner(t, videosDir)
	orch := pipeline.New(unitstore.New(videosDir), runner, nil)

	opts := pipeline.Options{KeepRaw: true, Skip: map[string]bool{"pose": true, "label": true, "measure": true}}
	report, err := orch.Run(context.Background(), testStages(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(runner.calls) != 1 || runner.calls[0] != "pitch_a/extract" {
		t.Fatalf("runner calls = %v, want only extraction", runner.calls)
	}
	if len(report.Stages) != 1 {
		t.Fatalf("report stages = %d, want 1", len(report.Stages))
	}
}

func TestRunSkipsUnitWithNoRawAndNoFrames(t *testing.T) {
	videosDir := t.TempDir()
	// A derived-only directory left with nothing extractable: an empty
	// frame file means extraction reads as incomplete, and the raw video
	// is gone.
	testsupport.WriteFile(t, filepath.Join(videosDir, "pitch_a", "release_frames", "frame_0001.jpg"), nil)
	testsupport.WriteRawVideo(t, videosDir, "pitch_b")

	runner := newMarkerRunner(t, videosDir)
	orch := pipeline.New(unitstore.New(videosDir), runner, nil)

	report, err := orch.Run(context.Background(), testStages(), pipeline.Options{KeepRaw: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := countCalls(runner.calls, "pitch_a/extract"); n != 0 {
		t.Fatalf("extract invoked %d times for a unit with nothing to extract", n)
	}
	if got := report.Stage("extract").Counts.Skipped; got != 1 {
		t.Fatalf("extract skipped = %d, want 1", got)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("a dead-end unit must not be recorded as a failure: %+v", report.Failures)
	}
	// The healthy unit still processes end to end.
	if got := report.Stage("measure").Counts.Processed; got != 1 {
		t.Fatalf("measure processed = %d, want 1", got)
	}
}

func TestRunResumesPartiallyProcessedUnit(t *testing.T) {
	videosDir := t.TempDir()
	// Frames and poses exist, labels and measurements do not: the state a
	// crash between stages leaves behind.
	frames := testsupport.WriteFrames(t, videosDir, "pitch_a", 2)
	for _, frame := range frames {
		testsupport.WritePoseMarker(t, videosDir, "pitch_a", unitstore.FrameStem(frame))
	}

	runner := newMarkerRunner(t, videosDir)
	orch := pipeline.New(unitstore.New(videosDir), runner, nil)

	report, err := orch.Run(context.Background(), testStages(), pipeline.Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := report.Stage("extract").Counts.Skipped; got != 1 {
		t.Fatalf("extract skipped = %d, want 1", got)
	}
	if got := report.Stage("pose").Counts.Skipped; got != 1 {
		t.Fatalf("pose skipped = %d, want 1", got)
	}
	if got := report.Stage("label").Counts.Processed; got != 1 {
		t.Fatalf("label processed = %d, want 1", got)
	}
	if got := report.Stage("measure").Counts.Processed; got != 1 {
		t.Fatalf("measure processed = %d, want 1", got)
	}
}
