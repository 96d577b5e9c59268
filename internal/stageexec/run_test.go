package stageexec_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"armangle/internal/stage"
	"armangle/internal/stageexec"
	"armangle/internal/testsupport"
	"armangle/internal/unitstore"
)

type fakeExecutor struct {
	run   func(ctx context.Context, binary string, args []string) error
	calls [][]string
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	f.calls = append(f.calls, append([]string{binary}, args...))
	if f.run == nil {
		return nil
	}
	return f.run(ctx, binary, args)
}

func extractStage() stage.Stage {
	return stage.Stage{
		Kind:    unitstore.StageExtract,
		Command: []string{"extract_release_frames", "--fps", "30"},
		Timeout: time.Minute,
	}
}

func rawUnit(t *testing.T, root string) (*unitstore.Store, unitstore.Unit) {
	t.Helper()
	testsupport.WriteRawVideo(t, root, "pitch_001")
	store := unitstore.New(root)
	units, err := store.Discover()
	if err != nil {
		t.Fatal(err)
	}
	return store, units[0]
}

func TestRunSuccessVerifiesMarker(t *testing.T) {
	root := t.TempDir()
	store, unit := rawUnit(t, root)

	exec := &fakeExecutor{run: func(_ context.Context, _ string, args []string) error {
		// The tool writes its output into the directory it was handed.
		outDir := args[len(args)-1]
		if err := os.WriteFile(filepath.Join(outDir, "frame_0001.jpg"), []byte("jpeg"), 0o644); err != nil {
			return err
		}
		return nil
	}}
	runner := stageexec.NewRunner(store, nil, stageexec.WithExecutor(exec))

	result := runner.Run(context.Background(), unit, extractStage())
	if !result.OK() {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("expected one invocation, got %d", len(exec.calls))
	}
	call := exec.calls[0]
	if call[0] != "extract_release_frames" || call[1] != "--fps" || call[2] != "30" {
		t.Fatalf("unexpected command: %v", call)
	}
	if call[3] != unit.RawPath {
		t.Fatalf("expected raw path input, got %q", call[3])
	}
	if call[4] != filepath.Join(unit.Dir, "release_frames") {
		t.Fatalf("expected frames output dir, got %q", call[4])
	}
}

func TestRunExitZeroWithoutMarkerFails(t *testing.T) {
	root := t.TempDir()
	store, unit := rawUnit(t, root)

	runner := stageexec.NewRunner(store, nil, stageexec.WithExecutor(&fakeExecutor{}))
	result := runner.Run(context.Background(), unit, extractStage())
	if result.Outcome != stage.OutcomeFailed {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.Reason == "" {
		t.Fatal("expected a failure reason")
	}
}

func TestRunExitZeroWithEmptyMarkerFails(t *testing.T) {
	root := t.TempDir()
	store, unit := rawUnit(t, root)

	exec := &fakeExecutor{run: func(_ context.Context, _ string, args []string) error {
		outDir := args[len(args)-1]
		return os.WriteFile(filepath.Join(outDir, "frame_0001.jpg"), nil, 0o644)
	}}
	runner := stageexec.NewRunner(store, nil, stageexec.WithExecutor(exec))
	result := runner.Run(context.Background(), unit, extractStage())
	if result.Outcome != stage.OutcomeFailed {
		t.Fatalf("empty marker must fail verification, got %+v", result)
	}
}

func TestRunToolErrorFails(t *testing.T) {
	root := t.TempDir()
	store, unit := rawUnit(t, root)

	exec := &fakeExecutor{run: func(context.Context, string, []string) error {
		return errors.New("exit status 2")
	}}
	runner := stageexec.NewRunner(store, nil, stageexec.WithExecutor(exec))
	result := runner.Run(context.Background(), unit, extractStage())
	if result.Outcome != stage.OutcomeFailed {
		t.Fatalf("expected failure, got %+v", result)
	}
}

func TestRunTimeoutIsDistinct(t *testing.T) {
	root := t.TempDir()
	store, unit := rawUnit(t, root)

	exec := &fakeExecutor{run: func(ctx context.Context, _ string, _ []string) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	st := extractStage()
	st.Timeout = 10 * time.Millisecond

	runner := stageexec.NewRunner(store, nil, stageexec.WithExecutor(exec))
	result := runner.Run(context.Background(), unit, st)
	if result.Outcome != stage.OutcomeTimedOut {
		t.Fatalf("expected timeout outcome, got %+v", result)
	}
}

func TestRunMissingRawInputFails(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFrames(t, root, "pitch_001", 1)
	store := unitstore.New(root)
	units, err := store.Discover()
	if err != nil {
		t.Fatal(err)
	}

	// Force the extract stage against a unit whose raw video is gone. The
	// gate would normally skip it; the runner still refuses cleanly.
	runner := stageexec.NewRunner(store, nil, stageexec.WithExecutor(&fakeExecutor{}))
	result := runner.Run(context.Background(), units[0], extractStage())
	if result.Outcome != stage.OutcomeFailed {
		t.Fatalf("expected failure, got %+v", result)
	}
}
