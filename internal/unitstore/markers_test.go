package unitstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"armangle/internal/testsupport"
	"armangle/internal/unitstore"
)

func measuredUnit(t *testing.T, root string) (*unitstore.Store, unitstore.Unit) {
	t.Helper()
	testsupport.MeasuredUnit(t, root, "pitch_001", 2, 45, 40)
	store := unitstore.New(root)
	units, err := store.Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("expected one unit, got %d", len(units))
	}
	return store, units[0]
}

func TestIsCompleteAllStages(t *testing.T) {
	store, unit := measuredUnit(t, t.TempDir())
	for _, kind := range []unitstore.StageKind{
		unitstore.StageExtract,
		unitstore.StagePose,
		unitstore.StageLabel,
		unitstore.StageMeasure,
	} {
		if !store.IsComplete(unit, kind) {
			t.Fatalf("expected %s complete", kind)
		}
	}
}

func TestEmptyMarkerReadsIncomplete(t *testing.T) {
	root := t.TempDir()
	store, unit := measuredUnit(t, root)

	// Simulate a crash mid-write: truncate one pose marker.
	marker := store.MarkerPath(unit, unitstore.StagePose, "frame_0002.jpg")
	if err := os.WriteFile(marker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if store.IsComplete(unit, unitstore.StagePose) {
		t.Fatal("stage with an empty marker must read incomplete")
	}
	if !store.IsComplete(unit, unitstore.StageLabel) {
		t.Fatal("sibling stages must be unaffected")
	}
}

func TestMissingMarkerDirReadsIncomplete(t *testing.T) {
	root := t.TempDir()
	store, unit := measuredUnit(t, root)

	if err := os.RemoveAll(filepath.Join(unit.Dir, unitstore.LabelsDirName)); err != nil {
		t.Fatal(err)
	}
	if store.IsComplete(unit, unitstore.StageLabel) {
		t.Fatal("missing marker tree must read incomplete")
	}
}

func TestCompleteWithoutRawArtifact(t *testing.T) {
	root := t.TempDir()
	store, unit := measuredUnit(t, root)

	if err := os.Remove(unit.RawPath); err != nil {
		t.Fatal(err)
	}
	units, err := store.Discover()
	if err != nil {
		t.Fatal(err)
	}
	unit = units[0]
	if unit.RawPath != "" {
		t.Fatalf("expected empty raw path, got %q", unit.RawPath)
	}
	if !store.IsComplete(unit, unitstore.StageExtract) {
		t.Fatal("derived markers alone must prove completion")
	}
	if !store.IsComplete(unit, unitstore.StageMeasure) {
		t.Fatal("measure completion must not depend on the raw video")
	}
}

func TestZeroFrameUnitReadsIncompleteEverywhere(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "pitch_empty", "release_frames"), 0o755); err != nil {
		t.Fatal(err)
	}
	store := unitstore.New(root)
	units, err := store.Discover()
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 1 {
		t.Fatalf("expected the empty unit dir to be discovered, got %d units", len(units))
	}
	for _, kind := range []unitstore.StageKind{unitstore.StageExtract, unitstore.StagePose, unitstore.StageLabel, unitstore.StageMeasure} {
		if store.IsComplete(units[0], kind) {
			t.Fatalf("empty unit must read incomplete for %s", kind)
		}
	}
}
