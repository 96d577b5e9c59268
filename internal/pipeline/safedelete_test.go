package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"armangle/internal/stage"
	"armangle/internal/testsupport"
	"armangle/internal/unitstore"
)

func extractedUnit(t *testing.T) (*unitstore.Store, unitstore.Unit) {
	t.Helper()
	videosDir := t.TempDir()
	raw := testsupport.WriteRawVideo(t, videosDir, "pitch_a")
	testsupport.WriteFrames(t, videosDir, "pitch_a", 2)
	unit := unitstore.Unit{ID: "pitch_a", Dir: filepath.Join(videosDir, "pitch_a"), RawPath: raw}
	return unitstore.New(videosDir), unit
}

func TestMaybeDeleteRawRemovesVerifiedVideo(t *testing.T) {
	store, unit := extractedUnit(t)

	got := maybeDeleteRaw(store, unit, stage.Result{Outcome: stage.OutcomeSuccess}, false)
	if got.Outcome != DeleteDone {
		t.Fatalf("outcome = %v, want DeleteDone (%s)", got.Outcome, got.Reason)
	}
	if _, err := os.Stat(unit.RawPath); !os.IsNotExist(err) {
		t.Fatal("raw video still on disk")
	}
}

func TestMaybeDeleteRawKeepsOnRequest(t *testing.T) {
	store, unit := extractedUnit(t)

	got := maybeDeleteRaw(store, unit, stage.Result{Outcome: stage.OutcomeSuccess}, true)
	if got.Outcome != DeleteKept {
		t.Fatalf("outcome = %v, want DeleteKept", got.Outcome)
	}
	if _, err := os.Stat(unit.RawPath); err != nil {
		t.Fatalf("raw video missing: %v", err)
	}
}

func TestMaybeDeleteRawKeepsOnStageFailure(t *testing.T) {
	store, unit := extractedUnit(t)

	got := maybeDeleteRaw(store, unit, stage.Result{Outcome: stage.OutcomeFailed}, false)
	if got.Outcome != DeleteKept {
		t.Fatalf("outcome = %v, want DeleteKept", got.Outcome)
	}
	if _, err := os.Stat(unit.RawPath); err != nil {
		t.Fatalf("raw video missing: %v", err)
	}
}

func TestMaybeDeleteRawKeepsWithoutVerifiedMarkers(t *testing.T) {
	videosDir := t.TempDir()
	raw := testsupport.WriteRawVideo(t, videosDir, "pitch_a")
	// An empty frame file: the tool exited but the output did not land.
	testsupport.WriteFile(t, filepath.Join(videosDir, "pitch_a", "release_frames", "frame_0001.jpg"), nil)
	store := unitstore.New(videosDir)
	unit := unitstore.Unit{ID: "pitch_a", Dir: filepath.Join(videosDir, "pitch_a"), RawPath: raw}

	got := maybeDeleteRaw(store, unit, stage.Result{Outcome: stage.OutcomeSuccess}, false)
	if got.Outcome != DeleteKept {
		t.Fatalf("outcome = %v, want DeleteKept", got.Outcome)
	}
	if _, err := os.Stat(raw); err != nil {
		t.Fatalf("raw video deleted despite unverified markers: %v", err)
	}
}

func TestMaybeDeleteRawNoRawPath(t *testing.T) {
	store, unit := extractedUnit(t)
	unit.RawPath = ""

	got := maybeDeleteRaw(store, unit, stage.Result{Outcome: stage.OutcomeSuccess}, false)
	if got.Outcome != DeleteKept {
		t.Fatalf("outcome = %v, want DeleteKept", got.Outcome)
	}
}
