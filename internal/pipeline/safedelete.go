package pipeline

import (
	"os"

	"armangle/internal/stage"
	"armangle/internal/unitstore"
)

// DeleteOutcome classifies the raw-video reclamation attempt.
type DeleteOutcome int

const (
	// DeleteKept: deletion was not attempted (keep requested, stage did
	// not succeed, or the raw video is already gone).
	DeleteKept DeleteOutcome = iota
	// DeleteDone: the raw video was removed.
	DeleteDone
	// DeleteFailed: removal was attempted and failed. Non-fatal, only the
	// disk-space reclamation was lost.
	DeleteFailed
)

// DeleteResult reports what happened to the unit's raw video.
type DeleteResult struct {
	Outcome DeleteOutcome
	Reason  string
}

// maybeDeleteRaw removes the unit's raw video if and only if the extraction
// succeeded, keep was not requested, and the derived frame markers verify as
// durably present. Ordering is write output, verify marker, delete raw: a
// crash between stage success and deletion leaves the unit resumable with
// derived data intact.
func maybeDeleteRaw(store *unitstore.Store, unit unitstore.Unit, result stage.Result, keep bool) DeleteResult {
	if keep || !result.OK() || unit.RawPath == "" {
		return DeleteResult{Outcome: DeleteKept}
	}
	if !store.IsComplete(unit, unitstore.StageExtract) {
		return DeleteResult{Outcome: DeleteKept, Reason: "frame markers not verified"}
	}
	if err := os.Remove(unit.RawPath); err != nil {
		return DeleteResult{Outcome: DeleteFailed, Reason: err.Error()}
	}
	return DeleteResult{Outcome: DeleteDone}
}
