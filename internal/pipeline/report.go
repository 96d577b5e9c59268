package pipeline

import (
	"time"

	"armangle/internal/stage"
)

// StageCounts accumulates per-stage outcome tallies. A unit skipped by the
// idempotency gate is never double-counted as processed.
type StageCounts struct {
	Processed    int
	Skipped      int
	Failed       int
	TimedOut     int
	Deleted      int
	DeleteFailed int
}

// Attempted returns how many units actually ran the stage this invocation.
func (c StageCounts) Attempted() int {
	return c.Processed + c.Failed + c.TimedOut
}

// StageReport pairs a stage name with its counters.
type StageReport struct {
	Name   string
	Counts StageCounts
}

// Failure records one unit's stage failure with enough context to diagnose
// without re-running.
type Failure struct {
	UnitID  string
	Stage   string
	Outcome stage.Outcome
	Reason  string
}

// Report is the explicit accumulator for one invocation. It is threaded
// through the per-unit steps rather than held in globals so the orchestrator
// stays safely parallelizable later.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Forced   bool
	Units    int

	Stages   []*StageReport
	Failures []Failure
}

// NewReport starts an empty report for the run.
func NewReport(runID string, forced bool) *Report {
	return &Report{RunID: runID, Started: time.Now().UTC(), Forced: forced}
}

// Stage returns the counters for the named stage, creating them on first use
// so stage ordering in the report matches execution order.
func (r *Report) Stage(name string) *StageReport {
	for _, entry := range r.Stages {
		if entry.Name == name {
			return entry
		}
	}
	entry := &StageReport{Name: name}
	r.Stages = append(r.Stages, entry)
	return entry
}

// RecordFailure appends a per-unit failure and bumps the matching counter.
func (r *Report) RecordFailure(unitID, stageName string, result stage.Result) {
	counts := &r.Stage(stageName).Counts
	if result.Outcome == stage.OutcomeTimedOut {
		counts.TimedOut++
	} else {
		counts.Failed++
	}
	r.Failures = append(r.Failures, Failure{
		UnitID:  unitID,
		Stage:   stageName,
		Outcome: result.Outcome,
		Reason:  result.Reason,
	})
}

// TotalStageFailure reports whether some stage failed or timed out for every
// unit it attempted. Partial per-unit failure is reported but does not change
// the process exit status; a stage that achieved nothing does.
func (r *Report) TotalStageFailure() bool {
	for _, entry := range r.Stages {
		attempted := entry.Counts.Attempted()
		if attempted > 0 && entry.Counts.Processed == 0 {
			return true
		}
	}
	return false
}
