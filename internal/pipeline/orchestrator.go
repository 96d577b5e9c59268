package pipeline

import (
	"context"
	"log/slog"
	"time"

	"armangle/internal/logging"
	"armangle/internal/stage"
	"armangle/internal/unitstore"
)

// StageRunner executes one stage against one unit. Satisfied by
// stageexec.Runner; tests substitute their own.
type StageRunner interface {
	Run(ctx context.Context, unit unitstore.Unit, st stage.Stage) stage.Result
}

// Options controls one orchestrator invocation.
type Options struct {
	RunID string
	// Force treats every unit as incomplete, reprocessing in place.
	Force bool
	// KeepRaw disables raw-video deletion after successful extraction.
	KeepRaw bool
	// Skip removes stages from this invocation wholesale, by name,
	// independent of per-unit completion.
	Skip map[string]bool
}

// Orchestrator sequences the ordered stage list across the unit store,
// applying the idempotency gate and stage runner per unit and stage.
//
// Units are mutually independent and may be processed in any order; this
// implementation is sequential. Two concurrent invocations against the same
// tree are not supported: the marker paths are not lock-protected, so the
// caller must guarantee a single writer per unit (the CLI holds a tree-wide
// run lock for this).
type Orchestrator struct {
	store  *unitstore.Store
	runner StageRunner
	logger *slog.Logger
}

// New constructs an orchestrator.
func New(store *unitstore.Store, runner StageRunner, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{store: store, runner: runner, logger: logging.NewComponentLogger(logger, "pipeline")}
}

// Run walks every stage in declared order across all discovered units. Stage
// failures are isolated per unit; only a configuration error (unit discovery)
// aborts. State is recomputed from disk, never carried between invocations.
func (o *Orchestrator) Run(ctx context.Context, stages []stage.Stage, opts Options) (*Report, error) {
	units, err := o.store.Discover()
	if err != nil {
		return nil, err
	}

	report := NewReport(opts.RunID, opts.Force)
	report.Units = len(units)
	logger := o.logger
	if opts.RunID != "" {
		logger = logger.With(logging.String(logging.FieldRunID, opts.RunID))
	}
	logger.Info("pipeline started",
		logging.Int("units", len(units)),
		logging.Bool("force", opts.Force),
	)

	for _, st := range stages {
		if opts.Skip[st.Name()] {
			logger.Info("stage skipped by directive", logging.String(logging.FieldStage, st.Name()))
			continue
		}
		counts := &report.Stage(st.Name()).Counts
		for i := range units {
			o.runUnitStage(ctx, &units[i], st, opts, report, counts)
		}
	}

	report.Finished = time.Now().UTC()
	logger.Info("pipeline finished",
		logging.Int("failures", len(report.Failures)),
	)
	return report, nil
}

func previousStage(kind unitstore.StageKind) (unitstore.StageKind, bool) {
	switch kind {
	case unitstore.StagePose:
		return unitstore.StageExtract, true
	case unitstore.StageLabel:
		return unitstore.StagePose, true
	case unitstore.StageMeasure:
		return unitstore.StageLabel, true
	default:
		return 0, false
	}
}

func (o *Orchestrator) runUnitStage(ctx context.Context, unit *unitstore.Unit, st stage.Stage, opts Options, report *Report, counts *StageCounts) {
	logger := logging.WithContext(logging.WithStage(logging.WithUnit(ctx, unit.ID), st.Name()), o.logger)

	// A stage whose input stage has not completed cannot run; the unit
	// stays skipped until a later invocation supplies the missing markers.
	if prev, ok := previousStage(st.Kind); ok && !o.store.IsComplete(*unit, prev) {
		counts.Skipped++
		return
	}

	complete := o.store.IsComplete(*unit, st.Kind)
	if st.Kind == unitstore.StageExtract && unit.RawPath == "" {
		if !complete {
			// A derived-only directory with no frames left: nothing to
			// extract from, so the unit can never progress. Skip it
			// rather than failing it on every run.
			logger.Warn("unit has neither a raw video nor extracted frames; skipping")
			counts.Skipped++
			return
		}
		if opts.Force {
			// Nothing to re-extract from; the derived frames are all
			// that remain of this unit.
			logger.Warn("force requested but raw video is gone; keeping existing frames")
			counts.Skipped++
			return
		}
	}
	if complete && !opts.Force {
		counts.Skipped++
		return
	}

	result := o.runner.Run(ctx, *unit, st)
	if !result.OK() {
		report.RecordFailure(unit.ID, st.Name(), result)
		return
	}
	counts.Processed++

	if st.Kind == unitstore.StageExtract {
		deletion := maybeDeleteRaw(o.store, *unit, result, opts.KeepRaw)
		switch deletion.Outcome {
		case DeleteDone:
			counts.Deleted++
			unit.RawPath = ""
			logger.Info("raw video deleted")
		case DeleteFailed:
			counts.DeleteFailed++
			logger.Warn("raw video deletion failed", logging.String("reason", deletion.Reason))
		}
	}
}
