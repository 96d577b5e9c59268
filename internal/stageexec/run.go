package stageexec

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"armangle/internal/logging"
	"armangle/internal/stage"
	"armangle/internal/unitstore"
)

// Runner executes one external stage against one unit, bounded by the stage
// timeout, and classifies the outcome. The external process exiting zero is
// necessary but not sufficient: the stage's output marker must verify
// afterwards or the run counts as failed.
type Runner struct {
	store  *unitstore.Store
	exec   Executor
	logger *slog.Logger
}

// Option configures the runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// NewRunner constructs a stage runner over the given unit store.
func NewRunner(store *unitstore.Store, logger *slog.Logger, opts ...Option) *Runner {
	runner := &Runner{store: store, exec: commandExecutor{}, logger: logging.NewComponentLogger(logger, "stagerunner")}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Run invokes the stage command as `<command...> <input> <output dir>` and
// returns the classified result. Partial output from a failed run is left in
// place for inspection; the idempotency gate's non-empty-marker predicate
// keeps it from counting as completion on the next invocation.
func (r *Runner) Run(ctx context.Context, unit unitstore.Unit, st stage.Stage) stage.Result {
	ctx = logging.WithStage(logging.WithUnit(ctx, unit.ID), st.Name())
	logger := logging.WithContext(ctx, r.logger)

	input := r.store.StageInputPath(unit, st.Kind)
	if input == "" {
		return stage.Result{Outcome: stage.OutcomeFailed, Reason: "raw video missing and stage output absent"}
	}
	outDir := r.store.StageOutputDir(unit, st.Kind)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return stage.Result{Outcome: stage.OutcomeFailed, Reason: "create output directory: " + err.Error()}
	}

	runCtx := ctx
	if st.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, st.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, st.Command[1:]...), input, outDir)
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("command", st.Command[0]),
		logging.Any("args", args),
	)

	start := time.Now()
	err := r.exec.Run(runCtx, st.Command[0], args, func(line string) {
		logger.Debug("tool output", logging.String("line", line))
	})
	elapsed := time.Since(start)

	if err != nil {
		result := stage.Result{Outcome: stage.OutcomeFailed, Reason: err.Error(), Duration: elapsed}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			result.Outcome = stage.OutcomeTimedOut
			result.Reason = "timed out after " + st.Timeout.String()
		}
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("outcome", result.Outcome.String()),
			logging.String("reason", result.Reason),
			logging.Duration("elapsed", elapsed),
		)
		return result
	}

	if !r.store.IsComplete(unit, st.Kind) {
		result := stage.Result{
			Outcome:  stage.OutcomeFailed,
			Reason:   "tool exited zero but output marker is missing or empty",
			Duration: elapsed,
		}
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("reason", result.Reason),
			logging.Duration("elapsed", elapsed),
		)
		return result
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", elapsed),
	)
	return stage.Result{Outcome: stage.OutcomeSuccess, Duration: elapsed}
}
