package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"armangle/internal/logging"
	"armangle/internal/pipeline"
	"armangle/internal/runlock"
	"armangle/internal/runlog"
	"armangle/internal/stage"
	"armangle/internal/stageexec"
	"armangle/internal/unitstore"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		videosDir   string
		force       bool
		keepVideos  bool
		assumeYes   bool
		skipExtract bool
		skipPose    bool
		skipLabel   bool
		skipMeasure bool
		skipExport  bool
		exports     exportFlags
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every video through the pipeline and export statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if videosDir != "" {
				if err := cfg.SetVideosDir(videosDir); err != nil {
					return err
				}
			}
			exportOpts, err := exports.options(cfg, force)
			if err != nil {
				return err
			}

			logger, err := cmdCtx.newLogger()
			if err != nil {
				return err
			}

			keep := keepVideos
			if !keep && !assumeYes {
				if !confirmDeletion(cmd.OutOrStdout(), cmd.InOrStdin(), stdinIsTerminal()) {
					fmt.Fprintln(cmd.OutOrStdout(), "Keeping raw videos (pass --yes to delete without asking).")
					keep = true
				}
			}

			lock := runlock.New(cfg.Paths.VideosDir)
			if err := lock.Acquire(); err != nil {
				return err
			}
			defer lock.Release()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store := unitstore.New(cfg.Paths.VideosDir)
			runner := stageexec.NewRunner(store, logger)
			orch := pipeline.New(store, runner, logger)

			opts := pipeline.Options{
				RunID:   uuid.NewString(),
				Force:   force,
				KeepRaw: keep,
				Skip:    make(map[string]bool),
			}
			if skipExtract {
				opts.Skip[unitstore.StageExtract.String()] = true
			}
			if skipPose {
				opts.Skip[unitstore.StagePose.String()] = true
			}
			if skipLabel {
				opts.Skip[unitstore.StageLabel.String()] = true
			}
			if skipMeasure {
				opts.Skip[unitstore.StageMeasure.String()] = true
			}

			report, err := orch.Run(ctx, stage.FromConfig(cfg), opts)
			if err != nil {
				return err
			}

			var exportReport *pipeline.ExportReport
			if !skipExport {
				exporter := pipeline.NewExporter(store, logger)
				exportReport, err = exporter.Run(ctx, exportOpts)
				if err != nil {
					return err
				}
			}

			recordRun(cfg.Paths.LogDir, report, logger)

			out := cmd.OutOrStdout()
			renderRunReport(out, report)
			if exportReport != nil {
				renderExportReport(out, exportReport)
			}

			if report.TotalStageFailure() {
				return fmt.Errorf("a pipeline stage failed for every unit it attempted")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&videosDir, "videos-dir", "", "Videos directory to process (overrides configuration)")
	cmd.Flags().BoolVar(&force, "force", false, "Reprocess units even when their outputs already exist")
	cmd.Flags().BoolVar(&keepVideos, "keep-videos", false, "Never delete raw videos after extraction")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the raw-video deletion prompt")
	cmd.Flags().BoolVar(&skipExtract, "skip-extract", false, "Skip the frame extraction stage")
	cmd.Flags().BoolVar(&skipPose, "skip-pose", false, "Skip the pose detection stage")
	cmd.Flags().BoolVar(&skipLabel, "skip-label", false, "Skip the pitcher labeling stage")
	cmd.Flags().BoolVar(&skipMeasure, "skip-measure", false, "Skip the angle measurement stage")
	cmd.Flags().BoolVar(&skipExport, "skip-export", false, "Skip the statistics export stage")
	exports.register(cmd)

	return cmd
}

// recordRun appends the invocation to the audit log. History is best-effort:
// a broken log database must not fail a run whose real outputs are on disk.
func recordRun(logDir string, report *pipeline.Report, logger *slog.Logger) {
	store, err := runlog.Open(logDir)
	if err != nil {
		logger.Warn("run history unavailable", logging.Error(err))
		return
	}
	defer store.Close()
	if err := store.RecordRun(context.Background(), report); err != nil {
		logger.Warn("run history write failed", logging.Error(err))
	}
}
