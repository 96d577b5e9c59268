package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"armangle/internal/runlog"
	"armangle/internal/unitstore"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		videosDir string
		history   int
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-unit pipeline state and recent run history",
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

			store := unitstore.New(cfg.Paths.VideosDir)
			units, err := store.Discover()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(units) == 0 {
				fmt.Fprintf(out, "No videos found in %s\n", cfg.Paths.VideosDir)
			} else {
				headers := []string{"Unit", "State", "Frames", "Raw video"}
				aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}
				rows := make([][]string, 0, len(units))
				for _, unit := range units {
					rows = append(rows, []string{
						unit.ID,
						string(store.State(unit)),
						strconv.Itoa(len(store.ReleaseFrames(unit))),
						yesNo(unit.RawPath != ""),
					})
				}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
			}

			if history > 0 {
				if err := renderHistory(cmd, cfg.Paths.LogDir, history); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&videosDir, "videos-dir", "", "Videos directory to inspect (overrides configuration)")
	cmd.Flags().IntVar(&history, "history", 0, "Also show the last N recorded runs")

	return cmd
}

func renderHistory(cmd *cobra.Command, logDir string, limit int) error {
	store, err := runlog.Open(logDir)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs.")
		return nil
	}

	headers := []string{"Run", "Started", "Duration", "Units", "Failures", "Forced"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortRunID(run.RunID),
			run.Started.Local().Format("2006-01-02 15:04:05"),
			run.Finished.Sub(run.Started).Truncate(time.Millisecond).String(),
			strconv.Itoa(run.Units),
			strconv.Itoa(run.Failures),
			yesNo(run.Forced),
		})
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	return nil
}

func shortRunID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
