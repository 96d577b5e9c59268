package main

import (
	"github.com/spf13/cobra"

	"armangle/internal/pipeline"
	"armangle/internal/unitstore"
)

func newResultsCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		videosDir string
		force     bool
		exports   exportFlags
	)

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Regenerate the results and summary CSVs from existing measurements",
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
			opts, err := exports.options(cfg, force)
			if err != nil {
				return err
			}
			logger, err := cmdCtx.newLogger()
			if err != nil {
				return err
			}

			exporter := pipeline.NewExporter(unitstore.New(cfg.Paths.VideosDir), logger)
			report, err := exporter.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			renderExportReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVar(&videosDir, "videos-dir", "", "Videos directory to aggregate (overrides configuration)")
	cmd.Flags().BoolVar(&force, "force", false, "Regenerate even when a results CSV already exists")
	exports.register(cmd)

	return cmd
}
