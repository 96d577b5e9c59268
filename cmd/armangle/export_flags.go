package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"armangle/internal/aggregate"
	"armangle/internal/config"
	"armangle/internal/pipeline"
	"armangle/internal/plot"
)

// exportFlags are the aggregation options shared by `run` and `results`.
type exportFlags struct {
	output     string
	plots      bool
	plotFormat string
	bins       int
	binWidth   float64
}

func (f *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Analysis output directory (default: <videos dir>/data_analysis)")
	cmd.Flags().BoolVar(&f.plots, "plot", false, "Render error histograms alongside the CSVs")
	cmd.Flags().StringVar(&f.plotFormat, "plot-format", "", "Histogram image format: png, svg, pdf, or jpg")
	cmd.Flags().IntVar(&f.bins, "bins", 0, "Histogram bin count")
	cmd.Flags().Float64Var(&f.binWidth, "bin-width", 0, "Histogram bin width in degrees (overrides --bins)")
}

func (f *exportFlags) options(cfg *config.Config, force bool) (pipeline.ExportOptions, error) {
	opts := pipeline.ExportOptions{
		Force:          force,
		OutputDir:      cfg.Paths.OutputDir,
		GroundTruthCSV: cfg.Paths.GroundTruthCSV,
		Thresholds: aggregate.Thresholds{
			Tight: cfg.Analysis.TightThresholdDegrees,
			Loose: cfg.Analysis.LooseThresholdDegrees,
		},
		Plots: f.plots,
		PlotOptions: plot.Options{
			Format:   cfg.Analysis.PlotFormat,
			Bins:     cfg.Analysis.PlotBins,
			BinWidth: cfg.Analysis.PlotBinWidth,
		},
	}
	if f.output != "" {
		opts.OutputDir = f.output
	}
	if f.plotFormat != "" {
		format := strings.ToLower(strings.TrimSpace(f.plotFormat))
		switch format {
		case "png", "svg", "pdf", "jpg":
			opts.PlotOptions.Format = format
		default:
			return pipeline.ExportOptions{}, fmt.Errorf("unsupported plot format %q (png, svg, pdf, jpg)", f.plotFormat)
		}
	}
	if f.bins > 0 {
		opts.PlotOptions.Bins = f.bins
	}
	if f.binWidth > 0 {
		opts.PlotOptions.BinWidth = f.binWidth
	}
	return opts, nil
}
