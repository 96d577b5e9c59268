package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"armangle/internal/aggregate"
	"armangle/internal/fileutil"
	"armangle/internal/groundtruth"
	"armangle/internal/logging"
	"armangle/internal/plot"
	"armangle/internal/services"
	"armangle/internal/unitstore"
)

// Export artifact names under the output directory.
const (
	ResultsFileName = "results.csv"
	SummaryFileName = "summary_statistics.csv"
)

// ExportOptions parameterizes the terminal aggregation stage.
type ExportOptions struct {
	Force          bool
	OutputDir      string
	GroundTruthCSV string
	Thresholds     aggregate.Thresholds
	Plots          bool
	PlotOptions    plot.Options
}

// ExportReport summarizes what the export stage produced.
type ExportReport struct {
	Skipped     bool
	ResultsPath string
	SummaryPath string
	PlotPaths   []string

	Frames    int
	Rows      int
	Stats     aggregate.CollectStats
	Summaries []aggregate.Summary
}

// Exporter runs the global aggregation stage: join measurements to ground
// truth, write the results and summary CSVs, and optionally render error
// histograms. Unlike the per-unit stages its completion marker is the results
// CSV itself: non-empty means done.
type Exporter struct {
	store  *unitstore.Store
	logger *slog.Logger
}

// NewExporter constructs an exporter over the unit store.
func NewExporter(store *unitstore.Store, logger *slog.Logger) *Exporter {
	return &Exporter{store: store, logger: logging.NewComponentLogger(logger, "export")}
}

func (e *Exporter) Run(ctx context.Context, opts ExportOptions) (*ExportReport, error) {
	logger := logging.WithContext(logging.WithStage(ctx, "export"), e.logger)

	report := &ExportReport{
		ResultsPath: filepath.Join(opts.OutputDir, ResultsFileName),
		SummaryPath: filepath.Join(opts.OutputDir, SummaryFileName),
	}
	if !opts.Force && fileutil.NonEmptyFile(report.ResultsPath) {
		logger.Info("export already complete", logging.String("results", report.ResultsPath))
		report.Skipped = true
		return report, nil
	}

	truth, err := groundtruth.Load(opts.GroundTruthCSV)
	if err != nil {
		return nil, err
	}
	units, err := e.store.Discover()
	if err != nil {
		return nil, err
	}

	frames, stats, err := aggregate.Collect(e.store, units, truth)
	if err != nil {
		return nil, err
	}
	for _, marker := range stats.CorruptMarkers {
		logger.Warn("skipping unparseable measurement marker", logging.String("path", marker))
	}
	rows := aggregate.Rows(frames)
	report.Frames = len(frames)
	report.Rows = len(rows)
	report.Stats = stats
	report.Summaries = aggregate.Summarize(rows, stats, opts.Thresholds)
	for _, summary := range report.Summaries {
		logger.Info("variant summarized",
			logging.String("variant", string(summary.Variant)),
			logging.Int("observations", summary.Observations),
			logging.Float64("observation_mae", summary.ObservationMAE),
			logging.Float64("unit_average_mae", summary.UnitAverageMAE),
		)
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "export", "create output directory", opts.OutputDir, err)
	}
	if err := aggregate.WriteResultsCSV(report.ResultsPath, frames); err != nil {
		return nil, err
	}
	if err := aggregate.WriteSummaryCSV(report.SummaryPath, report.Summaries); err != nil {
		return nil, err
	}
	logger.Info("results written",
		logging.Int("frames", len(frames)),
		logging.Int("rows", len(rows)),
		logging.Int("units_without_truth", stats.UnitsWithoutTruth),
	)

	if opts.Plots {
		report.PlotPaths = e.renderPlots(logger, rows, opts)
	}
	return report, nil
}

// renderPlots draws one error histogram per variant. A variant with no
// qualifying observations is skipped with a warning rather than failing the
// whole export.
func (e *Exporter) renderPlots(logger *slog.Logger, rows []aggregate.ResultRow, opts ExportOptions) []string {
	var paths []string
	for _, variant := range unitstore.Variants {
		name := fmt.Sprintf("error_histogram_%s.%s", variant, opts.PlotOptions.Format)
		path := filepath.Join(opts.OutputDir, name)
		errs := absErrorsForVariant(rows, variant)
		if err := plot.ErrorHistogram(path, string(variant), errs, opts.PlotOptions); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				logger.Warn("histogram skipped", logging.String("variant", string(variant)))
				continue
			}
			logger.Error("histogram rendering failed",
				logging.String("variant", string(variant)), logging.Error(err))
			continue
		}
		paths = append(paths, path)
		logger.Info("histogram written", logging.String("path", path))
	}
	return paths
}

func absErrorsForVariant(rows []aggregate.ResultRow, variant unitstore.Variant) []float64 {
	var out []float64
	for _, row := range rows {
		if row.Variant != variant {
			continue
		}
		diff := row.Prediction - row.GroundTruth
		if diff < 0 {
			diff = -diff
		}
		out = append(out, diff)
	}
	return out
}
