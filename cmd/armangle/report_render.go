package main

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"armangle/internal/aggregate"
	"armangle/internal/pipeline"
)

func renderRunReport(out io.Writer, report *pipeline.Report) {
	if len(report.Stages) > 0 {
		headers := []string{"Stage", "Processed", "Skipped", "Failed", "Timed out", "Deleted"}
		aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}
		rows := make([][]string, 0, len(report.Stages))
		for _, sr := range report.Stages {
			c := sr.Counts
			rows = append(rows, []string{
				sr.Name,
				strconv.Itoa(c.Processed),
				strconv.Itoa(c.Skipped),
				strconv.Itoa(c.Failed),
				strconv.Itoa(c.TimedOut),
				strconv.Itoa(c.Deleted),
			})
		}
		fmt.Fprintln(out, renderTable(headers, rows, aligns))
	}

	fmt.Fprintf(out, "%d unit(s), %d failure(s), forced: %s\n", report.Units, len(report.Failures), yesNo(report.Forced))
	for _, failure := range report.Failures {
		fmt.Fprintf(out, "  %s: %s %s (%s)\n", failure.UnitID, failure.Stage, failure.Outcome, failure.Reason)
	}
}

func renderExportReport(out io.Writer, report *pipeline.ExportReport) {
	if report.Skipped {
		fmt.Fprintf(out, "Results already exported to %s (use --force to regenerate).\n", report.ResultsPath)
		return
	}

	fmt.Fprintf(out, "Results: %s\n", report.ResultsPath)
	fmt.Fprintf(out, "Summary: %s\n", report.SummaryPath)
	for _, path := range report.PlotPaths {
		fmt.Fprintf(out, "Histogram: %s\n", path)
	}
	if report.Stats.UnitsWithoutTruth > 0 {
		fmt.Fprintf(out, "%d unit(s) have no ground truth record and were excluded.\n", report.Stats.UnitsWithoutTruth)
	}
	if n := len(report.Stats.CorruptMarkers); n > 0 {
		fmt.Fprintf(out, "%d unparseable measurement marker(s) were skipped (see log for paths).\n", n)
	}

	if len(report.Summaries) > 0 {
		fmt.Fprintln(out, renderSummaryTable(report.Summaries))
	}
}

func renderSummaryTable(summaries []aggregate.Summary) string {
	headers := []string{"Metric"}
	aligns := []columnAlignment{alignLeft}
	for _, s := range summaries {
		headers = append(headers, string(s.Variant))
		aligns = append(aligns, alignRight)
	}

	metricRows := []struct {
		name  string
		value func(aggregate.Summary) string
	}{
		{"observations", func(s aggregate.Summary) string { return strconv.Itoa(s.Observations) }},
		{"units", func(s aggregate.Summary) string { return strconv.Itoa(s.Units) }},
		{"undetected frames", func(s aggregate.Summary) string { return strconv.Itoa(s.Missing) }},
		{"MAE per observation", func(s aggregate.Summary) string { return formatDegrees(s.ObservationMAE) }},
		{"MAE per unit average", func(s aggregate.Summary) string { return formatDegrees(s.UnitAverageMAE) }},
		{"stddev ground truth", func(s aggregate.Summary) string { return formatDegrees(s.StdDevGroundTruth) }},
		{"stddev prediction", func(s aggregate.Summary) string { return formatDegrees(s.StdDevPrediction) }},
		{"stddev abs error", func(s aggregate.Summary) string { return formatDegrees(s.StdDevAbsError) }},
		{"% above truth", func(s aggregate.Summary) string { return formatPercent(s.PctAbove) }},
		{"% below truth", func(s aggregate.Summary) string { return formatPercent(s.PctBelow) }},
		{"% within tight band", func(s aggregate.Summary) string { return formatPercent(s.PctWithinTight) }},
		{"% within loose band", func(s aggregate.Summary) string { return formatPercent(s.PctWithinLoose) }},
	}

	rows := make([][]string, 0, len(metricRows))
	for _, metric := range metricRows {
		row := []string{metric.name}
		for _, s := range summaries {
			row = append(row, metric.value(s))
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, aligns)
}

func formatDegrees(value float64) string {
	if math.IsNaN(value) {
		return "N/A"
	}
	return fmt.Sprintf("%.2f°", value)
}

func formatPercent(value float64) string {
	if math.IsNaN(value) {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", value)
}
