package aggregate

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"

	"armangle/internal/fileutil"
	"armangle/internal/services"
)

// NotAvailable is the marker written for absent predictions and undefined
// metrics. Absent values are never encoded as numeric zero.
const NotAvailable = "N/A"

// WriteResultsCSV publishes the per-frame result table atomically. Columns:
// video_id, frame_name, pitcher_angle_shoulder_wrist,
// pitcher_angle_elbow_wrist, ground_truth_angle.
func WriteResultsCSV(path string, frames []FrameRecord) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"video_id", "frame_name", "pitcher_angle_shoulder_wrist", "pitcher_angle_elbow_wrist", "ground_truth_angle"}
	if err := writer.Write(header); err != nil {
		return services.Wrap(services.ErrTransient, "export", "write results header", "", err)
	}
	for _, frame := range frames {
		row := []string{
			frame.UnitID,
			frame.Frame,
			formatOptional(frame.ShoulderWrist),
			formatOptional(frame.ElbowWrist),
			formatFloat(frame.GroundTruth),
		}
		if err := writer.Write(row); err != nil {
			return services.Wrap(services.ErrTransient, "export", "write results row", frame.UnitID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return services.Wrap(services.ErrTransient, "export", "flush results", "", err)
	}

	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "export", "publish results", path, err)
	}
	return nil
}

// WriteSummaryCSV publishes one metric row per measurement variant atomically.
func WriteSummaryCSV(path string, summaries []Summary) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{
		"variant", "observations", "units", "missing_frames",
		"mae_per_observation", "mae_per_unit_average",
		"stddev_ground_truth", "stddev_prediction", "stddev_unit_average_prediction", "stddev_abs_error",
		"pct_above_ground_truth", "pct_below_ground_truth", "pct_within_tight", "pct_within_loose",
	}
	if err := writer.Write(header); err != nil {
		return services.Wrap(services.ErrTransient, "export", "write summary header", "", err)
	}
	for _, summary := range summaries {
		row := []string{
			string(summary.Variant),
			strconv.Itoa(summary.Observations),
			strconv.Itoa(summary.Units),
			strconv.Itoa(summary.Missing),
			formatMetric(summary.ObservationMAE),
			formatMetric(summary.UnitAverageMAE),
			formatMetric(summary.StdDevGroundTruth),
			formatMetric(summary.StdDevPrediction),
			formatMetric(summary.StdDevUnitAveragePrediction),
			formatMetric(summary.StdDevAbsError),
			formatMetric(summary.PctAbove),
			formatMetric(summary.PctBelow),
			formatMetric(summary.PctWithinTight),
			formatMetric(summary.PctWithinLoose),
		}
		if err := writer.Write(row); err != nil {
			return services.Wrap(services.ErrTransient, "export", "write summary row", string(summary.Variant), err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return services.Wrap(services.ErrTransient, "export", "flush summary", "", err)
	}

	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "export", "publish summary", path, err)
	}
	return nil
}

func formatOptional(value *float64) string {
	if value == nil {
		return NotAvailable
	}
	return formatFloat(*value)
}

func formatMetric(value float64) string {
	if math.IsNaN(value) {
		return NotAvailable
	}
	return formatFloat(value)
}

func formatFloat(value float64) string {
	return fmt.Sprintf("%.3f", value)
}
