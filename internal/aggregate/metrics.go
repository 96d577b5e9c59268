package aggregate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"armangle/internal/unitstore"
)

// Thresholds are the accuracy bands for the percentage metrics, in degrees.
type Thresholds struct {
	Tight float64
	Loose float64
}

// Summary is the computed metric set for one measurement variant. Metrics
// that are undefined for the sample (no rows, or fewer than two for a
// standard deviation) hold NaN; exports render those as "N/A".
//
// Standard deviations use the sample formula (N−1 divisor) throughout.
type Summary struct {
	Variant      unitstore.Variant
	Observations int
	Units        int
	Missing      int

	ObservationMAE float64
	UnitAverageMAE float64

	StdDevGroundTruth           float64
	StdDevPrediction            float64
	StdDevUnitAveragePrediction float64
	StdDevAbsError              float64

	PctAbove       float64
	PctBelow       float64
	PctWithinTight float64
	PctWithinLoose float64
}

// ObservationMAE treats every result row as an independent sample: the mean
// of |prediction − ground truth| over all rows. NaN when rows is empty.
func ObservationMAE(rows []ResultRow) float64 {
	if len(rows) == 0 {
		return math.NaN()
	}
	return stat.Mean(absErrors(rows), nil)
}

// UnitAverageMAE first averages each unit's predictions into a single value,
// then takes the mean of |unit average − ground truth| across units: one
// sample per unit, not per frame. NaN when rows is empty.
func UnitAverageMAE(rows []ResultRow) float64 {
	errors := unitAverageErrors(rows)
	if len(errors) == 0 {
		return math.NaN()
	}
	return stat.Mean(errors, nil)
}

// Summarize computes the full metric set per variant over the result rows.
// A variant with zero qualifying rows yields a sentinel entry (NaN metrics,
// zero counts) rather than an error.
func Summarize(rows []ResultRow, stats CollectStats, thresholds Thresholds) []Summary {
	summaries := make([]Summary, 0, len(unitstore.Variants))
	for _, variant := range unitstore.Variants {
		summaries = append(summaries, summarizeVariant(FilterVariant(rows, variant), variant, stats.MissingByVariant[variant], thresholds))
	}
	return summaries
}

func summarizeVariant(rows []ResultRow, variant unitstore.Variant, missing int, thresholds Thresholds) Summary {
	summary := Summary{
		Variant:      variant,
		Observations: len(rows),
		Missing:      missing,

		ObservationMAE: ObservationMAE(rows),
		UnitAverageMAE: UnitAverageMAE(rows),

		StdDevGroundTruth:           sampleStdDev(groundTruths(rows)),
		StdDevPrediction:            sampleStdDev(predictions(rows)),
		StdDevUnitAveragePrediction: sampleStdDev(unitAveragePredictions(rows)),
		StdDevAbsError:              sampleStdDev(absErrors(rows)),
	}
	summary.Units = len(unitAverageErrors(rows))

	if len(rows) == 0 {
		summary.PctAbove = math.NaN()
		summary.PctBelow = math.NaN()
		summary.PctWithinTight = math.NaN()
		summary.PctWithinLoose = math.NaN()
		return summary
	}

	var above, below, tight, loose int
	for _, row := range rows {
		// A prediction exactly equal to ground truth counts toward
		// neither above nor below.
		switch {
		case row.Prediction > row.GroundTruth:
			above++
		case row.Prediction < row.GroundTruth:
			below++
		}
		err := math.Abs(row.Prediction - row.GroundTruth)
		if err <= thresholds.Tight {
			tight++
		}
		if err <= thresholds.Loose {
			loose++
		}
	}
	total := float64(len(rows))
	summary.PctAbove = 100 * float64(above) / total
	summary.PctBelow = 100 * float64(below) / total
	summary.PctWithinTight = 100 * float64(tight) / total
	summary.PctWithinLoose = 100 * float64(loose) / total
	return summary
}

func absErrors(rows []ResultRow) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		out = append(out, math.Abs(row.Prediction-row.GroundTruth))
	}
	return out
}

func predictions(rows []ResultRow) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Prediction)
	}
	return out
}

func groundTruths(rows []ResultRow) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.GroundTruth)
	}
	return out
}

type unitAccumulator struct {
	sum         float64
	count       int
	groundTruth float64
}

func byUnit(rows []ResultRow) ([]string, map[string]*unitAccumulator) {
	units := make(map[string]*unitAccumulator)
	ids := make([]string, 0)
	for _, row := range rows {
		acc := units[row.UnitID]
		if acc == nil {
			acc = &unitAccumulator{groundTruth: row.GroundTruth}
			units[row.UnitID] = acc
			ids = append(ids, row.UnitID)
		}
		acc.sum += row.Prediction
		acc.count++
	}
	sort.Strings(ids)
	return ids, units
}

func unitAveragePredictions(rows []ResultRow) []float64 {
	ids, units := byUnit(rows)
	out := make([]float64, 0, len(ids))
	for _, id := range ids {
		acc := units[id]
		out = append(out, acc.sum/float64(acc.count))
	}
	return out
}

func unitAverageErrors(rows []ResultRow) []float64 {
	ids, units := byUnit(rows)
	out := make([]float64, 0, len(ids))
	for _, id := range ids {
		acc := units[id]
		out = append(out, math.Abs(acc.sum/float64(acc.count)-acc.groundTruth))
	}
	return out
}

func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return stat.StdDev(values, nil)
}
