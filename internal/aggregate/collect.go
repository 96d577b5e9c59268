package aggregate

import (
	"sort"

	"armangle/internal/groundtruth"
	"armangle/internal/unitstore"
)

// FrameRecord joins one frame's measurements to its unit's ground truth. A
// nil prediction means detection failed for that variant; such frames are
// excluded from that variant's result rows but still appear in the results
// export as "N/A" and in the missing tallies.
type FrameRecord struct {
	UnitID        string
	Frame         string
	GroundTruth   float64
	ShoulderWrist *float64
	ElbowWrist    *float64
}

// ResultRow is one (unit, frame, variant) sample: a detected prediction
// joined to ground truth. The row set is regenerated wholesale on every
// aggregation run, never patched incrementally.
type ResultRow struct {
	UnitID      string
	Frame       string
	Variant     unitstore.Variant
	Prediction  float64
	GroundTruth float64
}

// CollectStats tallies what the join excluded.
type CollectStats struct {
	UnitsMatched      int
	UnitsWithoutTruth int
	MissingByVariant  map[unitstore.Variant]int
	// CorruptMarkers lists non-empty measurement markers that failed to
	// parse. Their frames are excluded from aggregation but the rest of
	// the unit still contributes.
	CorruptMarkers []string
}

// Collect scans every unit's terminal measurement markers and joins them to
// ground truth, producing one FrameRecord per measured frame. Units without a
// ground truth record are skipped and counted, not errors.
func Collect(store *unitstore.Store, units []unitstore.Unit, truth groundtruth.Table) ([]FrameRecord, CollectStats, error) {
	stats := CollectStats{MissingByVariant: make(map[unitstore.Variant]int)}
	var frames []FrameRecord

	for _, unit := range units {
		record, ok := truth[unit.ID]
		if !ok {
			stats.UnitsWithoutTruth++
			continue
		}

		observations, corrupt, err := store.Observations(unit)
		if err != nil {
			return nil, CollectStats{}, err
		}
		stats.CorruptMarkers = append(stats.CorruptMarkers, corrupt...)
		if len(observations) == 0 {
			continue
		}
		stats.UnitsMatched++

		byFrame := make(map[string]*FrameRecord)
		order := make([]string, 0)
		for _, obs := range observations {
			entry := byFrame[obs.Frame]
			if entry == nil {
				entry = &FrameRecord{UnitID: unit.ID, Frame: obs.Frame, GroundTruth: record.ArmAngle}
				byFrame[obs.Frame] = entry
				order = append(order, obs.Frame)
			}
			if !obs.Detected {
				stats.MissingByVariant[obs.Variant]++
				continue
			}
			angle := obs.Angle
			switch obs.Variant {
			case unitstore.VariantShoulderWrist:
				entry.ShoulderWrist = &angle
			case unitstore.VariantElbowWrist:
				entry.ElbowWrist = &angle
			}
		}
		sort.Strings(order)
		for _, frame := range order {
			frames = append(frames, *byFrame[frame])
		}
	}

	sort.Slice(frames, func(i, j int) bool {
		if frames[i].UnitID != frames[j].UnitID {
			return frames[i].UnitID < frames[j].UnitID
		}
		return frames[i].Frame < frames[j].Frame
	})
	return frames, stats, nil
}

// Rows expands frame records into per-observation result rows, one per
// detected (unit, frame, variant) triple.
func Rows(frames []FrameRecord) []ResultRow {
	rows := make([]ResultRow, 0, len(frames)*2)
	for _, frame := range frames {
		if frame.ShoulderWrist != nil {
			rows = append(rows, ResultRow{
				UnitID:      frame.UnitID,
				Frame:       frame.Frame,
				Variant:     unitstore.VariantShoulderWrist,
				Prediction:  *frame.ShoulderWrist,
				GroundTruth: frame.GroundTruth,
			})
		}
		if frame.ElbowWrist != nil {
			rows = append(rows, ResultRow{
				UnitID:      frame.UnitID,
				Frame:       frame.Frame,
				Variant:     unitstore.VariantElbowWrist,
				Prediction:  *frame.ElbowWrist,
				GroundTruth: frame.GroundTruth,
			})
		}
	}
	return rows
}

// FilterVariant returns the rows belonging to one measurement variant.
func FilterVariant(rows []ResultRow, variant unitstore.Variant) []ResultRow {
	out := make([]ResultRow, 0, len(rows))
	for _, row := range rows {
		if row.Variant == variant {
			out = append(out, row)
		}
	}
	return out
}
