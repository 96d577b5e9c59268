package unitstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"armangle/internal/services"
)

// Variant identifies a measurement definition: which joint pair the arm angle
// was computed from.
type Variant string

const (
	VariantShoulderWrist Variant = "shoulder_wrist"
	VariantElbowWrist    Variant = "elbow_wrist"
)

// Variants lists the known measurement variants in report order.
var Variants = []Variant{VariantShoulderWrist, VariantElbowWrist}

// Observation is one per-frame measurement for one variant. Detected=false
// records that the measurement tool could not produce an angle for the frame
// and variant; such observations are tallied, never coerced to zero.
type Observation struct {
	UnitID   string
	Frame    string
	Variant  Variant
	Angle    float64
	Detected bool
}

type calcPayload struct {
	Frame           string        `json:"frame"`
	PitcherDetected *bool         `json:"pitcher_detected"`
	PitcherData     *calcAngle    `json:"pitcher_data"`
	Calculations    []calcAngle   `json:"calculations"`
}

type calcAngle struct {
	StartJoint      string   `json:"start_joint"`
	ArmAngleDegrees *float64 `json:"arm_angle_degrees"`
}

// Observations parses every measurement marker in the unit's
// pitcher_calculations tree. Enumeration is driven by the markers themselves
// so units whose raw video is long gone still aggregate.
//
// A non-empty marker that fails to parse is a per-frame defect, not a fatal
// one: the frame is skipped and its marker path returned in the second value
// so callers can tally and report it. One corrupt file must never deny
// aggregation for the healthy frames and units around it.
func (s *Store) Observations(unit Unit) ([]Observation, []string, error) {
	calcsDir := filepath.Join(unit.Dir, CalcsDirName)
	entries, err := os.ReadDir(calcsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, services.Wrap(services.ErrTransient, "measure", "read calculations", unit.ID, err)
	}

	var observations []Observation
	var corrupt []string
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "frame_") || !strings.HasSuffix(entry.Name(), calcSuffix) {
			continue
		}
		frame := strings.TrimSuffix(entry.Name(), calcSuffix)
		dataPath := filepath.Join(calcsDir, entry.Name(), dataFileName)
		raw, err := os.ReadFile(dataPath)
		if err != nil || len(raw) == 0 {
			// Missing or empty marker: the gate treats this stage as
			// incomplete, so aggregation skips the frame too.
			continue
		}

		var payload calcPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			corrupt = append(corrupt, dataPath)
			continue
		}
		observations = append(observations, payloadObservations(unit.ID, frame, payload)...)
	}

	sort.Slice(observations, func(i, j int) bool {
		if observations[i].Frame != observations[j].Frame {
			return observations[i].Frame < observations[j].Frame
		}
		return observations[i].Variant < observations[j].Variant
	})
	return observations, corrupt, nil
}

func payloadObservations(unitID, frame string, payload calcPayload) []Observation {
	if payload.PitcherDetected != nil && !*payload.PitcherDetected {
		out := make([]Observation, 0, len(Variants))
		for _, variant := range Variants {
			out = append(out, Observation{UnitID: unitID, Frame: frame, Variant: variant})
		}
		return out
	}

	angles := payload.Calculations
	if payload.PitcherData != nil {
		angles = append(angles, *payload.PitcherData)
	}

	var out []Observation
	for _, angle := range angles {
		variant, ok := variantForJoint(angle.StartJoint)
		if !ok {
			continue
		}
		obs := Observation{UnitID: unitID, Frame: frame, Variant: variant}
		if angle.ArmAngleDegrees != nil {
			obs.Angle = *angle.ArmAngleDegrees
			obs.Detected = true
		}
		out = append(out, obs)
	}
	return out
}

func variantForJoint(joint string) (Variant, bool) {
	switch strings.ToLower(strings.TrimSpace(joint)) {
	case "shoulder":
		return VariantShoulderWrist, true
	case "elbow":
		return VariantElbowWrist, true
	default:
		return "", false
	}
}
