package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path (and parents) with the given content.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteRawVideo drops a placeholder raw video into the videos directory and
// returns its path.
func WriteRawVideo(t testing.TB, videosDir, unitID string) string {
	t.Helper()
	path := filepath.Join(videosDir, unitID+".mp4")
	WriteFile(t, path, []byte("raw video bytes"))
	return path
}

// WriteFrames populates a unit's release_frames directory with count non-empty
// frame files named frame_0001.jpg onward, returning the frame file names.
func WriteFrames(t testing.TB, videosDir, unitID string, count int) []string {
	t.Helper()
	frames := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		name := fmt.Sprintf("frame_%04d.jpg", i)
		WriteFile(t, filepath.Join(videosDir, unitID, "release_frames", name), []byte("jpeg"))
		frames = append(frames, name)
	}
	return frames
}

// WritePoseMarker writes a minimal pose marker for the frame stem.
func WritePoseMarker(t testing.TB, videosDir, unitID, stem string) {
	t.Helper()
	path := filepath.Join(videosDir, unitID, "poses", stem+"_poses", "data.json")
	WriteFile(t, path, []byte(`{"persons":[{"person_id":0}]}`))
}

// WriteLabelMarker writes a pitcher label marker for the frame stem.
func WriteLabelMarker(t testing.TB, videosDir, unitID, stem string, detected bool) {
	t.Helper()
	path := filepath.Join(videosDir, unitID, "pitcher_labels", stem+"_pitcher", "data.json")
	WriteFile(t, path, []byte(fmt.Sprintf(`{"frame":%q,"pitcher_detected":%v}`, stem+".jpg", detected)))
}

// Angles describes the measurements recorded for one frame. Nil values mark
// the variant as not measured.
type Angles struct {
	ShoulderWrist *float64
	ElbowWrist    *float64
}

// WriteCalcMarker writes a measurement marker for the frame stem containing
// the provided angle calculations.
func WriteCalcMarker(t testing.TB, videosDir, unitID, stem string, angles Angles) {
	t.Helper()

	type calc struct {
		StartJoint      string   `json:"start_joint"`
		ArmAngleDegrees *float64 `json:"arm_angle_degrees"`
	}
	payload := struct {
		Frame        string `json:"frame"`
		Calculations []calc `json:"calculations"`
	}{Frame: stem + ".jpg"}

	payload.Calculations = append(payload.Calculations, calc{StartJoint: "shoulder", ArmAngleDegrees: angles.ShoulderWrist})
	payload.Calculations = append(payload.Calculations, calc{StartJoint: "elbow", ArmAngleDegrees: angles.ElbowWrist})

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal calc marker: %v", err)
	}
	path := filepath.Join(videosDir, unitID, "pitcher_calculations", stem+"_angle", "data.json")
	WriteFile(t, path, data)
}

// Angle is a convenience for pointer-valued angle literals.
func Angle(v float64) *float64 {
	return &v
}

// MeasuredUnit builds a fully measured unit: raw video, frames, and all stage
// markers, with every frame measuring the same two angles.
func MeasuredUnit(t testing.TB, videosDir, unitID string, frameCount int, shoulder, elbow float64) {
	t.Helper()
	WriteRawVideo(t, videosDir, unitID)
	frames := WriteFrames(t, videosDir, unitID, frameCount)
	for _, frame := range frames {
		stem := frame[:len(frame)-len(filepath.Ext(frame))]
		WritePoseMarker(t, videosDir, unitID, stem)
		WriteLabelMarker(t, videosDir, unitID, stem, true)
		WriteCalcMarker(t, videosDir, unitID, stem, Angles{ShoulderWrist: Angle(shoulder), ElbowWrist: Angle(elbow)})
	}
}

// WriteGroundTruth writes a ground truth CSV mapping unit IDs to angles.
func WriteGroundTruth(t testing.TB, path string, rows map[string]float64) {
	t.Helper()
	content := "PitchId,FileName,PitcherHand,ArmAngle\n"
	for id, angle := range rows {
		content += fmt.Sprintf("%s,%s.mp4,R,%g\n", id, id, angle)
	}
	WriteFile(t, path, []byte(content))
}
