package unitstore

import (
	"path/filepath"

	"armangle/internal/fileutil"
)

// StageKind identifies the per-unit pipeline stages whose completion is
// inferred from on-disk markers.
type StageKind int

const (
	StageExtract StageKind = iota
	StagePose
	StageLabel
	StageMeasure
)

func (k StageKind) String() string {
	switch k {
	case StageExtract:
		return "extract"
	case StagePose:
		return "pose"
	case StageLabel:
		return "label"
	case StageMeasure:
		return "measure"
	default:
		return "unknown"
	}
}

// IsComplete reports whether a stage's output markers are durably present for
// the unit. Marker presence plus non-empty content is the sole proof of
// completion: a missing raw video never blocks a "complete" reading, and
// empty files or empty directories left by a crashed run read as incomplete.
func (s *Store) IsComplete(unit Unit, kind StageKind) bool {
	switch kind {
	case StageExtract:
		return len(s.ReleaseFrames(unit)) > 0
	case StagePose, StageLabel, StageMeasure:
		frames := s.ReleaseFrames(unit)
		if len(frames) == 0 {
			return false
		}
		for _, frame := range frames {
			if !fileutil.NonEmptyFile(s.MarkerPath(unit, kind, frame)) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MarkerPath returns the data.json marker for one frame of a per-frame stage.
// For StageExtract the marker is the frame file itself.
func (s *Store) MarkerPath(unit Unit, kind StageKind, frameName string) string {
	stem := FrameStem(frameName)
	switch kind {
	case StageExtract:
		return filepath.Join(unit.Dir, FramesDirName, frameName)
	case StagePose:
		return filepath.Join(unit.Dir, PosesDirName, stem+poseSuffix, dataFileName)
	case StageLabel:
		return filepath.Join(unit.Dir, LabelsDirName, stem+labelSuffix, dataFileName)
	case StageMeasure:
		return filepath.Join(unit.Dir, CalcsDirName, stem+calcSuffix, dataFileName)
	default:
		return ""
	}
}

// StageOutputDir returns the directory an external stage tool writes into for
// the unit.
func (s *Store) StageOutputDir(unit Unit, kind StageKind) string {
	switch kind {
	case StageExtract:
		return filepath.Join(unit.Dir, FramesDirName)
	case StagePose:
		return filepath.Join(unit.Dir, PosesDirName)
	case StageLabel:
		return filepath.Join(unit.Dir, LabelsDirName)
	case StageMeasure:
		return filepath.Join(unit.Dir, CalcsDirName)
	default:
		return unit.Dir
	}
}

// StageInputPath returns the input argument passed to the external tool for
// the unit: the raw video for extraction, the unit directory afterwards.
func (s *Store) StageInputPath(unit Unit, kind StageKind) string {
	if kind == StageExtract {
		return unit.RawPath
	}
	return unit.Dir
}
