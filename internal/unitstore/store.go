package unitstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"armangle/internal/services"
)

// Well-known sub-paths inside a unit directory. These names are shared with
// the external stage tools and form the on-disk contract.
const (
	FramesDirName = "release_frames"
	PosesDirName  = "poses"
	LabelsDirName = "pitcher_labels"
	CalcsDirName  = "pitcher_calculations"

	poseSuffix  = "_poses"
	labelSuffix = "_pitcher"
	calcSuffix  = "_angle"

	dataFileName = "data.json"
)

var videoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".avi": true,
	".mkv": true,
}

// Unit is one raw pitch video and its derived directory tree. RawPath is empty
// when the raw artifact was already deleted by a prior successful run.
type Unit struct {
	ID      string
	Dir     string
	RawPath string
}

// Store reads and interprets the videos directory. It holds no unit state in
// memory between calls; completion is always recomputed from disk.
type Store struct {
	root string
}

// New creates a Store rooted at the videos directory.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the videos directory the store scans.
func (s *Store) Root() string {
	return s.root
}

// Discover enumerates units: every raw video in the root plus every unit
// directory whose raw video is already gone. Two raw videos mapping to the
// same unit ID is a fatal configuration error since their derived trees would
// collide.
func (s *Store) Discover() ([]Unit, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "scan videos directory", s.root, err)
	}

	units := make(map[string]*Unit)
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if entry.IsDir() {
			framesDir := filepath.Join(s.root, name, FramesDirName)
			if info, err := os.Stat(framesDir); err == nil && info.IsDir() {
				unit := units[name]
				if unit == nil {
					units[name] = &Unit{ID: name, Dir: filepath.Join(s.root, name)}
				}
			}
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if !videoExtensions[ext] {
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		if existing, ok := units[id]; ok && existing.RawPath != "" {
			return nil, services.Wrap(services.ErrConfiguration, "", "discover units",
				fmt.Sprintf("videos %s and %s both map to unit %q", filepath.Base(existing.RawPath), name, id), nil)
		}
		if existing, ok := units[id]; ok {
			existing.RawPath = filepath.Join(s.root, name)
		} else {
			units[id] = &Unit{ID: id, Dir: filepath.Join(s.root, id), RawPath: filepath.Join(s.root, name)}
		}
	}

	out := make([]Unit, 0, len(units))
	for _, unit := range units {
		out = append(out, *unit)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FramesDir returns the release-frames directory for a unit.
func (s *Store) FramesDir(unit Unit) string {
	return filepath.Join(unit.Dir, FramesDirName)
}

// ReleaseFrames lists the frame file names (sorted) in a unit's
// release_frames directory. Empty frame files are excluded; a crashed
// extraction must not contribute frames.
func (s *Store) ReleaseFrames(unit Unit) []string {
	entries, err := os.ReadDir(s.FramesDir(unit))
	if err != nil {
		return nil
	}
	frames := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "frame_") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".jpg" && ext != ".png" {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		frames = append(frames, name)
	}
	sort.Strings(frames)
	return frames
}

// FrameStem strips the image extension from a frame file name.
func FrameStem(frameName string) string {
	return strings.TrimSuffix(frameName, filepath.Ext(frameName))
}
