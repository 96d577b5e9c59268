package stage

import (
	"time"

	"armangle/internal/config"
	"armangle/internal/unitstore"
)

// Stage binds a pipeline position to the external command that implements it.
type Stage struct {
	Kind    unitstore.StageKind
	Command []string
	Timeout time.Duration
}

// Name returns the stage's canonical name.
func (s Stage) Name() string {
	return s.Kind.String()
}

// FromConfig builds the ordered per-unit stage list from configuration.
func FromConfig(cfg *config.Config) []Stage {
	build := func(kind unitstore.StageKind, tool config.Tool) Stage {
		return Stage{
			Kind:    kind,
			Command: tool.Command,
			Timeout: time.Duration(tool.TimeoutSeconds) * time.Second,
		}
	}
	return []Stage{
		build(unitstore.StageExtract, cfg.Tools.Extract),
		build(unitstore.StagePose, cfg.Tools.Pose),
		build(unitstore.StageLabel, cfg.Tools.Label),
		build(unitstore.StageMeasure, cfg.Tools.Measure),
	}
}
