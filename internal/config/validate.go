package config

import (
	"errors"
	"fmt"
)

var validPlotFormats = map[string]bool{
	"png": true,
	"svg": true,
	"pdf": true,
	"jpg": true,
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.VideosDir == "" {
		return errors.New("paths.videos_dir must be set")
	}
	return nil
}

func (c *Config) validateTools() error {
	named := []struct {
		name string
		tool Tool
	}{
		{"extract", c.Tools.Extract},
		{"pose", c.Tools.Pose},
		{"label", c.Tools.Label},
		{"measure", c.Tools.Measure},
	}
	for _, entry := range named {
		if len(entry.tool.Command) == 0 {
			return fmt.Errorf("tools.%s.command must not be empty", entry.name)
		}
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.TightThresholdDegrees <= 0 {
		return errors.New("analysis.tight_threshold_degrees must be positive")
	}
	if c.Analysis.LooseThresholdDegrees < c.Analysis.TightThresholdDegrees {
		return errors.New("analysis.loose_threshold_degrees must not be below the tight threshold")
	}
	if !validPlotFormats[c.Analysis.PlotFormat] {
		return fmt.Errorf("analysis.plot_format must be one of png, svg, pdf, jpg (got %q)", c.Analysis.PlotFormat)
	}
	if c.Analysis.PlotBinWidth < 0 {
		return errors.New("analysis.plot_bin_width must not be negative")
	}
	if c.Analysis.PlotBinWidth == 0 && c.Analysis.PlotBins <= 0 {
		return errors.New("analysis.plot_bins must be positive when no bin width is set")
	}
	return nil
}
