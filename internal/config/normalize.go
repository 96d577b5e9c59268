package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeAnalysis()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.VideosDir, err = expandPath(c.Paths.VideosDir); err != nil {
		return fmt.Errorf("paths.videos_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = filepath.Join(c.Paths.VideosDir, "data_analysis")
	} else if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}

	if strings.TrimSpace(c.Paths.GroundTruthCSV) == "" {
		c.Paths.GroundTruthCSV = filepath.Join(c.Paths.VideosDir, "ground_truth.csv")
	} else if c.Paths.GroundTruthCSV, err = expandPath(c.Paths.GroundTruthCSV); err != nil {
		return fmt.Errorf("paths.ground_truth_csv: %w", err)
	}
	return nil
}

// SetVideosDir points the configuration at a different videos tree. Output
// and ground truth paths that were derived from the previous tree follow it;
// explicitly configured paths stay put.
func (c *Config) SetVideosDir(dir string) error {
	expanded, err := expandPath(dir)
	if err != nil {
		return fmt.Errorf("videos dir: %w", err)
	}
	if c.Paths.OutputDir == filepath.Join(c.Paths.VideosDir, "data_analysis") {
		c.Paths.OutputDir = filepath.Join(expanded, "data_analysis")
	}
	if c.Paths.GroundTruthCSV == filepath.Join(c.Paths.VideosDir, "ground_truth.csv") {
		c.Paths.GroundTruthCSV = filepath.Join(expanded, "ground_truth.csv")
	}
	c.Paths.VideosDir = expanded
	return nil
}

func (c *Config) normalizeTools() {
	for _, tool := range []*Tool{&c.Tools.Extract, &c.Tools.Pose, &c.Tools.Label, &c.Tools.Measure} {
		if tool.TimeoutSeconds <= 0 {
			tool.TimeoutSeconds = defaultToolTimeout
		}
		cleaned := make([]string, 0, len(tool.Command))
		for _, part := range tool.Command {
			if part = strings.TrimSpace(part); part != "" {
				cleaned = append(cleaned, part)
			}
		}
		tool.Command = cleaned
	}
}

func (c *Config) normalizeAnalysis() {
	if c.Analysis.TightThresholdDegrees == 0 {
		c.Analysis.TightThresholdDegrees = defaultTightThreshold
	}
	if c.Analysis.LooseThresholdDegrees == 0 {
		c.Analysis.LooseThresholdDegrees = defaultLooseThreshold
	}
	c.Analysis.PlotFormat = strings.ToLower(strings.TrimSpace(c.Analysis.PlotFormat))
	if c.Analysis.PlotFormat == "" {
		c.Analysis.PlotFormat = defaultPlotFormat
	}
	if c.Analysis.PlotBins <= 0 && c.Analysis.PlotBinWidth <= 0 {
		c.Analysis.PlotBins = defaultPlotBins
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
