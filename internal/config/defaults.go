package config

const (
	defaultVideosDir      = "~/Desktop/baseball_vids"
	defaultLogDir         = "~/.local/share/armangle/logs"
	defaultToolTimeout    = 300
	defaultTightThreshold = 3.0
	defaultLooseThreshold = 8.0
	defaultPlotFormat     = "png"
	defaultPlotBins       = 20
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults. OutputDir and
// GroundTruthCSV default to locations inside VideosDir and are resolved during
// normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			VideosDir: defaultVideosDir,
			LogDir:    defaultLogDir,
		},
		Tools: Tools{
			Extract: Tool{Command: []string{"extract_release_frames"}, TimeoutSeconds: defaultToolTimeout},
			Pose:    Tool{Command: []string{"process_release_frames"}, TimeoutSeconds: defaultToolTimeout},
			Label:   Tool{Command: []string{"label_pitchers"}, TimeoutSeconds: defaultToolTimeout},
			Measure: Tool{Command: []string{"calculate_pitcher_angles"}, TimeoutSeconds: defaultToolTimeout},
		},
		Analysis: Analysis{
			TightThresholdDegrees: defaultTightThreshold,
			LooseThresholdDegrees: defaultLooseThreshold,
			PlotFormat:            defaultPlotFormat,
			PlotBins:              defaultPlotBins,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
