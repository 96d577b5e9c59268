package testsupport

import (
	"path/filepath"
	"testing"

	"armangle/internal/config"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.VideosDir = filepath.Join(base, "baseball_vids")
	cfg.Paths.OutputDir = filepath.Join(base, "baseball_vids", "data_analysis")
	cfg.Paths.GroundTruthCSV = filepath.Join(base, "baseball_vids", "ground_truth.csv")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}
