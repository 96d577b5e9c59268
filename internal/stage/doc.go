// Package stage defines the pipeline's stage descriptors and execution
// outcomes. The ordered stage list comes from configuration; each stage is an
// external command whose on-disk output marker is the only proof of
// completion.
package stage
