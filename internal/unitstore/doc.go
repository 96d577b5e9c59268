// Package unitstore reads and interprets the videos directory that is the
// pipeline's sole source of truth.
//
// A unit is one raw pitch video plus its derived directory tree
// (release_frames, poses, pitcher_labels, pitcher_calculations). There is no
// manifest or database: stage completion is inferred on every call from the
// presence and non-empty content of well-known marker files, which makes
// repeated invocations idempotent and crashed runs safely resumable. An empty
// marker left by an interrupted tool reads as incomplete and the stage is
// simply rerun.
//
// The store also parses the terminal measurement markers into Observations
// for the aggregator.
package unitstore
