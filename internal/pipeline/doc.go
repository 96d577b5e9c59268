// Package pipeline sequences the per-unit stages and the global export
// stage over the unit store.
//
// The orchestrator holds no state of its own between invocations: which
// units need which stages is recomputed from on-disk markers every run, so
// an interrupted invocation resumes by simply being run again. Per-unit
// failures are isolated and tallied; only discovery errors abort a run.
package pipeline
