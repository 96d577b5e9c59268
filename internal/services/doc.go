// Package services defines shared utilities consumed by the pipeline stages
// and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp unit IDs, stage names, and run correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the outcomes the orchestrator reports (failed vs timed out vs
//     fatal configuration problems).
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
