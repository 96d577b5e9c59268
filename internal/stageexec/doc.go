// Package stageexec runs external stage tools with a wall-clock bound and
// classifies their outcomes.
//
// The only blocking operation in the pipeline lives here: the external
// process invocation, cancelled via context when the stage timeout elapses.
// A timed-out stage is killed and retried from scratch on the next
// invocation, never resumed from partial output. The Executor interface
// exists so tests can substitute the process launch.
package stageexec
