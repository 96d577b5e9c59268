// Package main hosts the armangle CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the full operator surface: running the
// pipeline, regenerating the statistics exports, inspecting per-unit state
// and run history, and configuration scaffolding. It centralizes
// configuration resolution and logger setup so subcommands can focus on
// flags and output.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
