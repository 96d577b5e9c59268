package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"armangle/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(reportError(os.Stderr, err))
	}
}

// reportError prints the operator-facing form of a command error and picks
// the exit code: 2 for configuration errors so wrappers can tell "fix your
// setup" from "a stage failed", 1 for everything else.
func reportError(w io.Writer, err error) int {
	if errors.Is(err, context.Canceled) {
		return 1
	}
	detail := services.Details(err)
	if detail.Marker != nil {
		fmt.Fprintf(w, "armangle: %s: %s\n", detail.Marker, detail.Message)
	} else {
		fmt.Fprintf(w, "armangle: %s\n", detail.Message)
	}
	if services.Fatal(err) {
		return 2
	}
	return 1
}
