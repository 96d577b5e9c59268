package stage

import "time"

// Outcome classifies one stage execution against one unit.
type Outcome int

const (
	// OutcomeSuccess: the tool exited zero and its output marker verified.
	OutcomeSuccess Outcome = iota
	// OutcomeFailed: non-zero exit, or exit zero without a verifiable marker.
	OutcomeFailed
	// OutcomeTimedOut: the wall-clock bound elapsed and the tool was killed.
	// Treated like a failure downstream but reported distinctly so operators
	// can tell "tool rejected input" from "tool hung".
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomeTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Result carries the outcome of one stage execution plus its failure reason
// and duration.
type Result struct {
	Outcome  Outcome
	Reason   string
	Duration time.Duration
}

// OK reports whether the stage completed successfully.
func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}
