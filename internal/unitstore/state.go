package unitstore

// State is a unit's derived lifecycle position. It is computed from markers
// on every call and never stored.
type State string

const (
	StateRaw        State = "raw"
	StateExtracted  State = "extracted"
	StateLabeled    State = "labeled"
	StateMeasured   State = "measured"
	StateDeletedRaw State = "deleted-raw"
)

// State derives the unit's lifecycle state from its markers. A measured unit
// whose raw video is gone reports deleted-raw, the terminal state.
func (s *Store) State(unit Unit) State {
	measured := s.IsComplete(unit, StageMeasure)
	switch {
	case measured && unit.RawPath == "":
		return StateDeletedRaw
	case measured:
		return StateMeasured
	case s.IsComplete(unit, StageLabel):
		return StateLabeled
	case s.IsComplete(unit, StageExtract):
		return StateExtracted
	default:
		return StateRaw
	}
}
