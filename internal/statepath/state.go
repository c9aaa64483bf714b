package statepath

// State is the outcome of matching a payload against configured markers.
type State int

// State values.
const (
	// StateUndetermined means the payload matched neither marker.
	StateUndetermined State = iota

	// StateFalse means the payload matched the false marker (or missed
	// a one-sided true marker).
	StateFalse

	// StateTrue means the payload matched the true marker (or missed a
	// one-sided false marker).
	StateTrue
)

// String returns a human-readable representation for logging.
func (s State) String() string {
	switch s {
	case StateTrue:
		return "true"
	case StateFalse:
		return "false"
	default:
		return "undetermined"
	}
}

// Parse matches a payload value against configured true/false markers.
//
// Matching is exact (no trimming, no case folding). The marker set
// decides the semantics:
//
//   - Both markers set: exact two-value matching. A payload matching
//     neither is StateUndetermined.
//   - Only trueValue set: binary. StateTrue on exact match, StateFalse
//     on anything else.
//   - Only falseValue set: inverted binary. StateFalse on exact match,
//     StateTrue on anything else.
//   - Neither set: always StateUndetermined.
//
// The one-sided forms exist for devices that publish a single sentinel
// ("online") where any other payload means the opposite state.
func Parse(payload, trueValue, falseValue string) State {
	switch {
	case trueValue != "" && falseValue != "":
		switch payload {
		case trueValue:
			return StateTrue
		case falseValue:
			return StateFalse
		default:
			return StateUndetermined
		}

	case trueValue != "":
		if payload == trueValue {
			return StateTrue
		}
		return StateFalse

	case falseValue != "":
		if payload == falseValue {
			return StateFalse
		}
		return StateTrue

	default:
		return StateUndetermined
	}
}
