package patient

import "fmt"

// TransitionPolicy decides which manual status changes are accepted.
type TransitionPolicy string

const (
	// TransitionsLenient accepts any status to any status.
	TransitionsLenient TransitionPolicy = "lenient"
	// TransitionsStrict follows the consultation workflow only.
	TransitionsStrict TransitionPolicy = "strict"
)

func ParseTransitionPolicy(s string) (TransitionPolicy, error) {
	switch TransitionPolicy(s) {
	case "", TransitionsLenient:
		return TransitionsLenient, nil
	case TransitionsStrict:
		return TransitionsStrict, nil
	}
	return "", fmt.Errorf("unknown transition policy %q", s)
}

var strictTransitions = map[Status][]Status{
	StatusRegistered: {StatusConsulting},
	StatusConsulting: {StatusCompleted, StatusRegistered},
}

// Check returns ErrIllegalTransition when from -> to is not permitted.
// Re-asserting the current status is always allowed so a doctor can be
// reassigned without moving the patient.
func (p TransitionPolicy) Check(from, to Status) error {
	if p != TransitionsStrict || from == to {
		return nil
	}
	for _, next := range strictTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}
