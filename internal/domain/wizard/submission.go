package wizard

import "fmt"

// SubmissionState represents the state of the booking submit pipeline
// for one wizard run.
type SubmissionState string

const (
	SubmissionIdle      SubmissionState = "idle"
	SubmissionInFlight  SubmissionState = "submitting"
	SubmissionSucceeded SubmissionState = "succeeded"
	SubmissionFailed    SubmissionState = "failed"
)

// validSubmissionTransitions defines the submit pipeline state machine.
// A failed submission is not terminal: the renter may correct the form
// and resubmit.
var validSubmissionTransitions = map[SubmissionState][]SubmissionState{
	SubmissionIdle:      {SubmissionInFlight},
	SubmissionInFlight:  {SubmissionSucceeded, SubmissionFailed},
	SubmissionFailed:    {SubmissionInFlight},
	SubmissionSucceeded: {},
}

// IsValid returns true if the state is a recognized submission state.
func (s SubmissionState) IsValid() bool {
	_, exists := validSubmissionTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this state to the
// target is allowed.
func (s SubmissionState) CanTransitionTo(target SubmissionState) bool {
	allowed, exists := validSubmissionTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible.
func (s SubmissionState) IsTerminal() bool {
	allowed, exists := validSubmissionTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// String returns the string representation of the state.
func (s SubmissionState) String() string {
	return string(s)
}

// ParseSubmissionState converts a string to a SubmissionState,
// returning an error if invalid.
func ParseSubmissionState(raw string) (SubmissionState, error) {
	state := SubmissionState(raw)
	if !state.IsValid() {
		return "", fmt.Errorf("invalid submission state: %s", raw)
	}
	return state, nil
}
