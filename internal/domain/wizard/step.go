package wizard

import "fmt"

// Step identifies one stage of the booking wizard.
type Step string

const (
	StepIdentity  Step = "identity"
	StepRideStyle Step = "ride_style"
	StepCategory  Step = "category"
	StepModel     Step = "model"
	StepDates     Step = "dates"
	StepReview    Step = "review"
	StepResult    Step = "result"
)

// stepOrder defines the linear sequence of the wizard. Advancing moves
// one position to the right, retreating one to the left.
var stepOrder = []Step{
	StepIdentity,
	StepRideStyle,
	StepCategory,
	StepModel,
	StepDates,
	StepReview,
	StepResult,
}

// FirstStep returns the step a new wizard session starts at.
func FirstStep() Step {
	return stepOrder[0]
}

// Steps returns the full ordered step sequence.
func Steps() []Step {
	out := make([]Step, len(stepOrder))
	copy(out, stepOrder)
	return out
}

// IsValid returns true if the step is a recognized wizard step.
func (s Step) IsValid() bool {
	return s.Index() >= 0
}

// Index returns the zero-based position of the step, or -1 if unknown.
func (s Step) Index() int {
	for i, step := range stepOrder {
		if step == s {
			return i
		}
	}
	return -1
}

// Next returns the following step. The second return value is false when
// the step is terminal or unknown.
func (s Step) Next() (Step, bool) {
	i := s.Index()
	if i < 0 || i >= len(stepOrder)-1 {
		return "", false
	}
	return stepOrder[i+1], true
}

// Prev returns the preceding step. The second return value is false at
// the first step, at the terminal step, or for an unknown step.
func (s Step) Prev() (Step, bool) {
	i := s.Index()
	if i <= 0 || s.IsTerminal() {
		return "", false
	}
	return stepOrder[i-1], true
}

// IsTerminal returns true if no transition leads out of this step.
// Leaving the terminal step requires an explicit session reset.
func (s Step) IsTerminal() bool {
	return s == StepResult
}

// String returns the string representation of the step.
func (s Step) String() string {
	return string(s)
}

// ParseStep converts a string to a Step, returning an error if invalid.
func ParseStep(raw string) (Step, error) {
	step := Step(raw)
	if !step.IsValid() {
		return "", fmt.Errorf("invalid wizard step: %s", raw)
	}
	return step, nil
}

// Label returns the short progress-bar label for the step.
func (s Step) Label() string {
	switch s {
	case StepIdentity:
		return "Details"
	case StepRideStyle:
		return "Type"
	case StepCategory:
		return "Category"
	case StepModel:
		return "Model"
	case StepDates:
		return "Dates"
	case StepReview:
		return "Confirm"
	case StepResult:
		return "Done"
	default:
		return ""
	}
}

// Title returns the heading for the step. Some titles address the renter
// by first name once it has been captured.
func (s Step) Title(firstName string) string {
	switch s {
	case StepIdentity:
		return "Let's start with your name."
	case StepRideStyle:
		if firstName != "" {
			return fmt.Sprintf("Hi %s! Choose your ride style.", firstName)
		}
		return "Choose your ride style."
	case StepCategory:
		return "What kind of vehicle fits?"
	case StepModel:
		return "Choose your specific ride."
	case StepDates:
		return "When do you need it?"
	case StepReview:
		return "Confirm your booking"
	case StepResult:
		return "Booking confirmed!"
	default:
		return ""
	}
}
