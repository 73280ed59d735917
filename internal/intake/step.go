package intake

import "fmt"

// Step is a position in the intake flow. The order of the constants is the
// order of the flow.
type Step int

const (
	StepDonorInfo Step = iota
	StepItems
	StepReview
	StepSubmitting
	StepClosed
)

var stepNames = map[Step]string{
	StepDonorInfo:  "DonorInfo",
	StepItems:      "Items",
	StepReview:     "Review",
	StepSubmitting: "Submitting",
	StepClosed:     "Closed",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Step) UnmarshalText(text []byte) error {
	parsed, err := ParseStep(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseStep(name string) (Step, error) {
	for step, n := range stepNames {
		if n == name {
			return step, nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", name)
}

// Editable reports whether the draft accepts mutations in this step.
func (s Step) Editable() bool {
	return s == StepDonorInfo || s == StepItems || s == StepReview
}
