package model

// Plan is the ordered, dependency-closed list of components selected for one
// install run. Dependencies always precede their dependents.
type Plan struct {
	Architecture Architecture `json:"architecture"`
	Components   []Component  `json:"components"`
}

// IDs returns the component ids in plan order
func (p Plan) IDs() []string {
	ids := make([]string, len(p.Components))
	for i, c := range p.Components {
		ids[i] = c.ID
	}
	return ids
}

func (p Plan) Len() int {
	return len(p.Components)
}

// StepStatus is the lifecycle status of a single plan entry
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
)

// StepState tracks one plan entry for the duration of one run
type StepState struct {
	Position     int        `json:"position"`
	Component    Component  `json:"-"`
	ComponentID  string     `json:"componentId"`
	Status       StepStatus `json:"status"`
	LatestOutput string     `json:"latestOutput,omitempty"`
}

// NewStepStates creates one pending state per plan entry
func NewStepStates(plan Plan) []StepState {
	states := make([]StepState, len(plan.Components))
	for i, c := range plan.Components {
		states[i] = StepState{
			Position:    i,
			Component:   c,
			ComponentID: c.ID,
			Status:      StepPending,
		}
	}
	return states
}
