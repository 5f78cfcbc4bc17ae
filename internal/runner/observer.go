package runner

import "github.com/sourceplane/devsetup/internal/model"

// Observer receives run events for a presentation layer. Calls arrive in
// order from the goroutine driving the run.
type Observer interface {
	StepChanged(state model.StepState)
	Line(line string)
}

// Observers fans events out to several observers
type Observers []Observer

func (o Observers) StepChanged(state model.StepState) {
	for _, obs := range o {
		obs.StepChanged(state)
	}
}

func (o Observers) Line(line string) {
	for _, obs := range o {
		obs.Line(line)
	}
}

type nopObserver struct{}

func (nopObserver) StepChanged(model.StepState) {}
func (nopObserver) Line(string)                 {}
