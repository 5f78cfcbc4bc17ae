package sqlite

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sourceplane/devsetup/internal/model"
)

// Recorder persists one run's step transitions. It satisfies the runner's
// Observer interface; write errors are collected and returned by Finish so
// history problems never interrupt an install.
type Recorder struct {
	store *Store
	runID string
	errs  []error
}

// StartRun inserts a running run record with a fresh id
func (s *Store) StartRun(arch model.Architecture, catalogSource string) (*Recorder, error) {
	rec := &Recorder{store: s, runID: uuid.NewString()}
	if err := s.InsertRun(RunRecord{
		RunID:         rec.runID,
		Status:        string(model.RunRunning),
		Architecture:  string(arch),
		CatalogSource: catalogSource,
		StartedAt:     time.Now(),
	}); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *Recorder) RunID() string {
	return r.runID
}

func (r *Recorder) StepChanged(state model.StepState) {
	if err := r.store.UpsertStep(StepRecord{
		RunID:       r.runID,
		Position:    state.Position,
		ComponentID: state.ComponentID,
		Status:      string(state.Status),
		Output:      state.LatestOutput,
	}); err != nil {
		r.errs = append(r.errs, err)
	}
}

func (r *Recorder) Line(string) {}

// Finish writes the terminal state of the run
func (r *Recorder) Finish(state model.RunState, failure *model.InstallFailure, advice *model.RemediationAdvice) error {
	c := Completion{Status: string(state)}
	if failure != nil {
		code := int(failure.ExitCode)
		c.FailedComponent = failure.ComponentID
		c.FailedCommand = failure.Command
		c.ExitCode = &code
		c.LastError = failure.Error()
	}
	if advice != nil {
		c.AdviceSource = string(advice.Source)
	}
	if err := r.store.CompleteRun(r.runID, c); err != nil {
		r.errs = append(r.errs, err)
	}
	return errors.Join(r.errs...)
}
