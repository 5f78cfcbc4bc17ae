package model

import "fmt"

// RunState is the overall status of an install run
type RunState string

const (
	RunIdle       RunState = "idle"
	RunValidating RunState = "validating"
	RunRunning    RunState = "running"
	RunFailed     RunState = "failed"
	RunCompleted  RunState = "completed"
)

// FailureKind tells which stage of a component produced the failure
type FailureKind string

const (
	// FailureCommand is an install command that exited non-zero, failed to launch or timed out.
	FailureCommand FailureKind = "command"
	// FailureVerification is a check that still fails after every install command succeeded.
	FailureVerification FailureKind = "verification"
	// FailureConfiguration is a catalog authoring error such as a component without checks.
	FailureConfiguration FailureKind = "configuration"
)

// InstallFailure is the terminal failure of a run. Command and Output refer to
// the install command for FailureCommand and to the failing check for
// FailureVerification.
type InstallFailure struct {
	Kind          FailureKind `json:"kind"`
	ComponentID   string      `json:"componentId"`
	ComponentName string      `json:"componentName"`
	Command       string      `json:"command"`
	Output        string      `json:"output"`
	ExitCode      int32       `json:"exitCode"`
	TimedOut      bool        `json:"timedOut"`
}

func (f *InstallFailure) Error() string {
	switch f.Kind {
	case FailureConfiguration:
		return fmt.Sprintf("%s: %s", f.ComponentName, f.Output)
	case FailureVerification:
		return fmt.Sprintf("%s: verification %q failed with exit code %d", f.ComponentName, f.Command, f.ExitCode)
	default:
		if f.TimedOut {
			return fmt.Sprintf("%s: command %q timed out", f.ComponentName, f.Command)
		}
		return fmt.Sprintf("%s: command %q failed with exit code %d", f.ComponentName, f.Command, f.ExitCode)
	}
}

// AdviceSource identifies which path produced remediation advice
type AdviceSource string

const (
	AdviceHeuristics AdviceSource = "heuristics"
	AdviceExternal   AdviceSource = "external-advisor"
)

// RemediationAdvice is produced fresh for each failure. Commands have already
// passed the safety filter.
type RemediationAdvice struct {
	Summary  string       `json:"summary"`
	Commands []string     `json:"commands"`
	Notes    string       `json:"notes"`
	Source   AdviceSource `json:"source"`
}
