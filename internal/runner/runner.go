package runner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sourceplane/devsetup/internal/advisor"
	"github.com/sourceplane/devsetup/internal/brewcache"
	"github.com/sourceplane/devsetup/internal/logging"
	"github.com/sourceplane/devsetup/internal/model"
	"github.com/sourceplane/devsetup/internal/shell"
	"github.com/sourceplane/devsetup/internal/verify"
)

// RemediationTimeout bounds a user-approved remediation command
const RemediationTimeout = 900 * time.Second

// ErrBlockedCommand is returned when a remediation command fails the safety filter
var ErrBlockedCommand = errors.New("blocked an unsafe command; review it manually")

// Notices shown with a failed run.
const (
	AuthFailureNotice    = "Administrator authentication was canceled or failed. Retry and approve the administrator prompt when it appears."
	GenericFailureNotice = "Installation stopped. Review the output and the suggested remediation, then retry the full plan."
)

var authFailureMarkers = []string{
	"a password is required",
	"authentication failed",
	"incorrect password",
	"user canceled",
	"no password was provided",
}

// Runner drives install plans through the shell, one component at a time.
type Runner struct {
	shell    shell.Executor
	advisor  advisor.Advisor
	logger   logging.Logger
	observer Observer
}

// New creates a runner. logger and observer may be nil.
func New(executor shell.Executor, adv advisor.Advisor, logger logging.Logger, observer Observer) *Runner {
	if logger == nil {
		logger = logging.Nop{}
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if adv == nil {
		adv = advisor.New(nil, logger)
	}
	return &Runner{
		shell:    executor,
		advisor:  adv,
		logger:   logger,
		observer: observer,
	}
}

// Session is the per-run state shared by every component of one plan
type Session struct {
	cache      *brewcache.Cache
	engine     *verify.Engine
	lastOutput string
}

// NewSession creates a fresh package cache and verification engine.
func (r *Runner) NewSession() *Session {
	cache := brewcache.New(r.shell, r.observer.Line)
	return &Session{
		cache:  cache,
		engine: verify.NewEngine(r.shell, cache, r.logger, r.observer.Line),
	}
}

// Result is the outcome of a whole run
type Result struct {
	State   model.RunState
	Steps   []model.StepState
	Failure *model.InstallFailure
	Advice  *model.RemediationAdvice
	Notice  string
}

// Run executes plan in order and halts at the first failure, asking the
// advisor exactly once for remediation. A retry is a fresh Run of the same
// plan; components that are already installed pass their pre-checks and skip.
func (r *Runner) Run(ctx context.Context, plan model.Plan, credential string) *Result {
	result := &Result{
		State: model.RunRunning,
		Steps: model.NewStepStates(plan),
	}
	for _, step := range result.Steps {
		r.observer.StepChanged(step)
	}

	r.logger.Log(logging.LevelInfo, "Install run started", map[string]string{
		"steps":        strconv.Itoa(plan.Len()),
		"architecture": string(plan.Architecture),
	})

	session := r.NewSession()
	for i := range result.Steps {
		step := &result.Steps[i]
		component := step.Component

		step.Status = model.StepRunning
		r.observer.StepChanged(*step)
		r.observer.Line("Starting: " + component.Name)

		failure := r.Execute(ctx, component, session)
		if failure != nil {
			step.Status = model.StepFailed
			step.LatestOutput = failure.Output
			r.observer.StepChanged(*step)
			r.observer.Line("Failed: " + component.Name)
			r.logger.Log(logging.LevelError, "Step failed", map[string]string{
				"component": component.ID,
				"kind":      string(failure.Kind),
				"command":   failure.Command,
				"exitCode":  strconv.Itoa(int(failure.ExitCode)),
			})

			advice := r.advisor.Suggest(ctx, *failure, component.RemediationHints, credential)
			result.State = model.RunFailed
			result.Failure = failure
			result.Advice = &advice
			result.Notice = failureNotice(failure)
			return result
		}

		step.Status = model.StepSucceeded
		step.LatestOutput = session.lastOutput
		r.observer.StepChanged(*step)
		r.observer.Line("Completed: " + component.Name)
		r.logger.Log(logging.LevelInfo, "Step completed", map[string]string{"component": component.ID})
	}

	result.State = model.RunCompleted
	r.logger.Log(logging.LevelInfo, "Install run completed", nil)
	return result
}

// Execute installs one component: pre-check, skip when already installed,
// otherwise run every command fail-fast and confirm with a post-check.
func (r *Runner) Execute(ctx context.Context, component model.Component, session *Session) *model.InstallFailure {
	if session == nil {
		session = r.NewSession()
	}
	session.lastOutput = ""

	if len(component.VerificationChecks) == 0 {
		return &model.InstallFailure{
			Kind:          model.FailureConfiguration,
			ComponentID:   component.ID,
			ComponentName: component.Name,
			Output:        fmt.Sprintf("%s declares no verification checks.", component.Name),
			ExitCode:      shell.ExitCodeLaunchFailure,
		}
	}

	if session.engine.RunChecks(ctx, component, verify.PreInstall) == nil {
		r.observer.Line(component.Name + " already installed.")
		for _, cmd := range component.Commands {
			r.observer.Line("$ " + cmd.Shell + "  # skipped (already installed)")
		}
		session.lastOutput = "Already installed"
		r.logger.Log(logging.LevelInfo, "Component already installed", map[string]string{"component": component.ID})
		return nil
	}

	for _, cmd := range component.Commands {
		r.observer.Line("$ " + cmd.Shell)
		res := r.shell.Run(ctx, cmd.Shell, cmd.EffectiveAuthMode(), cmd.EffectiveTimeout())
		output := res.CombinedOutput()
		r.observer.Line(output)
		session.lastOutput = output

		if !res.Succeeded() {
			return &model.InstallFailure{
				Kind:          model.FailureCommand,
				ComponentID:   component.ID,
				ComponentName: component.Name,
				Command:       cmd.Shell,
				Output:        output,
				ExitCode:      res.ExitCode,
				TimedOut:      res.TimedOut,
			}
		}
		session.cache.Invalidate()
	}

	r.observer.Line("Verify: " + component.Name)
	if check := session.engine.RunChecks(ctx, component, verify.PostInstall); check != nil {
		return &model.InstallFailure{
			Kind:          model.FailureVerification,
			ComponentID:   component.ID,
			ComponentName: component.Name,
			Command:       check.Check.Command,
			Output:        check.Output(),
			ExitCode:      check.Result.ExitCode,
			TimedOut:      check.Result.TimedOut,
		}
	}
	return nil
}

// RunRemediation runs a user-approved remediation command. Commands starting
// with sudo go through the administrator prompt.
func (r *Runner) RunRemediation(ctx context.Context, command string) (shell.Result, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return shell.Result{}, errors.New("remediation command is empty")
	}
	if !shell.IsAllowed(command) {
		return shell.Result{}, ErrBlockedCommand
	}

	mode := model.AuthStandard
	if strings.HasPrefix(command, "sudo ") {
		mode = model.AuthAdminPrompt
	}

	r.logger.Log(logging.LevelWarning, "Running user-approved remediation command", map[string]string{"command": command})
	res := r.shell.Run(ctx, command, mode, RemediationTimeout)
	r.observer.Line("Remediation command: " + command)
	r.observer.Line(res.CombinedOutput())

	level := logging.LevelInfo
	if !res.Succeeded() {
		level = logging.LevelError
	}
	r.logger.Log(level, "Remediation command finished", map[string]string{"exitCode": strconv.Itoa(int(res.ExitCode))})
	return res, nil
}

func failureNotice(failure *model.InstallFailure) string {
	if failure.Kind == model.FailureCommand && IsAuthFailure(failure.Output) {
		return AuthFailureNotice
	}
	return GenericFailureNotice
}

// IsAuthFailure reports whether output carries an elevation failure marker
func IsAuthFailure(output string) bool {
	lowered := strings.ToLower(output)
	for _, marker := range authFailureMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
