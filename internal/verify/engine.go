// Package verify runs a component's verification checks.
package verify

import (
	"context"
	"strconv"

	"github.com/sourceplane/devsetup/internal/brewcache"
	"github.com/sourceplane/devsetup/internal/logging"
	"github.com/sourceplane/devsetup/internal/model"
	"github.com/sourceplane/devsetup/internal/shell"
)

// Phase says whether checks run before or after installation
type Phase string

const (
	PreInstall  Phase = "pre-install"
	PostInstall Phase = "post-install"
)

// CheckFailure is the first failing check of a RunChecks call
type CheckFailure struct {
	Check  model.VerificationCheck
	Result shell.Result
}

// Output is the failing check's combined output
func (f *CheckFailure) Output() string {
	return f.Result.CombinedOutput()
}

// Engine runs checks through a shell, short-circuiting package-backed checks
// on a cache hit.
type Engine struct {
	shell  shell.Executor
	cache  *brewcache.Cache
	logger logging.Logger
	echo   func(string)
}

// NewEngine wires an engine. cache and echo may be nil.
func NewEngine(executor shell.Executor, cache *brewcache.Cache, logger logging.Logger, echo func(string)) *Engine {
	if logger == nil {
		logger = logging.Nop{}
	}
	if echo == nil {
		echo = func(string) {}
	}
	return &Engine{shell: executor, cache: cache, logger: logger, echo: echo}
}

// RunChecks runs every check in order and returns the first failure, or nil
// when all pass. Later checks still run after a failure so each outcome is
// visible in the log stream.
func (e *Engine) RunChecks(ctx context.Context, component model.Component, phase Phase) *CheckFailure {
	var first *CheckFailure

	for _, check := range component.VerificationChecks {
		if check.Package != nil && e.cache != nil {
			if e.cache.Lookup(ctx, *check.Package) == brewcache.Installed {
				e.echo("$ " + check.Command + "  # skipped (cached brew list hit)")
				continue
			}
		}

		e.echo("$ " + check.Command)
		res := e.shell.Run(ctx, check.Command, model.AuthStandard, check.EffectiveTimeout())
		if out := res.CombinedOutput(); out != shell.NoOutput {
			e.echo(out)
		}

		if res.Succeeded() {
			continue
		}

		e.logger.Log(logging.LevelWarning, "Verification check failed", map[string]string{
			"component": component.ID,
			"check":     check.Name,
			"phase":     string(phase),
			"exitCode":  strconv.Itoa(int(res.ExitCode)),
			"timedOut":  strconv.FormatBool(res.TimedOut),
		})
		if first == nil {
			first = &CheckFailure{Check: check, Result: res}
		}
	}

	return first
}
