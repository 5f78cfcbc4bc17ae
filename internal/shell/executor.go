package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	goruntime "runtime"
	"strings"
	"time"

	"github.com/sourceplane/devsetup/internal/model"
)

// Sentinel exit codes. Real processes never report negative codes.
const (
	ExitCodeLaunchFailure int32 = -1
	ExitCodeTimedOut      int32 = -2
	ExitCodeCanceled      int32 = -3
)

// PathPrefix is prepended to every command so binaries installed earlier in
// the session resolve without a fresh login shell.
const PathPrefix = `export PATH="/opt/homebrew/bin:/usr/local/bin:$PATH"; `

// DefaultGracePeriod is how long a timed-out process group gets between
// SIGTERM and SIGKILL.
const DefaultGracePeriod = 2 * time.Second

// Executor runs shell commands. Implementations never return errors: launch
// failures, timeouts and non-zero exits are all encoded in the Result.
type Executor interface {
	Run(ctx context.Context, command string, mode model.AuthMode, timeout time.Duration) Result
}

// Options configures a LocalExecutor
type Options struct {
	// ShellPath is the login shell used for standard and sudoAskpass commands.
	ShellPath string
	// AskpassPath is exported as SUDO_ASKPASS for sudoAskpass commands.
	AskpassPath string
	GracePeriod time.Duration
	// GOOS overrides runtime.GOOS when choosing the elevation strategy.
	GOOS string
}

// LocalExecutor runs commands as child processes of the current process
type LocalExecutor struct {
	shellPath   string
	askpassPath string
	grace       time.Duration
	goos        string
}

func NewLocalExecutor(opts Options) *LocalExecutor {
	goos := opts.GOOS
	if goos == "" {
		goos = goruntime.GOOS
	}
	shellPath := opts.ShellPath
	if shellPath == "" {
		shellPath = DefaultShell(goos)
	}
	grace := opts.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &LocalExecutor{
		shellPath:   shellPath,
		askpassPath: opts.AskpassPath,
		grace:       grace,
		goos:        goos,
	}
}

// DefaultShell returns zsh on macOS and bash elsewhere
func DefaultShell(goos string) string {
	if goos == "darwin" {
		return "/bin/zsh"
	}
	return "/bin/bash"
}

func (e *LocalExecutor) Run(ctx context.Context, command string, mode model.AuthMode, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = model.DefaultCommandTimeout
	}

	inv := e.invocation(command, mode)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, inv.name, inv.args...)
	cmd.Env = append(os.Environ(), inv.env...)
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	setProcessGroup(cmd, inv.isolate)
	cmd.Cancel = func() error {
		return terminate(cmd.Process, inv.isolate)
	}
	cmd.WaitDelay = e.grace

	if err := cmd.Start(); err != nil {
		return Result{
			ExitCode: ExitCodeLaunchFailure,
			Stderr:   fmt.Sprintf("failed to launch %s: %v", inv.name, err),
		}
	}

	runErr := cmd.Wait()

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if runErr != nil && runCtx.Err() != nil {
		// Anything still holding the group after the grace period goes now.
		kill(cmd.Process, inv.isolate)
		if ctx.Err() != nil {
			result.ExitCode = ExitCodeCanceled
			return result
		}
		result.ExitCode = ExitCodeTimedOut
		result.TimedOut = true
		return result
	}

	result.ExitCode = exitCode(cmd, runErr)
	return result
}

type invocation struct {
	name string
	args []string
	env  []string
	// isolate runs the child in its own process group so a timeout can
	// signal everything it spawned.
	isolate bool
}

func (e *LocalExecutor) invocation(command string, mode model.AuthMode) invocation {
	switch mode {
	case model.AuthAdminPrompt:
		script := PathPrefix + command
		if e.goos == "darwin" {
			return invocation{
				name:    "osascript",
				args:    []string{"-e", fmt.Sprintf("do shell script \"%s\" with administrator privileges", appleScriptEscaped(script))},
				isolate: true,
			}
		}
		return invocation{name: "pkexec", args: []string{e.shellPath, "-c", script}, isolate: true}
	case model.AuthSudoAskpass:
		// The askpass helper reads /dev/tty, which only works from the
		// terminal's foreground group, so the child stays in ours.
		return invocation{
			name: e.shellPath,
			args: []string{"-lc", PathPrefix + "sudo -A -v && " + command},
			env:  []string{"SUDO_ASKPASS=" + e.askpassPath},
		}
	default:
		return invocation{name: e.shellPath, args: []string{"-lc", PathPrefix + command}, isolate: true}
	}
}

func exitCode(cmd *exec.Cmd, err error) int32 {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return int32(code)
		}
		return signalExitCode(exitErr)
	}
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		return int32(cmd.ProcessState.ExitCode())
	}
	return ExitCodeLaunchFailure
}

// appleScriptEscaped escapes a command for embedding in an AppleScript string literal
func appleScriptEscaped(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
