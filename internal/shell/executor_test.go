//go:build unix

package shell

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sourceplane/devsetup/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExecutor(t *testing.T) *LocalExecutor {
	t.Helper()
	if _, err := os.Stat("/bin/bash"); err != nil {
		t.Skip("bash not available")
	}
	return NewLocalExecutor(Options{ShellPath: "/bin/bash", GracePeriod: 200 * time.Millisecond, GOOS: "linux"})
}

func TestRunCapturesOutputAndExitCode(t *testing.T) {
	e := testExecutor(t)

	res := e.Run(context.Background(), "echo out; echo err >&2; exit 3", model.AuthStandard, 10*time.Second)

	assert.Equal(t, int32(3), res.ExitCode)
	assert.False(t, res.TimedOut)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, "out\nerr", res.CombinedOutput())
}

func TestRunPrependsPath(t *testing.T) {
	e := testExecutor(t)

	res := e.Run(context.Background(), `printf '%s' "$PATH"`, model.AuthStandard, 10*time.Second)

	require.True(t, res.Succeeded(), res.CombinedOutput())
	assert.True(t, strings.HasPrefix(res.Stdout, "/opt/homebrew/bin:/usr/local/bin:"), res.Stdout)
}

func TestRunTimesOut(t *testing.T) {
	e := testExecutor(t)

	start := time.Now()
	res := e.Run(context.Background(), "sleep 30", model.AuthStandard, 300*time.Millisecond)

	assert.True(t, res.TimedOut)
	assert.Equal(t, ExitCodeTimedOut, res.ExitCode)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRunCanceled(t *testing.T) {
	e := testExecutor(t)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	res := e.Run(ctx, "sleep 30", model.AuthStandard, time.Minute)

	assert.False(t, res.TimedOut)
	assert.Equal(t, ExitCodeCanceled, res.ExitCode)
}

func TestRunLaunchFailure(t *testing.T) {
	e := NewLocalExecutor(Options{ShellPath: "/nonexistent/shell"})

	res := e.Run(context.Background(), "true", model.AuthStandard, time.Second)

	assert.Equal(t, ExitCodeLaunchFailure, res.ExitCode)
	assert.False(t, res.TimedOut)
	assert.Contains(t, res.Stderr, "failed to launch")
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o700))
	return path
}

func TestSudoAskpassHelperRunsInCallerProcessGroup(t *testing.T) {
	if _, err := exec.LookPath("ps"); err != nil {
		t.Skip("ps not available")
	}
	dir := t.TempDir()
	helper := writeScript(t, dir, "askpass.sh", `ps -o pgid= -p $$`)
	// Stands in for the login shell: hands straight to the helper the way sudo -A would.
	fakeShell := writeScript(t, dir, "shell.sh", `exec "$SUDO_ASKPASS" 'Password:'`)
	e := NewLocalExecutor(Options{ShellPath: fakeShell, AskpassPath: helper, GracePeriod: 200 * time.Millisecond, GOOS: "linux"})

	res := e.Run(context.Background(), "true", model.AuthSudoAskpass, 10*time.Second)
	require.True(t, res.Succeeded(), res.CombinedOutput())
	assert.Equal(t, strconv.Itoa(syscall.Getpgrp()), strings.TrimSpace(res.Stdout),
		"the helper must share the terminal's foreground group to read /dev/tty")

	standard := NewLocalExecutor(Options{ShellPath: writeScript(t, dir, "pgid.sh", `ps -o pgid= -p $$`), GOOS: "linux"})
	res = standard.Run(context.Background(), "true", model.AuthStandard, 10*time.Second)
	require.True(t, res.Succeeded(), res.CombinedOutput())
	assert.NotEqual(t, strconv.Itoa(syscall.Getpgrp()), strings.TrimSpace(res.Stdout))
}

func TestSudoAskpassTimeoutSignalsOnlyTheChild(t *testing.T) {
	dir := t.TempDir()
	fakeShell := writeScript(t, dir, "shell.sh", `exec sleep 30`)
	e := NewLocalExecutor(Options{ShellPath: fakeShell, AskpassPath: "/nonexistent", GracePeriod: 200 * time.Millisecond, GOOS: "linux"})

	start := time.Now()
	res := e.Run(context.Background(), "true", model.AuthSudoAskpass, 300*time.Millisecond)

	assert.True(t, res.TimedOut)
	assert.Equal(t, ExitCodeTimedOut, res.ExitCode)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestInvocationModes(t *testing.T) {
	darwin := NewLocalExecutor(Options{ShellPath: "/bin/zsh", AskpassPath: "/tmp/askpass.sh", GOOS: "darwin"})
	linux := NewLocalExecutor(Options{ShellPath: "/bin/bash", GOOS: "linux"})

	std := darwin.invocation("brew update", model.AuthStandard)
	assert.Equal(t, "/bin/zsh", std.name)
	assert.Equal(t, []string{"-lc", PathPrefix + "brew update"}, std.args)
	assert.Empty(t, std.env)

	admin := darwin.invocation(`echo "hi" \ there`, model.AuthAdminPrompt)
	assert.Equal(t, "osascript", admin.name)
	require.Len(t, admin.args, 2)
	assert.Equal(t, "-e", admin.args[0])
	assert.Equal(t,
		`do shell script "export PATH=\"/opt/homebrew/bin:/usr/local/bin:$PATH\"; echo \"hi\" \\ there" with administrator privileges`,
		admin.args[1])

	askpass := darwin.invocation("softwareupdate --install-rosetta", model.AuthSudoAskpass)
	assert.Equal(t, "/bin/zsh", askpass.name)
	assert.Equal(t, []string{"-lc", PathPrefix + "sudo -A -v && softwareupdate --install-rosetta"}, askpass.args)
	assert.Equal(t, []string{"SUDO_ASKPASS=/tmp/askpass.sh"}, askpass.env)
	assert.False(t, askpass.isolate)
	assert.True(t, std.isolate)
	assert.True(t, admin.isolate)

	pk := linux.invocation("apt-get install -y git", model.AuthAdminPrompt)
	assert.Equal(t, "pkexec", pk.name)
	assert.Equal(t, []string{"/bin/bash", "-c", PathPrefix + "apt-get install -y git"}, pk.args)
}

func TestDefaultShell(t *testing.T) {
	assert.Equal(t, "/bin/zsh", DefaultShell("darwin"))
	assert.Equal(t, "/bin/bash", DefaultShell("linux"))
}
