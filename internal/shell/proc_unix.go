//go:build unix

package shell

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

func setProcessGroup(cmd *exec.Cmd, isolate bool) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: isolate}
}

// terminate sends SIGTERM to the child's group, or only to the child when it
// shares the caller's group.
func terminate(p *os.Process, group bool) error {
	if p == nil {
		return nil
	}
	pid := p.Pid
	if group {
		pid = -pid
	}
	err := syscall.Kill(pid, syscall.SIGTERM)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}

func kill(p *os.Process, group bool) {
	if p == nil {
		return
	}
	if !group {
		_ = p.Kill()
		return
	}
	_ = syscall.Kill(-p.Pid, syscall.SIGKILL)
}

func signalExitCode(exitErr *exec.ExitError) int32 {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return int32(128 + int(ws.Signal()))
	}
	return 1
}
