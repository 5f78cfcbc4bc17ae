//go:build !unix

package shell

import (
	"os"
	"os/exec"
)

func setProcessGroup(cmd *exec.Cmd, isolate bool) {}

func terminate(p *os.Process, group bool) error {
	if p == nil {
		return nil
	}
	return p.Kill()
}

func kill(p *os.Process, group bool) {
	if p != nil {
		_ = p.Kill()
	}
}

func signalExitCode(exitErr *exec.ExitError) int32 {
	return 1
}
