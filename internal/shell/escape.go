package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SingleQuoted wraps s in single quotes for POSIX shells.
func SingleQuoted(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// WriteAskpassHelper writes a SUDO_ASKPASS script into dir that re-enters
// exe's askpass subcommand. sudo invokes the helper with the prompt as its
// only argument, so the binary itself cannot be used directly.
func WriteAskpassHelper(dir, exe string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create askpass directory: %w", err)
	}
	path := filepath.Join(dir, "askpass.sh")
	script := fmt.Sprintf("#!/bin/sh\nexec %s askpass \"$@\"\n", SingleQuoted(exe))
	if err := os.WriteFile(path, []byte(script), 0o700); err != nil {
		return "", fmt.Errorf("failed to write askpass helper: %w", err)
	}
	return path, nil
}
