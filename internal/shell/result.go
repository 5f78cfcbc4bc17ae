package shell

import "strings"

// NoOutput is shown when a command produced neither stdout nor stderr
const NoOutput = "(no output)"

// Result is the outcome of a single command invocation
type Result struct {
	ExitCode int32
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Succeeded reports a clean zero exit
func (r Result) Succeeded() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

// CombinedOutput joins the trimmed stdout and stderr, skipping empty parts.
func (r Result) CombinedOutput() string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(r.Stdout); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(r.Stderr); s != "" {
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return NoOutput
	}
	return strings.Join(parts, "\n")
}
