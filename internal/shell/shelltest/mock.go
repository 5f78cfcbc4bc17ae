// Package shelltest provides a scripted Executor for tests.
package shelltest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sourceplane/devsetup/internal/model"
	"github.com/sourceplane/devsetup/internal/shell"
)

// Invocation records one call to Mock.Run
type Invocation struct {
	Command string
	Mode    model.AuthMode
	Timeout time.Duration
}

type rule struct {
	match func(string) bool
	reply func() shell.Result
}

// Mock answers commands from registered rules. The most recently registered
// matching rule wins; unmatched commands get Default.
type Mock struct {
	Default shell.Result

	mu    sync.Mutex
	rules []rule
	calls []Invocation
}

// New returns a mock whose unmatched commands exit 0 with no output.
func New() *Mock {
	return &Mock{}
}

// On answers an exact command with res.
func (m *Mock) On(command string, res shell.Result) *Mock {
	return m.OnFunc(command, func() shell.Result { return res })
}

// OnFunc answers an exact command by calling fn on every invocation.
func (m *Mock) OnFunc(command string, fn func() shell.Result) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule{
		match: func(c string) bool { return c == command },
		reply: fn,
	})
	return m
}

// OnContains answers any command containing fragment with res.
func (m *Mock) OnContains(fragment string, res shell.Result) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule{
		match: func(c string) bool { return strings.Contains(c, fragment) },
		reply: func() shell.Result { return res },
	})
	return m
}

func (m *Mock) Run(_ context.Context, command string, mode model.AuthMode, timeout time.Duration) shell.Result {
	m.mu.Lock()
	m.calls = append(m.calls, Invocation{Command: command, Mode: mode, Timeout: timeout})
	var reply func() shell.Result
	for i := len(m.rules) - 1; i >= 0; i-- {
		if m.rules[i].match(command) {
			reply = m.rules[i].reply
			break
		}
	}
	def := m.Default
	m.mu.Unlock()

	if reply == nil {
		return def
	}
	return reply()
}

// Calls returns every invocation in call order.
func (m *Mock) Calls() []Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Invocation, len(m.calls))
	copy(out, m.calls)
	return out
}

// Commands returns the invoked command strings in call order.
func (m *Mock) Commands() []string {
	calls := m.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Command
	}
	return out
}

// Count returns how many times command was invoked.
func (m *Mock) Count(command string) int {
	n := 0
	for _, c := range m.Commands() {
		if c == command {
			n++
		}
	}
	return n
}

// OK is a successful result with stdout.
func OK(stdout string) shell.Result {
	return shell.Result{Stdout: stdout}
}

// Fail is a failed result with the given exit code and stderr.
func Fail(code int32, stderr string) shell.Result {
	return shell.Result{ExitCode: code, Stderr: stderr}
}
