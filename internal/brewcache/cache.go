// Package brewcache answers "is this package installed" from two bulk
// package-manager listings instead of one probe per check.
package brewcache

import (
	"context"
	"strings"
	"time"

	"github.com/sourceplane/devsetup/internal/model"
	"github.com/sourceplane/devsetup/internal/shell"
)

// Probe commands issued once per load.
const (
	FormulaProbe = "command -v brew >/dev/null 2>&1 && brew list --formula"
	CaskProbe    = "command -v brew >/dev/null 2>&1 && brew list --cask"
)

// ProbeTimeout bounds each listing command
const ProbeTimeout = 60 * time.Second

// Status is the cached answer for one package
type Status int

const (
	// Unknown means the listings could not be loaded; callers run the explicit check.
	Unknown Status = iota
	Installed
	NotInstalled
)

func (s Status) String() string {
	switch s {
	case Installed:
		return "installed"
	case NotInstalled:
		return "not-installed"
	default:
		return "unknown"
	}
}

// Cache holds the formula and cask listings for one install run. It is not
// safe for concurrent use; a run is strictly sequential.
type Cache struct {
	shell shell.Executor
	echo  func(string)

	loaded   bool
	failed   bool
	formulae map[string]struct{}
	casks    map[string]struct{}
}

// New creates an empty cache. echo receives each probe command line and may be nil.
func New(executor shell.Executor, echo func(string)) *Cache {
	if echo == nil {
		echo = func(string) {}
	}
	return &Cache{shell: executor, echo: echo}
}

// Lookup loads the listings on first use and answers from memory afterwards.
func (c *Cache) Lookup(ctx context.Context, ref model.PackageRef) Status {
	if !c.loaded {
		c.load(ctx)
	}
	if c.failed {
		return Unknown
	}

	set := c.formulae
	if ref.EffectiveKind() == model.PackageCask {
		set = c.casks
	}
	if _, ok := set[ref.Name]; ok {
		return Installed
	}
	return NotInstalled
}

// Invalidate drops both listings so the next Lookup probes again.
func (c *Cache) Invalidate() {
	c.loaded = false
	c.failed = false
	c.formulae = nil
	c.casks = nil
}

func (c *Cache) load(ctx context.Context) {
	c.loaded = true

	formulae, okFormulae := c.probe(ctx, FormulaProbe)
	casks, okCasks := c.probe(ctx, CaskProbe)
	if !okFormulae || !okCasks {
		c.failed = true
		return
	}
	c.formulae = formulae
	c.casks = casks
}

func (c *Cache) probe(ctx context.Context, command string) (map[string]struct{}, bool) {
	c.echo("$ " + command)
	res := c.shell.Run(ctx, command, model.AuthStandard, ProbeTimeout)
	if !res.Succeeded() {
		return nil, false
	}
	return parseNames(res.Stdout), true
}

func parseNames(output string) map[string]struct{} {
	names := make(map[string]struct{})
	for _, line := range strings.Split(output, "\n") {
		for _, name := range strings.Fields(line) {
			names[name] = struct{}{}
		}
	}
	return names
}
