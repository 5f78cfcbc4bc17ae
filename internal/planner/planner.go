package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sourceplane/devsetup/internal/model"
)

// ErrMissingCredential is returned when planning is attempted without a
// credential for the remediation advisor.
var ErrMissingCredential = errors.New("an API key is required before starting installation")

// UnknownDependencyError names a component whose dependency is not in the
// architecture-filtered catalog.
type UnknownDependencyError struct {
	Parent     string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("configuration error: %s depends on missing item %s", e.Parent, e.Dependency)
}

// Planner resolves selections against a validated catalog
type Planner struct {
	components []model.Component
	byID       map[string]int
	graph      *DependencyGraph
}

// New validates the catalog: ids must be unique and the dependency graph acyclic.
func New(components []model.Component) (*Planner, error) {
	byID := make(map[string]int, len(components))
	for i, c := range components {
		if strings.TrimSpace(c.ID) == "" {
			return nil, fmt.Errorf("component at index %d has an empty id", i)
		}
		if _, exists := byID[c.ID]; exists {
			return nil, fmt.Errorf("duplicate component id %q", c.ID)
		}
		byID[c.ID] = i
	}

	graph := NewDependencyGraph(components)
	if err := graph.DetectCycles(); err != nil {
		return nil, err
	}

	return &Planner{
		components: components,
		byID:       byID,
		graph:      graph,
	}, nil
}

// Components returns the catalog in declared order
func (p *Planner) Components() []model.Component {
	return p.components
}

// Component looks up a catalog entry by id
func (p *Planner) Component(id string) (model.Component, bool) {
	i, ok := p.byID[id]
	if !ok {
		return model.Component{}, false
	}
	return p.components[i], true
}

// Supported returns the catalog entries installable on arch, in catalog order
func (p *Planner) Supported(arch model.Architecture) []model.Component {
	out := make([]model.Component, 0, len(p.components))
	for _, c := range p.components {
		if c.Supports(arch) {
			out = append(out, c)
		}
	}
	return out
}

// ResolvePlan computes the ordered install plan for a selection. Required
// components are always included, the selection is closed under
// dependencies, and the result keeps catalog order.
func (p *Planner) ResolvePlan(selected []string, credential string, arch model.Architecture) (model.Plan, error) {
	if strings.TrimSpace(credential) == "" {
		return model.Plan{}, ErrMissingCredential
	}
	return p.Closure(selected, arch)
}

// Closure is ResolvePlan without the credential gate, for previews.
func (p *Planner) Closure(selected []string, arch model.Architecture) (model.Plan, error) {
	supported := p.Supported(arch)
	available := make(map[string]model.Component, len(supported))
	for _, c := range supported {
		available[c.ID] = c
	}

	closed := make(map[string]bool)
	worklist := make([]string, 0, len(supported))
	add := func(id string) {
		if closed[id] {
			return
		}
		closed[id] = true
		worklist = append(worklist, id)
	}

	for _, c := range supported {
		if c.Required {
			add(c.ID)
		}
	}
	for _, id := range selected {
		if _, ok := available[id]; ok {
			add(id)
		}
	}

	for len(worklist) > 0 {
		id := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		for _, dep := range available[id].Dependencies {
			if _, ok := available[dep]; !ok {
				return model.Plan{}, &UnknownDependencyError{Parent: id, Dependency: dep}
			}
			add(dep)
		}
	}

	plan := model.Plan{Architecture: arch, Components: make([]model.Component, 0, len(closed))}
	for _, c := range supported {
		if closed[c.ID] {
			plan.Components = append(plan.Components, c)
		}
	}
	return plan, nil
}

// TopologicalOrder returns every catalog id with dependencies first
func (p *Planner) TopologicalOrder() ([]string, error) {
	return p.graph.TopologicalSort()
}

// UnknownDependencies lists every dependency reference that no catalog entry
// satisfies, regardless of architecture.
func (p *Planner) UnknownDependencies() []*UnknownDependencyError {
	var out []*UnknownDependencyError
	for _, c := range p.components {
		for _, dep := range c.Dependencies {
			if _, ok := p.byID[dep]; !ok {
				out = append(out, &UnknownDependencyError{Parent: c.ID, Dependency: dep})
			}
		}
	}
	return out
}
