package planner

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sourceplane/devsetup/internal/model"
)

// ErrRequired is returned when toggling a required component
var ErrRequired = errors.New("required components cannot be toggled")

// Selection is the user's mutable choice of components. It always contains
// every required component and is closed under dependencies after each change.
type Selection struct {
	planner *Planner
	arch    model.Architecture
	ids     map[string]bool
}

// NewSelection seeds the default-selected and required components supported on arch.
func NewSelection(p *Planner, arch model.Architecture) *Selection {
	s := &Selection{planner: p, arch: arch, ids: make(map[string]bool)}
	for _, c := range p.Supported(arch) {
		if c.DefaultSelected || c.Required {
			s.ids[c.ID] = true
		}
	}
	s.close()
	return s
}

// Set selects or deselects id. Selecting pulls in its dependencies;
// deselecting also drops every non-required component that depends on it.
func (s *Selection) Set(id string, selected bool) error {
	c, ok := s.planner.Component(id)
	if !ok || !c.Supports(s.arch) {
		return fmt.Errorf("unknown component %q", id)
	}
	if c.Required {
		return fmt.Errorf("%s: %w", id, ErrRequired)
	}

	if selected {
		s.ids[id] = true
	} else {
		s.remove(id)
	}
	s.close()
	return nil
}

// Toggle flips the selection state of id
func (s *Selection) Toggle(id string) error {
	return s.Set(id, !s.ids[id])
}

func (s *Selection) Contains(id string) bool {
	return s.ids[id]
}

func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids sorted
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Selection) remove(id string) {
	stack := []string{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		delete(s.ids, current)

		for _, dependent := range s.planner.graph.Dependents(current) {
			c, _ := s.planner.Component(dependent)
			if c.Required || !s.ids[dependent] {
				continue
			}
			stack = append(stack, dependent)
		}
	}
}

// close adds dependencies until the set is closed. Missing dependencies are
// left for ResolvePlan to report.
func (s *Selection) close() {
	worklist := make([]string, 0, len(s.ids))
	for id := range s.ids {
		worklist = append(worklist, id)
	}
	for len(worklist) > 0 {
		id := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		c, ok := s.planner.Component(id)
		if !ok {
			continue
		}
		for _, dep := range c.Dependencies {
			depComponent, known := s.planner.Component(dep)
			if !known || !depComponent.Supports(s.arch) || s.ids[dep] {
				continue
			}
			s.ids[dep] = true
			worklist = append(worklist, dep)
		}
	}
}
