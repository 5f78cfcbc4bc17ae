package planner

import (
	"fmt"
	"strings"

	"github.com/sourceplane/devsetup/internal/model"
)

// CycleError reports a dependency cycle found in the catalog
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected in component dependencies: %s", strings.Join(e.Path, " -> "))
}

// DependencyGraph is the DAG of catalog components with cycle detection and
// topological sorting. Dependencies on ids outside the graph are ignored here;
// the planner reports them when a selection reaches them.
type DependencyGraph struct {
	components map[string]model.Component
	order      []string
}

// NewDependencyGraph creates a graph preserving catalog order for tie-breaks
func NewDependencyGraph(components []model.Component) *DependencyGraph {
	g := &DependencyGraph{
		components: make(map[string]model.Component, len(components)),
		order:      make([]string, 0, len(components)),
	}
	for _, c := range components {
		if _, exists := g.components[c.ID]; !exists {
			g.order = append(g.order, c.ID)
		}
		g.components[c.ID] = c
	}
	return g
}

// DetectCycles performs cycle detection on the dependency graph using DFS
func (g *DependencyGraph) DetectCycles() error {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for _, id := range g.order {
		if visited[id] {
			continue
		}
		if path := g.cycleDFS(id, visited, recStack, nil); path != nil {
			return &CycleError{Path: path}
		}
	}

	return nil
}

// cycleDFS returns the cycle path when one is reachable from node
func (g *DependencyGraph) cycleDFS(node string, visited, recStack map[string]bool, stack []string) []string {
	visited[node] = true
	recStack[node] = true
	stack = append(stack, node)

	component, exists := g.components[node]
	if !exists {
		recStack[node] = false
		return nil
	}

	for _, dep := range component.Dependencies {
		if _, known := g.components[dep]; !known {
			continue
		}
		if !visited[dep] {
			if path := g.cycleDFS(dep, visited, recStack, stack); path != nil {
				return path
			}
		} else if recStack[dep] {
			for i, id := range stack {
				if id == dep {
					cycle := append([]string{}, stack[i:]...)
					return append(cycle, dep)
				}
			}
		}
	}

	recStack[node] = false
	return nil
}

// TopologicalSort orders component ids so dependencies come first, using
// Kahn's algorithm. Ties resolve in catalog order.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	dependents := make(map[string][]string, len(g.order))
	inDegree := make(map[string]int, len(g.order))
	position := make(map[string]int, len(g.order))

	for i, id := range g.order {
		inDegree[id] = 0
		position[id] = i
	}

	for _, id := range g.order {
		for _, dep := range g.components[id].Dependencies {
			if _, known := g.components[dep]; !known {
				continue
			}
			dependents[dep] = append(dependents[dep], id)
			inDegree[id]++
		}
	}

	ready := make([]string, 0)
	for _, id := range g.order {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	sorted := make([]string, 0, len(g.order))
	for len(ready) > 0 {
		next := 0
		for i := range ready {
			if position[ready[i]] < position[ready[next]] {
				next = i
			}
		}
		current := ready[next]
		ready = append(ready[:next], ready[next+1:]...)
		sorted = append(sorted, current)

		for _, dependent := range dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(sorted) != len(g.order) {
		return nil, fmt.Errorf("failed to topologically sort: possible cycle detected")
	}

	return sorted, nil
}

// Dependents returns the ids that directly depend on id, in catalog order
func (g *DependencyGraph) Dependents(id string) []string {
	out := make([]string, 0)
	for _, other := range g.order {
		for _, dep := range g.components[other].Dependencies {
			if dep == id {
				out = append(out, other)
				break
			}
		}
	}
	return out
}
