package bundle

import (
	"fmt"
	"sort"
	"strings"
)

// RequirementGraph represents the requirement edges between modules
type RequirementGraph struct {
	nodes map[string]*Module
	edges map[string][]string // module -> required modules
}

// NewRequirementGraph creates a graph over modules. Requirements naming
// modules outside the map are ignored.
func NewRequirementGraph(modules map[string]*Module) *RequirementGraph {
	graph := &RequirementGraph{
		nodes: modules,
		edges: make(map[string][]string),
	}

	for name, m := range modules {
		for _, req := range m.Requires {
			if _, ok := modules[req.Module]; ok {
				graph.edges[name] = append(graph.edges[name], req.Module)
			}
		}
		sort.Strings(graph.edges[name])
	}

	return graph
}

// sortedNodes keeps traversal deterministic
func (g *RequirementGraph) sortedNodes() []string {
	names := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DetectCycles detects circular requirements in the graph
func (g *RequirementGraph) DetectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	recursionStack := make(map[string]bool)

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		visited[node] = true
		recursionStack[node] = true
		path = append(path, node)

		for _, neighbor := range g.edges[node] {
			if !visited[neighbor] {
				dfs(neighbor, path)
			} else if recursionStack[neighbor] {
				// Found cycle
				for i, n := range path {
					if n == neighbor {
						cycle := make([]string, len(path)-i)
						copy(cycle, path[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
			}
		}

		recursionStack[node] = false
	}

	for _, node := range g.sortedNodes() {
		if !visited[node] {
			dfs(node, []string{})
		}
	}

	return cycles
}

// TopologicalSort returns modules in requirement order (required modules
// first). Ties are broken by name.
func (g *RequirementGraph) TopologicalSort() ([]string, error) {
	outDegree := make(map[string]int)
	for node := range g.nodes {
		outDegree[node] = len(g.edges[node])
	}

	reverseEdges := make(map[string][]string)
	for source, targets := range g.edges {
		for _, target := range targets {
			reverseEdges[target] = append(reverseEdges[target], source)
		}
	}

	var queue []string
	for _, node := range g.sortedNodes() {
		if outDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		dependents := reverseEdges[node]
		sort.Strings(dependents)
		for _, dependent := range dependents {
			outDegree[dependent]--
			if outDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		cycles := g.DetectCycles()
		if len(cycles) > 0 {
			return nil, fmt.Errorf("%w:\n%s", ErrRequirementCycle, formatCycles(cycles))
		}
		return nil, ErrRequirementCycle
	}

	return result, nil
}

// Dependencies returns the modules directly required by module
func (g *RequirementGraph) Dependencies(module string) []string {
	deps, exists := g.edges[module]
	if !exists {
		return []string{}
	}
	return deps
}

// Dependents returns the modules that directly require module
func (g *RequirementGraph) Dependents(module string) []string {
	dependents := []string{}
	for _, node := range g.sortedNodes() {
		for _, dep := range g.edges[node] {
			if dep == module {
				dependents = append(dependents, node)
				break
			}
		}
	}
	return dependents
}

// formatCycles formats cycle information for error messages
func formatCycles(cycles [][]string) string {
	var b strings.Builder
	for i, cycle := range cycles {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("  Cycle %d: %s -> %s",
			i+1,
			strings.Join(cycle, " -> "),
			cycle[0]))
	}
	return b.String()
}
