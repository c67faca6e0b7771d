// Package plan orders declared resources by their dependencies.
package plan

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	staticsite "github.com/lex00/wetwire-staticsite-go"
)

// ErrCycle is returned when the dependency graph is not acyclic.
var ErrCycle = errors.New("circular dependency detected")

// Order returns resource names so that every resource follows its
// dependencies. Ties are broken alphabetically, so the result is stable.
// Dependencies on undeclared resources are ignored.
func Order(resources map[string]staticsite.DiscoveredResource) ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range resources {
		graph[name] = nil
		inDegree[name] = 0
	}

	for name, res := range resources {
		for _, dep := range res.Dependencies {
			if _, exists := resources[dep]; exists {
				graph[dep] = append(graph[dep], name)
				inDegree[name]++
			}
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	result := make([]string, 0, len(resources))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(resources) {
		return nil, detectCycle(resources)
	}

	return result, nil
}

// Reverse returns order reversed, the teardown order.
func Reverse(order []string) []string {
	reversed := make([]string, len(order))
	for i, name := range order {
		reversed[len(order)-1-i] = name
	}
	return reversed
}

// detectCycle finds and reports a cycle in the dependency graph. The report
// starts and ends at the resource the cycle closes on.
func detectCycle(resources map[string]staticsite.DiscoveredResource) error {
	visited := make(map[string]bool)
	onPath := make(map[string]bool)
	var path []string

	var cycle []string
	var findCycle func(node string) bool
	findCycle = func(node string) bool {
		visited[node] = true
		onPath[node] = true
		path = append(path, node)

		for _, dep := range resources[node].Dependencies {
			if _, exists := resources[dep]; !exists {
				continue
			}
			if onPath[dep] {
				for i, name := range path {
					if name == dep {
						cycle = append(append([]string{}, path[i:]...), dep)
						break
					}
				}
				return true
			}
			if !visited[dep] && findCycle(dep) {
				return true
			}
		}

		onPath[node] = false
		path = path[:len(path)-1]
		return false
	}

	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !visited[name] && findCycle(name) {
			break
		}
	}

	if len(cycle) == 0 {
		return ErrCycle
	}

	var msg strings.Builder
	msg.WriteString("  ")
	for i, name := range cycle {
		res := resources[name]
		fmt.Fprintf(&msg, "%s (%s:%d)", name, res.File, res.Line)
		if i < len(cycle)-1 {
			msg.WriteString("\n    → ")
		}
	}
	return fmt.Errorf("%w:\n%s", ErrCycle, msg.String())
}
