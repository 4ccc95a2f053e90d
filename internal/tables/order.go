package tables

import "fmt"

// RunOrder returns the subset of registered tables named in want, ordered
// so that every table follows the tables it depends on. Dependencies
// outside want are ignored. Ties follow registration order, which keeps
// the result stable run-to-run. A dependency cycle returns an error.
func (r *Registry) RunOrder(want []string) ([]string, error) {
	selected := make(map[string]bool, len(want))
	for _, name := range want {
		if !r.Has(name) {
			return nil, fmt.Errorf("run order: unknown table %q", name)
		}
		selected[name] = true
	}

	inDegree := make(map[string]int, len(selected))
	dependents := make(map[string][]string, len(selected))
	for _, name := range r.order {
		if !selected[name] {
			continue
		}
		inDegree[name] += 0
		for _, dep := range r.specs[name].DependsOn {
			if !selected[dep] {
				continue
			}
			dependents[dep] = append(dependents[dep], name)
			inDegree[name]++
		}
	}

	// Kahn's algorithm; the queue is seeded and refilled in
	// registration order for determinism.
	var queue, ordered []string
	for _, name := range r.order {
		if selected[name] && inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		ordered = append(ordered, current)
		for _, next := range dependents[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(ordered) != len(selected) {
		var stuck []string
		seen := make(map[string]bool, len(ordered))
		for _, name := range ordered {
			seen[name] = true
		}
		for _, name := range r.order {
			if selected[name] && !seen[name] {
				stuck = append(stuck, name)
			}
		}
		return nil, fmt.Errorf("run order: dependency cycle among tables %v", stuck)
	}
	return ordered, nil
}
