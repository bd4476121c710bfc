// Package graph models the module dependency DAG from §6 ("a set of
// *modules*: named groups with an explicit dependency DAG"), consulted by
// callers of internal/refs.MovableDeclaration to decide whether a
// declaration's home module is (transitively) visible from a candidate
// destination module before considering variable-level movability at all
// (§4.5's "cross-module movability check").
package graph

import "sort"

// ModuleGraph is a directed acyclic graph over module names. Edges point
// from a module to the modules it depends on, mirroring the teacher's own
// LinkerGraph shape (a deterministic, sorted reachable-file order computed
// once and reused by every later query) but keyed by module name instead
// of source index, since this package never sees parsed files.
type ModuleGraph struct {
	dependsOn map[string]map[string]bool
	modules   []string
}

func NewModuleGraph() *ModuleGraph {
	return &ModuleGraph{dependsOn: make(map[string]map[string]bool)}
}

// AddModule registers name with no dependencies if it isn't already
// present. Called automatically by AddDependency for both endpoints, but
// exposed directly so an isolated (dependency-free) module can be
// registered too.
func (g *ModuleGraph) AddModule(name string) {
	if _, ok := g.dependsOn[name]; ok {
		return
	}
	g.dependsOn[name] = make(map[string]bool)
	g.modules = append(g.modules, name)
}

// AddDependency records that from depends on to. Both endpoints are
// registered as modules if new.
func (g *ModuleGraph) AddDependency(from, to string) {
	g.AddModule(from)
	g.AddModule(to)
	g.dependsOn[from][to] = true
}

// Modules returns every registered module name in a deterministic
// (sorted) order, matching the teacher's "sorted... to help ensure
// deterministic builds" discipline for its own ReachableFiles array.
func (g *ModuleGraph) Modules() []string {
	out := append([]string(nil), g.modules...)
	sort.Strings(out)
	return out
}

// Reaches reports whether from can reach to by following zero or more
// dependency edges (from == to is always reachable). This is the DAG
// query §4.5's cross-module movability check needs: a declaration can
// only be relocated into a module that already sees (transitively depends
// on) the declaration's current home module, or into that home module
// itself.
func (g *ModuleGraph) Reaches(from, to string) bool {
	if from == to {
		return true
	}
	visited := make(map[string]bool)
	var walk func(cur string) bool
	walk = func(cur string) bool {
		if visited[cur] {
			return false
		}
		visited[cur] = true
		for dep := range g.dependsOn[cur] {
			if dep == to || walk(dep) {
				return true
			}
		}
		return false
	}
	return walk(from)
}

// CanMoveTo is the module-level half of "cross-module movability": a
// declaration living in fromModule may be relocated into toModule only if
// toModule already has (or gains, transitively) visibility of
// fromModule's exports, i.e. toModule depends on fromModule. Callers
// combine this with internal/refs.MovableDeclaration's variable-level
// check (assigned-once, pure initializer, no captured mutable state)
// before actually performing the move.
func (g *ModuleGraph) CanMoveTo(fromModule, toModule string) bool {
	return toModule == fromModule || g.Reaches(toModule, fromModule)
}

// TopoOrder returns modules in dependency order (a module's dependencies
// precede it), or ok=false if the graph has a cycle -- a DAG violation
// that §6 rules out by construction ("explicit dependency DAG") but which
// this package still detects defensively since nothing upstream of it
// enforces acyclicity.
func (g *ModuleGraph) TopoOrder() (order []string, ok bool) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(g.modules))
	order = make([]string, 0, len(g.modules))

	var visit func(name string) bool
	visit = func(name string) bool {
		switch state[name] {
		case done:
			return true
		case visiting:
			return false
		}
		state[name] = visiting
		deps := make([]string, 0, len(g.dependsOn[name]))
		for dep := range g.dependsOn[name] {
			deps = append(deps, dep)
		}
		sort.Strings(deps)
		for _, dep := range deps {
			if !visit(dep) {
				return false
			}
		}
		state[name] = done
		order = append(order, name)
		return true
	}

	for _, m := range g.Modules() {
		if !visit(m) {
			return nil, false
		}
	}
	return order, true
}
