package graph_test

import (
	"testing"

	"github.com/tiobe/closure-compiler/internal/graph"
)

func TestReachesFollowsTransitiveDependencies(t *testing.T) {
	g := graph.NewModuleGraph()
	g.AddDependency("app", "ui")
	g.AddDependency("ui", "core")

	if !g.Reaches("app", "core") {
		t.Fatal("expected app to transitively reach core through ui")
	}
	if g.Reaches("core", "app") {
		t.Fatal("did not expect core to reach app")
	}
	if !g.Reaches("app", "app") {
		t.Fatal("a module always reaches itself")
	}
}

func TestCanMoveToRequiresVisibility(t *testing.T) {
	g := graph.NewModuleGraph()
	g.AddDependency("app", "core")

	if !g.CanMoveTo("core", "app") {
		t.Fatal("a declaration in core should be movable into app, which depends on core")
	}
	if g.CanMoveTo("app", "core") {
		t.Fatal("a declaration in app should not be movable into core, which cannot see app")
	}
	if !g.CanMoveTo("core", "core") {
		t.Fatal("a module can always host its own declarations")
	}
}

func TestTopoOrderPlacesDependenciesFirst(t *testing.T) {
	g := graph.NewModuleGraph()
	g.AddDependency("app", "ui")
	g.AddDependency("app", "core")
	g.AddDependency("ui", "core")

	order, ok := g.TopoOrder()
	if !ok {
		t.Fatal("expected an acyclic graph to produce an order")
	}
	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	if pos["core"] > pos["ui"] || pos["ui"] > pos["app"] {
		t.Fatalf("expected core before ui before app, got %v", order)
	}
}

func TestTopoOrderDetectsCycle(t *testing.T) {
	g := graph.NewModuleGraph()
	g.AddDependency("a", "b")
	g.AddDependency("b", "a")

	if _, ok := g.TopoOrder(); ok {
		t.Fatal("expected a cycle to be detected")
	}
}

func TestModulesIsSortedAndIncludesIsolatedModules(t *testing.T) {
	g := graph.NewModuleGraph()
	g.AddDependency("b", "a")
	g.AddModule("z")

	got := g.Modules()
	want := []string{"a", "b", "z"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
