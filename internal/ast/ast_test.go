package ast_test

import (
	"testing"

	"github.com/tiobe/closure-compiler/internal/ast"
)

type countingReporter struct {
	changed []ast.NodeID
	deleted []ast.NodeID
}

func (r *countingReporter) ReportChange(t *ast.Tree, scopeRoot ast.NodeID) {
	r.changed = append(r.changed, scopeRoot)
}

func (r *countingReporter) ReportFunctionDeleted(t *ast.Tree, fn ast.NodeID) {
	r.deleted = append(r.deleted, fn)
}

func TestAppendChildSetsParent(t *testing.T) {
	tree := ast.NewTree()
	root := tree.NewNode(ast.KindProgram)
	tree.SetRoot(root)
	child := tree.NewNode(ast.KindExprStatement)

	r := &countingReporter{}
	tree.AppendChild(r, root, child)

	if tree.Parent(child) != root {
		t.Fatal("expected child's parent to be root")
	}
	if len(tree.Children(root)) != 1 || tree.Children(root)[0] != child {
		t.Fatal("expected root to have exactly one child")
	}
	if len(r.changed) != 1 || r.changed[0] != root {
		t.Fatalf("expected exactly one change report against root, got %+v", r.changed)
	}
}

func TestDetachMakesNodeUnreachableButAlive(t *testing.T) {
	tree := ast.NewTree()
	root := tree.NewNode(ast.KindProgram)
	tree.SetRoot(root)
	child := tree.NewNode(ast.KindExprStatement)
	r := &countingReporter{}
	tree.AppendChild(r, root, child)

	tree.Detach(r, child)

	if tree.Contains(child) {
		t.Fatal("expected detached child to be unreachable from root")
	}
	if !tree.Get(child).Detached {
		t.Fatal("expected Node.Detached to be true after Detach")
	}
	if len(tree.Children(root)) != 0 {
		t.Fatal("expected root to have no children after detaching its only child")
	}
}

func TestReplacePreservesPosition(t *testing.T) {
	tree := ast.NewTree()
	root := tree.NewNode(ast.KindBlock)
	tree.SetRoot(root)
	a := tree.NewNode(ast.KindExprStatement)
	b := tree.NewNode(ast.KindExprStatement)
	c := tree.NewNode(ast.KindExprStatement)
	r := &countingReporter{}
	tree.AppendChild(r, root, a)
	tree.AppendChild(r, root, b)
	tree.AppendChild(r, root, c)

	replacement := tree.NewNode(ast.KindEmptyStatement)
	tree.Replace(r, b, replacement)

	children := tree.Children(root)
	if len(children) != 3 || children[1] != replacement {
		t.Fatalf("expected replacement at position 1, got %+v", children)
	}
	if !tree.Get(b).Detached {
		t.Fatal("expected replaced-out node to be marked detached")
	}
}

func TestWalkVisitsInSourceOrder(t *testing.T) {
	tree := ast.NewTree()
	root := tree.NewNode(ast.KindBlock)
	tree.SetRoot(root)
	a := tree.NewNode(ast.KindExprStatement)
	b := tree.NewNode(ast.KindExprStatement)
	r := &countingReporter{}
	tree.AppendChild(r, root, a)
	tree.AppendChild(r, root, b)

	var order []ast.NodeID
	ast.Walk(tree, root, ast.WalkFunc(func(t *ast.Tree, id ast.NodeID, parent ast.NodeID) ast.VisitAction {
		order = append(order, id)
		return ast.Continue
	}))

	if len(order) != 3 || order[0] != root || order[1] != a || order[2] != b {
		t.Fatalf("unexpected traversal order: %+v", order)
	}
}

func TestWalkStopHaltsTraversal(t *testing.T) {
	tree := ast.NewTree()
	root := tree.NewNode(ast.KindBlock)
	tree.SetRoot(root)
	a := tree.NewNode(ast.KindExprStatement)
	b := tree.NewNode(ast.KindExprStatement)
	r := &countingReporter{}
	tree.AppendChild(r, root, a)
	tree.AppendChild(r, root, b)

	visited := 0
	ast.Walk(tree, root, ast.WalkFunc(func(t *ast.Tree, id ast.NodeID, parent ast.NodeID) ast.VisitAction {
		visited++
		if id == a {
			return ast.Stop
		}
		return ast.Continue
	}))

	if visited != 2 {
		t.Fatalf("expected traversal to stop after visiting 2 nodes, visited %d", visited)
	}
}

func TestDocSuppressions(t *testing.T) {
	var doc *ast.Doc
	if doc.IsSuppressed("duplicate") {
		t.Fatal("nil doc should never suppress")
	}
	doc = &ast.Doc{Suppressions: map[string]bool{"duplicate": true}}
	if !doc.IsSuppressed("duplicate") {
		t.Fatal("expected duplicate to be suppressed")
	}
	if doc.IsSuppressed("other") {
		t.Fatal("did not expect other to be suppressed")
	}
	doc.Suppressions["*"] = true
	if !doc.IsSuppressed("anything") {
		t.Fatal("expected wildcard suppression to cover any key")
	}
}
