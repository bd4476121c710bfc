package renamer_test

import (
	"testing"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/refs"
	"github.com/tiobe/closure-compiler/internal/renamer"
	"github.com/tiobe/closure-compiler/internal/scope"
)

type reporter struct{}

func (reporter) ReportChange(*ast.Tree, ast.NodeID)          {}
func (reporter) ReportFunctionDeleted(*ast.Tree, ast.NodeID) {}

func TestNoOpRenamerReturnsOriginalName(t *testing.T) {
	tree := ast.NewTree()
	root := tree.NewNode(ast.KindProgram)
	tree.SetRoot(root)
	creator := scope.NewScopeCreator(tree)
	s, err := creator.CreateScope(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	v := s.Declare("x", root, scope.KindVar, "", 0)

	r := renamer.NewNoOpRenamer()
	if got := r.NameForVariable(v); got != "x" {
		t.Fatalf("expected original name x, got %q", got)
	}
}

func TestNumberRenamerAvoidsCollisionWithReservedName(t *testing.T) {
	tree := ast.NewTree()
	root := tree.NewNode(ast.KindProgram)
	tree.SetRoot(root)
	creator := scope.NewScopeCreator(tree)
	s, err := creator.CreateScope(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	v := s.Declare("class", root, scope.KindVar, "", 0)

	reserved := renamer.ComputeReservedNames([]*scope.Scope{s})
	if !reserved["class"] {
		t.Fatal("expected 'class' to be a reserved keyword")
	}

	r := renamer.NewNumberRenamer(reserved)
	r.AssignNamesByScope(s)

	if got := r.NameForVariable(v); got == "class" {
		t.Fatalf("expected a renamed variable to avoid the reserved keyword, got %q", got)
	}
}

func TestNumberRenamerAvoidsCollisionAcrossNestedScopes(t *testing.T) {
	tree := ast.NewTree()
	root := tree.NewNode(ast.KindProgram)
	tree.SetRoot(root)
	fn := tree.NewNode(ast.KindFunctionDecl)
	tree.AppendChild(reporter{}, root, fn)

	creator := scope.NewScopeCreator(tree)
	outer, err := creator.CreateScope(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	inner, err := creator.CreateScope(fn, outer)
	if err != nil {
		t.Fatal(err)
	}
	outerVar := outer.Declare("x", root, scope.KindVar, "", 0)
	innerVar := inner.Declare("x", fn, scope.KindVar, "", 0)

	reserved := renamer.ComputeReservedNames([]*scope.Scope{outer, inner})
	r := renamer.NewNumberRenamer(reserved)
	r.AssignNamesByScope(outer)

	outerName := r.NameForVariable(outerVar)
	innerName := r.NameForVariable(innerVar)
	if outerName == innerName {
		t.Fatalf("expected distinct names for shadowing bindings, both got %q", outerName)
	}
	if outerName != "x" {
		t.Fatalf("expected the outer binding to keep its original name, got %q", outerName)
	}
}

func TestNumberRenamerNeverAssignsExternVariables(t *testing.T) {
	tree := ast.NewTree()
	root := tree.NewNode(ast.KindProgram)
	tree.SetRoot(root)
	creator := scope.NewScopeCreator(tree)
	s, err := creator.CreateScope(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	extern := s.Declare("window", root, scope.KindExtern, "", 0)

	r := renamer.NewNumberRenamer(renamer.ComputeReservedNames([]*scope.Scope{s}))
	r.AssignNamesByScope(s)

	if got := r.NameForVariable(extern); got != "window" {
		t.Fatalf("expected an extern binding to keep its name unchanged, got %q", got)
	}
}

func TestMinifyRenamerGivesShortestNameToMostUsedVariable(t *testing.T) {
	tree := ast.NewTree()
	root := tree.NewNode(ast.KindProgram)
	tree.SetRoot(root)
	creator := scope.NewScopeCreator(tree)
	s, err := creator.CreateScope(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	hot := s.Declare("total", root, scope.KindVar, "", 0)
	cold := s.Declare("temp", root, scope.KindVar, "", 0)

	r := renamer.NewMinifyRenamer(renamer.ComputeReservedNames([]*scope.Scope{s}))
	r.AccumulateFromReferences(hot, &refs.Collection{Var: hot, Refs: make([]refs.Reference, 11)})
	r.AccumulateFromReferences(cold, &refs.Collection{Var: cold, Refs: make([]refs.Reference, 1)})
	r.AssignNamesByFrequency()

	if got := r.NameForVariable(hot); got != "a" {
		t.Fatalf("expected the most frequently referenced variable to get the shortest name 'a', got %q", got)
	}
	if got := r.NameForVariable(cold); got == "a" {
		t.Fatal("expected distinct names for distinct variables")
	}
}

func TestPropertyRenamerIsConsistentAcrossCallSites(t *testing.T) {
	r := renamer.NewPropertyRenamer(nil)
	first := r.NameForProperty("innerHTML")
	second := r.NameForProperty("innerHTML")
	other := r.NameForProperty("value")

	if first != second {
		t.Fatalf("expected the same property to always rename the same way, got %q and %q", first, second)
	}
	if first == other {
		t.Fatal("expected distinct properties to get distinct names")
	}
}
