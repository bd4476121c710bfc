package refs_test

import (
	"testing"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/cfg"
	"github.com/tiobe/closure-compiler/internal/refs"
	"github.com/tiobe/closure-compiler/internal/scope"
)

type reporterStub struct{}

func (reporterStub) ReportChange(*ast.Tree, ast.NodeID)          {}
func (reporterStub) ReportFunctionDeleted(*ast.Tree, ast.NodeID) {}

func TestAssignedOnceInLifetimeRejectsLoopWrites(t *testing.T) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)
	write := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(reporterStub{}, program, write)

	g := cfg.Build(tree, program)
	v := &scope.Variable{Name: "x"}

	access := func(tr *ast.Tree, node ast.NodeID) []struct {
		Var  *scope.Variable
		Kind refs.Kind
	} {
		return []struct {
			Var  *scope.Variable
			Kind refs.Kind
		}{{Var: v, Kind: refs.Write}}
	}

	collected := refs.Collect(tree, g, access, func(cfg.VertexID) bool { return true }, false, func(ast.NodeID) bool { return false })
	c := collected[v]
	if c.AssignedOnceInLifetime() {
		t.Fatal("a write inside a loop must not be classified assigned-once-in-lifetime")
	}
}

func TestAssignedOnceInLifetimeAcceptsSingleStraightLineWrite(t *testing.T) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)
	write := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(reporterStub{}, program, write)

	g := cfg.Build(tree, program)
	v := &scope.Variable{Name: "x"}

	access := func(tr *ast.Tree, node ast.NodeID) []struct {
		Var  *scope.Variable
		Kind refs.Kind
	} {
		return []struct {
			Var  *scope.Variable
			Kind refs.Kind
		}{{Var: v, Kind: refs.Write}}
	}

	collected := refs.Collect(tree, g, access, func(cfg.VertexID) bool { return false }, false, func(ast.NodeID) bool { return false })
	c := collected[v]
	if !c.AssignedOnceInLifetime() {
		t.Fatal("a single straight-line write should be assigned-once-in-lifetime")
	}
}

func TestWellDefinedRejectsReadBeforeWrite(t *testing.T) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)
	read := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(reporterStub{}, program, read)
	write := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(reporterStub{}, program, write)

	g := cfg.Build(tree, program)
	v := &scope.Variable{Name: "x"}

	access := func(tr *ast.Tree, node ast.NodeID) []struct {
		Var  *scope.Variable
		Kind refs.Kind
	} {
		if node == read {
			return []struct {
				Var  *scope.Variable
				Kind refs.Kind
			}{{Var: v, Kind: refs.Read}}
		}
		return []struct {
			Var  *scope.Variable
			Kind refs.Kind
		}{{Var: v, Kind: refs.Write}}
	}

	collected := refs.Collect(tree, g, access, func(cfg.VertexID) bool { return false }, false, func(ast.NodeID) bool { return false })
	c := collected[v]
	if c.WellDefined() {
		t.Fatal("a read occurring before any write must not be well-defined")
	}
}
