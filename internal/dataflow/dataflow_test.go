package dataflow_test

import (
	"testing"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/cfg"
	"github.com/tiobe/closure-compiler/internal/dataflow"
)

// reachable is a one-bit lattice used to sanity-check the worklist engine:
// join is boolean OR, bottom is false.
type reachable struct{ v bool }

func (r *reachable) Join(other dataflow.State) bool {
	o := other.(*reachable)
	if o.v && !r.v {
		r.v = true
		return true
	}
	return false
}

func (r *reachable) Clone() dataflow.State { return &reachable{v: r.v} }

func TestForwardReachabilityConverges(t *testing.T) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)

	// program: if (x) { a; } b;
	ifNode := tree.NewNode(ast.KindIf)
	tree.AppendChild(reporterStub{}, program, ifNode)
	testExpr := tree.NewNode(ast.KindName)
	tree.AppendChild(reporterStub{}, ifNode, testExpr)
	thenBlock := tree.NewNode(ast.KindBlock)
	tree.AppendChild(reporterStub{}, ifNode, thenBlock)
	aStmt := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(reporterStub{}, thenBlock, aStmt)

	bStmt := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(reporterStub{}, program, bStmt)

	graph := cfg.Build(tree, program)

	result := dataflow.Run(dataflow.Analysis{
		Graph:     graph,
		Direction: dataflow.Forward,
		Bottom:    func() dataflow.State { return &reachable{} },
		Transfer: func(v cfg.VertexID, in dataflow.State) dataflow.State {
			out := in.Clone().(*reachable)
			if v == graph.Entry {
				out.v = true
			}
			return out
		},
	})

	if !result.Out[graph.Entry].(*reachable).v {
		t.Fatal("expected entry to be marked reachable")
	}
	if !result.In[graph.ImplicitReturn].(*reachable).v {
		t.Fatal("expected implicit return to be reachable from entry")
	}
}

type reporterStub struct{}

func (reporterStub) ReportChange(*ast.Tree, ast.NodeID)          {}
func (reporterStub) ReportFunctionDeleted(*ast.Tree, ast.NodeID) {}
