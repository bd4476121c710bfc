package cfg_test

import (
	"testing"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/cfg"
)

type reporterStub struct{}

func (reporterStub) ReportChange(*ast.Tree, ast.NodeID)          {}
func (reporterStub) ReportFunctionDeleted(*ast.Tree, ast.NodeID) {}

func TestStraightLineFallsThroughToImplicitReturn(t *testing.T) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)
	a := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(reporterStub{}, program, a)
	b := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(reporterStub{}, program, b)

	g := cfg.Build(tree, program)

	va := g.VertexForNode(a)
	vb := g.VertexForNode(b)
	if va == cfg.NoVertex || vb == cfg.NoVertex {
		t.Fatal("expected vertices for both statements")
	}

	foundAToB := false
	for _, e := range g.Succs[va] {
		if e.To == vb && e.Label == cfg.Unconditional {
			foundAToB = true
		}
	}
	if !foundAToB {
		t.Fatal("expected unconditional edge from a to b")
	}

	foundBToReturn := false
	for _, e := range g.Succs[vb] {
		if e.To == g.ImplicitReturn {
			foundBToReturn = true
		}
	}
	if !foundBToReturn {
		t.Fatal("expected b to fall through to the implicit return sink")
	}
}

func TestThrowGoesToExitEnvironmentsNotImplicitReturn(t *testing.T) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)
	th := tree.NewNode(ast.KindThrow)
	tree.AppendChild(reporterStub{}, program, th)

	g := cfg.Build(tree, program)
	vth := g.VertexForNode(th)

	for _, e := range g.Succs[vth] {
		if e.To == g.ImplicitReturn {
			t.Fatal("throw must not flow to the implicit return sink")
		}
	}
	found := false
	for _, e := range g.Succs[vth] {
		if e.To == g.ExitEnvironments && e.Label == cfg.OnEx {
			found = true
		}
	}
	if !found {
		t.Fatal("expected throw to flow to exit environments via an EX edge")
	}
}

func TestDoWhileGuaranteesOneIteration(t *testing.T) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)
	loop := tree.NewNode(ast.KindDoWhile)
	tree.AppendChild(reporterStub{}, program, loop)
	body := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(reporterStub{}, loop, body)
	test := tree.NewNode(ast.KindName)
	tree.AppendChild(reporterStub{}, loop, test)

	g := cfg.Build(tree, program)
	vbody := g.VertexForNode(body)

	foundEntryToBody := false
	for _, e := range g.Preds[vbody] {
		if e.To == g.Entry {
			foundEntryToBody = true
		}
	}
	if !foundEntryToBody {
		t.Fatal("expected the loop body to be reached directly from entry, unconditionally")
	}
}

func TestIfWithoutElseJoinsOnFalse(t *testing.T) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)
	ifNode := tree.NewNode(ast.KindIf)
	tree.AppendChild(reporterStub{}, program, ifNode)
	testExpr := tree.NewNode(ast.KindName)
	tree.AppendChild(reporterStub{}, ifNode, testExpr)
	thenBlock := tree.NewNode(ast.KindBlock)
	tree.AppendChild(reporterStub{}, ifNode, thenBlock)

	after := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(reporterStub{}, program, after)

	g := cfg.Build(tree, program)
	vif := g.VertexForNode(ifNode)
	vafter := g.VertexForNode(after)

	reachesAfterOnFalse := false
	for _, e := range g.Succs[vif] {
		if e.Label == cfg.OnFalse {
			// Either directly, or via the synthetic join vertex -- walk one
			// hop of unconditional edges to allow for the join node.
			if e.To == vafter {
				reachesAfterOnFalse = true
			} else {
				for _, e2 := range g.Succs[e.To] {
					if e2.To == vafter {
						reachesAfterOnFalse = true
					}
				}
			}
		}
	}
	if !reachesAfterOnFalse {
		t.Fatal("expected the false branch of an else-less if to reach the following statement")
	}
}

func TestReversePostorderStartsAtEntry(t *testing.T) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)
	a := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(reporterStub{}, program, a)

	g := cfg.Build(tree, program)
	order := g.ReversePostorder()
	if len(order) == 0 || order[0] != g.Entry {
		t.Fatal("expected entry to be first in reverse postorder")
	}
}
