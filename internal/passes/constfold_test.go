package passes_test

import (
	"testing"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/compat"
	"github.com/tiobe/closure-compiler/internal/passes"
)

func numberLit(t *ast.Tree, ctx ast.ChangeReporter, parent ast.NodeID, value float64) ast.NodeID {
	n := t.NewNode(ast.KindLiteralNumber)
	t.Get(n).Data = ast.LiteralData{NumberValue: value}
	t.AppendChild(ctx, parent, n)
	return n
}

func binary(t *ast.Tree, ctx ast.ChangeReporter, parent ast.NodeID, operator string) ast.NodeID {
	n := t.NewNode(ast.KindBinary)
	t.Get(n).Data = ast.OpData{Operator: operator}
	t.AppendChild(ctx, parent, n)
	return n
}

// TestConstantFoldPassFoldsSimpleArithmetic builds `1 + 5` and checks it
// folds to the single literal 6 (spec.md scenario 1, minus the preceding
// variable-inlining step which a different pass in the schedule handles).
func TestConstantFoldPassFoldsSimpleArithmetic(t *testing.T) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)
	ctx := newTestContext(t, tree)

	stmt := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(ctx, program, stmt)
	add := binary(tree, ctx, stmt, "+")
	numberLit(tree, ctx, add, 1)
	numberLit(tree, ctx, add, 5)

	m := passes.NewManager(compat.ES3(), 10)
	m.Add(passes.ConstantFoldPass{})
	m.Run(ctx, tree)

	folded := tree.Children(stmt)[0]
	n := tree.Get(folded)
	if n.Kind != ast.KindLiteralNumber {
		t.Fatalf("expected the binary expression to fold to a literal, got kind %v", n.Kind)
	}
	if got := n.Data.(ast.LiteralData).NumberValue; got != 6 {
		t.Fatalf("expected 1 + 5 to fold to 6, got %v", got)
	}
	if ctx.Log.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Log.Done())
	}
}

// TestConstantFoldPassReachesFixedPointOverNestedExpressions checks that
// (1 + 2) * 3 folds all the way down to 9, exercising the repeatable-group
// loop folding one level per iteration.
func TestConstantFoldPassReachesFixedPointOverNestedExpressions(t *testing.T) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)
	ctx := newTestContext(t, tree)

	stmt := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(ctx, program, stmt)
	mul := binary(tree, ctx, stmt, "*")
	add := binary(tree, ctx, mul, "+")
	numberLit(tree, ctx, add, 1)
	numberLit(tree, ctx, add, 2)
	numberLit(tree, ctx, mul, 3)

	m := passes.NewManager(compat.ES3(), 10)
	m.Add(passes.ConstantFoldPass{})
	m.Run(ctx, tree)

	folded := tree.Children(stmt)[0]
	n := tree.Get(folded)
	if n.Kind != ast.KindLiteralNumber {
		t.Fatalf("expected full fold to a literal, got kind %v", n.Kind)
	}
	if got := n.Data.(ast.LiteralData).NumberValue; got != 9 {
		t.Fatalf("expected (1 + 2) * 3 to fold to 9, got %v", got)
	}
}

// TestConstantFoldPassSkipsNonLiteralOperands leaves a binary expression
// with a non-literal operand untouched.
func TestConstantFoldPassSkipsNonLiteralOperands(t *testing.T) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)
	ctx := newTestContext(t, tree)

	stmt := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(ctx, program, stmt)
	add := binary(tree, ctx, stmt, "+")
	name := tree.NewNode(ast.KindName)
	tree.Get(name).Data = ast.NameData{Text: "x"}
	tree.AppendChild(ctx, add, name)
	numberLit(tree, ctx, add, 5)

	m := passes.NewManager(compat.ES3(), 10)
	m.Add(passes.ConstantFoldPass{})
	m.Run(ctx, tree)

	if tree.Get(add).Kind != ast.KindBinary {
		t.Fatal("expected a binary expression with a non-literal operand to survive unfolded")
	}
}
