package passes

import (
	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/compat"
	"github.com/tiobe/closure-compiler/internal/helpers"
	"github.com/tiobe/closure-compiler/internal/instance"
)

// ConstantFoldPass folds a binary arithmetic expression over two number
// literals into a single number literal, e.g. `1 + 5` becomes `6`. This is
// the peephole half of spec.md's scenario 1 ("Constant folding through
// inlining"): once a prior pass (variable inlining, elsewhere in the
// schedule) has substituted a literal for a variable reference, this pass
// collapses the resulting literal arithmetic. It is Repeatable because
// folding one expression can expose another one level up
// (`(1 + 2) + 3` folds in two rounds).
type ConstantFoldPass struct{}

func (ConstantFoldPass) Name() string                 { return "constant-folding" }
func (ConstantFoldPass) FeatureSet() compat.FeatureSet { return compat.ES3() }
func (ConstantFoldPass) Repeatable() bool              { return true }

func (ConstantFoldPass) Run(ctx *instance.Context, tree *ast.Tree) (changed bool) {
	if !tree.Root().IsValid() {
		return false
	}
	ast.Walk(tree, tree.Root(), ast.WalkFunc(func(t *ast.Tree, id ast.NodeID, parent ast.NodeID) ast.VisitAction {
		n := t.Get(id)
		if n.Kind != ast.KindBinary {
			return ast.Continue
		}
		folded, ok := foldBinary(t, id)
		if !ok {
			return ast.Continue
		}
		t.Replace(ctx, id, folded)
		changed = true
		return ast.SkipChildren
	}))
	return changed
}

// foldBinary computes the constant result of id (a KindBinary node) when
// both operands are number literals and the operator is a pure arithmetic
// operator, returning a new detached KindLiteralNumber node. "+" is safe
// to fold here even though it is overloaded with string concatenation in
// general, because both operands are already known (by numberLiteral's
// check) to be number literals, not merely values that could turn out to
// be numbers -- number-plus-number is always numeric addition in JS.
func foldBinary(t *ast.Tree, id ast.NodeID) (ast.NodeID, bool) {
	n := t.Get(id)
	if len(n.Children) != 2 {
		return ast.InvalidNodeID, false
	}
	op, ok := n.Data.(ast.OpData)
	if !ok {
		return ast.InvalidNodeID, false
	}

	left, lok := numberLiteral(t, n.Children[0])
	right, rok := numberLiteral(t, n.Children[1])
	if !lok || !rok {
		return ast.InvalidNodeID, false
	}

	result, ok := applyArithmetic(op.Operator, left, right)
	if !ok {
		return ast.InvalidNodeID, false
	}

	folded := t.NewNode(ast.KindLiteralNumber)
	t.Get(folded).Data = ast.LiteralData{NumberValue: result.Value()}
	t.Get(folded).SourceIndex = n.SourceIndex
	t.Get(folded).Loc = n.Loc
	t.Get(folded).EndLoc = n.EndLoc
	return folded, true
}

func numberLiteral(t *ast.Tree, id ast.NodeID) (helpers.F64, bool) {
	n := t.Get(id)
	if n.Kind != ast.KindLiteralNumber {
		return helpers.F64{}, false
	}
	data, ok := n.Data.(ast.LiteralData)
	if !ok {
		return helpers.F64{}, false
	}
	return helpers.NewF64(data.NumberValue), true
}

func applyArithmetic(operator string, a, b helpers.F64) (helpers.F64, bool) {
	switch operator {
	case "+":
		return a.Add(b), true
	case "-":
		return a.Sub(b), true
	case "*":
		return a.Mul(b), true
	case "/":
		return a.Div(b), true
	case "**":
		return a.Pow(b), true
	default:
		return helpers.F64{}, false
	}
}
