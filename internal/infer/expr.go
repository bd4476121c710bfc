package infer

import (
	"fmt"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/logger"
	"github.com/tiobe/closure-compiler/internal/scope"
	"github.com/tiobe/closure-compiler/internal/types"
)

// VarOf resolves a syntactic name node to the Variable it binds, or nil if
// none is found (an undeclared reference, which the caller diagnoses
// separately via MsgID_JS_UndeclaredVariable). Kept as an injected function
// rather than hardcoded scope-walking so this package does not need to
// know how the caller chose to attach scopes to nodes.
type VarOf func(name ast.NodeID) *scope.Variable

// Evaluator computes, for one expression node, an out-environment and
// result type given an in-environment and the two context hints §4.6
// names: requiredType (drives context/mismatch warnings) and
// specializedType (drives narrowing).
type Evaluator struct {
	VarOf VarOf

	// Registry, Log, and Source are wired by NewEngine. A bare Evaluator
	// built directly through NewEvaluator (as several narrow unit tests
	// do) leaves them at their zero values; every call-related diagnostic
	// and deferred-check helper below treats a nil Registry or a nil
	// Log.AddMsg as "nothing to defer against, nothing to report to"
	// rather than panicking.
	Registry *Registry
	Log      logger.Log
	Source   *logger.Source

	// CallerScope is the ScopeRoot of whichever function AnalyzeFunction is
	// currently walking, stamped onto every DeferredCheck created while
	// evaluating that function's body. A single mutable field is safe here
	// rather than a threaded parameter because compilation is
	// single-threaded and functions are analyzed one at a time (§5: "no
	// shared mutable state crosses instances ... no coroutines").
	CallerScope ast.NodeID

	// CompatibilityMode selects §4.6 Generics' ambiguity policy for a type
	// variable that unifies against more than one distinct actual type;
	// see config.Options.GenericsCompatibilityMode.
	CompatibilityMode bool
}

func NewEvaluator(varOf VarOf) *Evaluator {
	return &Evaluator{VarOf: varOf}
}

func (ev *Evaluator) reportError(tree *ast.Tree, node ast.NodeID, id logger.MsgID, text string) {
	if ev.Log.AddMsg == nil || nodeSuppressed(tree, node, id.String()) {
		return
	}
	ev.Log.AddError(ev.Source, tree.Get(node).Loc, id, text)
}

func (ev *Evaluator) reportPossibleWarning(tree *ast.Tree, node ast.NodeID, id logger.MsgID, text string) {
	if ev.Log.AddMsg == nil || nodeSuppressed(tree, node, id.String()) {
		return
	}
	ev.Log.AddPossibleWarning(ev.Source, tree.Get(node).Loc, id, text)
}

// nodeSuppressed walks from id up to the tree root looking for a
// "@suppress {key}" (or "@suppress *") annotation, mirroring
// internal/conformance's isSuppressed (see DESIGN.md "Open Question
// decisions" for the precedence rule this implements).
func nodeSuppressed(tree *ast.Tree, id ast.NodeID, key string) bool {
	for cur := id; cur.IsValid(); cur = tree.Parent(cur) {
		if tree.Get(cur).Doc.IsSuppressed(key) {
			return true
		}
	}
	return false
}

// Eval implements the "expression rules take (expr, inEnv, requiredType,
// specializedType) and return (outEnv, resultType)" contract of §4.6 step
// 4, for the expression node kinds this compiler core reasons about.
func (ev *Evaluator) Eval(tree *ast.Tree, expr ast.NodeID, in *Env, required types.Type, specialized types.Type) (*Env, types.Type) {
	if !expr.IsValid() {
		return in, types.Unknown()
	}
	n := tree.Get(expr)
	switch n.Kind {
	case ast.KindLiteralNumber:
		return in, types.Number()
	case ast.KindLiteralString:
		return in, types.String()
	case ast.KindLiteralBool:
		return in, types.Boolean()
	case ast.KindLiteralNull:
		return in, types.Null()
	case ast.KindLiteralUndefined:
		return in, types.Undefined()

	case ast.KindName:
		v := ev.VarOf(expr)
		if v == nil {
			return in, types.Unknown()
		}
		t := in.Get(v)
		if specialized.Tag != types.TagUnknown {
			t = types.Specialize(t, specialized)
		}
		return in, t

	case ast.KindUnary:
		return ev.evalUnary(tree, expr, n, in, required, specialized)

	case ast.KindLogical:
		return ev.evalLogical(tree, expr, n, in, required, specialized)

	case ast.KindBinary:
		return ev.evalBinary(tree, expr, n, in, required, specialized)

	case ast.KindAssign:
		return ev.evalAssign(tree, expr, n, in)

	case ast.KindConditional:
		return ev.evalConditional(tree, expr, n, in, required)

	case ast.KindCall, ast.KindNew:
		return ev.evalCall(tree, expr, n, in)

	case ast.KindMember:
		return ev.evalMember(tree, expr, n, in)

	default:
		// Anything else (literals not enumerated above, sequence
		// expressions, template pieces, ...) is walked for side effects
		// only, conservatively returning Unknown -- precise handling
		// belongs to whichever rule a future pass adds; the engine never
		// panics on an unhandled kind.
		cur := in
		for _, c := range n.Children {
			cur, _ = ev.Eval(tree, c, cur, types.Unknown(), types.Unknown())
		}
		return cur, types.Unknown()
	}
}

func operatorOf(n *ast.Node) string {
	if d, ok := n.Data.(ast.OpData); ok {
		return d.Operator
	}
	return ""
}

func (ev *Evaluator) evalUnary(tree *ast.Tree, expr ast.NodeID, n *ast.Node, in *Env, required, specialized types.Type) (*Env, types.Type) {
	var operand ast.NodeID
	if len(n.Children) > 0 {
		operand = n.Children[0]
	}
	switch operatorOf(n) {
	case "typeof":
		out, _ := ev.Eval(tree, operand, in, types.Unknown(), types.Unknown())
		return out, types.String()
	case "!":
		// §4.6 specialization: "!x swaps TRUE/FALSE specialization" -- here
		// we only compute the boolean result type; the swap itself is
		// implemented by SpecializeCondition inverting the branch it hands
		// to the operand when the condition being narrowed is a `!`.
		out, _ := ev.Eval(tree, operand, in, types.Unknown(), types.Unknown())
		return out, types.Boolean()
	default:
		out, _ := ev.Eval(tree, operand, in, types.Unknown(), types.Unknown())
		return out, types.Unknown()
	}
}

func (ev *Evaluator) evalBinary(tree *ast.Tree, expr ast.NodeID, n *ast.Node, in *Env, required, specialized types.Type) (*Env, types.Type) {
	var lhs, rhs ast.NodeID
	if len(n.Children) > 0 {
		lhs = n.Children[0]
	}
	if len(n.Children) > 1 {
		rhs = n.Children[1]
	}
	out, _ := ev.Eval(tree, lhs, in, types.Unknown(), types.Unknown())
	out, _ = ev.Eval(tree, rhs, out, types.Unknown(), types.Unknown())

	switch operatorOf(n) {
	case "==", "===", "!=", "!==", "<", ">", "<=", ">=", "instanceof", "in":
		return out, types.Boolean()
	case "+", "-", "*", "/", "%":
		return out, types.Number()
	default:
		return out, types.Unknown()
	}
}

// evalLogical evaluates a && or || expression. Per §4.6 "Short-circuit
// &&/|| rules", the right operand of && only executes when the left is
// truthy, and the right operand of || only executes when the left is
// falsy; this is reflected by specializing the environment fed to the
// right operand before evaluating it.
func (ev *Evaluator) evalLogical(tree *ast.Tree, expr ast.NodeID, n *ast.Node, in *Env, required, specialized types.Type) (*Env, types.Type) {
	var lhs, rhs ast.NodeID
	if len(n.Children) > 0 {
		lhs = n.Children[0]
	}
	if len(n.Children) > 1 {
		rhs = n.Children[1]
	}
	leftOut, leftType := ev.Eval(tree, lhs, in, types.Unknown(), types.Unknown())

	rightIn := leftOut.Clone()
	if operatorOf(n) == "&&" {
		ev.specializeCondition(tree, lhs, rightIn, true)
	} else {
		ev.specializeCondition(tree, lhs, rightIn, false)
	}
	rightOut, rightType := ev.Eval(tree, rhs, rightIn, types.Unknown(), types.Unknown())

	joined := Join(leftOut, rightOut)
	return joined, types.Union(leftType, rightType)
}

func (ev *Evaluator) evalAssign(tree *ast.Tree, expr ast.NodeID, n *ast.Node, in *Env) (*Env, types.Type) {
	var target, value ast.NodeID
	if len(n.Children) > 0 {
		target = n.Children[0]
	}
	if len(n.Children) > 1 {
		value = n.Children[1]
	}
	out, valType := ev.Eval(tree, value, in, types.Unknown(), types.Unknown())
	if v := ev.VarOf(target); v != nil {
		out.Set(v, valType)
	}
	return out, valType
}

func (ev *Evaluator) evalConditional(tree *ast.Tree, expr ast.NodeID, n *ast.Node, in *Env, required types.Type) (*Env, types.Type) {
	var test, cons, alt ast.NodeID
	if len(n.Children) > 0 {
		test = n.Children[0]
	}
	if len(n.Children) > 1 {
		cons = n.Children[1]
	}
	if len(n.Children) > 2 {
		alt = n.Children[2]
	}
	out, _ := ev.Eval(tree, test, in, types.Unknown(), types.Unknown())

	thenIn := out.Clone()
	ev.specializeCondition(tree, test, thenIn, true)
	thenOut, thenType := ev.Eval(tree, cons, thenIn, required, types.Unknown())

	elseIn := out.Clone()
	ev.specializeCondition(tree, test, elseIn, false)
	elseOut, elseType := ev.Eval(tree, alt, elseIn, required, types.Unknown())

	return Join(thenOut, elseOut), types.Union(thenType, elseType)
}

// SpecializeCondition is the exported entry point to specializeCondition,
// used by callers (and tests) that want to narrow an environment against a
// condition node outside of the engine's own per-edge publishing.
func (ev *Evaluator) SpecializeCondition(tree *ast.Tree, cond ast.NodeID, env *Env, branch bool) {
	ev.specializeCondition(tree, cond, env, branch)
}

// specializeCondition mutates env in place to reflect what is known about
// its referenced variables when cond evaluates truthy (branch=true) or
// falsy (branch=false), implementing every rule §4.6 marks mandatory:
// typeof equality, instanceof, ==null, unary !, and short-circuit
// composition (recursing into && / || sub-conditions).
func (ev *Evaluator) specializeCondition(tree *ast.Tree, cond ast.NodeID, env *Env, branch bool) {
	if !cond.IsValid() {
		return
	}
	n := tree.Get(cond)

	switch n.Kind {
	case ast.KindUnary:
		if operatorOf(n) == "!" && len(n.Children) > 0 {
			ev.specializeCondition(tree, n.Children[0], env, !branch)
		}

	case ast.KindLogical:
		if len(n.Children) < 2 {
			return
		}
		left, right := n.Children[0], n.Children[1]
		switch operatorOf(n) {
		case "&&":
			if branch {
				ev.specializeCondition(tree, left, env, true)
				ev.specializeCondition(tree, right, env, true)
			}
		case "||":
			if !branch {
				ev.specializeCondition(tree, left, env, false)
				ev.specializeCondition(tree, right, env, false)
			}
		}

	case ast.KindBinary:
		if len(n.Children) < 2 {
			return
		}
		lhs, rhs := n.Children[0], n.Children[1]
		op := operatorOf(n)

		switch op {
		case "===", "==":
			// typeof always yields a string, so == and === are equivalent
			// here regardless of which operator was written.
			ev.specializeTypeofEquality(tree, lhs, rhs, env, branch)
			if op == "==" {
				ev.specializeNullEquality(tree, lhs, rhs, env, branch)
			}
		case "!==", "!=":
			ev.specializeTypeofEquality(tree, lhs, rhs, env, !branch)
			if op == "!=" {
				ev.specializeNullEquality(tree, lhs, rhs, env, !branch)
			}
		case "instanceof":
			if branch {
				ev.specializeInstanceof(tree, lhs, rhs, env)
			}
		}
	}
}

// specializeTypeofEquality implements "typeof x === 'string' on the TRUE
// branch narrows x to string" (§4.6). isTrueBranch tells us whether we are
// applying the narrowing (true) or its complement is not attempted here
// (removeType on the FALSE branch of a typeof check is a further
// refinement this engine does not attempt, since the FALSE branch of a
// typeof check against one primitive name does not exclude the others by
// itself without a closed list of possible primitive names).
func (ev *Evaluator) specializeTypeofEquality(tree *ast.Tree, lhs, rhs ast.NodeID, env *Env, isTrueBranch bool) {
	if !isTrueBranch {
		return
	}
	typeofNode, litNode, ok := matchTypeofLiteral(tree, lhs, rhs)
	if !ok {
		return
	}
	un := tree.Get(typeofNode)
	if len(un.Children) == 0 {
		return
	}
	v := ev.VarOf(un.Children[0])
	if v == nil {
		return
	}
	lit, ok := tree.Get(litNode).Data.(ast.LiteralData)
	if !ok {
		return
	}
	t := typeFromTypeofString(lit.StringValue)
	env.Set(v, types.Specialize(env.Get(v), t))
}

func matchTypeofLiteral(tree *ast.Tree, a, b ast.NodeID) (typeofNode, litNode ast.NodeID, ok bool) {
	if isTypeofExpr(tree, a) && tree.Get(b).Kind == ast.KindLiteralString {
		return a, b, true
	}
	if isTypeofExpr(tree, b) && tree.Get(a).Kind == ast.KindLiteralString {
		return b, a, true
	}
	return ast.InvalidNodeID, ast.InvalidNodeID, false
}

func isTypeofExpr(tree *ast.Tree, id ast.NodeID) bool {
	if !id.IsValid() {
		return false
	}
	n := tree.Get(id)
	return n.Kind == ast.KindUnary && operatorOf(n) == "typeof"
}

func typeFromTypeofString(s string) types.Type {
	switch s {
	case "string":
		return types.String()
	case "number":
		return types.Number()
	case "boolean":
		return types.Boolean()
	case "undefined":
		return types.Undefined()
	default:
		return types.Unknown()
	}
}

// specializeInstanceof implements "x instanceof Ctor on the TRUE branch
// narrows x to the instance type of Ctor" (§4.6). Resolving a constructor
// name to its instance's nominal type requires a class table this package
// does not own (§1 Non-goals: cross-module class resolution belongs to
// whatever collaborator built the initial type environment's seed), so
// this narrows to a nominal type stamped with the constructor's own source
// name, which is what a same-module class declaration resolves to and is
// exactly what the deferred-check re-verification step compares against.
func (ev *Evaluator) specializeInstanceof(tree *ast.Tree, lhs, ctor ast.NodeID, env *Env) {
	v := ev.VarOf(lhs)
	if v == nil {
		return
	}
	name, ok := tree.Get(ctor).Data.(ast.NameData)
	if !ok {
		return
	}
	env.Set(v, types.Specialize(env.Get(v), types.Nominal(name.Text, nil)))
}

// specializeNullEquality implements "x == null narrows to null|undefined
// on TRUE, removes them on FALSE" (§4.6). Only handles the loose `==`/`!=`
// form against a literal null, matching the idiomatic "is nullish" check;
// `=== null` is a stricter single-type narrowing left to a future rule.
func (ev *Evaluator) specializeNullEquality(tree *ast.Tree, lhs, rhs ast.NodeID, env *Env, isTrueBranch bool) {
	nameNode, litNode, ok := matchNameNullLiteral(tree, lhs, rhs)
	if !ok {
		return
	}
	v := ev.VarOf(nameNode)
	if v == nil {
		return
	}
	_ = litNode
	nullish := types.Union(types.Null(), types.Undefined())
	if isTrueBranch {
		env.Set(v, types.Specialize(env.Get(v), nullish))
	} else {
		env.Set(v, types.RemoveType(env.Get(v), nullish))
	}
}

func matchNameNullLiteral(tree *ast.Tree, a, b ast.NodeID) (nameNode, litNode ast.NodeID, ok bool) {
	if tree.Get(a).Kind == ast.KindName && isNullish(tree, b) {
		return a, b, true
	}
	if tree.Get(b).Kind == ast.KindName && isNullish(tree, a) {
		return b, a, true
	}
	return ast.InvalidNodeID, ast.InvalidNodeID, false
}

func isNullish(tree *ast.Tree, id ast.NodeID) bool {
	if !id.IsValid() {
		return false
	}
	k := tree.Get(id).Kind
	return k == ast.KindLiteralNull || k == ast.KindLiteralUndefined
}

// evalCall implements §4.6's call-site rules for both KindCall and
// KindNew: constructor-usage checking, argument-count/type checking
// against the callee's Summary when one is already recorded, and deferral
// to the Registry (§4.6 "Deferred checks") when the callee's own scope is
// still being analyzed in this compilation -- the forward-reference and
// direct-recursion case the original TypeCheck.java's unresolved-calls
// pass exists for.
func (ev *Evaluator) evalCall(tree *ast.Tree, expr ast.NodeID, n *ast.Node, in *Env) (*Env, types.Type) {
	if len(n.Children) == 0 {
		return in, types.Unknown()
	}
	callee := n.Children[0]
	args := n.Children[1:]

	out, _ := ev.Eval(tree, callee, in, types.Unknown(), types.Unknown())
	argTypes := make([]types.Type, len(args))
	for i, a := range args {
		var t types.Type
		out, t = ev.Eval(tree, a, out, types.Unknown(), types.Unknown())
		argTypes[i] = t
	}

	calleeVar := ev.varOfCallee(tree, callee)
	if calleeVar == nil {
		return out, types.Unknown()
	}

	ev.checkConstructorUsage(tree, expr, calleeVar, n.Kind == ast.KindNew)

	if ev.Registry == nil {
		return out, types.Unknown()
	}
	summary, ok := ev.Registry.SummaryFor(calleeVar.DefNode)
	if !ok {
		ev.Registry.Defer(&DeferredCheck{
			CallSite:       expr,
			ExpectedReturn: types.Unknown(),
			ArgTypes:       argTypes,
			CallerScope:    ev.CallerScope,
			CalleeScope:    calleeVar.DefNode,
			Source:         ev.Source,
			Loc:            n.Loc,
		})
		return out, types.Unknown()
	}

	fn := summary.AsFunctionType()
	if len(fn.TypeParams) > 0 {
		fn = ev.instantiateCall(tree, expr, fn, argTypes)
	}
	checkCallArguments(ev.Log, ev.Source, n.Loc, fn.Formals, fn.HasRest, argTypes)
	return out, *fn.Return
}

// varOfCallee resolves a call/new callee expression to the Variable whose
// Summary should be consulted, or nil for callees this module has no
// per-binding record for (member/computed callees -- resolving a method's
// owning class is out of scope, see the Receiver gap noted in DESIGN.md).
func (ev *Evaluator) varOfCallee(tree *ast.Tree, callee ast.NodeID) *scope.Variable {
	if !callee.IsValid() || tree.Get(callee).Kind != ast.KindName {
		return nil
	}
	return ev.VarOf(callee)
}

// checkConstructorUsage approximates the original NewTypeInference.java's
// NOT_A_CONSTRUCTOR / CONSTRUCTOR_NOT_CALLABLE split from the callee
// Variable's declaration kind, since this module has no receiver/class
// instance-type modeling to hang a "constructible" flag off of (DESIGN.md).
func (ev *Evaluator) checkConstructorUsage(tree *ast.Tree, callSite ast.NodeID, calleeVar *scope.Variable, isNew bool) {
	switch calleeVar.Kind {
	case scope.KindFunctionDecl:
		if isNew {
			ev.reportError(tree, callSite, logger.MsgID_JS_NotAConstructor,
				fmt.Sprintf("%q is a plain function and cannot be used as a constructor", calleeVar.Name))
		}
	case scope.KindClassDecl:
		if !isNew {
			ev.reportError(tree, callSite, logger.MsgID_JS_ConstructorNotCallable,
				fmt.Sprintf("%q is a constructor and must be called with new", calleeVar.Name))
		}
	}
}

// instantiateCall implements §4.6 Generics: unify each formal/actual pair
// against fn's own type parameters, resolve each variable's accumulated
// bindings under the configured ambiguity policy (reporting
// MsgID_JS_AmbiguousInstantiation when strict mode leaves one unresolved),
// and substitute the result into fn's formals and return type.
func (ev *Evaluator) instantiateCall(tree *ast.Tree, callSite ast.NodeID, fn types.Type, argTypes []types.Type) types.Type {
	typeVars := make(map[string]bool, len(fn.TypeParams))
	for _, tv := range fn.TypeParams {
		typeVars[tv] = true
	}
	multimap := make(map[string][]types.Type)
	for i, argType := range argTypes {
		if i < len(fn.Formals) {
			types.UnifyWith(fn.Formals[i], argType, typeVars, multimap)
		}
	}
	bindings := make(map[string]types.Type, len(fn.TypeParams))
	for _, name := range fn.TypeParams {
		resolved, ambiguous := types.ResolveAmbiguity(multimap[name], ev.CompatibilityMode)
		bindings[name] = resolved
		if ambiguous && !ev.CompatibilityMode {
			ev.reportError(tree, callSite, logger.MsgID_JS_AmbiguousInstantiation,
				fmt.Sprintf("type variable %q has no unique instantiation among the call's argument types", name))
		}
	}
	return types.InstantiateGenerics(fn, bindings)
}

// evalMember implements §4.6's property-access rules: a definite miss on a
// closed object type is an error (a property that provably does not
// exist), while a miss on an open object type is only a possible warning,
// matching types.GetProp's Bottom-vs-Unknown distinction for a missing
// property.
func (ev *Evaluator) evalMember(tree *ast.Tree, expr ast.NodeID, n *ast.Node, in *Env) (*Env, types.Type) {
	var base ast.NodeID
	if len(n.Children) > 0 {
		base = n.Children[0]
	}
	out, baseType := ev.Eval(tree, base, in, types.Unknown(), types.Unknown())
	data, ok := n.Data.(ast.MemberData)
	if !ok || baseType.Tag != types.TagObject {
		return out, types.Unknown()
	}
	prop, found := types.GetProp(baseType, data.PropertyName)
	if found {
		return out, prop
	}
	if baseType.OpenProps {
		ev.reportPossibleWarning(tree, expr, logger.MsgID_JS_InexistentProperty,
			fmt.Sprintf("property %q is possibly not defined on this object", data.PropertyName))
	} else {
		ev.reportError(tree, expr, logger.MsgID_JS_PropertyNotDefined,
			fmt.Sprintf("property %q is not defined on this object", data.PropertyName))
	}
	return out, prop
}
