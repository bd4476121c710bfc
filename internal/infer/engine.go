package infer

import (
	"fmt"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/cfg"
	"github.com/tiobe/closure-compiler/internal/logger"
	"github.com/tiobe/closure-compiler/internal/scope"
	"github.com/tiobe/closure-compiler/internal/types"
)

// maxForwardIterations bounds the forward pass's fixed-point loop. §9's
// Open Questions flags that the source never proves every repeatable step
// is monotone; rather than risk an infinite loop on a specialization rule
// that oscillates, the engine caps iterations and reports non-termination
// instead of hanging (this module's answer to that open question, see
// DESIGN.md).
const maxForwardIterations = 1000

// Engine runs the algorithm of §4.6 across every function scope in a
// compilation, in bottom-up scope-tree order, threading deferred checks
// through a shared Registry.
type Engine struct {
	Log       logger.Log
	Source    *logger.Source
	Evaluator *Evaluator
	Registry  *Registry
}

func NewEngine(log logger.Log, source *logger.Source, evaluator *Evaluator) *Engine {
	evaluator.Log = log
	evaluator.Source = source
	registry := NewRegistry()
	evaluator.Registry = registry
	return &Engine{Log: log, Source: source, Evaluator: evaluator, Registry: registry}
}

// AnalyzeFunction runs steps 1-7 of §4.6 for one function scope and records
// its Summary in the engine's Registry.
//
//  1. Build CFG.
//  2. Backward constraint pass: a flow-insensitive scan of every statement
//     in body for undeclared formals or outer-scope variables used in an
//     operator position, recording a lower-bound type for each (see
//     backwardConstraints).
//  3. Seed the entry environment from declared types and outer preconditions.
//  4. Forward pass.
//  5. Publish specialized environments on conditional edges.
//  6. Join at merge points.
//  7. Summarize at the implicit return.
func (e *Engine) AnalyzeFunction(tree *ast.Tree, scopeRoot ast.NodeID, body ast.NodeID, seed *Env) *Summary {
	graph := cfg.Build(tree, body)

	preconditions, outerPreconditions := e.backwardConstraints(tree, graph, scopeRoot)
	seed = seedWithPreconditions(seed, preconditions)

	e.Evaluator.CallerScope = scopeRoot

	in := make(map[cfg.VertexID]*Env)
	edgeOut := make(map[cfg.VertexID][]*Env)
	returnTypes := make([]types.Type, 0)

	for i := range graph.Vertices {
		in[cfg.VertexID(i)] = nil
		edgeOut[cfg.VertexID(i)] = make([]*Env, len(graph.Succs[i]))
	}
	in[graph.Entry] = seed

	worklist := graph.ReversePostorder()
	queued := make(map[cfg.VertexID]bool, len(worklist))
	for _, v := range worklist {
		queued[v] = true
	}

	iterations := 0
	for len(worklist) > 0 {
		iterations++
		if iterations > maxForwardIterations*len(graph.Vertices)+maxForwardIterations {
			e.Log.AddInternalError(e.Source, logger.Loc{}, "type inference forward pass did not reach a fixed point")
			break
		}

		v := worklist[0]
		worklist = worklist[1:]
		queued[v] = false

		curIn := e.mergeIncoming(graph, v, edgeOut, in[v])
		if curIn == nil {
			continue
		}
		in[v] = curIn

		outEnv, returnType, isReturn := e.evalVertex(tree, graph, v, curIn)
		if isReturn {
			returnTypes = append(returnTypes, returnType)
		}

		for i, edge := range graph.Succs[v] {
			published := e.publishForEdge(tree, graph, v, edge, curIn, outEnv)
			if !envsEqual(edgeOut[v][i], published) {
				edgeOut[v][i] = published
				if !queued[edge.To] {
					queued[edge.To] = true
					worklist = append(worklist, edge.To)
				}
			}
		}
	}

	finalReturn := types.Bottom()
	for _, t := range returnTypes {
		finalReturn = types.Join(finalReturn, t)
	}
	if len(returnTypes) == 0 {
		finalReturn = types.Undefined()
	}

	params := functionParams(tree, scopeRoot)
	formals := make([]types.Type, len(params))
	optionalFrom := len(params)
	hasRest := false
	for i, p := range params {
		if tree.Get(p).Kind == ast.KindRestParam {
			hasRest = true
		}
		if v := e.Evaluator.VarOf(p); v != nil {
			formals[i] = seed.Get(v)
		} else {
			formals[i] = types.Unknown()
		}
		if optionalFrom == len(params) && len(tree.Get(p).Children) > 0 {
			// A KindParam/KindRestParam with children carries a default-value
			// initializer, JS's own marker for an optional trailing formal.
			optionalFrom = i
		}
	}

	trailingOptional := trailingOptionalFormals(e.Evaluator, tree, params, optionalFrom, in[graph.ImplicitReturn])

	var typeParams []string
	var isAbstract bool
	if doc := tree.Get(scopeRoot).Doc; doc != nil {
		typeParams = doc.TemplateParams
		isAbstract = doc.IsAbstract
	}

	summary := &Summary{
		ScopeRoot:               scopeRoot,
		Formals:                 formals,
		OptionalFrom:            optionalFrom,
		HasRest:                 hasRest,
		Return:                  finalReturn,
		OuterVarPreconditions:   outerPreconditions,
		TypeParams:              typeParams,
		TrailingOptionalFormals: trailingOptional,
		IsAbstract:              isAbstract,
	}
	e.Registry.RecordSummary(summary)
	return summary
}

// functionParams returns the KindParam/KindRestParam nodes that are direct
// children of a function's own scope-root node, in declaration order
// (internal/scope's declaration scanner treats them the same way).
func functionParams(tree *ast.Tree, scopeRoot ast.NodeID) []ast.NodeID {
	var params []ast.NodeID
	for _, c := range tree.Children(scopeRoot) {
		switch tree.Get(c).Kind {
		case ast.KindParam, ast.KindRestParam:
			params = append(params, c)
		}
	}
	return params
}

// trailingOptionalFormals implements §4.6 step 7's "collect precise types
// for trailing-optional formals": among the formals from optionalFrom
// onward, the ones whose type at the implicit return is still unknown or
// may include undefined are reported as trailing-optional.
func trailingOptionalFormals(ev *Evaluator, tree *ast.Tree, params []ast.NodeID, optionalFrom int, finalEnv *Env) []int {
	if finalEnv == nil {
		return nil
	}
	var out []int
	for i := optionalFrom; i < len(params); i++ {
		if tree.Get(params[i]).Kind == ast.KindRestParam {
			continue
		}
		v := ev.VarOf(params[i])
		if v == nil {
			continue
		}
		t := finalEnv.Get(v)
		if t.Tag == types.TagUnknown || includesUndefined(t) {
			out = append(out, i)
		}
	}
	return out
}

// includesUndefined reports whether t is exactly undefined or a union
// containing it, used to decide whether a trailing formal's inferred value
// may be absent.
func includesUndefined(t types.Type) bool {
	if t.Tag == types.TagUndefined {
		return true
	}
	if t.Tag == types.TagUnion {
		for _, m := range t.Members {
			if includesUndefined(m) {
				return true
			}
		}
	}
	return false
}

// seedWithPreconditions applies the backward pass's lower bounds to the
// entry environment, without overriding anything the caller already seeded
// more precisely (§4.6 step 3).
func seedWithPreconditions(seed *Env, preconditions map[*scope.Variable]types.Type) *Env {
	if seed == nil {
		seed = NewEnv()
	}
	out := seed.Clone()
	for v, t := range preconditions {
		if out.Get(v).Tag == types.TagUnknown {
			out.Set(v, t)
		}
	}
	return out
}

// backwardConstraints implements §4.6 step 2: a flow-insensitive scan of
// every statement in the CFG for undeclared formals (own parameters with
// no declared type) or outer-scope variables, recording a lower-bound type
// for each from the operator context it appears in. This is deliberately
// flow-insensitive rather than a second per-edge backward fixed point --
// the spec asks for lower-bound constraints, not per-program-point ones,
// and one pass over each statement is enough to produce them. Returns both
// the full map (own formals + outer variables, used to seed the entry
// environment) and the outer-only subset (Summary.OuterVarPreconditions).
func (e *Engine) backwardConstraints(tree *ast.Tree, graph *cfg.Graph, scopeRoot ast.NodeID) (all, outer map[*scope.Variable]types.Type) {
	all = make(map[*scope.Variable]types.Type)
	outer = make(map[*scope.Variable]types.Type)
	for i := range graph.Vertices {
		node := graph.Vertices[i].Node
		if node.IsValid() {
			e.collectConstraints(tree, node, scopeRoot, all, outer)
		}
	}
	return all, outer
}

func (e *Engine) collectConstraints(tree *ast.Tree, id ast.NodeID, scopeRoot ast.NodeID, all, outer map[*scope.Variable]types.Type) {
	if !id.IsValid() {
		return
	}
	n := tree.Get(id)
	if n.Kind == ast.KindBinary || n.Kind == ast.KindUnary {
		if t := operatorLowerBound(operatorOf(n)); t.Tag != types.TagUnknown {
			for _, c := range n.Children {
				e.recordNameConstraint(tree, c, scopeRoot, t, all, outer)
			}
		}
	}
	for _, c := range n.Children {
		e.collectConstraints(tree, c, scopeRoot, all, outer)
	}
}

func (e *Engine) recordNameConstraint(tree *ast.Tree, id ast.NodeID, scopeRoot ast.NodeID, t types.Type, all, outer map[*scope.Variable]types.Type) {
	if tree.Get(id).Kind != ast.KindName {
		return
	}
	v := e.Evaluator.VarOf(id)
	if v == nil || v.DeclaredType != "" {
		return
	}
	isOwn := isDescendant(tree, scopeRoot, v.DefNode)
	if v.Kind != scope.KindParameter && isOwn {
		return // an own let/const/var/class binding gets its type from its own initializer, not a backward scan
	}
	all[v] = types.Join(all[v], t)
	if !isOwn {
		outer[v] = types.Join(outer[v], t)
	}
}

// operatorLowerBound maps a binary/unary operator to the type any operand
// in that position must be able to produce, matching evalBinary's own
// simplification that every arithmetic operator (including the overloaded
// "+") yields Number.
func operatorLowerBound(op string) types.Type {
	switch op {
	case "+", "-", "*", "/", "%":
		return types.Number()
	case "==", "===", "!=", "!==", "<", ">", "<=", ">=", "&&", "||":
		return types.Boolean()
	default:
		return types.Unknown()
	}
}

// isDescendant reports whether id lives inside ancestor's subtree, walking
// up id's Parent chain. Tree.Contains cannot answer this: it only checks
// reachability from the tree's actual root, not from an arbitrary node.
func isDescendant(tree *ast.Tree, ancestor, id ast.NodeID) bool {
	for cur := id; cur.IsValid(); cur = tree.Parent(cur) {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// mergeIncoming joins every predecessor's published edge-state for v,
// falling back to seed (used only for the Entry vertex, whose "predecessor"
// is the caller-supplied seed environment) when there are no predecessors
// yet or none have published anything.
func (e *Engine) mergeIncoming(graph *cfg.Graph, v cfg.VertexID, edgeOut map[cfg.VertexID][]*Env, seed *Env) *Env {
	if len(graph.Preds[v]) == 0 {
		return seed
	}
	var merged *Env
	for _, pe := range graph.Preds[v] {
		predSuccs := graph.Succs[pe.To]
		for i, s := range predSuccs {
			if s.To == v {
				env := edgeOut[pe.To][i]
				if env == nil {
					continue
				}
				if merged == nil {
					merged = env.Clone()
				} else {
					merged = Join(merged, env)
				}
			}
		}
	}
	if merged == nil {
		return seed
	}
	return merged
}

// evalVertex runs the vertex's statement through the evaluator, returning
// the environment after its side effects and, if the vertex is a return
// statement, the type of its argument.
func (e *Engine) evalVertex(tree *ast.Tree, graph *cfg.Graph, v cfg.VertexID, in *Env) (out *Env, returnType types.Type, isReturn bool) {
	node := graph.Vertices[v].Node
	if !node.IsValid() {
		return in, types.Unknown(), false
	}
	n := tree.Get(node)

	switch n.Kind {
	case ast.KindReturn:
		var arg ast.NodeID
		if len(n.Children) > 0 {
			arg = n.Children[0]
		}
		out, t := e.Evaluator.Eval(tree, arg, in, types.Unknown(), types.Unknown())
		return out, t, true

	case ast.KindExprStatement, ast.KindVarDecl, ast.KindLetDecl, ast.KindConstDecl:
		cur := in
		for _, c := range n.Children {
			cur, _ = e.Evaluator.Eval(tree, c, cur, types.Unknown(), types.Unknown())
		}
		return cur, types.Unknown(), false

	case ast.KindVarDeclarator:
		// A bare declarator reached directly as its own vertex (e.g. inside
		// a for-loop init list): treat like an assignment if it has an
		// initializer child.
		if len(n.Children) > 0 {
			out, t := e.Evaluator.Eval(tree, n.Children[0], in, types.Unknown(), types.Unknown())
			if v := e.Evaluator.VarOf(node); v != nil {
				out.Set(v, t)
			}
			return out, types.Unknown(), false
		}
		return in, types.Unknown(), false

	case ast.KindIf, ast.KindWhile, ast.KindDoWhile:
		test := conditionOf(n)
		out, _ := e.Evaluator.Eval(tree, test, in, types.Unknown(), types.Unknown())
		return out, types.Unknown(), false

	default:
		cur := in
		for _, c := range n.Children {
			cur, _ = e.Evaluator.Eval(tree, c, cur, types.Unknown(), types.Unknown())
		}
		return cur, types.Unknown(), false
	}
}

func conditionOf(n *ast.Node) ast.NodeID {
	if n.Kind == ast.KindDoWhile {
		// Children convention: [body, test].
		if len(n.Children) > 1 {
			return n.Children[1]
		}
		return ast.InvalidNodeID
	}
	if len(n.Children) > 0 {
		return n.Children[0]
	}
	return ast.InvalidNodeID
}

// publishForEdge implements §4.6 step 5: TRUE successors see the condition
// specialized truthy, FALSE successors see it falsy, EX successors see the
// pre-statement entry environment (throws lose refinement).
func (e *Engine) publishForEdge(tree *ast.Tree, graph *cfg.Graph, v cfg.VertexID, edge cfg.Edge, preEnv, postEnv *Env) *Env {
	switch edge.Label {
	case cfg.OnEx:
		return preEnv.Clone()
	case cfg.OnTrue, cfg.OnFalse:
		node := graph.Vertices[v].Node
		if !node.IsValid() {
			return postEnv
		}
		cond := conditionOf(tree.Get(node))
		out := postEnv.Clone()
		e.Evaluator.SpecializeCondition(tree, cond, out, edge.Label == cfg.OnTrue)
		return out
	default:
		return postEnv
	}
}

func envsEqual(a, b *Env) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.byVar) != len(b.byVar) {
		return false
	}
	for k, v := range a.byVar {
		bv, ok := b.byVar[k]
		if !ok || !types.Equal(v, bv) || v.Refinement != bv.Refinement {
			return false
		}
	}
	return true
}

// CheckMissingReturn implements the "missing return when a non-void return
// type is declared" diagnostic (§4.6 Errors reported). Every `return`
// statement's own vertex also flows unconditionally into ImplicitReturn
// (it is the sink for normal termination), so the discriminator is not
// edge label but whether some *other* kind of statement -- one that is not
// itself a return -- reaches ImplicitReturn without going through EX,
// meaning control fell off the end of the function body.
func (e *Engine) CheckMissingReturn(tree *ast.Tree, graph *cfg.Graph, declaredReturn types.Type, loc logger.Loc) {
	if declaredReturn.Tag == types.TagUndefined || declaredReturn.Tag == types.TagUnknown {
		return
	}
	for _, pred := range graph.Preds[graph.ImplicitReturn] {
		if pred.Label == cfg.OnEx {
			continue
		}
		node := graph.Vertices[pred.To].Node
		if node.IsValid() && tree.Get(node).Kind == ast.KindReturn {
			continue
		}
		e.Log.AddError(e.Source, loc, logger.MsgID_JS_MissingReturn,
			fmt.Sprintf("function falls through to the end without returning a value, but declares return type %v", declaredReturn.Tag))
		return
	}
}
