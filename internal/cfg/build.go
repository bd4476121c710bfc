package cfg

import "github.com/tiobe/closure-compiler/internal/ast"

// labelTarget records where a break/continue targeting a given label (or
// the innermost unlabeled construct) should jump: break exits after the
// construct, continue re-enters its header.
type labelTarget struct {
	label       string // "" for the innermost unlabeled construct
	breakTo     VertexID
	continueTo  VertexID
}

// builder threads the loop/label stack and the currently open try's catch
// entry (for EX edges, §3) through the recursive statement walk. One
// builder is used per Build call and discarded afterward (§3 "disposable").
type builder struct {
	tree *ast.Tree
	g    *Graph

	// targets is a stack of enclosing loop/switch/labeled-statement exit and
	// continue points, innermost last.
	targets []labelTarget

	// catchStack is a stack of vertices that a thrown exception inside the
	// current try body flows to via an OnEx edge; empty means "flows to
	// ExitEnvironments".
	catchStack []VertexID

	// pendingLabel carries a label attached to the statement about to be
	// built (via `label: loop`) so the loop-building helpers can fold it
	// into their own labelTarget frame instead of pushing a second,
	// continue-less frame that would shadow it (§4.2's break/continue
	// re-targeting needs "continue label" on a labeled loop to reach the
	// loop's own continue point, not just its break point).
	pendingLabel string
}

// Build constructs the control-flow graph for one function-like or program
// scope root (§3). body is the statement (or statement list container)
// executed when the scope is entered; for a function this is its block
// body, for the program it is the program node itself.
func Build(tree *ast.Tree, body ast.NodeID) *Graph {
	g := newGraph()
	b := &builder{tree: tree, g: g}
	last := b.statement(g.Entry, body)
	if last != NoVertex {
		g.addEdge(last, g.ImplicitReturn, Unconditional)
	}
	return g
}

func (b *builder) currentCatch() VertexID {
	if len(b.catchStack) == 0 {
		return b.g.ExitEnvironments
	}
	return b.catchStack[len(b.catchStack)-1]
}

// statement links pred to the vertex(es) implementing node and returns the
// vertex that normal (fall-through) control reaches afterward, or NoVertex
// if control cannot fall through (return/throw/break/continue terminate the
// current path).
func (b *builder) statement(pred VertexID, node ast.NodeID) VertexID {
	if !node.IsValid() {
		return pred
	}
	n := b.tree.Get(node)

	switch n.Kind {
	case ast.KindBlock, ast.KindProgram, ast.KindModuleBody:
		cur := pred
		for _, c := range n.Children {
			if cur == NoVertex {
				// Unreachable statements still get a vertex (so passes can
				// report on them) but are not linked from the live graph.
				b.deadStatement(c)
				continue
			}
			cur = b.statement(cur, c)
		}
		return cur

	case ast.KindExprStatement, ast.KindVarDecl, ast.KindLetDecl, ast.KindConstDecl,
		ast.KindEmptyStatement, ast.KindFunctionDecl, ast.KindClassDecl, ast.KindDebugger:
		v := b.g.addVertex(node)
		b.g.addEdge(pred, v, Unconditional)
		b.maybeEx(v)
		return v

	case ast.KindIf:
		return b.ifStatement(pred, node, n)

	case ast.KindWhile:
		return b.whileStatement(pred, node, n)

	case ast.KindDoWhile:
		return b.doWhileStatement(pred, node, n)

	case ast.KindFor:
		return b.forStatement(pred, node, n)

	case ast.KindForIn, ast.KindForOf:
		return b.forInOfStatement(pred, node, n)

	case ast.KindSwitch:
		return b.switchStatement(pred, node, n)

	case ast.KindTry:
		return b.tryStatement(pred, node, n)

	case ast.KindReturn:
		v := b.g.addVertex(node)
		b.g.addEdge(pred, v, Unconditional)
		b.maybeEx(v)
		b.g.addEdge(v, b.g.ImplicitReturn, Unconditional)
		return NoVertex

	case ast.KindThrow:
		v := b.g.addVertex(node)
		b.g.addEdge(pred, v, Unconditional)
		b.g.addEdge(v, b.currentCatch(), OnEx)
		return NoVertex

	case ast.KindBreak:
		v := b.g.addVertex(node)
		b.g.addEdge(pred, v, Unconditional)
		target := b.findTarget(labelOf(n))
		if target != nil {
			b.g.addEdge(v, target.breakTo, Unconditional)
		}
		return NoVertex

	case ast.KindContinue:
		v := b.g.addVertex(node)
		b.g.addEdge(pred, v, Unconditional)
		target := b.findTarget(labelOf(n))
		if target != nil {
			b.g.addEdge(v, target.continueTo, Unconditional)
		}
		return NoVertex

	case ast.KindLabel:
		return b.labelStatement(pred, node, n)

	default:
		// Any other node reachable as a "statement" (e.g. a bare expression
		// used as a program body) gets a single pass-through vertex.
		v := b.g.addVertex(node)
		b.g.addEdge(pred, v, Unconditional)
		b.maybeEx(v)
		return v
	}
}

// deadStatement still allocates a vertex for a statement that follows
// unconditional termination (e.g. code after a return) so that later passes
// (§4.8's "unreachable code" style diagnostics) have something to point at,
// without linking it into the live graph.
func (b *builder) deadStatement(node ast.NodeID) {
	if !node.IsValid() {
		return
	}
	b.g.addVertex(node)
}

// maybeEx adds the exceptional edge out of v to the current catch handler.
// Every vertex that can throw (any expression-bearing statement) gets one;
// this is deliberately conservative (§4.2 "conservatively assume any
// expression-bearing statement may throw").
func (b *builder) maybeEx(v VertexID) {
	b.g.addEdge(v, b.currentCatch(), OnEx)
}

func labelOf(n *ast.Node) string {
	if data, ok := n.Data.(ast.LabelData); ok {
		return data.Name
	}
	return ""
}

// consumeLabel returns and clears any label pending for the statement about
// to open a new loop/switch scope.
func (b *builder) consumeLabel() string {
	l := b.pendingLabel
	b.pendingLabel = ""
	return l
}

func (b *builder) findTarget(label string) *labelTarget {
	if label == "" {
		for i := len(b.targets) - 1; i >= 0; i-- {
			return &b.targets[i]
		}
		return nil
	}
	for i := len(b.targets) - 1; i >= 0; i-- {
		if b.targets[i].label == label {
			return &b.targets[i]
		}
	}
	return nil
}

func (b *builder) ifStatement(pred VertexID, node ast.NodeID, n *ast.Node) VertexID {
	v := b.g.addVertex(node)
	b.g.addEdge(pred, v, Unconditional)
	b.maybeEx(v)

	// Children: [test, consequent, alternate?] by construction convention.
	var consequent, alternate ast.NodeID
	if len(n.Children) > 1 {
		consequent = n.Children[1]
	}
	if len(n.Children) > 2 {
		alternate = n.Children[2]
	}

	join := b.g.addVertex(ast.InvalidNodeID)

	thenV := b.g.addVertex(ast.InvalidNodeID)
	b.g.addEdge(v, thenV, OnTrue)
	thenEnd := b.statement(thenV, consequent)
	if thenEnd != NoVertex {
		b.g.addEdge(thenEnd, join, Unconditional)
	}

	if alternate.IsValid() {
		elseV := b.g.addVertex(ast.InvalidNodeID)
		b.g.addEdge(v, elseV, OnFalse)
		elseEnd := b.statement(elseV, alternate)
		if elseEnd != NoVertex {
			b.g.addEdge(elseEnd, join, Unconditional)
		}
	} else {
		b.g.addEdge(v, join, OnFalse)
	}

	return join
}

func (b *builder) whileStatement(pred VertexID, node ast.NodeID, n *ast.Node) VertexID {
	header := b.g.addVertex(node)
	b.g.addEdge(pred, header, Unconditional)
	b.maybeEx(header)

	after := b.g.addVertex(ast.InvalidNodeID)
	b.g.addEdge(header, after, OnFalse)

	body := ast.InvalidNodeID
	if len(n.Children) > 1 {
		body = n.Children[1]
	}

	b.targets = append(b.targets, labelTarget{label: b.consumeLabel(), breakTo: after, continueTo: header})
	bodyStart := b.g.addVertex(ast.InvalidNodeID)
	b.g.addEdge(header, bodyStart, OnTrue)
	bodyEnd := b.statement(bodyStart, body)
	b.targets = b.targets[:len(b.targets)-1]

	if bodyEnd != NoVertex {
		b.g.addEdge(bodyEnd, header, Unconditional) // back-edge
	}
	return after
}

// doWhileStatement guarantees at least one iteration: the body vertex is
// wired directly from pred, and only the loop-back test decides whether to
// re-enter (§4.2 do-while special case, mirrored again in §4.4).
func (b *builder) doWhileStatement(pred VertexID, node ast.NodeID, n *ast.Node) VertexID {
	body := ast.InvalidNodeID
	if len(n.Children) > 0 {
		body = n.Children[0]
	}

	test := b.g.addVertex(node)
	after := b.g.addVertex(ast.InvalidNodeID)
	b.g.addEdge(test, after, OnFalse)
	b.maybeEx(test)

	b.targets = append(b.targets, labelTarget{label: b.consumeLabel(), breakTo: after, continueTo: test})
	n0 := len(b.g.Succs[pred])
	bodyEnd := b.statement(pred, body)
	b.targets = b.targets[:len(b.targets)-1]

	// The body's first vertex is the one pred was linked to while building
	// it; an empty body adds no edge from pred, so the test comes first.
	first := test
	if len(b.g.Succs[pred]) > n0 {
		first = b.g.Succs[pred][n0].To
	}
	if bodyEnd != NoVertex {
		b.g.addEdge(bodyEnd, test, Unconditional)
	}
	b.g.addEdge(test, first, OnTrue) // back-edge; the first iteration is entered from pred
	return after
}

func (b *builder) forStatement(pred VertexID, node ast.NodeID, n *ast.Node) VertexID {
	// Children convention: [init?, test?, update?, body].
	var init, test, update, body ast.NodeID
	switch len(n.Children) {
	case 4:
		init, test, update, body = n.Children[0], n.Children[1], n.Children[2], n.Children[3]
	case 3:
		test, update, body = n.Children[0], n.Children[1], n.Children[2]
	default:
		if len(n.Children) > 0 {
			body = n.Children[len(n.Children)-1]
		}
	}

	cur := pred
	if init.IsValid() {
		cur = b.statement(cur, init)
	}

	header := b.g.addVertex(node)
	if cur != NoVertex {
		b.g.addEdge(cur, header, Unconditional)
	}
	if test.IsValid() {
		b.maybeEx(header)
	}

	after := b.g.addVertex(ast.InvalidNodeID)
	b.g.addEdge(header, after, OnFalse)

	updateV := b.g.addVertex(ast.InvalidNodeID)
	if update.IsValid() {
		b.maybeEx(updateV)
	}
	b.g.addEdge(updateV, header, Unconditional)

	b.targets = append(b.targets, labelTarget{label: b.consumeLabel(), breakTo: after, continueTo: updateV})
	bodyStart := b.g.addVertex(ast.InvalidNodeID)
	b.g.addEdge(header, bodyStart, OnTrue)
	bodyEnd := b.statement(bodyStart, body)
	b.targets = b.targets[:len(b.targets)-1]

	if bodyEnd != NoVertex {
		b.g.addEdge(bodyEnd, updateV, Unconditional)
	}
	return after
}

// forInOfStatement builds the two-vertex header (has-next-key / bind) plus
// back-edge pattern from §4.2: iterating a for-in/for-of is modeled as a
// pretest loop where the "test" is "does the iterator have another
// property/value", distinct from a boolean expression test.
func (b *builder) forInOfStatement(pred VertexID, node ast.NodeID, n *ast.Node) VertexID {
	var body ast.NodeID
	if len(n.Children) > 0 {
		body = n.Children[len(n.Children)-1]
	}

	hasNext := b.g.addVertex(node)
	b.g.addEdge(pred, hasNext, Unconditional)
	b.maybeEx(hasNext)

	after := b.g.addVertex(ast.InvalidNodeID)
	b.g.addEdge(hasNext, after, OnFalse)

	bind := b.g.addVertex(ast.InvalidNodeID)
	b.g.addEdge(hasNext, bind, OnTrue)

	b.targets = append(b.targets, labelTarget{label: b.consumeLabel(), breakTo: after, continueTo: hasNext})
	bodyEnd := b.statement(bind, body)
	b.targets = b.targets[:len(b.targets)-1]

	if bodyEnd != NoVertex {
		b.g.addEdge(bodyEnd, hasNext, Unconditional) // back-edge
	}
	return after
}

// switchStatement fans out from the discriminant vertex to every case test
// in source order (§4.2 "switch fan-out"), falling through between cases
// that don't end with break/return/throw, per normal JS semantics.
func (b *builder) switchStatement(pred VertexID, node ast.NodeID, n *ast.Node) VertexID {
	disc := b.g.addVertex(node)
	b.g.addEdge(pred, disc, Unconditional)
	b.maybeEx(disc)

	after := b.g.addVertex(ast.InvalidNodeID)
	b.targets = append(b.targets, labelTarget{label: b.consumeLabel(), breakTo: after})
	defer func() { b.targets = b.targets[:len(b.targets)-1] }()

	var fallthroughFrom VertexID = NoVertex
	hasDefault := false

	for _, c := range n.Children {
		cn := b.tree.Get(c)
		caseV := b.g.addVertex(c)
		if cn.Kind == ast.KindDefaultCase {
			hasDefault = true
		} else {
			b.maybeEx(caseV)
		}
		b.g.addEdge(disc, caseV, Unconditional)

		bodyStart := caseV
		if fallthroughFrom != NoVertex {
			b.g.addEdge(fallthroughFrom, bodyStart, Unconditional)
		}

		cur := bodyStart
		for _, stmt := range cn.Children {
			if cur == NoVertex {
				b.deadStatement(stmt)
				continue
			}
			cur = b.statement(cur, stmt)
		}
		fallthroughFrom = cur
	}

	if fallthroughFrom != NoVertex {
		b.g.addEdge(fallthroughFrom, after, Unconditional)
	}
	if !hasDefault {
		b.g.addEdge(disc, after, Unconditional)
	}
	return after
}

// tryStatement wires every statement inside the try body with an OnEx edge
// to the catch clause's entry vertex (§4.2 "try/EX edges"), and joins the
// try/catch fall-through paths before any finally block. The finally body is
// built once, after that join, so only the normal and after-catch paths pass
// through it; break, continue, return and exceptional (OnEx) paths leave the
// try statement without going through the finally vertices.
func (b *builder) tryStatement(pred VertexID, node ast.NodeID, n *ast.Node) VertexID {
	var tryBlock, catchClause, finallyClause ast.NodeID
	for _, c := range n.Children {
		switch b.tree.Get(c).Kind {
		case ast.KindBlock:
			if !tryBlock.IsValid() {
				tryBlock = c
			}
		case ast.KindCatch:
			catchClause = c
		case ast.KindFinally:
			finallyClause = c
		}
	}

	var catchEntry VertexID = NoVertex
	if catchClause.IsValid() {
		catchEntry = b.g.addVertex(catchClause)
	}

	if catchEntry != NoVertex {
		b.catchStack = append(b.catchStack, catchEntry)
	}
	tryEnd := b.statement(pred, tryBlock)
	if catchEntry != NoVertex {
		b.catchStack = b.catchStack[:len(b.catchStack)-1]
	}

	join := b.g.addVertex(ast.InvalidNodeID)
	if tryEnd != NoVertex {
		b.g.addEdge(tryEnd, join, Unconditional)
	}

	if catchEntry != NoVertex {
		catchBody := ast.InvalidNodeID
		catchNode := b.tree.Get(catchClause)
		if len(catchNode.Children) > 0 {
			catchBody = catchNode.Children[len(catchNode.Children)-1]
		}
		catchEnd := b.statement(catchEntry, catchBody)
		if catchEnd != NoVertex {
			b.g.addEdge(catchEnd, join, Unconditional)
		}
	} else {
		// No catch: exceptions already flow straight to the enclosing
		// handler via maybeEx inside the try body; nothing more to link.
	}

	if finallyClause.IsValid() {
		finallyNode := b.tree.Get(finallyClause)
		var finallyBody ast.NodeID
		if len(finallyNode.Children) > 0 {
			finallyBody = finallyNode.Children[0]
		}
		return b.statement(join, finallyBody)
	}
	return join
}

func (b *builder) labelStatement(pred VertexID, node ast.NodeID, n *ast.Node) VertexID {
	name := labelOf(n)

	var body ast.NodeID
	if len(n.Children) > 0 {
		body = n.Children[len(n.Children)-1]
	}

	// A label directly on a loop or switch folds into that construct's own
	// labelTarget frame, so "continue label" reaches the loop's continue
	// point rather than only its break point.
	if body.IsValid() {
		bodyKind := b.tree.Get(body).Kind
		if bodyKind.IsLoop() || bodyKind == ast.KindSwitch {
			b.pendingLabel = name
			return b.statement(pred, body)
		}
	}

	after := b.g.addVertex(ast.InvalidNodeID)
	b.targets = append(b.targets, labelTarget{label: name, breakTo: after})
	defer func() { b.targets = b.targets[:len(b.targets)-1] }()

	end := b.statement(pred, body)
	if end != NoVertex {
		b.g.addEdge(end, after, Unconditional)
		return after
	}
	return after
}
