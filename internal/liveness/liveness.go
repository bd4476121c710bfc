// Package liveness implements the live-variables analysis of §4.4: a
// backward dataflow instance over internal/dataflow whose state is a
// helpers.BitSet indexed by variable-index-within-scope, plus the escape
// set side-output.
package liveness

import (
	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/cfg"
	"github.com/tiobe/closure-compiler/internal/dataflow"
	"github.com/tiobe/closure-compiler/internal/helpers"
	"github.com/tiobe/closure-compiler/internal/scope"
)

// bitState wraps helpers.BitSet to satisfy dataflow.State.
type bitState struct {
	bits helpers.BitSet
}

func (s *bitState) Join(other dataflow.State) bool {
	o := other.(*bitState)
	return s.bits.Union(o.bits)
}

func (s *bitState) Clone() dataflow.State {
	return &bitState{bits: s.bits.Clone()}
}

// Access describes one read or write of a scope variable found while
// scanning a vertex's node, in the order the transfer function needs to
// apply them: kills before adds within a single statement, per §4.4's "an
// unconditional kill ... removes v from live-in before adding reads" rule.
type Access struct {
	Var          *scope.Variable
	IsWrite      bool
	IsRead       bool
	IsUnconditional bool // false for short-circuit / conditional assignment targets
}

// Accessor extracts the Access list for one CFG vertex's node. This is
// supplied by the caller (the type inference engine or a pass wanting
// liveness on its own account) because "how to find reads/writes in a
// statement" is syntax-tree walking, not something this package should
// hardcode independent of the concrete node payload shapes upstream
// assigns.
type Accessor func(tree *ast.Tree, node ast.NodeID) []Access

// Result is the per-vertex live-in/live-out bitmaps plus an escape set.
// Analyze leaves Escapes empty; EscapeSet computes escapes separately.
type Result struct {
	LiveIn  []helpers.BitSet
	LiveOut []helpers.BitSet
	Escapes map[*scope.Variable]bool
}

// Analyze runs the backward liveness dataflow over graph, whose vertices
// wrap nodes belonging to sc (or its descendant block scopes). numVars is
// the total variable-index space across sc's own scope plus every nested
// scope reachable without crossing a function boundary (liveness is
// intra-procedural, §4.2 "function expressions produce no intra-procedural
// flow").
func Analyze(tree *ast.Tree, graph *cfg.Graph, numVars int, access Accessor) Result {
	bottom := func() dataflow.State { return &bitState{bits: helpers.NewBitSet(uint(numVars))} }

	transfer := func(v cfg.VertexID, out dataflow.State) dataflow.State {
		in := out.Clone().(*bitState)
		node := graph.Vertices[v].Node
		if !node.IsValid() {
			return in
		}
		for _, acc := range access(tree, node) {
			if acc.Var == nil {
				continue
			}
			idx := uint(acc.Var.Index)
			if acc.IsWrite && acc.IsUnconditional {
				in.bits.ClearBit(idx)
			}
			if acc.IsRead {
				in.bits.SetBit(idx)
			}
		}
		return in
	}

	res := dataflow.Run(dataflow.Analysis{
		Graph:     graph,
		Direction: dataflow.Backward,
		Bottom:    bottom,
		Transfer:  transfer,
	})

	out := Result{
		LiveIn:  make([]helpers.BitSet, len(graph.Vertices)),
		LiveOut: make([]helpers.BitSet, len(graph.Vertices)),
		Escapes: make(map[*scope.Variable]bool),
	}
	for i := range graph.Vertices {
		out.LiveIn[i] = res.In[i].(*bitState).bits
		out.LiveOut[i] = res.Out[i].(*bitState).bits
	}
	return out
}

// EscapeSet walks every node in the CFG's underlying function looking for
// variables referenced from a nested function body or via `arguments`
// (§4.4 "Escape set"). isInnerFunctionRead reports, for a given node, the
// variable it exposes if that node is (or contains) a bare `arguments`
// read -- assignments to `arguments` itself never add parameters to the
// escape set, only reads do, so callers must not call this for write-only
// occurrences.
func EscapeSet(tree *ast.Tree, root ast.NodeID, sc *scope.Scope, isInnerFunctionRead func(ast.NodeID) (*scope.Variable, bool)) map[*scope.Variable]bool {
	escapes := make(map[*scope.Variable]bool)
	var walk func(id ast.NodeID)
	walk = func(id ast.NodeID) {
		if !id.IsValid() {
			return
		}
		if v, ok := isInnerFunctionRead(id); ok && v != nil {
			escapes[v] = true
		}
		n := tree.Get(id)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return escapes
}
