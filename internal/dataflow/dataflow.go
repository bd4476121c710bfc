// Package dataflow implements the generic monotone dataflow framework of
// §4.3: a worklist engine over a lattice supplied by the caller, driving
// either forward or backward per-vertex transfer functions to a fixed
// point over a internal/cfg.Graph.
package dataflow

import "github.com/tiobe/closure-compiler/internal/cfg"

// State is one lattice element. The engine joins into the per-vertex
// states it owns in place and never clones them itself; Clone is there for
// transfer functions, which copy their input before changing it, matching
// helpers.BitSet's clone-then-mutate idiom.
type State interface {
	// Join merges other into the receiver in place and reports whether the
	// receiver changed, which is exactly the worklist "push successors
	// again?" test (§4.3).
	Join(other State) (changed bool)

	// Clone returns an independent copy.
	Clone() State
}

// Direction selects which way the analysis flows across CFG edges (§4.3:
// "forward or backward, selected by the analysis").
type Direction uint8

const (
	Forward Direction = iota
	Backward
)

// Transfer computes the out-state (Forward) or in-state (Backward) for a
// vertex given its in-state (Forward) or out-state (Backward). It must be
// monotone with respect to State.Join for the worklist to terminate (§4.3).
type Transfer func(v cfg.VertexID, in State) (out State)

// Analysis bundles everything the engine needs to run: the graph, the
// direction, an initial (bottom) state factory, and the transfer function.
type Analysis struct {
	Graph     *cfg.Graph
	Direction Direction
	Bottom    func() State
	Transfer  Transfer
}

// Result holds the fixed-point in/out states for every vertex, indexed by
// cfg.VertexID.
type Result struct {
	In  []State
	Out []State
}

// Run drives the worklist to a fixed point and returns the per-vertex
// in/out states (§4.3). The initial worklist order is the graph's
// deterministic reverse-postorder traversal so that well-behaved forward
// analyses converge in close to one pass; backward analyses use the same
// order reversed, which is reverse postorder over the *reverse* graph's
// natural (i.e. postorder-of-original) traversal.
func Run(a Analysis) Result {
	n := len(a.Graph.Vertices)
	res := Result{In: make([]State, n), Out: make([]State, n)}
	for i := 0; i < n; i++ {
		res.In[i] = a.Bottom()
		res.Out[i] = a.Bottom()
	}

	order := a.Graph.ReversePostorder()
	if a.Direction == Backward {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	onWorklist := make(map[cfg.VertexID]bool, n)
	queue := make([]cfg.VertexID, len(order))
	copy(queue, order)
	for _, v := range queue {
		onWorklist[v] = true
	}

	push := func(v cfg.VertexID) {
		if !onWorklist[v] {
			onWorklist[v] = true
			queue = append(queue, v)
		}
	}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		onWorklist[v] = false

		if a.Direction == Forward {
			merged := a.Bottom()
			for _, e := range a.Graph.Preds[v] {
				merged.Join(res.Out[e.To])
			}
			res.In[v] = merged
			out := a.Transfer(v, merged)
			if changed := res.Out[v].Join(out); changed {
				res.Out[v] = out
				for _, e := range a.Graph.Succs[v] {
					push(e.To)
				}
			}
		} else {
			merged := a.Bottom()
			for _, e := range a.Graph.Succs[v] {
				merged.Join(res.In[e.To])
			}
			res.Out[v] = merged
			in := a.Transfer(v, merged)
			if changed := res.In[v].Join(in); changed {
				res.In[v] = in
				for _, e := range a.Graph.Preds[v] {
					push(e.To)
				}
			}
		}
	}

	return res
}
