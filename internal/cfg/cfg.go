// Package cfg builds the control-flow graph described in §4.2: one vertex
// per statement (plus expression vertices where an analysis needs them),
// edges labeled by how control reaches the successor, an implicit-return
// sink, and a throw-goes-to-exit-environments rule that is distinct from
// normal termination.
package cfg

import "github.com/tiobe/closure-compiler/internal/ast"

// EdgeLabel classifies how control flows across an edge (§3).
type EdgeLabel uint8

const (
	Unconditional EdgeLabel = iota
	OnTrue
	OnFalse
	OnEx
)

func (l EdgeLabel) String() string {
	switch l {
	case Unconditional:
		return "unconditional"
	case OnTrue:
		return "true"
	case OnFalse:
		return "false"
	case OnEx:
		return "ex"
	default:
		return "unknown"
	}
}

// VertexID indexes into Graph.Vertices. The zero value is a live vertex:
// Graph.Entry is always vertex 0 by construction, so an uninitialized
// VertexID reads as "entry" rather than "invalid" -- callers that need an
// explicit "no such vertex" sentinel use NoVertex (-1).
type VertexID int

const NoVertex VertexID = -1

// Vertex wraps one node that participates in the CFG (§3: "Each vertex
// wraps a node"). Annotation is a single free slot for whichever dataflow
// analysis is currently running over this graph; the analysis is
// responsible for clearing/typing it (internal/dataflow and
// internal/liveness use it for their in/out lattice states so no separate
// side table has to be kept in sync with vertex indices).
type Vertex struct {
	Node       ast.NodeID
	Annotation interface{}
}

type Edge struct {
	To    VertexID
	Label EdgeLabel
}

// Graph is one function or program scope's control-flow graph (§3). It is
// disposable: built fresh per pass invocation per §3's Lifecycles.
type Graph struct {
	Vertices []Vertex
	Succs    [][]Edge
	Preds    [][]Edge

	Entry VertexID

	// ImplicitReturn is the sink every normal (non-throwing) control path
	// eventually reaches (§3). It wraps the scope-root node itself since
	// there is no dedicated "return" statement node to hang it on when the
	// function falls off the end.
	ImplicitReturn VertexID

	// ExitEnvironments is the sink thrown exceptions with no enclosing
	// catch flow to (§3: "throw statements flow to exit environments (not
	// to implicit return)"). It is disjoint from ImplicitReturn so that
	// liveness and type inference can distinguish "the function returned"
	// from "the function threw" when publishing environments (§4.6 step 5).
	ExitEnvironments VertexID
}

func newGraph() *Graph {
	g := &Graph{}
	g.Entry = g.addVertex(ast.InvalidNodeID)
	g.ImplicitReturn = g.addVertex(ast.InvalidNodeID)
	g.ExitEnvironments = g.addVertex(ast.InvalidNodeID)
	return g
}

func (g *Graph) addVertex(node ast.NodeID) VertexID {
	id := VertexID(len(g.Vertices))
	g.Vertices = append(g.Vertices, Vertex{Node: node})
	g.Succs = append(g.Succs, nil)
	g.Preds = append(g.Preds, nil)
	return id
}

func (g *Graph) addEdge(from VertexID, to VertexID, label EdgeLabel) {
	g.Succs[from] = append(g.Succs[from], Edge{To: to, Label: label})
	g.Preds[to] = append(g.Preds[to], Edge{To: from, Label: label})
}

// VertexForNode returns the first vertex wrapping node, or NoVertex. CFG
// construction guarantees at most one vertex per statement node (expression
// vertices for e.g. case tests are addressed by the caller retaining the ID
// returned at construction time instead).
func (g *Graph) VertexForNode(node ast.NodeID) VertexID {
	for i, v := range g.Vertices {
		if v.Node == node {
			return VertexID(i)
		}
	}
	return NoVertex
}

// ReversePostorder returns a deterministic vertex visitation order
// (approximate reverse postorder from Entry) for the dataflow worklist
// engine (§4.3: "Worklist order ... must be deterministic").
func (g *Graph) ReversePostorder() []VertexID {
	visited := make([]bool, len(g.Vertices))
	var order []VertexID
	var visit func(v VertexID)
	visit = func(v VertexID) {
		if visited[v] {
			return
		}
		visited[v] = true
		for _, e := range g.Succs[v] {
			visit(e.To)
		}
		order = append(order, v)
	}
	visit(g.Entry)
	// Reverse in place.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}
