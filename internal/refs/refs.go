// Package refs implements the Reference Collector of §4.5: per-variable
// def/use lists gathered from a CFG, plus the derived classifications
// (assigned-once-in-lifetime, well-defined, movable declaration) that
// later transforms consult before doing code motion or inlining.
package refs

import (
	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/cfg"
	"github.com/tiobe/closure-compiler/internal/scope"
)

// Kind classifies one occurrence of a variable name.
type Kind uint8

const (
	Read Kind = iota
	Write
	Declare
)

// Reference is one syntactic occurrence of a binding (§3
// "Reference/ReferenceCollection").
type Reference struct {
	Node             ast.NodeID
	Kind             Kind
	Vertex           cfg.VertexID
	InLoop           bool
	InRepeatableFunc bool // enclosing function could run more than once
	IsAccessor       bool // occurs inside a getter/setter
}

// Collection is every Reference for one Variable, in program order.
type Collection struct {
	Var  *scope.Variable
	Refs []Reference
}

// Collect walks graph and, for every vertex, asks access to report the
// occurrences it contains, threading in whether the vertex sits inside a
// loop (via inLoop, computed by the caller from back-edge dominance since
// that is a CFG-shape question this package should not re-derive) and
// whether the enclosing function may run more than once (via
// repeatableFunc, a property of the *call graph*, out of this package's
// scope per §1 Non-goals on cross-module analysis depth).
func Collect(tree *ast.Tree, graph *cfg.Graph, access func(tree *ast.Tree, node ast.NodeID) []struct {
	Var  *scope.Variable
	Kind Kind
}, inLoop func(cfg.VertexID) bool, repeatableFunc bool, inAccessor func(ast.NodeID) bool) map[*scope.Variable]*Collection {
	out := make(map[*scope.Variable]*Collection)
	for v, vertex := range graph.Vertices {
		if !vertex.Node.IsValid() {
			continue
		}
		for _, occ := range access(tree, vertex.Node) {
			if occ.Var == nil {
				continue
			}
			c, ok := out[occ.Var]
			if !ok {
				c = &Collection{Var: occ.Var}
				out[occ.Var] = c
			}
			c.Refs = append(c.Refs, Reference{
				Node:             vertex.Node,
				Kind:             occ.Kind,
				Vertex:           cfg.VertexID(v),
				InLoop:           inLoop(cfg.VertexID(v)),
				InRepeatableFunc: repeatableFunc,
				IsAccessor:       inAccessor(vertex.Node),
			})
		}
	}
	return out
}

// AssignedOnceInLifetime reports whether c has exactly one write, and that
// write is neither inside a loop nor inside a function that could run more
// than once (§4.5).
func (c *Collection) AssignedOnceInLifetime() bool {
	writes := 0
	for _, r := range c.Refs {
		if r.Kind == Write {
			writes++
			if r.InLoop || r.InRepeatableFunc {
				return false
			}
		}
	}
	return writes == 1
}

// WellDefined reports whether every read in c is dominated by a write,
// approximated here (without full dominance computation, which would
// require the same CFG the caller already built) as "no read occurs before
// the first write in vertex-index order" -- callers with a true dominance
// query available should prefer it; this conservative approximation never
// classifies a genuinely undominated read as well-defined for a
// straight-line CFG-index-ordered collection, since Collect visits
// vertices in graph.Vertices order which construction assigns in the same
// order statements were linked.
func (c *Collection) WellDefined() bool {
	firstWrite := -1
	for i, r := range c.Refs {
		if r.Kind == Write || r.Kind == Declare {
			if firstWrite == -1 {
				firstWrite = i
			}
		}
	}
	if firstWrite == -1 {
		return false
	}
	for i, r := range c.Refs {
		if r.Kind == Read && i < firstWrite {
			return false
		}
	}
	return true
}

// PureInitializer classifies the shape of an initializer expression for
// MovableDeclaration's third disjunct (§4.5: "uses only pure
// literals/functions, or is a prototype-inheritance helper call").
type PureInitializer func(init ast.NodeID) bool

// MovableDeclaration reports whether a declaration is safe for code
// motion: its initializer references only well-defined, assigned-once
// bindings (checked via refsOf per referenced name), or its initializer is
// a pure literal/function/prototype-helper expression per isPure (§4.5).
func MovableDeclaration(init ast.NodeID, referencedVars []*scope.Variable, refsOf func(*scope.Variable) *Collection, isPure PureInitializer) bool {
	if isPure(init) {
		return true
	}
	for _, v := range referencedVars {
		c := refsOf(v)
		if c == nil || !c.AssignedOnceInLifetime() || !c.WellDefined() {
			return false
		}
	}
	return true
}
