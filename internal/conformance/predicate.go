package conformance

import "github.com/tiobe/closure-compiler/internal/ast"

// Predicate is a KindCustom rule's caller-provided matcher (§4.9 "Custom: A
// caller-provided predicate class"). Go has no dynamic class loading, so a
// custom rule's Rule.CustomPredicateName is looked up in a registry the
// embedding application builds with Engine.RegisterPredicate instead of
// instantiating a named class at load time.
type Predicate interface {
	// Match reports whether node id violates the rule, and if so a note
	// appended to the diagnostic (may be empty).
	Match(t *ast.Tree, id ast.NodeID) (violated bool, note string)
}

// PredicateFunc adapts a plain function to Predicate.
type PredicateFunc func(t *ast.Tree, id ast.NodeID) (bool, string)

func (f PredicateFunc) Match(t *ast.Tree, id ast.NodeID) (bool, string) { return f(t, id) }
