// Package scope implements §4.1's scope model and §4.7's incremental scope
// creator: layered, long-lived Scope objects holding Variable bindings over
// an ast.Tree.
package scope

import "github.com/tiobe/closure-compiler/internal/ast"

// Kind classifies how a Variable came to be bound (§3).
type Kind uint8

const (
	KindParameter Kind = iota
	KindVar
	KindLetConst
	KindFunctionDecl
	KindClassDecl
	KindCatchBinding
	KindExtern
)

func (k Kind) String() string {
	switch k {
	case KindParameter:
		return "parameter"
	case KindVar:
		return "var"
	case KindLetConst:
		return "let/const"
	case KindFunctionDecl:
		return "function"
	case KindClassDecl:
		return "class"
	case KindCatchBinding:
		return "catch"
	case KindExtern:
		return "extern"
	default:
		return "unknown"
	}
}

// Variable is a name binding (§3). DeclaredType is the source-level type
// annotation text if any was declared (empty means "inferred" -- the null
// case from the spec); internal/infer is what turns this into a concrete
// internal/types.Type.
type Variable struct {
	Name         string
	DefNode      ast.NodeID
	DeclaredType string
	Kind         Kind
	Scope        *Scope

	// Index is a dense, per-scope 0-based index assigned at scope build
	// time. internal/liveness uses it to address its bitmap state directly
	// without a name lookup (§4.4 "a bitmap indexed by variable-index-within-scope").
	Index int

	// SourceIndex identifies the script this binding belongs to, consulted
	// by ScopeCreator.Invalidate (§4.7).
	SourceIndex uint32
}
