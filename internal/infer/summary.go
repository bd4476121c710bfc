package infer

import (
	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/scope"
	"github.com/tiobe/closure-compiler/internal/types"
)

// Summary is the per-function record produced by inference and consumed by
// callers to type a call site (§3 "Summary").
type Summary struct {
	ScopeRoot ast.NodeID

	Formals      []types.Type
	OptionalFrom int
	HasRest      bool

	Return   types.Type
	Receiver types.Type
	IsAbstract bool

	// OuterVarPreconditions records the type required on entry for
	// outer-scope variables without a declared type that the body uses as
	// operands of arithmetic (number) or comparison (boolean) operators;
	// other reads and writes of outer variables are not recorded (§4.6
	// step 2's backward-pass output).
	OuterVarPreconditions map[*scope.Variable]types.Type

	TypeParams []string

	// TTLExprs are template-type-logic expressions attached to the
	// function (§4.6 Generics) evaluated against a resolved type-var map
	// to compute the effective instantiation; stored as raw nodes since
	// evaluating a TTL expression is itself a small interpreter over
	// types.Type values that a generic-heavy caller supplies.
	TTLExprs []ast.NodeID

	// TrailingOptionalFormals holds the formals (by index) whose inferred
	// value is unknown or may-be-undefined, per §4.6 step 7 ("collect
	// precise types for trailing-optional formals").
	TrailingOptionalFormals []int
}

// AsFunctionType projects a Summary down to the types.Type function shape
// used by call-site type checking.
func (s *Summary) AsFunctionType() types.Type {
	t := types.Function(s.Formals, s.OptionalFrom, s.HasRest, s.Return)
	t.TypeParams = s.TypeParams
	t.IsAbstract = s.IsAbstract
	if s.Receiver.Tag != types.TagBottom {
		r := s.Receiver
		t.Receiver = &r
	}
	return t
}
