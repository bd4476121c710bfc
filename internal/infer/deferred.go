package infer

import (
	"fmt"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/logger"
	"github.com/tiobe/closure-compiler/internal/types"
)

// DeferredCheck is a pending verification of a call site's expected vs.
// actual summary, created when the callee's own scope is still being
// analyzed in the current compilation (§4.6 "Deferred checks", GLOSSARY).
type DeferredCheck struct {
	CallSite       ast.NodeID
	ExpectedReturn types.Type
	ArgTypes       []types.Type
	CallerScope    ast.NodeID
	CalleeScope    ast.NodeID
	Source         *logger.Source
	Loc            logger.Loc
}

// Registry accumulates deferred checks across every function analyzed in
// one compilation and resolves them once every scope has a Summary,
// handling forward references without an SCC-based fixed point over
// functions (§4.6).
type Registry struct {
	pending   []*DeferredCheck
	summaries map[ast.NodeID]*Summary
}

func NewRegistry() *Registry {
	return &Registry{summaries: make(map[ast.NodeID]*Summary)}
}

func (r *Registry) Defer(check *DeferredCheck) {
	r.pending = append(r.pending, check)
}

func (r *Registry) RecordSummary(s *Summary) {
	r.summaries[s.ScopeRoot] = s
}

func (r *Registry) SummaryFor(scopeRoot ast.NodeID) (*Summary, bool) {
	s, ok := r.summaries[scopeRoot]
	return s, ok
}

// ResolveAll re-verifies every deferred check against its callee's final
// summary and reports a diagnostic for anything that still mismatches
// (§4.6 "each deferred check re-verifies arg/return compatibility against
// the final summary").
func (r *Registry) ResolveAll(log logger.Log) {
	for _, c := range r.pending {
		callee, ok := r.summaries[c.CalleeScope]
		if !ok {
			log.AddInternalError(c.Source, c.Loc,
				fmt.Sprintf("deferred check for scope %v never had a summary recorded", c.CalleeScope))
			continue
		}
		if callee.Return.Tag != types.TagUnknown && c.ExpectedReturn.Tag != types.TagUnknown {
			if !types.SubtypeOf(callee.Return, c.ExpectedReturn) {
				log.AddError(c.Source, c.Loc, logger.MsgID_JS_TypeMismatchReturn,
					"call site expects a return type incompatible with the callee's inferred return type")
			}
		}
		checkCallArguments(log, c.Source, c.Loc, callee.Formals, callee.HasRest, c.ArgTypes)
	}
}

// checkCallArguments implements the per-argument compatibility rule shared
// by an immediate call-site check (Evaluator.evalCall, when the callee's
// Summary is already known) and this Registry's own deferred
// re-verification above (§4.6 "each deferred check re-verifies arg/return
// compatibility against the final summary").
func checkCallArguments(log logger.Log, source *logger.Source, loc logger.Loc, formals []types.Type, hasRest bool, argTypes []types.Type) {
	if log.AddMsg == nil {
		return
	}
	for i, argType := range argTypes {
		if i >= len(formals) {
			if !hasRest {
				log.AddError(source, loc, logger.MsgID_JS_WrongArgumentCount, "too many arguments")
			}
			continue
		}
		if !types.SubtypeOf(argType, formals[i]) {
			log.AddError(source, loc, logger.MsgID_JS_InvalidArgumentType,
				fmt.Sprintf("argument %d is incompatible with the callee's inferred parameter type", i))
		}
	}
}
