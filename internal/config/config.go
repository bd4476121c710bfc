// Package config holds the per-compilation options threaded through
// internal/instance.Context. It keeps the teacher's Options-struct shape
// but replaces the bundler-oriented fields (target platform, output
// format, source maps) with the knobs SPEC_FULL's core actually consults:
// a semver-backed FeatureSet, pass-manager bounds, and conformance/debug
// toggles.
package config

import "github.com/tiobe/closure-compiler/internal/compat"

// Options is the immutable configuration for one compiler instance
// (internal/instance.Context), analogous to the teacher's bundler Options
// but scoped to the analytical core: nothing here describes how to read
// input or write output (§7 Non-goals).
type Options struct {
	// Target is the language edition the input program is assumed to
	// still contain sugar from; the pass manager (§4.8) refuses to run a
	// pass declaring a narrower FeatureSet against a program still above
	// this floor.
	Target compat.FeatureSet

	// MaxPassIterations bounds the repeatable-pass fixed-point loop
	// (§4.8 "Fixed-point termination"). Zero means the pass manager's own
	// default.
	MaxPassIterations int

	// ConformanceConfigPaths lists the YAML rule files loaded by
	// internal/conformance (§4.9, §6).
	ConformanceConfigPaths []string

	// ValidityCheckBetweenPasses turns on the §4.8 "debug/testing mode"
	// re-traversal that asserts tree invariants between every pass.
	ValidityCheckBetweenPasses bool

	// DebugSink, when true, asks pkg/api to mirror the pass-execution
	// observation stream (§6: pass name then source text) through its
	// logrus hook instead of staying silent.
	DebugSink bool

	// MaxTypeInferenceIterations is carried through to the API options;
	// internal/infer does not read it and bounds its forward pass per
	// function with its own fixed constant (§9's non-termination Open
	// Question).
	MaxTypeInferenceIterations int

	// GenericsCompatibilityMode selects §4.6 Generics' ambiguity policy for
	// a type variable that unifies against more than one distinct actual
	// type at a call site: false (the default, strict mode) resolves it to
	// Unknown and reports MsgID_JS_AmbiguousInstantiation; true joins the
	// candidates instead and stays silent. See DESIGN.md "Open Question
	// decisions".
	GenericsCompatibilityMode bool
}

func (o Options) MaxPassIterationsOrDefault() int {
	if o.MaxPassIterations <= 0 {
		return 100
	}
	return o.MaxPassIterations
}

// Default returns an Options value with a non-nil Target; the zero
// Options{} carries a nil semver.Version inside Target and panics the
// first time anything compares it.
func Default() Options {
	return Options{Target: compat.ES3()}
}
