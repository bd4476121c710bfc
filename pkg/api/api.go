// Package api is the one public façade over the analytical core (§0,
// §7 Non-goals): callers hand in an already-parsed *ast.Tree and a
// logger.Source, Analyze wires up scope creation, the pass manager, type
// inference, and (optionally) the conformance engine, and hands back a
// flat diagnostic list. Nothing in here lexes, parses, prints, or touches
// a module graph on disk -- those remain the external collaborator's job
// (§7), matching the "an ast.Node tree handed in already parsed... a
// []logger.Msg handed out already formatted" seam.
package api

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/compat"
	"github.com/tiobe/closure-compiler/internal/conformance"
	"github.com/tiobe/closure-compiler/internal/config"
	"github.com/tiobe/closure-compiler/internal/infer"
	"github.com/tiobe/closure-compiler/internal/instance"
	"github.com/tiobe/closure-compiler/internal/logger"
	"github.com/tiobe/closure-compiler/internal/passes"
	"github.com/tiobe/closure-compiler/internal/scope"
	"github.com/tiobe/closure-compiler/internal/verify"
)

// Location mirrors logger.MsgLocation for callers that never import
// internal/logger directly.
type Location struct {
	File     string
	Line     int
	Column   int
	Length   int
	LineText string
}

// Diagnostic mirrors logger.Msg. Kind is one of the strings logger.MsgKind
// renders ("error", "warning", "debug", "verbose", "internal error").
type Diagnostic struct {
	Kind     string
	ID       string
	Text     string
	Possible bool
	Location *Location
}

// Options configures one Analyze call. It is the public projection of
// internal/config.Options plus the conformance/debug knobs pkg/api itself
// owns (loading YAML files and mirroring diagnostics are collaborator
// concerns, not internal/*'s).
type Options struct {
	// Target is the language edition the input is assumed to still
	// contain sugar from (§4.8). Zero value is treated as ES3.
	Target compat.FeatureSet

	MaxPassIterations          int
	MaxTypeInferenceIterations int
	ValidityCheckBetweenPasses bool

	// GenericsCompatibilityMode selects the ambiguity policy for a generic
	// call site whose type variable unifies against more than one distinct
	// actual type (§4.6 Generics). Zero value (false) is strict mode.
	GenericsCompatibilityMode bool

	// DebugSink, when true, mirrors every pass-manager observation and
	// emitted diagnostic through logrus at Debug level (§6).
	DebugSink bool

	// Sink overrides the logger.Log Analyze accumulates messages into.
	// The zero value uses an internal logger.NewDeferLog. cmd/tccompile
	// passes a logger.NewStderrLog here so diagnostics print as they're
	// produced instead of only after Analyze returns.
	Sink logger.Log

	// Conformance, when non-nil, is run once after the pass schedule
	// settles (§4.9). Build one with LoadConformanceSources + yaml
	// parsing via internal/conformance.LoadConfigs, or pass a *RuleSet
	// built directly.
	Conformance *conformance.RuleSet

	// Passes overrides the default one-pass schedule (constant folding).
	// A nil slice runs the default schedule; an empty non-nil slice runs
	// no passes at all.
	Passes []passes.Pass
}

// AnalyzeInput is one source file already reduced to a tree, the
// narrowest seam §7 Non-goals allows pkg/api to accept.
type AnalyzeInput struct {
	Tree       *ast.Tree
	Source     *logger.Source
	SourcePath string
}

// Result is everything one Analyze call produces.
type Result struct {
	InstanceID  string
	Diagnostics []Diagnostic
	HasErrors   bool
}

// DefaultPasses is the pass schedule Analyze runs when Options.Passes is
// nil: constant folding, repeated to a fixed point (§8 scenario 1).
func DefaultPasses() []passes.Pass {
	return []passes.Pass{passes.ConstantFoldPass{}}
}

// Analyze builds a compiler instance around input, runs the pass
// schedule, drives type inference over every function found in the tree,
// and (if configured) evaluates conformance rules, returning every
// diagnostic produced along the way.
func Analyze(input AnalyzeInput, opts Options) Result {
	target := opts.Target
	if target.Target == nil {
		target = compat.ES3()
	}

	log := opts.Sink
	if log.AddMsg == nil {
		log = logger.NewDeferLog()
	}
	if opts.DebugSink {
		log = mirrorToLogrus(log)
	}

	creator := scope.NewScopeCreator(input.Tree)
	verifier := verify.NewVerifier(creator)

	cfgOptions := config.Options{
		Target:                     target,
		MaxPassIterations:          opts.MaxPassIterations,
		ValidityCheckBetweenPasses: opts.ValidityCheckBetweenPasses,
		DebugSink:                  opts.DebugSink,
		MaxTypeInferenceIterations: opts.MaxTypeInferenceIterations,
		GenericsCompatibilityMode:  opts.GenericsCompatibilityMode,
	}

	ctx := instance.New(log, input.Source, cfgOptions, creator, verifier)

	createAllScopes(input.Tree, creator, ctx)
	creator.Freeze()

	schedule := opts.Passes
	if schedule == nil {
		schedule = DefaultPasses()
	}

	manager := passes.NewManager(target, cfgOptions.MaxPassIterationsOrDefault())
	for _, p := range schedule {
		manager.Add(p)
	}
	if opts.ValidityCheckBetweenPasses {
		manager.SetValidityCheck(checkTreeConsistency)
	}
	if opts.DebugSink {
		manager.SetObserver(func(passName string, changed bool) {
			logrus.WithFields(logrus.Fields{
				"pass":    passName,
				"scope":   input.SourcePath,
				"changed": changed,
			}).Debug("pass executed")
		})
	}
	manager.Run(ctx, input.Tree)

	runTypeInference(ctx, input.Tree, creator)

	if opts.Conformance != nil {
		engine := conformance.NewEngine(opts.Conformance)
		engine.Run(ctx, input.Tree, creator, input.SourcePath)
	}

	msgs := ctx.Log.Done()
	diagnostics := make([]Diagnostic, len(msgs))
	for i, m := range msgs {
		diagnostics[i] = toDiagnostic(m)
	}

	return Result{
		InstanceID:  ctx.ID.String(),
		Diagnostics: diagnostics,
		HasErrors:   ctx.Log.HasErrors(),
	}
}

// checkTreeConsistency is the §4.8 debug/testing-mode validity check:
// every node's recorded parent must agree with where the tree actually
// reaches it from, and every child must be listed in its parent's
// Children slice. A mutation primitive that corrupted this invariant
// (rather than one merely undisclosed to the change verifier, which is
// verify.Verifier's job) would otherwise surface only as a much later,
// harder-to-diagnose failure.
func checkTreeConsistency(t *ast.Tree) error {
	if !t.Root().IsValid() {
		return nil
	}
	var walkErr error
	ast.Walk(t, t.Root(), ast.WalkFunc(func(t *ast.Tree, id ast.NodeID, parent ast.NodeID) ast.VisitAction {
		if parent.IsValid() {
			found := false
			for _, c := range t.Children(parent) {
				if c == id {
					found = true
					break
				}
			}
			if !found {
				walkErr = fmt.Errorf("node %v is not among its walk-parent %v's children", id, parent)
				return ast.Stop
			}
		}
		if t.Parent(id) != parent {
			walkErr = fmt.Errorf("node %v's recorded parent disagrees with the tree walk", id)
			return ast.Stop
		}
		return ast.Continue
	}))
	return walkErr
}

func toDiagnostic(m logger.Msg) Diagnostic {
	d := Diagnostic{
		Kind:     m.Kind.String(),
		ID:       m.ID.String(),
		Text:     m.Text,
		Possible: m.Possible,
	}
	if m.Location != nil {
		d.Location = &Location{
			File:     m.Location.File,
			Line:     m.Location.Line,
			Column:   m.Location.Column,
			Length:   m.Location.Length,
			LineText: m.Location.LineText,
		}
	}
	return d
}

// mirrorToLogrus wraps base so every AddMsg call is also emitted through
// logrus at a level derived from the message kind, matching §6's
// pass-execution observation stream for diagnostics (the pass-boundary
// half of the stream is Manager.SetObserver, wired above).
func mirrorToLogrus(base logger.Log) logger.Log {
	return logger.Log{
		AddMsg: func(m logger.Msg) {
			base.AddMsg(m)
			entry := logrus.WithFields(logrus.Fields{"id": m.ID.String()})
			switch m.Kind {
			case logger.Error, logger.Internal:
				entry.Error(m.Text)
			case logger.Warning:
				entry.Warn(m.Text)
			default:
				entry.Debug(m.Text)
			}
		},
		HasErrors: base.HasErrors,
		Done:      base.Done,
	}
}

// nearestScope finds the Scope memoized for the closest scope-root
// ancestor of id (inclusive), the same lookup internal/conformance's
// unexported helper of the same name performs; pkg/api needs its own
// copy since that one is unexported to its own package.
func nearestScope(t *ast.Tree, creator *scope.ScopeCreator, id ast.NodeID) *scope.Scope {
	for cur := id; cur.IsValid(); cur = t.Parent(cur) {
		if t.Get(cur).Kind.IsPotentialScopeRoot() {
			if s, ok := creator.LookupScope(cur); ok {
				return s
			}
		}
	}
	return nil
}

// createAllScopes walks tree once, creating a Scope for the root and for
// every potential scope-root node beneath it, parented onto its nearest
// enclosing scope. internal/scope's ScopeCreator only ever memoizes
// scopes it is explicitly asked to create (§4.7's memoizing façade), so
// pkg/api -- the one caller in this module standing in for a driver that
// walks a whole tree up front -- is what actually populates it for a
// fresh compilation.
func createAllScopes(t *ast.Tree, creator *scope.ScopeCreator, ctx *instance.Context) {
	if !t.Root().IsValid() {
		return
	}
	root := t.Root()
	if _, err := creator.CreateScope(root, nil); err != nil {
		ctx.Log.AddInternalError(ctx.Source, logger.Loc{}, err.Error())
		return
	}
	ast.Walk(t, root, ast.WalkFunc(func(t *ast.Tree, id ast.NodeID, parent ast.NodeID) ast.VisitAction {
		if id == root || !t.Get(id).Kind.IsPotentialScopeRoot() {
			return ast.Continue
		}
		parentScope := nearestScope(t, creator, t.Parent(id))
		if _, err := creator.CreateScope(id, parentScope); err != nil {
			ctx.Log.AddInternalError(ctx.Source, logger.Loc{}, err.Error())
		}
		return ast.Continue
	}))
}

// varOf resolves a KindName node to the scope.Variable it references,
// generalized for infer.NewEvaluator's VarOf hook.
func varOf(t *ast.Tree, creator *scope.ScopeCreator) func(ast.NodeID) *scope.Variable {
	return func(id ast.NodeID) *scope.Variable {
		name, ok := t.Get(id).Data.(ast.NameData)
		if !ok {
			return nil
		}
		s := nearestScope(t, creator, id)
		if s == nil {
			return nil
		}
		return s.Lookup(name.Text)
	}
}

// functionBody returns the KindBlock child of a function node, or an
// invalid NodeID if fn has no block body (an expression-bodied arrow
// function has nothing for the CFG builder to walk).
func functionBody(t *ast.Tree, fn ast.NodeID) ast.NodeID {
	for _, c := range t.Children(fn) {
		if t.Get(c).Kind == ast.KindBlock {
			return c
		}
	}
	return ast.InvalidNodeID
}

// runTypeInference discovers every function in tree and analyzes each one
// with internal/infer bottom-up over the scope tree: functions are collected
// in source pre-order and analyzed in reverse, so every nested function is
// analyzed before the functions that enclose it. It then resolves the
// deferred-check ledger internal/infer's own Engine.Registry accumulated
// along the way (§4.6, §6 "Deferred-check re-verification ledger").
func runTypeInference(ctx *instance.Context, t *ast.Tree, creator *scope.ScopeCreator) {
	if !t.Root().IsValid() {
		return
	}
	evaluator := infer.NewEvaluator(varOf(t, creator))
	evaluator.CompatibilityMode = ctx.Options.GenericsCompatibilityMode
	engine := infer.NewEngine(ctx.Log, ctx.Source, evaluator)

	var fns, bodies []ast.NodeID
	ast.Walk(t, t.Root(), ast.WalkFunc(func(t *ast.Tree, id ast.NodeID, parent ast.NodeID) ast.VisitAction {
		switch t.Get(id).Kind {
		case ast.KindFunctionDecl, ast.KindFunctionExpr, ast.KindArrowFunction:
		default:
			return ast.Continue
		}
		body := functionBody(t, id)
		if !body.IsValid() {
			return ast.Continue
		}
		fns, bodies = append(fns, id), append(bodies, body)
		return ast.Continue
	}))
	for i := len(fns) - 1; i >= 0; i-- {
		engine.AnalyzeFunction(t, fns[i], bodies[i], infer.NewEnv())
	}

	engine.Registry.ResolveAll(ctx.Log)
}
