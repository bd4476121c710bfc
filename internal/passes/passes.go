// Package passes implements the Pass Manager ("Phase Optimizer") of
// §4.8: an ordered schedule of passes, repeatable-pass groups run to a
// fixed point, feature-set preconditions, and the pass-boundary recover
// that turns a change-verifier audit failure into one diagnostic.
package passes

import (
	"fmt"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/compat"
	"github.com/tiobe/closure-compiler/internal/instance"
	"github.com/tiobe/closure-compiler/internal/logger"
	"github.com/tiobe/closure-compiler/internal/verify"
)

// Pass is one scheduled unit of work (§4.8: "Name... a supported feature
// set... whether it is one-shot or repeatable"). Run reports whether it
// mutated the tree, driving the repeatable-group fixed-point loop.
type Pass interface {
	Name() string
	FeatureSet() compat.FeatureSet
	Repeatable() bool
	Run(ctx *instance.Context, tree *ast.Tree) (changed bool)
}

// ValidityCheck re-traverses tree and returns an error describing the
// first invariant violation found (§4.8 "no duplicate declarations, all
// references resolve, feature set matches annotation"). Installed only
// in debug/testing mode.
type ValidityCheck func(tree *ast.Tree) error

// Observer is notified after every pass runs, whether or not it changed the
// tree. pkg/api's debug sink is the only caller: it mirrors this as the §6
// "pass name then source text" observation stream, minus the source text
// itself, which internal/passes has no printer to reconstruct (§7
// Non-goals) -- the mirrored record is structural (pass name, whether it
// changed) rather than the emitted source.
type Observer func(passName string, changed bool)

// Manager runs a fixed, ordered list of passes (§4.8).
type Manager struct {
	passes         []Pass
	validityCheck  ValidityCheck
	observer       Observer
	maxIterations  int
	programFeature compat.FeatureSet
}

func NewManager(programFeature compat.FeatureSet, maxIterations int) *Manager {
	if maxIterations <= 0 {
		maxIterations = 100
	}
	return &Manager{programFeature: programFeature, maxIterations: maxIterations}
}

func (m *Manager) Add(p Pass) { m.passes = append(m.passes, p) }

func (m *Manager) SetValidityCheck(check ValidityCheck) { m.validityCheck = check }

func (m *Manager) SetObserver(observer Observer) { m.observer = observer }

// Run drives the schedule: one-shot passes execute once in declared
// order, and maximal runs of consecutive repeatable passes loop together
// until an entire iteration reports no change (§4.8's fixed-point
// contract), bounded by maxIterations.
func (m *Manager) Run(ctx *instance.Context, tree *ast.Tree) {
	i := 0
	for i < len(m.passes) {
		if !m.passes[i].Repeatable() {
			m.runOne(ctx, tree, m.passes[i])
			i++
			continue
		}
		j := i
		for j < len(m.passes) && m.passes[j].Repeatable() {
			j++
		}
		m.runToFixedPoint(ctx, tree, m.passes[i:j])
		i = j
	}
}

func (m *Manager) runToFixedPoint(ctx *instance.Context, tree *ast.Tree, group []Pass) {
	for iter := 0; ; iter++ {
		if iter >= m.maxIterations {
			names := make([]string, len(group))
			for i, p := range group {
				names[i] = p.Name()
			}
			ctx.Log.AddInternalError(ctx.Source, logger.Loc{},
				fmt.Sprintf("pass group %v did not reach a fixed point after %d iterations", names, m.maxIterations))
			return
		}
		anyChanged := false
		for _, p := range group {
			if m.runOne(ctx, tree, p) {
				anyChanged = true
			}
		}
		if !anyChanged {
			return
		}
	}
}

// runOne enforces the feature-set precondition, snapshots for the
// change verifier, executes the pass inside a recover boundary, audits,
// and runs the validity check if one is installed. Returns whether the
// pass reported a change (always false if it was skipped or panicked).
func (m *Manager) runOne(ctx *instance.Context, tree *ast.Tree, p Pass) (changed bool) {
	if p.FeatureSet().NarrowerThan(m.programFeature) {
		ctx.Log.AddWarning(ctx.Source, logger.Loc{}, logger.MsgID_PassManager_FeatureSetTooNarrow,
			fmt.Sprintf("pass %q declares feature set %v, narrower than the program's %v; skipped", p.Name(), p.FeatureSet(), m.programFeature))
		return false
	}

	if ctx.Verifier != nil {
		ctx.Verifier.Snapshot(tree)
	}

	changed = m.runProtected(ctx, tree, p)

	if ctx.Verifier != nil {
		m.auditProtected(ctx, tree, p)
	}

	if m.validityCheck != nil {
		if err := m.validityCheck(tree); err != nil {
			ctx.Log.AddInternalError(ctx.Source, logger.Loc{},
				fmt.Sprintf("validity check failed after pass %q: %v", p.Name(), err))
		}
	}

	if m.observer != nil {
		m.observer(p.Name(), changed)
	}

	return changed
}

// runProtected calls p.Run inside a panic boundary. Any panic --
// including a *verify.InternalError raised by Audit calls made *inside*
// a pass, or a plain Go panic from a malformed mutation -- becomes one
// Msg{Kind: Internal} instead of crashing the compilation (§7 "fatal ...
// rethrows... becomes one final internal-error message").
func (m *Manager) runProtected(ctx *instance.Context, tree *ast.Tree, p Pass) (changed bool) {
	defer func() {
		if r := recover(); r != nil {
			reportPanic(ctx, p.Name(), r)
			changed = false
		}
	}()
	return p.Run(ctx, tree)
}

func (m *Manager) auditProtected(ctx *instance.Context, tree *ast.Tree, p Pass) {
	defer func() {
		if r := recover(); r != nil {
			reportPanic(ctx, p.Name(), r)
		}
	}()
	ctx.Verifier.Audit(tree)
}

func reportPanic(ctx *instance.Context, passName string, r interface{}) {
	if ie, ok := r.(*verify.InternalError); ok {
		ctx.Log.AddMsg(logger.Msg{
			Kind: logger.Internal,
			ID:   ie.MsgID,
			Text: fmt.Sprintf("pass %q: %s", passName, ie.Text),
		})
		return
	}
	ctx.Log.AddMsg(logger.Msg{
		Kind: logger.Internal,
		ID:   logger.MsgID_Internal_MalformedMutation,
		Text: fmt.Sprintf("pass %q panicked: %v", passName, r),
	})
}
