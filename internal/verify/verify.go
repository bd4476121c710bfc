// Package verify implements the Change Verifier of §4.10: a
// snapshot-and-audit mechanism enforcing "passes must report what they
// change." It never itself decides whether a mutation was *correct*,
// only whether it was *disclosed* through internal/instance.Context's
// ast.ChangeReporter methods.
package verify

import (
	"fmt"

	"github.com/alecthomas/repr"
	"github.com/ztrue/tracerr"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/instance"
	"github.com/tiobe/closure-compiler/internal/logger"
	"github.com/tiobe/closure-compiler/internal/scope"
)

var _ instance.Verifier = (*Verifier)(nil)

// InternalError models §7's "fatal ... rethrows": an invariant violation
// that is a compiler bug, not a user-facing diagnostic. It is wrapped
// with tracerr at the point of detection so whatever recovers the panic
// downstream still has the full call stack, and carries an optional
// repr dump of the offending value so the eventual Msg{Kind: Internal}
// is inspectable rather than just a string.
type InternalError struct {
	MsgID logger.MsgID
	Text  string
	Dump  string
	cause error
}

func (e *InternalError) Error() string { return e.Text }
func (e *InternalError) Unwrap() error { return e.cause }

func newInternalError(id logger.MsgID, text string, dumped interface{}) *InternalError {
	e := &InternalError{MsgID: id, Text: text, cause: tracerr.Wrap(fmt.Errorf("%s", text))}
	if dumped != nil {
		e.Dump = repr.String(dumped, repr.Indent("  "))
	}
	return e
}

type snapshotEntry struct {
	stamp    uint64
	children []ast.NodeID
}

// Verifier owns the snapshot taken before a pass runs and the ledger of
// changes that pass has self-reported by the time Audit is called.
type Verifier struct {
	creator *scope.ScopeCreator

	snapshot   map[ast.NodeID]snapshotEntry
	changed    map[ast.NodeID]bool
	deletedFns map[ast.NodeID]bool
}

func NewVerifier(creator *scope.ScopeCreator) *Verifier {
	return &Verifier{
		creator:    creator,
		changed:    make(map[ast.NodeID]bool),
		deletedFns: make(map[ast.NodeID]bool),
	}
}

// RecordChange is instance.Context's ReportChange delegate: it bumps the
// reported scope root's ChangeStamp -- the counter Audit consults -- and
// remembers the report for the deleted-scope check below.
func (v *Verifier) RecordChange(t *ast.Tree, scopeRoot ast.NodeID) {
	if s, ok := v.creator.LookupScope(scopeRoot); ok {
		s.Bump()
	}
	v.changed[scopeRoot] = true
}

// RecordFunctionDeleted is instance.Context's ReportFunctionDeleted
// delegate (§4.10 "A pass that detaches a function node must issue a
// function-deletion report in addition to the change report for the
// enclosing script").
func (v *Verifier) RecordFunctionDeleted(t *ast.Tree, fn ast.NodeID) {
	v.deletedFns[fn] = true
}

// Snapshot walks t and records every potential scope root's current
// change stamp and child list (§4.10 "records... its current change
// stamp and child count"), then clears the per-pass report ledgers so
// the next Audit only sees what happens between this call and it.
func (v *Verifier) Snapshot(t *ast.Tree) {
	v.snapshot = make(map[ast.NodeID]snapshotEntry)
	v.changed = make(map[ast.NodeID]bool)
	v.deletedFns = make(map[ast.NodeID]bool)

	if !t.Root().IsValid() {
		return
	}
	ast.Walk(t, t.Root(), ast.WalkFunc(func(tree *ast.Tree, id ast.NodeID, parent ast.NodeID) ast.VisitAction {
		if tree.Get(id).Kind.IsPotentialScopeRoot() {
			v.snapshot[id] = v.entryFor(tree, id)
		}
		return ast.Continue
	}))
}

func (v *Verifier) entryFor(t *ast.Tree, root ast.NodeID) snapshotEntry {
	stamp := uint64(0)
	if s, ok := v.creator.LookupScope(root); ok {
		stamp = s.ChangeStamp
	}
	return snapshotEntry{stamp: stamp, children: append([]ast.NodeID(nil), t.Children(root)...)}
}

// Audit re-walks t against the last Snapshot and checks the three cases
// in §4.10. Every case is an internal compiler error, not a recoverable
// program error, so it panics with an *InternalError; internal/passes'
// pass-boundary recover turns that into one Msg{Kind: Internal} via
// logger.MsgID_Internal_*.
func (v *Verifier) Audit(t *ast.Tree) {
	for root, before := range v.snapshot {
		if !t.Contains(root) {
			// Only function-like scope roots require an explicit deletion
			// report (§4.10); a block/for/catch scope root vanishing is
			// already covered by its parent's own structural-change report.
			if t.Get(root).Kind.IsFunctionLike() && !v.deletedFns[root] {
				panic(newInternalError(logger.MsgID_Internal_DeletedScopeNotReported,
					fmt.Sprintf("deleted scope root %v was not reported as deleted", root), before.children))
			}
			continue
		}

		after := v.entryFor(t, root)
		if structurallyChanged(before, after) && after.stamp == before.stamp {
			panic(newInternalError(logger.MsgID_Internal_ChangeNotReported,
				fmt.Sprintf("scope root %v changed shape but its change stamp was not incremented", root),
				map[string]interface{}{"before": before.children, "after": after.children}))
		}
	}

	for fn := range v.deletedFns {
		if t.Contains(fn) {
			panic(newInternalError(logger.MsgID_Internal_ScopeImproperlyDeleted,
				fmt.Sprintf("function %v was reported deleted but is still reachable in the tree", fn), nil))
		}
	}
}

func structurallyChanged(before, after snapshotEntry) bool {
	if len(before.children) != len(after.children) {
		return true
	}
	for i, c := range before.children {
		if c != after.children[i] {
			return true
		}
	}
	return false
}
