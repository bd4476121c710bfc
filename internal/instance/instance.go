// Package instance holds the per-compilation Context value that §5 and
// §9 require in place of mutable package-level globals: "no shared
// mutable state crosses instances... model as an explicit Context value".
package instance

import (
	"github.com/google/uuid"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/config"
	"github.com/tiobe/closure-compiler/internal/logger"
	"github.com/tiobe/closure-compiler/internal/scope"
)

// Verifier is the subset of internal/verify.Verifier that Context needs
// to satisfy ast.ChangeReporter, expressed as an interface here so
// instance never imports verify (verify imports instance, only to assert
// that its Verifier satisfies this interface).
type Verifier interface {
	RecordChange(t *ast.Tree, scopeRoot ast.NodeID)
	RecordFunctionDeleted(t *ast.Tree, fn ast.NodeID)
	Snapshot(t *ast.Tree)
	Audit(t *ast.Tree)
}

// Context is the compiler instance: the one value threaded through every
// pass, analysis, and diagnostic call in a compilation. It implements
// ast.ChangeReporter directly so tree-mutation primitives can take a
// *Context wherever they ask for a ChangeReporter.
type Context struct {
	ID uuid.UUID

	Log          logger.Log
	Source       *logger.Source
	Options      config.Options
	ScopeCreator *scope.ScopeCreator
	Verifier     Verifier
}

// New creates a fresh compiler instance with a stable random identifier
// (§5 "multi-instance embedding... externally distinguishable").
func New(log logger.Log, source *logger.Source, options config.Options, creator *scope.ScopeCreator, verifier Verifier) *Context {
	return &Context{
		ID:           uuid.New(),
		Log:          log,
		Source:       source,
		Options:      options,
		ScopeCreator: creator,
		Verifier:     verifier,
	}
}

// ReportChange implements ast.ChangeReporter by forwarding to the
// verifier, so every AppendChild/InsertChildAt/Detach/Replace call in a
// pass automatically feeds the change-verification ledger (§4.10).
func (c *Context) ReportChange(t *ast.Tree, scopeRoot ast.NodeID) {
	if c.Verifier != nil {
		c.Verifier.RecordChange(t, scopeRoot)
	}
}

func (c *Context) ReportFunctionDeleted(t *ast.Tree, fn ast.NodeID) {
	if c.Verifier != nil {
		c.Verifier.RecordFunctionDeleted(t, fn)
	}
}
