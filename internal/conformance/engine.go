package conformance

import (
	"fmt"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/helpers"
	"github.com/tiobe/closure-compiler/internal/instance"
	"github.com/tiobe/closure-compiler/internal/logger"
	"github.com/tiobe/closure-compiler/internal/scope"
	"github.com/tiobe/closure-compiler/internal/types"
)

// TypeResolver reports the statically known type at a node, when the
// caller (internal/infer's results) has one. The engine uses this only to
// decide whether a property-access hit is a definite or possible
// violation (§4.9 "report loose type violations"); rule kinds that don't
// need a type never call it.
type TypeResolver func(t *ast.Tree, id ast.NodeID) (types.Type, bool)

// SourcePathResolver maps a Node's SourceIndex to the pretty path
// conformance rules match banned-dependency values against.
type SourcePathResolver func(sourceIndex uint32) (string, bool)

// Engine evaluates a RuleSet against one file's AST (§4.9's "dedicated
// pass"). It is a single-use value per source: construct with NewEngine,
// optionally register custom predicates and a TypeResolver, then Run once
// per tree.
type Engine struct {
	set         *RuleSet
	predicates  map[string]Predicate
	resolveType TypeResolver
	sourcePath  SourcePathResolver
}

func NewEngine(set *RuleSet) *Engine {
	return &Engine{set: set, predicates: make(map[string]Predicate)}
}

func (e *Engine) RegisterPredicate(name string, p Predicate) { e.predicates[name] = p }

func (e *Engine) SetTypeResolver(r TypeResolver) { e.resolveType = r }

func (e *Engine) SetSourcePathResolver(r SourcePathResolver) { e.sourcePath = r }

// Run walks tree once, evaluating every rule against every node, and
// reports hits through ctx.Log. path is the source's pretty path, used
// against each rule's whitelist/only-apply-to.
func (e *Engine) Run(ctx *instance.Context, tree *ast.Tree, creator *scope.ScopeCreator, path string) {
	for _, r := range e.set.rules {
		if !r.appliesTo(path) || r.isWhitelisted(path) {
			continue
		}
		e.runRule(ctx, tree, creator, r, path)
	}
}

func (e *Engine) runRule(ctx *instance.Context, tree *ast.Tree, creator *scope.ScopeCreator, r *compiledRule, path string) {
	if !tree.Root().IsValid() {
		return
	}
	ast.Walk(tree, tree.Root(), ast.WalkFunc(func(t *ast.Tree, id ast.NodeID, parent ast.NodeID) ast.VisitAction {
		hit, possible, note := e.matches(t, creator, r, id)
		if !hit {
			return ast.Continue
		}
		if isSuppressed(t, id, r.ID) {
			return ast.Continue
		}
		e.report(ctx, t, id, r, possible, note)
		return ast.Continue
	}))
}

func (e *Engine) matches(t *ast.Tree, creator *scope.ScopeCreator, r *compiledRule, id ast.NodeID) (hit bool, possible bool, note string) {
	n := t.Get(id)
	switch r.Kind {
	case KindBannedName:
		return matchBannedName(t, creator, n, id, r.Value), false, ""

	case KindBannedNameCall:
		return matchBannedCall(t, n, r.Value, ast.KindCall), false, ""

	case KindBannedConstructorCall:
		return matchBannedCall(t, n, r.Value, ast.KindNew), false, ""

	case KindBannedPropertyRead:
		return e.matchBannedProperty(t, n, id, r, propRead)

	case KindBannedPropertyWrite:
		return e.matchBannedProperty(t, n, id, r, propWrite)

	case KindBannedPropertyAll:
		return e.matchBannedProperty(t, n, id, r, propAny)

	case KindBannedPropertyNonConstWrite:
		return matchBannedPropertyNonConstWrite(t, n, id, r.Value)

	case KindBannedCodePattern:
		return matchBannedPattern(t, id, r.Pattern), false, ""

	case KindBannedDependency:
		return e.matchBannedDependency(t, creator, id, r.Value), false, ""

	case KindRestrictedCall:
		return matchRestrictedCall(t, n, r.Value)

	case KindCustom:
		if p, ok := e.predicates[r.CustomPredicateName]; ok {
			v, note := p.Match(t, id)
			return v, false, note
		}
		return false, false, ""

	default:
		return false, false, ""
	}
}

func (e *Engine) report(ctx *instance.Context, t *ast.Tree, id ast.NodeID, r *compiledRule, possible bool, note string) {
	text := r.Message
	if text == "" {
		text = fmt.Sprintf("violates conformance rule %q", r.ID)
		if len(r.Value) > 0 {
			text += fmt.Sprintf(" (banned: %s)", helpers.StringArrayToQuotedCommaSeparatedString(r.Value))
		}
	}
	if note != "" {
		text = text + ": " + note
	}

	msgID := logger.MsgID_Conformance_Violation
	if possible && r.ReportLooseTypeViolations {
		msgID = logger.MsgID_Conformance_PossibleViolation
	}

	loc := logger.Loc{Start: t.Get(id).Loc.Start}
	ctx.Log.AddMsg(logger.Msg{
		Kind:     logger.Warning,
		ID:       msgID,
		Text:     text,
		Possible: possible && r.ReportLooseTypeViolations,
		Location: logger.LocationOrNil(ctx.Source, logger.Range{Loc: loc}),
	})
}

// isSuppressed walks from id up to the tree root looking for a
// "@suppress {ruleID}" (or "@suppress *") annotation, per §4.9's
// "suppressed at its usage site" and the ast.Doc.Suppressions mechanism
// documented in DESIGN.md's Open Question decisions.
func isSuppressed(t *ast.Tree, id ast.NodeID, ruleID string) bool {
	for cur := id; cur.IsValid(); cur = t.Parent(cur) {
		if t.Get(cur).Doc.IsSuppressed(ruleID) {
			return true
		}
	}
	return false
}
