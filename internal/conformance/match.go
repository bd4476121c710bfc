package conformance

import (
	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/scope"
	"github.com/tiobe/closure-compiler/internal/types"
)

type propMode uint8

const (
	propRead propMode = iota
	propWrite
	propAny
)

// nearestScope finds the Scope memoized for the closest scope-root
// ancestor of id (inclusive), the same lookup ast.Tree.nearestScopeRoot
// does for change reporting, generalized here to also resolve the Scope
// object itself.
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

func inValues(name string, values []string) bool {
	for _, v := range values {
		if v == name {
			return true
		}
	}
	return false
}

// matchBannedName matches §4.9's "Global reads of a named identifier".
// Declaration sites carry their name directly in the declaring node's own
// Data field (internal/scope's scanDeclarations relies on the same fact),
// so every KindName node in the tree is itself already a use, never a
// declaration -- no parent-shape check is needed to exclude declarations.
func matchBannedName(t *ast.Tree, creator *scope.ScopeCreator, n *ast.Node, id ast.NodeID, values []string) bool {
	if n.Kind != ast.KindName {
		return false
	}
	name := n.Data.(ast.NameData).Text
	if !inValues(name, values) {
		return false
	}
	s := nearestScope(t, creator, id)
	if s == nil {
		return true
	}
	v := s.Lookup(name)
	return v == nil || v.Kind == scope.KindExtern
}

// matchBannedCall matches KindBannedNameCall/KindBannedConstructorCall: a
// KindCall or KindNew node whose callee is a dotted name in values.
func matchBannedCall(t *ast.Tree, n *ast.Node, values []string, wantKind ast.Kind) bool {
	if n.Kind != wantKind || len(n.Children) == 0 {
		return false
	}
	name, ok := ast.CalleeName(t, n.Children[0])
	return ok && inValues(name, values)
}

// matchBannedProperty matches §4.9's three banned-property kinds. A
// KindMember node's dotted name (receiver-chain + property) is checked
// against values; the mode restricts to member expressions used as an
// assignment target (write), used anywhere else (read), or either (any).
// When the rule asks to report loose type violations and no TypeResolver
// is installed (or it returns unknown), the hit is downgraded to possible
// rather than dropped, per "reported inferred type is too loose to be
// sure" (§7).
func (e *Engine) matchBannedProperty(t *ast.Tree, n *ast.Node, id ast.NodeID, r *compiledRule, mode propMode) (hit bool, possible bool, note string) {
	if n.Kind != ast.KindMember {
		return false, false, ""
	}
	dotted, ok := ast.CalleeName(t, id)
	if !ok || !inValues(dotted, r.Value) {
		return false, false, ""
	}
	if mode != propAny && propAccessMode(t, id) != mode {
		return false, false, ""
	}

	if !r.ReportLooseTypeViolations {
		return true, false, ""
	}
	if e.resolveType == nil {
		return true, true, ""
	}
	receiverType, ok := e.resolveType(t, n.Children[0])
	if !ok || receiverType.Tag == types.TagUnknown || receiverType.Tag == types.TagTop {
		return true, true, ""
	}
	return true, false, ""
}

// propAccessMode reports whether a KindMember node id is the assignment
// target of its parent KindAssign (write) or anything else (read).
func propAccessMode(t *ast.Tree, id ast.NodeID) propMode {
	parent := t.Parent(id)
	if !parent.IsValid() || t.Get(parent).Kind != ast.KindAssign {
		return propRead
	}
	children := t.Children(parent)
	if len(children) > 0 && children[0] == id {
		return propWrite
	}
	return propRead
}

// matchBannedPropertyNonConstWrite is BannedPropertyWrite additionally
// restricted to assignments whose right-hand side is not a literal (§4.9
// "Banned property non-constant write").
func matchBannedPropertyNonConstWrite(t *ast.Tree, n *ast.Node, id ast.NodeID, values []string) (bool, bool, string) {
	if n.Kind != ast.KindMember {
		return false, false, ""
	}
	dotted, ok := ast.CalleeName(t, id)
	if !ok || !inValues(dotted, values) {
		return false, false, ""
	}
	if propAccessMode(t, id) != propWrite {
		return false, false, ""
	}
	parent := t.Parent(id)
	children := t.Children(parent)
	if len(children) < 2 {
		return false, false, ""
	}
	rhs := t.Get(children[1])
	if isConstantExpr(rhs.Kind) {
		return false, false, ""
	}
	return true, false, ""
}

func isConstantExpr(k ast.Kind) bool {
	switch k {
	case ast.KindLiteralNumber, ast.KindLiteralString, ast.KindLiteralBool,
		ast.KindLiteralNull, ast.KindLiteralUndefined:
		return true
	default:
		return false
	}
}

// matchBannedPattern implements §4.9's "structural template match against
// a provided code fragment": pattern is walked in lockstep with the
// candidate subtree rooted at id; a KindName node anywhere in pattern acts
// as a wildcard that matches any expression of any kind, letting a single
// pattern like `$x.innerHTML = $y` (built as a Member/Assign tree with
// KindName placeholders for $x/$y) match many concrete call sites.
func matchBannedPattern(t *ast.Tree, id ast.NodeID, pattern *ast.Tree) bool {
	if pattern == nil || !pattern.Root().IsValid() {
		return false
	}
	return structurallyMatches(t, id, pattern, pattern.Root())
}

func structurallyMatches(t *ast.Tree, id ast.NodeID, pattern *ast.Tree, patternID ast.NodeID) bool {
	pn := pattern.Get(patternID)
	if pn.Kind == ast.KindName {
		return true
	}
	n := t.Get(id)
	if n.Kind != pn.Kind {
		return false
	}
	if len(n.Children) != len(pn.Children) {
		return false
	}
	for i, c := range n.Children {
		if !structurallyMatches(t, c, pattern, pn.Children[i]) {
			return false
		}
	}
	return true
}

// matchBannedDependency matches §4.9's "Any reference into a specified
// source file": a KindName reference whose resolved binding was declared
// in one of the banned source paths.
func (e *Engine) matchBannedDependency(t *ast.Tree, creator *scope.ScopeCreator, id ast.NodeID, values []string) bool {
	if e.sourcePath == nil {
		return false
	}
	n := t.Get(id)
	if n.Kind != ast.KindName {
		return false
	}
	s := nearestScope(t, creator, id)
	if s == nil {
		return false
	}
	v := s.Lookup(n.Data.(ast.NameData).Text)
	if v == nil {
		return false
	}
	path, ok := e.sourcePath(v.SourceIndex)
	return ok && inValues(path, values)
}

// matchRestrictedCall implements §4.9's "Restricted method/name call": a
// call whose signature does not match one of values' "name:minArgs" or
// "name:minArgs:maxArgs" declarations. maxArgs of "-1" (or omitted) means
// unbounded.
func matchRestrictedCall(t *ast.Tree, n *ast.Node, values []string) (bool, bool, string) {
	if n.Kind != ast.KindCall || len(n.Children) == 0 {
		return false, false, ""
	}
	name, ok := ast.CalleeName(t, n.Children[0])
	if !ok {
		return false, false, ""
	}
	sig, ok := findSignature(name, values)
	if !ok {
		return false, false, ""
	}
	argc := len(n.Children) - 1
	if argc < sig.min || (sig.max >= 0 && argc > sig.max) {
		return true, false, "wrong argument count for restricted call"
	}
	return false, false, ""
}

type callSignature struct {
	min, max int
}

func findSignature(name string, values []string) (callSignature, bool) {
	for _, v := range values {
		fields := splitSignature(v)
		if len(fields) < 2 || fields[0] != name {
			continue
		}
		sig := callSignature{max: -1}
		sig.min = atoiOr(fields[1], 0)
		if len(fields) >= 3 {
			sig.max = atoiOr(fields[2], -1)
		}
		return sig, true
	}
	return callSignature{}, false
}

func splitSignature(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func atoiOr(s string, fallback int) int {
	n := 0
	any := false
	neg := false
	for i, c := range s {
		if i == 0 && c == '-' {
			neg = true
			continue
		}
		if c < '0' || c > '9' {
			return fallback
		}
		any = true
		n = n*10 + int(c-'0')
	}
	if !any {
		return fallback
	}
	if neg {
		return -n
	}
	return n
}
