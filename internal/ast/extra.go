package ast

// MemberData is Node.Data for KindMember: a dotted property access
// `object.property`. The object is Children[0]; there is no child for the
// property name since it is never itself an expression.
type MemberData struct {
	PropertyName string
}

// CalleeName returns the dotted name text of a KindMember or KindName node
// used as a call/new callee, e.g. "foo" for KindName and "a.b.c" for a
// chain of KindMember nodes over KindName. Returns "", false for any other
// callee shape (computed member, call result, ...), which conformance
// rules treat as "cannot statically match".
func CalleeName(t *Tree, id NodeID) (string, bool) {
	n := t.Get(id)
	switch n.Kind {
	case KindName:
		return n.Data.(NameData).Text, true
	case KindMember:
		base, ok := CalleeName(t, n.Children[0])
		if !ok {
			return "", false
		}
		return base + "." + n.Data.(MemberData).PropertyName, true
	default:
		return "", false
	}
}
