package scope

import "github.com/tiobe/closure-compiler/internal/ast"

// Scope is a region of lexical binding attached to a scope-root node (§3).
// Scopes are long-lived and shared: once created by a ScopeCreator, the
// same *Scope is returned to every caller until the owning script is
// invalidated (§4.7).
type Scope struct {
	Root         ast.NodeID
	parent       *Scope
	children     []*Scope
	members      map[string]*Variable
	isBlockScope bool

	// ChangeStamp is the monotonically increasing counter from the
	// GLOSSARY: "incremented when any descendant is mutated." It is bumped
	// through Bump by internal/verify's RecordChange, which also reads it
	// during snapshot/audit.
	ChangeStamp uint64
}

func newScope(root ast.NodeID, parent *Scope, isBlockScope bool) *Scope {
	s := &Scope{
		Root:         root,
		parent:       parent,
		isBlockScope: isBlockScope,
		members:      make(map[string]*Variable),
	}
	if parent != nil {
		parent.children = append(parent.children, s)
	}
	return s
}

func (s *Scope) Parent() *Scope {
	return s.parent
}

// Children returns the scopes nested directly inside s, in creation order.
// internal/renamer walks this to assign conflict-free names top-down.
func (s *Scope) Children() []*Scope {
	return s.children
}

// Bump increments ChangeStamp. Called by internal/verify.RecordChange
// when a pass reports a mutation against this scope's root (§4.10).
func (s *Scope) Bump() {
	s.ChangeStamp++
}

func (s *Scope) IsBlockScope() bool {
	return s.isBlockScope
}

// Lookup finds the nearest binding for name, walking up through parent
// scopes. Returns nil if no such binding exists anywhere in the chain.
func (s *Scope) Lookup(name string) *Variable {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.members[name]; ok {
			return v
		}
	}
	return nil
}

// Declared reports whether name is bound in this scope, optionally also
// searching ancestors.
func (s *Scope) Declared(name string, includeAncestors bool) bool {
	if !includeAncestors {
		_, ok := s.members[name]
		return ok
	}
	return s.Lookup(name) != nil
}

// AccessibleVars returns every binding visible from this scope, walking up
// to the program root. Shadowed names are only returned once, for their
// innermost binding.
func (s *Scope) AccessibleVars() []*Variable {
	seen := make(map[string]bool)
	var out []*Variable
	for cur := s; cur != nil; cur = cur.parent {
		for name, v := range cur.members {
			if !seen[name] {
				seen[name] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// OwnVars returns exactly the bindings declared directly in this scope, in
// index order -- what internal/liveness sizes its bitmap against.
func (s *Scope) OwnVars() []*Variable {
	out := make([]*Variable, len(s.members))
	for _, v := range s.members {
		out[v.Index] = v
	}
	return out
}

// Declare adds a new binding directly to this scope. Both hoisted bindings
// (var/function, which the caller is responsible for placing on the
// correct enclosing function/program scope) and block-scoped bindings
// (let/const/class/catch, placed on the block/catch/for scope itself) go
// through this one entry point (§4.1 "represented uniformly; only the
// owning scope differs").
func (s *Scope) Declare(name string, def ast.NodeID, kind Kind, declaredType string, sourceIndex uint32) *Variable {
	if existing, ok := s.members[name]; ok {
		existing.DefNode = def
		existing.Kind = kind
		existing.DeclaredType = declaredType
		existing.SourceIndex = sourceIndex
		return existing
	}
	v := &Variable{
		Name:         name,
		DefNode:      def,
		DeclaredType: declaredType,
		Kind:         kind,
		Scope:        s,
		Index:        len(s.members),
		SourceIndex:  sourceIndex,
	}
	s.members[name] = v
	return v
}

// Forget removes name from this scope entirely. Used by ScopeCreator's
// refresh to make stale bindings disappear (§4.7).
func (s *Scope) forget(name string) {
	delete(s.members, name)
}
