package scope

import (
	"fmt"

	"github.com/tiobe/closure-compiler/internal/ast"
)

// ScopeCreator is the memoizing façade over scope construction described in
// §4.7. It is owned by one compiler instance (internal/instance) for the
// lifetime of a compilation and is the only thing in this module allowed to
// construct a *Scope.
type ScopeCreator struct {
	tree   *ast.Tree
	frozen bool

	byRoot map[ast.NodeID]*Scope
	global *Scope

	// dirtyScripts holds source indices reported changed since the last
	// successful refresh; Thaw()+Freeze() drains it by rebuilding every
	// scope whose root belongs to one of these scripts.
	dirtyScripts map[uint32]bool

	// ownedBy tracks, for each source index, every Variable ever declared
	// while scanning a scope attributed to that script -- even if the
	// variable's owning scope's root has since been reassigned to a
	// different script by a later parse. This is what makes Invalidate
	// forget "every binding previously attributed to that script... even
	// if that binding has since moved to a different script" (§4.7).
	ownedBy map[uint32]map[*Variable]bool
}

func NewScopeCreator(tree *ast.Tree) *ScopeCreator {
	return &ScopeCreator{
		tree:         tree,
		byRoot:       make(map[ast.NodeID]*Scope),
		dirtyScripts: make(map[uint32]bool),
		ownedBy:      make(map[uint32]map[*Variable]bool),
	}
}

func (c *ScopeCreator) Freeze() { c.frozen = true }
func (c *ScopeCreator) Thaw()   { c.frozen = false }
func (c *ScopeCreator) IsFrozen() bool { return c.frozen }

// LookupScope returns the memoized scope for root, if one has been
// created, without constructing it. Used by internal/verify to bump a
// scope's ChangeStamp when a pass reports a mutation against that root.
func (c *ScopeCreator) LookupScope(root ast.NodeID) (*Scope, bool) {
	s, ok := c.byRoot[root]
	return s, ok
}

// Invalidate marks sourceIndex as changed. It immediately forgets every
// binding ever attributed to that script, regardless of which scope
// currently claims to own it, then schedules the owning scopes for
// rebuild on the next Thaw()+Freeze() cycle.
func (c *ScopeCreator) Invalidate(sourceIndex uint32) {
	c.dirtyScripts[sourceIndex] = true
	for v := range c.ownedBy[sourceIndex] {
		if v.Scope != nil {
			v.Scope.forget(v.Name)
		}
	}
	delete(c.ownedBy, sourceIndex)
}

// CreateScope returns the Scope for root, creating it on first request. If
// the creator is frozen, repeated calls with the same root return the exact
// same *Scope object (§4.7's "Scope identity under freeze" invariant, §8).
func (c *ScopeCreator) CreateScope(root ast.NodeID, parent *Scope) (*Scope, error) {
	if root == c.tree.Root() {
		if c.global != nil && root != c.global.Root {
			return nil, fmt.Errorf("scope: global scope root moved from %v to %v", c.global.Root, root)
		}
	} else if parent == nil {
		return nil, fmt.Errorf("scope: non-global scope root %v requires a parent", root)
	}

	if existing, ok := c.byRoot[root]; ok {
		if c.frozen {
			return existing, nil
		}
		// Not frozen: rebuild in place, preserving object identity.
		c.rebuild(existing)
		return existing, nil
	}

	isBlockScope := root != c.tree.Root() && !c.tree.Get(root).Kind.IsFunctionLike()
	s := newScope(root, parent, isBlockScope)
	c.byRoot[root] = s
	if root == c.tree.Root() {
		c.global = s
	}
	c.rebuild(s)
	return s, nil
}

// RefreshDirty rebuilds every memoized scope whose root belongs to a script
// reported via Invalidate since the last refresh. Intended to be called
// during a Thaw()+Freeze() cycle per §4.7.
func (c *ScopeCreator) RefreshDirty() {
	if len(c.dirtyScripts) == 0 {
		return
	}
	for root, s := range c.byRoot {
		src := c.tree.Get(root).SourceIndex
		if c.dirtyScripts[src] {
			c.rebuild(s)
		}
	}
	c.dirtyScripts = make(map[uint32]bool)
}

// rebuild rescans root's direct declarations, updating s.members in place
// so the *Scope pointer identity survives (§4.7 "scope object identity is
// preserved, but its variable records are rebuilt").
func (c *ScopeCreator) rebuild(s *Scope) {
	found := scanDeclarations(c.tree, s.Root)

	// Forget bindings that no longer exist.
	for name := range s.members {
		if _, ok := found[name]; !ok {
			s.forget(name)
		}
	}

	for name, decl := range found {
		v := s.Declare(name, decl.node, decl.kind, decl.declaredType, c.tree.Get(decl.node).SourceIndex)
		src := v.SourceIndex
		if c.ownedBy[src] == nil {
			c.ownedBy[src] = make(map[*Variable]bool)
		}
		c.ownedBy[src][v] = true
	}
}

type declSite struct {
	node         ast.NodeID
	kind         Kind
	declaredType string
}

// scanDeclarations finds every binding that belongs directly to the scope
// rooted at root: hoisted var/function declarations found anywhere in the
// subtree without crossing a nested function boundary, and block-scoped
// let/const/class/catch/parameter bindings found as direct statement
// children of root itself.
func scanDeclarations(t *ast.Tree, root ast.NodeID) map[string]declSite {
	out := make(map[string]declSite)
	rootNode := t.Get(root)

	var scanHoisted func(id ast.NodeID, crossedFunction bool)
	scanHoisted = func(id ast.NodeID, first bool) {
		n := t.Get(id)
		if !first && n.Kind.IsFunctionLike() {
			// Function declarations are themselves hoisted into the
			// enclosing scope (handled by the parent when it names them),
			// but their bodies get their own scope and must not be scanned
			// here.
			if data, ok := n.Data.(ast.NameData); ok && data.Text != "" {
				out[data.Text] = declSite{node: id, kind: KindFunctionDecl}
			}
			return
		}
		switch n.Kind {
		case ast.KindVarDeclarator:
			if data, ok := n.Data.(ast.NameData); ok {
				out[data.Text] = declSite{node: id, kind: KindVar}
			}
		case ast.KindLetDecl, ast.KindConstDecl:
			// The declarators here are block-scoped, not hoisted -- they
			// belong to whichever block scope directly owns this node (the
			// loop below, for root's own direct children; a nested block
			// scope's own scanDeclarations call, otherwise). Don't descend,
			// or a `let`/`const` nested inside an inner block would
			// incorrectly hoist as a KindVar into this scope.
			return
		}
		for _, c := range n.Children {
			scanHoisted(c, false)
		}
	}
	scanHoisted(root, true)

	// Block-scoped bindings: only direct children of this exact root.
	for _, c := range rootNode.Children {
		n := t.Get(c)
		switch n.Kind {
		case ast.KindLetDecl, ast.KindConstDecl:
			for _, d := range n.Children {
				dn := t.Get(d)
				if dn.Kind == ast.KindVarDeclarator {
					if data, ok := dn.Data.(ast.NameData); ok {
						out[data.Text] = declSite{node: d, kind: KindLetConst}
					}
				}
			}
		case ast.KindClassDecl:
			if data, ok := n.Data.(ast.NameData); ok && data.Text != "" {
				out[data.Text] = declSite{node: c, kind: KindClassDecl}
			}
		case ast.KindParam, ast.KindRestParam:
			if data, ok := n.Data.(ast.NameData); ok {
				out[data.Text] = declSite{node: c, kind: KindParameter, declaredType: n.Doc.DeclaredTypeOrEmpty()}
			}
		case ast.KindCatchBinding:
			if data, ok := n.Data.(ast.NameData); ok {
				out[data.Text] = declSite{node: c, kind: KindCatchBinding}
			}
		}
	}

	return out
}
