// Package renamer assigns final, collision-free names to the bindings
// internal/scope tracks. It is the consumer side of §4.5's reference
// collector: renaming decisions are made from the same Variable/Collection
// data cross-module code motion and inlining use, so a variable that
// property renaming or code motion has already judged unsafe to touch
// never gets a fresh Renamer entry point of its own -- callers simply
// don't ask this package to rename it.
package renamer

import (
	"sort"
	"strconv"

	"github.com/tiobe/closure-compiler/internal/refs"
	"github.com/tiobe/closure-compiler/internal/scope"
)

// reservedWords is the ES3-through-ES2017 keyword and strict-mode-reserved
// set. Names in this set can never be assigned to a binding regardless of
// scope, matching the teacher's lexer.Keywords/StrictModeReservedWords
// split collapsed into one set since this module has no lexer package of
// its own to source them from.
var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "export": true, "extends": true, "finally": true,
	"for": true, "function": true, "if": true, "import": true, "in": true,
	"instanceof": true, "new": true, "return": true, "super": true,
	"switch": true, "this": true, "throw": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true, "yield": true,
	"let": true, "static": true, "enum": true, "await": true, "implements": true,
	"package": true, "protected": true, "interface": true, "private": true,
	"public": true, "null": true, "true": true, "false": true,
}

// ComputeReservedNames returns every name that must never be assigned to a
// renamed binding: JS keywords plus every extern variable's name (§3's
// "extern" Kind denotes a name reaching outside the program's own
// declarations, so renaming it would break a reference the program does
// not control).
func ComputeReservedNames(scopes []*scope.Scope) map[string]bool {
	names := make(map[string]bool, len(reservedWords))
	for k := range reservedWords {
		names[k] = true
	}
	for _, s := range scopes {
		for _, v := range s.OwnVars() {
			if v.Kind == scope.KindExtern {
				names[v.Name] = true
			}
		}
	}
	return names
}

// Renamer maps a Variable to its final output name.
type Renamer interface {
	NameForVariable(v *scope.Variable) string
}

////////////////////////////////////////////////////////////////////////////////
// noOpRenamer

type noOpRenamer struct{}

// NewNoOpRenamer returns every variable's original name unchanged, used
// when a caller wants readable output (§7's "possible warning" messages
// quote original names, which only makes sense pre-renaming).
func NewNoOpRenamer() Renamer { return noOpRenamer{} }

func (noOpRenamer) NameForVariable(v *scope.Variable) string { return v.Name }

////////////////////////////////////////////////////////////////////////////////
// NumberRenamer

// NumberRenamer assigns each binding a name derived from its original
// name, appending a counter only when a collision with a name already
// assigned in the same scope or an ancestor scope would otherwise occur.
// This mirrors the teacher's non-minifying renamer: output stays readable,
// and every name is unique among the scopes that can see it; sibling
// scopes may reuse the same name.
type NumberRenamer struct {
	names map[*scope.Variable]string
	root  numberScope
}

func NewNumberRenamer(reservedNames map[string]bool) *NumberRenamer {
	counts := make(map[string]uint32, len(reservedNames))
	for name := range reservedNames {
		counts[name] = 1
	}
	return &NumberRenamer{
		names: make(map[*scope.Variable]string),
		root:  numberScope{nameCounts: counts},
	}
}

func (r *NumberRenamer) NameForVariable(v *scope.Variable) string {
	if name, ok := r.names[v]; ok {
		return name
	}
	return v.Name
}

// AssignNamesByScope walks root's whole subtree, renaming every binding it
// finds. Each scope's own variables are renamed in sorted-by-name order and
// nested scopes are visited in creation order, for determinism -- required
// because Go map iteration over scope members would otherwise make output
// name assignment nondeterministic across runs.
func (r *NumberRenamer) AssignNamesByScope(root *scope.Scope) {
	r.assignScope(root, &r.root)
}

func (r *NumberRenamer) assignScope(s *scope.Scope, parent *numberScope) {
	own := s.OwnVars()
	sorted := make([]*scope.Variable, len(own))
	copy(sorted, own)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	child := &numberScope{parent: parent, nameCounts: make(map[string]uint32)}
	for _, v := range sorted {
		if v.Kind == scope.KindExtern {
			continue
		}
		r.names[v] = child.findUnusedName(v.Name)
	}

	// Children() is already in a fixed order: ScopeCreator appends them in
	// the same pre-order it walks the tree, so no further sort is needed.
	for _, c := range s.Children() {
		r.assignScope(c, child)
	}
}

type numberScope struct {
	parent     *numberScope
	nameCounts map[string]uint32
}

type nameUse uint8

const (
	nameUnused nameUse = iota
	nameUsed
	nameUsedInSameScope
)

func (s *numberScope) findNameUse(name string) nameUse {
	original := s
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.nameCounts[name]; ok {
			if cur == original {
				return nameUsedInSameScope
			}
			return nameUsed
		}
	}
	return nameUnused
}

// findUnusedName appends a numeric suffix, starting from wherever the last
// collision with this prefix left off within the same scope, avoiding the
// O(n^2) behavior a naive "always start at 1" scheme would hit when many
// bindings share a name.
func (s *numberScope) findUnusedName(name string) string {
	if use := s.findNameUse(name); use != nameUnused {
		tries := uint32(1)
		if use == nameUsedInSameScope {
			tries = s.nameCounts[name]
		}
		prefix := name
		for {
			tries++
			name = prefix + strconv.Itoa(int(tries))
			if s.findNameUse(name) == nameUnused {
				if use == nameUsedInSameScope {
					s.nameCounts[prefix] = tries
				}
				break
			}
		}
	}
	s.nameCounts[name] = 1
	return name
}

////////////////////////////////////////////////////////////////////////////////
// MinifyRenamer

// slot holds one candidate name assignment plus the aggregate use count
// that decides its priority: the busier a binding, the shorter a name it
// earns (§4.5's reference collector is exactly what supplies these
// counts).
type slot struct {
	v     *scope.Variable
	count uint32
	name  string
}

// MinifyRenamer assigns the shortest available names to the most
// frequently referenced bindings first, using each variable's total
// reference count from internal/refs.Collection as the frequency signal.
// Unlike NumberRenamer it does not preserve readability; it is meant for
// the minified-output path §1's overview describes ("produces a minified
// output").
type MinifyRenamer struct {
	reserved map[string]bool
	slots    map[*scope.Variable]*slot
	names    map[*scope.Variable]string
}

func NewMinifyRenamer(reservedNames map[string]bool) *MinifyRenamer {
	return &MinifyRenamer{
		reserved: reservedNames,
		slots:    make(map[*scope.Variable]*slot),
		names:    make(map[*scope.Variable]string),
	}
}

func (r *MinifyRenamer) NameForVariable(v *scope.Variable) string {
	if name, ok := r.names[v]; ok {
		return name
	}
	return v.Name
}

// AccumulateFromReferences adds one variable's use count, derived from the
// length of its refs.Collection (declarations, reads, and writes all count
// as a use -- a binding touched once still deserves a slot, just a low-
// priority one).
func (r *MinifyRenamer) AccumulateFromReferences(v *scope.Variable, c *refs.Collection) {
	if v.Kind == scope.KindExtern {
		return
	}
	s, ok := r.slots[v]
	if !ok {
		s = &slot{v: v}
		r.slots[v] = s
	}
	if c != nil {
		s.count += uint32(len(c.Refs))
	}
}

// AssignNamesByFrequency sorts every accumulated variable by descending
// use count (ties broken by original name, for determinism) and hands out
// minified names in that order, skipping any name in the reserved set.
func (r *MinifyRenamer) AssignNamesByFrequency() {
	sorted := make([]*slot, 0, len(r.slots))
	for _, s := range r.slots {
		sorted = append(sorted, s)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].v.Name < sorted[j].v.Name
	})

	next := 0
	for _, s := range sorted {
		name := DefaultNameMinifier.NumberToMinifiedName(next)
		next++
		for r.reserved[name] {
			name = DefaultNameMinifier.NumberToMinifiedName(next)
			next++
		}
		r.names[s.v] = name
	}
}

////////////////////////////////////////////////////////////////////////////////
// PropertyRenamer

// PropertyRenamer assigns short, collision-free names to object property
// keys, the other half of §1's "property renaming" downstream transform.
// Properties share one flat namespace across the whole program (unlike
// variables, which nest by scope) since any object could in principle
// flow to any property access site once cross-module movability has been
// established, so a property renamed one way in one file must be renamed
// the same way everywhere.
type PropertyRenamer struct {
	names map[string]string
	used  map[string]bool
	next  int
}

func NewPropertyRenamer(reservedNames map[string]bool) *PropertyRenamer {
	used := make(map[string]bool, len(reservedNames))
	for name := range reservedNames {
		used[name] = true
	}
	return &PropertyRenamer{names: make(map[string]string), used: used}
}

// NameForProperty returns the same minified name every time it is asked
// about the same original property name, so `foo.bar` and `baz.bar`
// receive identical renamed output.
func (r *PropertyRenamer) NameForProperty(original string) string {
	if name, ok := r.names[original]; ok {
		return name
	}
	name := DefaultNameMinifier.NumberToMinifiedName(r.next)
	r.next++
	for r.used[name] {
		name = DefaultNameMinifier.NumberToMinifiedName(r.next)
		r.next++
	}
	r.used[name] = true
	r.names[original] = name
	return name
}
