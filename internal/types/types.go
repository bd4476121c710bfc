// Package types implements the abstract type lattice of §4.6: primitive
// scalars, structural object types, nominal (class/interface) types,
// function types, unions, top/bottom/unknown, truthy/falsy refinements,
// and type-variable placeholders for generics, along with the total type
// operations the inference engine drives (join, meet, subtypeOf,
// specialize, removeType, property queries, generic instantiation and
// unification).
package types

import (
	"sort"

	"github.com/tiobe/closure-compiler/internal/helpers"
)

// Tag is the type lattice's outer discriminant.
type Tag uint8

const (
	TagBottom Tag = iota
	TagUnknown
	TagTop
	TagBoolean
	TagNumber
	TagString
	TagNull
	TagUndefined
	TagObject
	TagNominal
	TagFunction
	TagUnion
	TagTypeVar
)

// Type is the abstract value the inference engine assigns to every
// expression and binding. It is an immutable value type: every operation
// below returns a new Type rather than mutating its receiver, matching the
// spec's "all total" operation contract (§4.6) -- a total function that
// mutated a shared Type in place could not be safely reused across the
// many join points a CFG produces.
type Type struct {
	Tag Tag

	// Truthy/falsy refinement, orthogonal to Tag (§4.6 "truthy/falsy
	// refinements"). Unrefined is the default for a freshly constructed
	// Type; Refine narrows it.
	Refinement Refinement

	// TagObject / TagNominal payload.
	Props map[string]Type
	// OpenProps: whether unlisted property names may exist (a "loose"
	// object per the GLOSSARY) -- true for most inferred object literals
	// with computed keys, false for exhaustively known shapes.
	OpenProps bool
	// ConstantProps records property names whose value is additionally
	// known never to change after construction, backing hasConstantProp.
	ConstantProps map[string]bool

	// TagNominal payload: class/interface name and its instantiated
	// superclass chain, outermost (Object-like root) last.
	NominalName string
	SuperChain  []string

	// TagFunction payload.
	Formals      []Type
	OptionalFrom int // index of first optional formal, len(Formals) if none
	HasRest      bool
	Return       *Type
	Receiver     *Type
	TypeParams   []string
	IsAbstract   bool

	// TagUnion payload.
	Members []Type

	// TagTypeVar payload.
	VarName string
}

// Refinement is the truthy/falsy narrowing state layered onto a Type.
type Refinement uint8

const (
	Unrefined Refinement = iota
	Truthy
	Falsy
)

func Bottom() Type  { return Type{Tag: TagBottom} }
func Top() Type     { return Type{Tag: TagTop} }
func Unknown() Type { return Type{Tag: TagUnknown} }
func Boolean() Type { return Type{Tag: TagBoolean} }
func Number() Type  { return Type{Tag: TagNumber} }
func String() Type  { return Type{Tag: TagString} }
func Null() Type    { return Type{Tag: TagNull} }
func Undefined() Type { return Type{Tag: TagUndefined} }

func TypeVar(name string) Type { return Type{Tag: TagTypeVar, VarName: name} }

func Object(props map[string]Type, open bool) Type {
	return Type{Tag: TagObject, Props: props, OpenProps: open}
}

func Nominal(name string, superChain []string) Type {
	return Type{Tag: TagNominal, NominalName: name, SuperChain: superChain}
}

func Function(formals []Type, optionalFrom int, hasRest bool, ret Type) Type {
	return Type{Tag: TagFunction, Formals: formals, OptionalFrom: optionalFrom, HasRest: hasRest, Return: &ret}
}

// Union builds the union type of members, flattening nested unions and
// collapsing to a single member (or Bottom for an empty union) since a
// one-element or zero-element "union" is not itself meaningfully a union
// tag.
func Union(members ...Type) Type {
	var flat []Type
	for _, m := range members {
		if m.Tag == TagUnion {
			flat = append(flat, m.Members...)
		} else {
			flat = append(flat, m)
		}
	}
	flat = dedupe(flat)
	if len(flat) == 0 {
		return Bottom()
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return Type{Tag: TagUnion, Members: flat}
}

// dedupe removes structurally equal members from a union candidate list.
// A generic call site's set of instantiation candidates (§4.6 Generics)
// can grow large when many overloads specialize to the same result, so
// members are first bucketed by a cheap structural hash and only
// Equal-compared within a bucket, keeping the common case
// close to linear instead of quadratic in len(ts).
func dedupe(ts []Type) []Type {
	buckets := make(map[uint32][]Type, len(ts))
	var out []Type
	for _, t := range ts {
		h := hashType(t)
		found := false
		for _, o := range buckets[h] {
			if Equal(t, o) {
				found = true
				break
			}
		}
		if !found {
			buckets[h] = append(buckets[h], t)
			out = append(out, t)
		}
	}
	return out
}

// hashType computes a structural hash consistent with Equal: two Equal
// types always hash the same, though not necessarily the reverse.
func hashType(t Type) uint32 {
	h := uint32(t.Tag)
	switch t.Tag {
	case TagObject:
		// Map iteration order is randomized per range, so keys are sorted
		// first -- otherwise two calls to hashType on the same value could
		// disagree, breaking the "Equal implies equal hash" invariant.
		keys := make([]string, 0, len(t.Props))
		for k := range t.Props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			h = helpers.HashCombine(h, helpers.HashCombineString(hashType(t.Props[k]), k))
		}
	case TagNominal:
		h = helpers.HashCombineString(h, t.NominalName)
	case TagFunction:
		for _, f := range t.Formals {
			h = helpers.HashCombine(h, hashType(f))
		}
		h = helpers.HashCombine(h, hashType(*t.Return))
	case TagUnion:
		for _, m := range t.Members {
			h = helpers.HashCombine(h, hashType(m))
		}
	case TagTypeVar:
		h = helpers.HashCombineString(h, t.VarName)
	}
	return h
}

// Equal is structural equality, ignoring Refinement (two refinements of
// the same underlying type are the same type for the purposes of the
// lattice's equality/changed test -- refinement is consulted separately by
// specialization rules, not by Join's convergence test, since otherwise a
// dataflow join that toggles refinement without changing the underlying
// type would never reach a fixed point).
func Equal(a, b Type) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TagObject:
		if a.OpenProps != b.OpenProps || len(a.Props) != len(b.Props) {
			return false
		}
		for k, v := range a.Props {
			bv, ok := b.Props[k]
			if !ok || !Equal(v, bv) {
				return false
			}
		}
		return true
	case TagNominal:
		return a.NominalName == b.NominalName
	case TagFunction:
		if len(a.Formals) != len(b.Formals) || a.HasRest != b.HasRest || a.OptionalFrom != b.OptionalFrom {
			return false
		}
		if !helpers.StringArraysEqual(a.TypeParams, b.TypeParams) {
			return false
		}
		for i := range a.Formals {
			if !Equal(a.Formals[i], b.Formals[i]) {
				return false
			}
		}
		return Equal(*a.Return, *b.Return)
	case TagUnion:
		if len(a.Members) != len(b.Members) {
			return false
		}
		for _, m := range a.Members {
			match := false
			for _, o := range b.Members {
				if Equal(m, o) {
					match = true
					break
				}
			}
			if !match {
				return false
			}
		}
		return true
	case TagTypeVar:
		return a.VarName == b.VarName
	default:
		return true
	}
}

// Refine returns t narrowed to the given truthy/falsy refinement (§4.6
// "truthy/falsy refinements").
func Refine(t Type, r Refinement) Type {
	t.Refinement = r
	return t
}
