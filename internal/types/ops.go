package types

// Join computes the least upper bound of a and b (§4.6 key type
// operations). Unknown is the join identity: joining anything with Unknown
// yields the other operand unchanged when the other is more precise, per
// the spec's "unknown (≡ top in meet, identity in join for specialization)"
// rule -- but as a plain lattice join (not a specialization-aware one)
// Unknown absorbs like Top, since a caller wanting the specialization
// behavior should call Specialize instead.
func Join(a, b Type) Type {
	if a.Tag == TagBottom {
		return b
	}
	if b.Tag == TagBottom {
		return a
	}
	if Equal(a, b) {
		return a
	}
	if a.Tag == TagTop || b.Tag == TagTop {
		return Top()
	}
	if a.Tag == TagObject && b.Tag == TagObject {
		return joinObjects(a, b)
	}
	if a.Tag == TagUnion || b.Tag == TagUnion {
		return Union(a, b)
	}
	return Union(a, b)
}

func joinObjects(a, b Type) Type {
	props := make(map[string]Type)
	for k, av := range a.Props {
		if bv, ok := b.Props[k]; ok {
			props[k] = Join(av, bv)
		}
	}
	// Properties present on only one side survive only if the result is
	// open, since a join of two known-shape objects that disagree on
	// membership can no longer promise the missing side's absence.
	open := a.OpenProps || b.OpenProps || len(props) != len(a.Props) || len(props) != len(b.Props)
	return Object(props, open)
}

// Meet computes the greatest lower bound (§4.6). Meet with Top yields the
// other operand; meet with Unknown yields Bottom, matching "unknown ≡ top
// in meet" only insofar as both absorb into a more precise operand -- but
// since nothing above Unknown but below Top exists in this lattice's meet
// direction for scalar tags, meeting two incompatible scalars yields
// Bottom (no common value can have both types at once).
func Meet(a, b Type) Type {
	if a.Tag == TagTop {
		return b
	}
	if b.Tag == TagTop {
		return a
	}
	if Equal(a, b) {
		return a
	}
	if a.Tag == TagUnion {
		return meetUnion(a, b)
	}
	if b.Tag == TagUnion {
		return meetUnion(b, a)
	}
	if a.Tag == TagObject && b.Tag == TagObject {
		return meetObjects(a, b)
	}
	return Bottom()
}

func meetUnion(u, other Type) Type {
	var kept []Type
	for _, m := range u.Members {
		r := Meet(m, other)
		if r.Tag != TagBottom {
			kept = append(kept, r)
		}
	}
	return Union(kept...)
}

func meetObjects(a, b Type) Type {
	props := make(map[string]Type)
	for k, av := range a.Props {
		props[k] = av
	}
	for k, bv := range b.Props {
		if av, ok := props[k]; ok {
			props[k] = Meet(av, bv)
		} else {
			props[k] = bv
		}
	}
	return Object(props, a.OpenProps && b.OpenProps)
}

// SubtypeOf reports whether every value of type a is also a value of type
// b (§4.6). Unknown is subtype-compatible with everything in both
// directions, matching its role as the "no information" element that must
// never itself trigger a mismatch diagnostic.
func SubtypeOf(a, b Type) bool {
	if a.Tag == TagUnknown || b.Tag == TagUnknown {
		return true
	}
	// An unresolved type variable (one a caller never substituted through
	// InstantiateGenerics) carries no information yet, the same as
	// Unknown -- a deferred check racing ahead of generic instantiation
	// must not flag a mismatch against it.
	if a.Tag == TagTypeVar || b.Tag == TagTypeVar {
		return true
	}
	if b.Tag == TagTop {
		return true
	}
	if a.Tag == TagBottom {
		return true
	}
	if Equal(a, b) {
		return true
	}
	if a.Tag == TagUnion {
		for _, m := range a.Members {
			if !SubtypeOf(m, b) {
				return false
			}
		}
		return true
	}
	if b.Tag == TagUnion {
		for _, m := range b.Members {
			if SubtypeOf(a, m) {
				return true
			}
		}
		return false
	}
	if a.Tag == TagNominal && b.Tag == TagNominal {
		for _, s := range a.SuperChain {
			if s == b.NominalName {
				return true
			}
		}
		return a.NominalName == b.NominalName
	}
	if a.Tag == TagObject && b.Tag == TagObject {
		for k, bv := range b.Props {
			av, ok := a.Props[k]
			if !ok || !SubtypeOf(av, bv) {
				return false
			}
		}
		return true
	}
	if a.Tag == TagFunction && b.Tag == TagFunction {
		return subtypeOfFunction(a, b)
	}
	return false
}

func subtypeOfFunction(a, b Type) bool {
	if len(a.Formals) < len(b.Formals) && !a.HasRest {
		return false
	}
	for i, bf := range b.Formals {
		if i >= len(a.Formals) {
			if !a.HasRest {
				return false
			}
			continue
		}
		// Formals are contravariant: a's parameter type must accept
		// everything b's parameter type accepts.
		if !SubtypeOf(bf, a.Formals[i]) {
			return false
		}
	}
	return SubtypeOf(*a.Return, *b.Return)
}

// Specialize sharpens a within the remaining possibilities suggested by
// toward (§4.6 "sharpen within remaining possibilities"). Unlike Join,
// Specialize treats Unknown as identity: specializing Unknown toward
// anything yields that thing, and specializing anything toward Unknown
// leaves it unchanged, matching the spec's explicit callout that Unknown
// is "identity in join for specialization".
func Specialize(a, toward Type) Type {
	if a.Tag == TagUnknown {
		return toward
	}
	if toward.Tag == TagUnknown {
		return a
	}
	if a.Tag == TagUnion {
		var kept []Type
		for _, m := range a.Members {
			if SubtypeOf(m, toward) || SubtypeOf(toward, m) {
				kept = append(kept, Specialize(m, toward))
			}
		}
		if len(kept) == 0 {
			return toward
		}
		return Union(kept...)
	}
	if SubtypeOf(toward, a) {
		return toward
	}
	return a
}

// RemoveType removes every member of toRemove from a's possibility set
// (§4.6 `removeType`), used by `x == null` narrowing on the FALSE branch
// and similar exclusion-style refinements.
func RemoveType(a, toRemove Type) Type {
	if Equal(a, toRemove) {
		return Bottom()
	}
	if a.Tag != TagUnion {
		if SubtypeOf(a, toRemove) {
			return Bottom()
		}
		return a
	}
	var kept []Type
	for _, m := range a.Members {
		if !SubtypeOf(m, toRemove) {
			kept = append(kept, m)
		}
	}
	return Union(kept...)
}

// WithProperty returns a copy of a with name bound to propType. Only
// TagObject receivers are extended; every other tag, TagNominal included,
// returns a unchanged.
func WithProperty(a Type, name string, propType Type) Type {
	if a.Tag != TagObject {
		return a
	}
	props := make(map[string]Type, len(a.Props)+1)
	for k, v := range a.Props {
		props[k] = v
	}
	props[name] = propType
	return Object(props, a.OpenProps)
}

// GetProp returns the type of property name on a, and whether it is known
// to exist at all (§4.6 `getProp`).
func GetProp(a Type, name string) (Type, bool) {
	if a.Tag == TagUnion {
		var results []Type
		for _, m := range a.Members {
			t, ok := GetProp(m, name)
			if !ok {
				return Unknown(), false
			}
			results = append(results, t)
		}
		return Union(results...), true
	}
	if a.Tag == TagObject {
		if t, ok := a.Props[name]; ok {
			return t, true
		}
		if a.OpenProps {
			return Unknown(), false
		}
		return Bottom(), false
	}
	return Unknown(), false
}

// MayHaveProp reports whether a could possibly have property name, either
// because it is known to (GetProp succeeds) or because its shape is open
// (§4.6 `mayHaveProp`).
func MayHaveProp(a Type, name string) bool {
	if _, ok := GetProp(a, name); ok {
		return true
	}
	if a.Tag == TagObject {
		return a.OpenProps
	}
	if a.Tag == TagUnion {
		for _, m := range a.Members {
			if MayHaveProp(m, name) {
				return true
			}
		}
	}
	return false
}

// HasConstantProp reports whether a's property name is recorded as never
// reassigned after construction (§4.6 `hasConstantProp`).
func HasConstantProp(a Type, name string) bool {
	return a.Tag == TagObject && a.ConstantProps[name]
}

// InstantiateGenerics substitutes every TagTypeVar occurrence in a whose
// VarName is a key of bindings with the bound type (§4.6
// `instantiateGenerics`).
func InstantiateGenerics(a Type, bindings map[string]Type) Type {
	switch a.Tag {
	case TagTypeVar:
		if t, ok := bindings[a.VarName]; ok {
			return t
		}
		return a
	case TagUnion:
		members := make([]Type, len(a.Members))
		for i, m := range a.Members {
			members[i] = InstantiateGenerics(m, bindings)
		}
		return Union(members...)
	case TagObject:
		props := make(map[string]Type, len(a.Props))
		for k, v := range a.Props {
			props[k] = InstantiateGenerics(v, bindings)
		}
		return Object(props, a.OpenProps)
	case TagFunction:
		formals := make([]Type, len(a.Formals))
		for i, f := range a.Formals {
			formals[i] = InstantiateGenerics(f, bindings)
		}
		out := Function(formals, a.OptionalFrom, a.HasRest, InstantiateGenerics(*a.Return, bindings))
		out.TypeParams = a.TypeParams
		return out
	default:
		return a
	}
}

// UnifyWith unifies formal (which may reference typeVars) against actual,
// accumulating every binding a type variable receives into resultMultimap
// (§4.6 `unifyWith`). A type variable bound more than once to distinct
// types is left with multiple entries so the caller can apply its
// ambiguity policy (compatibility-mode join vs strict-mode unknown, per
// §4.6 Generics).
func UnifyWith(formal Type, actual Type, typeVars map[string]bool, resultMultimap map[string][]Type) {
	if formal.Tag == TagTypeVar && typeVars[formal.VarName] {
		resultMultimap[formal.VarName] = append(resultMultimap[formal.VarName], actual)
		return
	}
	switch {
	case formal.Tag == TagFunction && actual.Tag == TagFunction:
		for i := range formal.Formals {
			if i < len(actual.Formals) {
				UnifyWith(formal.Formals[i], actual.Formals[i], typeVars, resultMultimap)
			}
		}
		UnifyWith(*formal.Return, *actual.Return, typeVars, resultMultimap)
	case formal.Tag == TagObject && actual.Tag == TagObject:
		for k, fv := range formal.Props {
			if av, ok := actual.Props[k]; ok {
				UnifyWith(fv, av, typeVars, resultMultimap)
			}
		}
	}
}

// ResolveAmbiguity applies the compatibility-mode/strict-mode policy from
// §4.6 to a single type variable's accumulated candidate bindings: in
// compatibility mode multiple distinct candidates join; in strict mode
// they resolve to Unknown and the caller is expected to also emit a
// not-unique-instantiation diagnostic (this function only decides the
// resulting type, not diagnostic emission, which belongs to
// internal/infer where MsgID plumbing lives).
func ResolveAmbiguity(candidates []Type, compatibilityMode bool) (resolved Type, ambiguous bool) {
	if len(candidates) == 0 {
		return Unknown(), false
	}
	unique := dedupe(candidates)
	if len(unique) == 1 {
		return unique[0], false
	}
	if compatibilityMode {
		joined := unique[0]
		for _, t := range unique[1:] {
			joined = Join(joined, t)
		}
		return joined, true
	}
	return Unknown(), true
}
