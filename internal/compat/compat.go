// Package compat holds the declarative feature/version table backing
// config.FeatureSet. §4.8's pass-manager precondition ("refuses to run a
// pass whose feature set is narrower than the current program's") is a
// semver comparison over this table rather than a hand-rolled integer
// ladder, per SPEC_FULL §4.
package compat

import "github.com/Masterminds/semver/v3"

// Feature is one piece of ES3..ES2017 language sugar a pass may declare
// as its floor (§4.8 "supported feature set").
type Feature uint32

const (
	Let Feature = 1 << iota
	Const
	ArrowFunctions
	Classes
	TemplateLiterals
	Destructuring
	DefaultParameters
	RestParameters
	SpreadElement
	Generators
	ForOf
	ComputedProperties
	ObjectShorthand
	ExponentOperator
	AsyncAwait
	AsyncGenerators
	ObjectRestSpread
	OptionalCatchBinding
	TrailingCommaInFunctionCalls
)

// introducedIn maps each feature to the ECMAScript edition, expressed as
// a semver, that first specified it. Editions are stamped as
// "<year>.0.0" so ES2015 < ES2016 < ... compares the way a reader expects.
var introducedIn = map[Feature]*semver.Version{
	Let:                          semver.MustParse("2015.0.0"),
	Const:                        semver.MustParse("2015.0.0"),
	ArrowFunctions:               semver.MustParse("2015.0.0"),
	Classes:                      semver.MustParse("2015.0.0"),
	TemplateLiterals:             semver.MustParse("2015.0.0"),
	Destructuring:                semver.MustParse("2015.0.0"),
	DefaultParameters:            semver.MustParse("2015.0.0"),
	RestParameters:               semver.MustParse("2015.0.0"),
	SpreadElement:                semver.MustParse("2015.0.0"),
	Generators:                   semver.MustParse("2015.0.0"),
	ForOf:                        semver.MustParse("2015.0.0"),
	ComputedProperties:           semver.MustParse("2015.0.0"),
	ObjectShorthand:              semver.MustParse("2015.0.0"),
	ExponentOperator:             semver.MustParse("2016.0.0"),
	AsyncAwait:                   semver.MustParse("2017.0.0"),
	TrailingCommaInFunctionCalls: semver.MustParse("2017.0.0"),
	AsyncGenerators:              semver.MustParse("2018.0.0"),
	ObjectRestSpread:             semver.MustParse("2018.0.0"),
	OptionalCatchBinding:         semver.MustParse("2019.0.0"),
}

// FeatureSet is a language-target floor: the lowest edition a program (or
// a pass's required input) is allowed to assume. It wraps a semver so
// "narrower than" (§4.8) is `Target.LessThan(other.Target)`.
type FeatureSet struct {
	Target *semver.Version
}

// ES3 is the pre-edition floor: nothing in introducedIn is supported.
func ES3() FeatureSet { return FeatureSet{Target: semver.MustParse("1997.0.0")} }

func Edition(year int) FeatureSet {
	return FeatureSet{Target: semver.MustParse(itoa(year) + ".0.0")}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Supports reports whether every feature in want is available at fs's
// target edition.
func (fs FeatureSet) Supports(want Feature) bool {
	for f, edition := range introducedIn {
		if want&f == 0 {
			continue
		}
		if fs.Target.LessThan(edition) {
			return false
		}
	}
	return true
}

// NarrowerThan implements §4.8's precondition check: fs accepts less sugar
// than other, so a pass declaring fs cannot run on a program that may still
// contain sugar up to other's (wider) edition.
func (fs FeatureSet) NarrowerThan(other FeatureSet) bool {
	return fs.Target.LessThan(other.Target)
}

func (fs FeatureSet) String() string {
	return fs.Target.String()
}
