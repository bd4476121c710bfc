// Package conformance implements the rules engine of §4.9: a declarative
// set of banned-usage rules evaluated over the typed AST during a
// dedicated pass, producing CONFORMANCE_VIOLATION or
// CONFORMANCE_POSSIBLE_VIOLATION diagnostics.
package conformance

import (
	"regexp"

	"github.com/tiobe/closure-compiler/internal/ast"
)

// Kind is one of the eight rule kinds from §4.9's table.
type Kind string

const (
	KindBannedName                  Kind = "BANNED_NAME"
	KindBannedNameCall              Kind = "BANNED_NAME_CALL"
	KindBannedConstructorCall       Kind = "BANNED_CONSTRUCTOR_CALL"
	KindBannedPropertyRead          Kind = "BANNED_PROPERTY_READ"
	KindBannedPropertyWrite         Kind = "BANNED_PROPERTY_WRITE"
	KindBannedPropertyAll           Kind = "BANNED_PROPERTY"
	KindBannedPropertyNonConstWrite Kind = "BANNED_PROPERTY_NON_CONSTANT_WRITE"
	KindBannedCodePattern           Kind = "BANNED_CODE_PATTERN"
	KindBannedDependency            Kind = "BANNED_DEPENDENCY"
	KindRestrictedCall              Kind = "RESTRICTED_CALL"
	KindCustom                      Kind = "CUSTOM"
)

// Rule is one requirement as loaded from configuration (§6). Value is
// interpreted per Kind: banned names/properties/dependencies read it as a
// list of dotted names or file paths; restricted-call rules read it as
// "name:minArgs:maxArgs" triples; banned-code-pattern rules ignore it and
// use Pattern instead (patterns are not a text-protocol value since
// parsing source fragments is out of this package's scope, §1 Non-goals --
// callers construct the pattern as an *ast.Tree fragment directly).
type Rule struct {
	ID      string `yaml:"rule_id"`
	Kind    Kind   `yaml:"type"`
	Value   []string `yaml:"value"`
	Message string   `yaml:"error_message"`

	Whitelist       []string `yaml:"whitelist"`
	WhitelistRegexp []string `yaml:"whitelist_regexp"`
	OnlyApplyTo     []string `yaml:"only_apply_to"`
	OnlyApplyToRegexp []string `yaml:"only_apply_to_regexp"`

	// ReportLooseTypeViolations turns on the possible/definite split for
	// rule kinds that need a resolved type to be sure (property rules):
	// when the receiver's type cannot be statically pinned down, a hit is
	// downgraded to CONFORMANCE_POSSIBLE_VIOLATION instead of being
	// silently dropped.
	ReportLooseTypeViolations bool `yaml:"report_loose_type_violations"`

	// Extends names another rule ID this rule's whitelist entries merge
	// into (§4.9 "Merge semantics").
	Extends string `yaml:"extends"`

	// CustomPredicateName looks up a Predicate registered with
	// Engine.RegisterPredicate for KindCustom rules. The original
	// protocol's "java_class" field names a JVM class to instantiate;
	// there is no Go analogue to dynamic class loading, so this package
	// treats it as a name into a caller-supplied registry instead (see
	// DESIGN.md).
	CustomPredicateName string `yaml:"java_class"`

	// Pattern is the fragment a KindBannedCodePattern rule matches
	// against, built by the embedding application directly as an
	// *ast.Tree (never through this package's YAML loader, since parsing
	// source text is out of scope -- §1 Non-goals).
	Pattern *ast.Tree `yaml:"-"`
}

// compiledRule is a Rule with its regexes pre-compiled once at load time
// rather than per node visited.
type compiledRule struct {
	Rule
	whitelistRegexp   []*regexp.Regexp
	onlyApplyToRegexp []*regexp.Regexp
}

func compile(r Rule) (*compiledRule, error) {
	cr := &compiledRule{Rule: r}
	for _, pattern := range r.WhitelistRegexp {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		cr.whitelistRegexp = append(cr.whitelistRegexp, re)
	}
	for _, pattern := range r.OnlyApplyToRegexp {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		cr.onlyApplyToRegexp = append(cr.onlyApplyToRegexp, re)
	}
	return cr, nil
}

func (cr *compiledRule) isWhitelisted(path string) bool {
	for _, w := range cr.Whitelist {
		if w == path {
			return true
		}
	}
	for _, re := range cr.whitelistRegexp {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func (cr *compiledRule) appliesTo(path string) bool {
	if len(cr.OnlyApplyTo) == 0 && len(cr.onlyApplyToRegexp) == 0 {
		return true
	}
	for _, p := range cr.OnlyApplyTo {
		if p == path {
			return true
		}
	}
	for _, re := range cr.onlyApplyToRegexp {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
