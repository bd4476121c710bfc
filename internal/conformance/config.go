package conformance

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v2"

	"github.com/tiobe/closure-compiler/internal/helpers"
)

var knownKinds = []string{
	string(KindBannedName), string(KindBannedNameCall), string(KindBannedConstructorCall),
	string(KindBannedPropertyRead), string(KindBannedPropertyWrite), string(KindBannedPropertyAll),
	string(KindBannedPropertyNonConstWrite), string(KindBannedCodePattern),
	string(KindBannedDependency), string(KindRestrictedCall), string(KindCustom),
}

var kindTypos = helpers.MakeTypoDetector(knownKinds)

// isKnownKind reports whether kind is one of the rule kinds in knownKinds.
func isKnownKind(kind Kind) bool {
	for _, k := range knownKinds {
		if k == string(kind) {
			return true
		}
	}
	return false
}

// describeUnknownKind reports a rule's unrecognized type, appending a
// "did you mean" suggestion when the typo detector recognizes it as a
// single-edit mistake of a real kind (§7 "Configuration errors ... the
// offending rule is skipped").
func describeUnknownKind(id string, kind Kind) string {
	if corrected, ok := kindTypos.MaybeCorrectTypo(string(kind)); ok {
		return fmt.Sprintf("rule %q: unknown type %q, did you mean %q?", id, kind, corrected)
	}
	return fmt.Sprintf("rule %q: unknown type %q", id, kind)
}

// rawConfig mirrors the §6 text-protocol record: "repeated `requirement`
// entries". One YAML document may itself be the concatenation of several
// conformance config files (§6's protocol is silent on file boundaries),
// so LoadConfigs merges across whatever set of documents it's handed.
type rawConfig struct {
	Requirement []Rule `yaml:"requirement"`
}

// RuleSet is a merged, compiled collection of rules ready for Engine.Run.
type RuleSet struct {
	rules []*compiledRule
}

// Rules returns the merged, compiled rules as plain values, for callers
// (and tests) that want to inspect the result of a merge without reaching
// into Engine internals.
func (s *RuleSet) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	for i, cr := range s.rules {
		out[i] = cr.Rule
	}
	return out
}

// LoadConfigs parses each of sources (path label -> YAML document bytes)
// into rules, merges same-ID rules across an `extends` link, and compiles
// every regexp once. Internal/conformance never touches the filesystem
// itself (§6 "Persisted state: None") -- pkg/api reads the files and hands
// their contents here.
//
// A malformed document does not abort the whole load: per §7
// "Configuration errors ... the offending rule is skipped", each
// document's parse failure is collected into the returned multierror and
// the remaining documents still load.
func LoadConfigs(sources map[string][]byte) (*RuleSet, error) {
	var errs error
	byID := make(map[string]Rule)
	var order []string

	for path, contents := range sources {
		var doc rawConfig
		if err := yaml.Unmarshal(contents, &doc); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		for _, r := range doc.Requirement {
			if r.ID == "" {
				errs = multierror.Append(errs, fmt.Errorf("%s: requirement missing rule_id", path))
				continue
			}
			if !isKnownKind(r.Kind) {
				errs = multierror.Append(errs, fmt.Errorf("%s: %s", path, describeUnknownKind(r.ID, r.Kind)))
				continue
			}
			merged, seen := byID[r.ID]
			if !seen {
				byID[r.ID] = r
				order = append(order, r.ID)
				continue
			}
			byID[r.ID] = mergeRules(merged, r)
		}
	}

	set := &RuleSet{}
	for _, id := range order {
		r := resolveExtends(byID, id, nil)
		cr, err := compile(r)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("rule %q: %w", id, err))
			continue
		}
		set.rules = append(set.rules, cr)
	}

	return set, errs
}

// mergeRules implements §4.9 "Two rules with the same identifier and an
// extends link combine their whitelists (union), deduplicating entries."
// Everything else about the later definition wins, matching the last
// document loaded taking precedence for scalar fields.
func mergeRules(base, next Rule) Rule {
	merged := next
	merged.Whitelist = unionStrings(base.Whitelist, next.Whitelist)
	merged.WhitelistRegexp = unionStrings(base.WhitelistRegexp, next.WhitelistRegexp)
	if merged.Extends == "" {
		merged.Extends = base.Extends
	}
	return merged
}

// resolveExtends follows one rule's Extends chain and unions in the
// referenced rule's whitelist, guarding against a cycle by tracking the
// IDs already visited on this chain.
func resolveExtends(byID map[string]Rule, id string, visiting map[string]bool) Rule {
	r := byID[id]
	if r.Extends == "" {
		return r
	}
	if visiting == nil {
		visiting = make(map[string]bool)
	}
	if visiting[id] {
		return r
	}
	visiting[id] = true
	if _, ok := byID[r.Extends]; !ok {
		return r
	}
	resolvedParent := resolveExtends(byID, r.Extends, visiting)
	r.Whitelist = unionStrings(r.Whitelist, resolvedParent.Whitelist)
	r.WhitelistRegexp = unionStrings(r.WhitelistRegexp, resolvedParent.WhitelistRegexp)
	return r
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
