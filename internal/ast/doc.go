package ast

// Visibility mirrors the small set of access modifiers a doc comment can
// declare on a class member.
type Visibility uint8

const (
	VisibilityUnspecified Visibility = iota
	VisibilityPublic
	VisibilityProtected
	VisibilityPrivate
)

// Doc is the "attached documentation" slot from §3: structured metadata
// about declared types, visibility, and suppressions. It is parsed
// upstream (out of scope, §1) and handed to the core as data; the core
// never re-parses comment text.
type Doc struct {
	DeclaredType   string
	ReturnType     string
	ParamTypes     map[string]string
	Visibility     Visibility
	IsAbstract     bool
	IsConst        bool
	IsOverride     bool
	TemplateParams []string

	// Suppressions holds the "@suppress {key}" annotations attached to this
	// node. A diagnostic key present here (or "*") silences that diagnostic
	// at this node and its descendants; see DESIGN.md "Open Question
	// decisions" for how suppression lookup walks the ancestor chain.
	Suppressions map[string]bool
}

// DeclaredTypeOrEmpty is a nil-safe accessor for DeclaredType, used by
// callers (e.g. internal/scope's declaration scanner) that may be looking
// at a node with no attached Doc at all.
func (d *Doc) DeclaredTypeOrEmpty() string {
	if d == nil {
		return ""
	}
	return d.DeclaredType
}

func (d *Doc) IsSuppressed(key string) bool {
	if d == nil || d.Suppressions == nil {
		return false
	}
	return d.Suppressions[key] || d.Suppressions["*"]
}
