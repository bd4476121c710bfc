package conformance_test

import (
	"strings"
	"testing"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/config"
	"github.com/tiobe/closure-compiler/internal/conformance"
	"github.com/tiobe/closure-compiler/internal/instance"
	"github.com/tiobe/closure-compiler/internal/logger"
	"github.com/tiobe/closure-compiler/internal/scope"
)

type reporter struct{}

func (reporter) ReportChange(*ast.Tree, ast.NodeID)          {}
func (reporter) ReportFunctionDeleted(*ast.Tree, ast.NodeID) {}

func newTree() (*ast.Tree, ast.NodeID) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)
	return tree, program
}

func nameRef(t *ast.Tree, r reporter, parent ast.NodeID, name string) ast.NodeID {
	n := t.NewNode(ast.KindName)
	t.Get(n).Data = ast.NameData{Text: name}
	t.AppendChild(r, parent, n)
	return n
}

func newCtx(t *testing.T, tree *ast.Tree) *instance.Context {
	t.Helper()
	log := logger.NewDeferLog()
	return instance.New(log, &logger.Source{Index: 0, PrettyPath: "in.js"}, config.Default(), nil, nil)
}

// TestBannedNameFlagsUndeclaredGlobalRead builds "eval()" at the program
// level (no declaration for "eval" anywhere) and checks a BANNED_NAME rule
// on "eval" fires.
func TestBannedNameFlagsUndeclaredGlobalRead(t *testing.T) {
	tree, program := newTree()
	r := reporter{}
	stmt := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(r, program, stmt)
	call := tree.NewNode(ast.KindCall)
	tree.AppendChild(r, stmt, call)
	nameRef(tree, r, call, "eval")

	creator := scope.NewScopeCreator(tree)
	if _, err := creator.CreateScope(program, nil); err != nil {
		t.Fatal(err)
	}
	creator.Freeze()

	set, err := conformance.LoadConfigs(map[string][]byte{
		"rules.yaml": []byte(`
requirement:
  - rule_id: no-eval
    type: BANNED_NAME
    value: ["eval"]
    error_message: "eval is banned"
`),
	})
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	ctx := newCtx(t, tree)
	engine := conformance.NewEngine(set)
	engine.Run(ctx, tree, creator, "in.js")

	msgs := ctx.Log.Done()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(msgs), msgs)
	}
	if msgs[0].ID != logger.MsgID_Conformance_Violation {
		t.Fatalf("expected a conformance violation msg id, got %v", msgs[0].ID)
	}
}

// TestBannedNameSkipsWhenLocallyDeclared shadows the banned name with a
// local declaration; the rule must not fire against the local variable.
func TestBannedNameSkipsWhenLocallyDeclared(t *testing.T) {
	tree, program := newTree()
	r := reporter{}

	varDecl := tree.NewNode(ast.KindVarDecl)
	tree.AppendChild(r, program, varDecl)
	declarator := tree.NewNode(ast.KindVarDeclarator)
	tree.Get(declarator).Data = ast.NameData{Text: "eval"}
	tree.AppendChild(r, varDecl, declarator)

	stmt := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(r, program, stmt)
	call := tree.NewNode(ast.KindCall)
	tree.AppendChild(r, stmt, call)
	nameRef(tree, r, call, "eval")

	creator := scope.NewScopeCreator(tree)
	if _, err := creator.CreateScope(program, nil); err != nil {
		t.Fatal(err)
	}
	creator.Freeze()

	set, err := conformance.LoadConfigs(map[string][]byte{
		"rules.yaml": []byte(`
requirement:
  - rule_id: no-eval
    type: BANNED_NAME
    value: ["eval"]
`),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := newCtx(t, tree)
	engine := conformance.NewEngine(set)
	engine.Run(ctx, tree, creator, "in.js")

	if msgs := ctx.Log.Done(); len(msgs) != 0 {
		t.Fatalf("expected no violation for a locally-declared name, got %v", msgs)
	}
}

// TestBannedPropertyWriteMatchesAssignmentTarget builds "foo.innerHTML = x"
// and checks a BANNED_PROPERTY_WRITE rule on "foo.innerHTML" fires exactly
// once, for that write.
func TestBannedPropertyWriteMatchesAssignmentTarget(t *testing.T) {
	tree, program := newTree()
	r := reporter{}

	stmt := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(r, program, stmt)
	assign := tree.NewNode(ast.KindAssign)
	tree.Get(assign).Data = ast.OpData{Operator: "="}
	tree.AppendChild(r, stmt, assign)

	member := tree.NewNode(ast.KindMember)
	tree.Get(member).Data = ast.MemberData{PropertyName: "innerHTML"}
	tree.AppendChild(r, assign, member)
	nameRef(tree, r, member, "foo")

	nameRef(tree, r, assign, "x")

	creator := scope.NewScopeCreator(tree)
	if _, err := creator.CreateScope(program, nil); err != nil {
		t.Fatal(err)
	}
	creator.Freeze()

	set, err := conformance.LoadConfigs(map[string][]byte{
		"rules.yaml": []byte(`
requirement:
  - rule_id: no-innerHTML
    type: BANNED_PROPERTY_WRITE
    value: ["foo.innerHTML"]
`),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := newCtx(t, tree)
	engine := conformance.NewEngine(set)
	engine.Run(ctx, tree, creator, "in.js")

	if msgs := ctx.Log.Done(); len(msgs) != 1 {
		t.Fatalf("expected exactly 1 violation, got %d: %v", len(msgs), msgs)
	}
}

// TestWhitelistSuppressesViolation checks that a path listed in a rule's
// whitelist produces no diagnostic even though the banned name is present.
func TestWhitelistSuppressesViolation(t *testing.T) {
	tree, program := newTree()
	r := reporter{}
	stmt := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(r, program, stmt)
	call := tree.NewNode(ast.KindCall)
	tree.AppendChild(r, stmt, call)
	nameRef(tree, r, call, "eval")

	creator := scope.NewScopeCreator(tree)
	if _, err := creator.CreateScope(program, nil); err != nil {
		t.Fatal(err)
	}
	creator.Freeze()

	set, err := conformance.LoadConfigs(map[string][]byte{
		"rules.yaml": []byte(`
requirement:
  - rule_id: no-eval
    type: BANNED_NAME
    value: ["eval"]
    whitelist: ["in.js"]
`),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := newCtx(t, tree)
	engine := conformance.NewEngine(set)
	engine.Run(ctx, tree, creator, "in.js")

	if msgs := ctx.Log.Done(); len(msgs) != 0 {
		t.Fatalf("expected whitelisted file to produce no violations, got %v", msgs)
	}
}

// TestExtendsMergesWhitelist checks that a rule extending another rule
// inherits its whitelist (§4.9 merge semantics).
func TestExtendsMergesWhitelist(t *testing.T) {
	set, err := conformance.LoadConfigs(map[string][]byte{
		"base.yaml": []byte(`
requirement:
  - rule_id: base-rule
    type: BANNED_NAME
    value: ["eval"]
    whitelist: ["legacy.js"]
`),
		"derived.yaml": []byte(`
requirement:
  - rule_id: derived-rule
    type: BANNED_NAME
    value: ["eval"]
    extends: base-rule
    whitelist: ["shim.js"]
`),
	})
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if len(set.Rules()) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(set.Rules()))
	}
	var derived *conformance.Rule
	for _, rule := range set.Rules() {
		if rule.ID == "derived-rule" {
			rule := rule
			derived = &rule
		}
	}
	if derived == nil {
		t.Fatal("expected to find derived-rule")
	}
	found := map[string]bool{}
	for _, w := range derived.Whitelist {
		found[w] = true
	}
	if !found["legacy.js"] || !found["shim.js"] {
		t.Fatalf("expected merged whitelist to contain both entries, got %v", derived.Whitelist)
	}
}

// TestLoadConfigsAggregatesMalformedDocuments checks that one malformed
// YAML document does not prevent the rest from loading, and its failure is
// reported through the returned multierror (§7 "Configuration errors").
func TestLoadConfigsAggregatesMalformedDocuments(t *testing.T) {
	_, err := conformance.LoadConfigs(map[string][]byte{
		"good.yaml": []byte(`
requirement:
  - rule_id: ok
    type: BANNED_NAME
    value: ["eval"]
`),
		"bad.yaml": []byte("requirement: [this is not: valid: yaml"),
	})
	if err == nil {
		t.Fatal("expected an aggregated error for the malformed document")
	}
}

// TestLoadConfigsSuggestsTypoInRuleKind checks that a slightly misspelled
// rule type produces a "did you mean" suggestion rather than a bare
// unknown-type error.
func TestLoadConfigsSuggestsTypoInRuleKind(t *testing.T) {
	_, err := conformance.LoadConfigs(map[string][]byte{
		"typo.yaml": []byte(`
requirement:
  - rule_id: bad-kind
    type: BANNED_NAM
    value: ["eval"]
`),
	})
	if err == nil {
		t.Fatal("expected an error for the unknown rule type")
	}
	got := err.Error()
	if !strings.Contains(got, "bad-kind") || !strings.Contains(got, "did you mean") {
		t.Fatalf("expected a did-you-mean suggestion, got: %s", got)
	}
}

// TestSuppressionAnnotationSilencesViolation checks that a @suppress
// annotation on an ancestor node silences a rule that would otherwise fire.
func TestSuppressionAnnotationSilencesViolation(t *testing.T) {
	tree, program := newTree()
	r := reporter{}
	stmt := tree.NewNode(ast.KindExprStatement)
	tree.Get(stmt).Doc = &ast.Doc{Suppressions: map[string]bool{"no-eval": true}}
	tree.AppendChild(r, program, stmt)
	call := tree.NewNode(ast.KindCall)
	tree.AppendChild(r, stmt, call)
	nameRef(tree, r, call, "eval")

	creator := scope.NewScopeCreator(tree)
	if _, err := creator.CreateScope(program, nil); err != nil {
		t.Fatal(err)
	}
	creator.Freeze()

	set, err := conformance.LoadConfigs(map[string][]byte{
		"rules.yaml": []byte(`
requirement:
  - rule_id: no-eval
    type: BANNED_NAME
    value: ["eval"]
`),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := newCtx(t, tree)
	engine := conformance.NewEngine(set)
	engine.Run(ctx, tree, creator, "in.js")

	if msgs := ctx.Log.Done(); len(msgs) != 0 {
		t.Fatalf("expected @suppress to silence the violation, got %v", msgs)
	}
}
