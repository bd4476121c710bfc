package api_test

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/logger"
	"github.com/tiobe/closure-compiler/pkg/api"
)

type reporter struct{}

func (reporter) ReportChange(*ast.Tree, ast.NodeID)          {}
func (reporter) ReportFunctionDeleted(*ast.Tree, ast.NodeID) {}

// TestAnalyzeFoldsConstantsByDefault builds `1 + 5;` at the top level and
// checks Analyze's default pass schedule folds it to a single literal,
// same as passes.ConstantFoldPass's own unit test but exercised through
// the public façade end to end.
func TestAnalyzeFoldsConstantsByDefault(t *testing.T) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)
	r := reporter{}

	stmt := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(r, program, stmt)
	add := tree.NewNode(ast.KindBinary)
	tree.Get(add).Data = ast.OpData{Operator: "+"}
	tree.AppendChild(r, stmt, add)
	one := tree.NewNode(ast.KindLiteralNumber)
	tree.Get(one).Data = ast.LiteralData{NumberValue: 1}
	tree.AppendChild(r, add, one)
	five := tree.NewNode(ast.KindLiteralNumber)
	tree.Get(five).Data = ast.LiteralData{NumberValue: 5}
	tree.AppendChild(r, add, five)

	result := api.Analyze(api.AnalyzeInput{
		Tree:       tree,
		Source:     &logger.Source{Index: 0, PrettyPath: "in.js"},
		SourcePath: "in.js",
	}, api.Options{})

	if result.HasErrors {
		t.Fatalf("unexpected errors: %+v", result.Diagnostics)
	}

	folded := tree.Children(stmt)[0]
	if tree.Get(folded).Kind != ast.KindLiteralNumber {
		t.Fatalf("expected the top-level expression to fold to a literal, got kind %v", tree.Get(folded).Kind)
	}
	if got := tree.Get(folded).Data.(ast.LiteralData).NumberValue; got != 6 {
		t.Fatalf("expected 1 + 5 to fold to 6, got %v", got)
	}
}

// TestAnalyzeRunsConformanceRules builds `eval()` and checks a banned-name
// rule loaded through LoadConformanceConfig fires as a diagnostic.
func TestAnalyzeRunsConformanceRules(t *testing.T) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)
	r := reporter{}

	stmt := tree.NewNode(ast.KindExprStatement)
	tree.AppendChild(r, program, stmt)
	call := tree.NewNode(ast.KindCall)
	tree.AppendChild(r, stmt, call)
	name := tree.NewNode(ast.KindName)
	tree.Get(name).Data = ast.NameData{Text: "eval"}
	tree.AppendChild(r, call, name)

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/rules.yaml", []byte(`
requirement:
  - rule_id: no-eval
    type: BANNED_NAME
    value: ["eval"]
    error_message: "eval is banned"
`), 0644); err != nil {
		t.Fatal(err)
	}

	ruleSet, err := api.LoadConformanceConfig(fs, []string{"/rules.yaml"})
	if err != nil {
		t.Fatalf("unexpected config load error: %v", err)
	}

	result := api.Analyze(api.AnalyzeInput{
		Tree:       tree,
		Source:     &logger.Source{Index: 0, PrettyPath: "in.js"},
		SourcePath: "in.js",
	}, api.Options{
		Conformance: ruleSet,
	})

	found := false
	for _, d := range result.Diagnostics {
		if d.ID == "conformance-violation" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a conformance-violation diagnostic, got %+v", result.Diagnostics)
	}
}

// TestLoadConformanceSourcesAggregatesMissingFiles checks that one missing
// file doesn't prevent the others from loading, and that the failure is
// reported rather than silently dropped.
func TestLoadConformanceSourcesAggregatesMissingFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/present.yaml", []byte("requirement: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	sources, err := api.LoadConformanceSources(fs, []string{"/present.yaml", "/missing.yaml"})
	if err == nil {
		t.Fatal("expected an aggregated error for the missing file")
	}
	if _, ok := sources["present.yaml"]; !ok {
		t.Fatal("expected the present file to still be loaded despite the missing one")
	}
}
