package scope_test

import (
	"testing"

	"github.com/tiobe/closure-compiler/internal/ast"
	"github.com/tiobe/closure-compiler/internal/scope"
)

type reporter struct{}

func (reporter) ReportChange(*ast.Tree, ast.NodeID)         {}
func (reporter) ReportFunctionDeleted(*ast.Tree, ast.NodeID) {}

// buildProgram builds: var a; let b; { let c; }
func buildProgram(t *testing.T) (*ast.Tree, ast.NodeID, ast.NodeID) {
	tree := ast.NewTree()
	program := tree.NewNode(ast.KindProgram)
	tree.SetRoot(program)
	r := reporter{}

	varDecl := tree.NewNode(ast.KindVarDecl)
	tree.AppendChild(r, program, varDecl)
	aDeclarator := tree.NewNode(ast.KindVarDeclarator)
	tree.Get(aDeclarator).Data = ast.NameData{Text: "a"}
	tree.AppendChild(r, varDecl, aDeclarator)

	letDecl := tree.NewNode(ast.KindLetDecl)
	tree.AppendChild(r, program, letDecl)
	bDeclarator := tree.NewNode(ast.KindVarDeclarator)
	tree.Get(bDeclarator).Data = ast.NameData{Text: "b"}
	tree.AppendChild(r, letDecl, bDeclarator)

	block := tree.NewNode(ast.KindBlock)
	tree.AppendChild(r, program, block)
	innerLet := tree.NewNode(ast.KindLetDecl)
	tree.AppendChild(r, block, innerLet)
	cDeclarator := tree.NewNode(ast.KindVarDeclarator)
	tree.Get(cDeclarator).Data = ast.NameData{Text: "c"}
	tree.AppendChild(r, innerLet, cDeclarator)

	return tree, program, block
}

func TestGlobalScopeSeesVarAndLet(t *testing.T) {
	tree, program, _ := buildProgram(t)
	creator := scope.NewScopeCreator(tree)
	global, err := creator.CreateScope(program, nil)
	if err != nil {
		t.Fatal(err)
	}
	if global.Lookup("a") == nil {
		t.Fatal("expected 'a' to be visible in the global scope")
	}
	if global.Lookup("b") == nil {
		t.Fatal("expected 'b' to be visible in the global scope")
	}
	if global.Lookup("c") != nil {
		t.Fatal("did not expect 'c' (block-scoped) to leak into the global scope")
	}
}

func TestBlockScopeSeesOwnLetOnly(t *testing.T) {
	tree, program, block := buildProgram(t)
	creator := scope.NewScopeCreator(tree)
	global, _ := creator.CreateScope(program, nil)
	blockScope, err := creator.CreateScope(block, global)
	if err != nil {
		t.Fatal(err)
	}
	if !blockScope.Declared("c", false) {
		t.Fatal("expected 'c' declared directly in the block scope")
	}
	if !blockScope.Declared("a", true) {
		t.Fatal("expected 'a' visible in the block scope via the parent chain")
	}
	if blockScope.Declared("a", false) {
		t.Fatal("did not expect 'a' declared directly in the block scope")
	}
}

func TestScopeIdentityUnderFreeze(t *testing.T) {
	tree, program, _ := buildProgram(t)
	creator := scope.NewScopeCreator(tree)
	creator.Freeze()
	s1, err := creator.CreateScope(program, nil)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := creator.CreateScope(program, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s1 != s2 {
		t.Fatal("expected the same *Scope object to be returned while frozen")
	}
}

func TestInvalidateForgetsBindingsEvenIfMoved(t *testing.T) {
	tree, program, _ := buildProgram(t)
	creator := scope.NewScopeCreator(tree)
	creator.Freeze()
	global, _ := creator.CreateScope(program, nil)
	v := global.Lookup("a")
	if v == nil {
		t.Fatal("expected 'a' to exist before invalidation")
	}

	// Simulate 'a' having been reassigned to a different (nonexistent)
	// script index by mutating its SourceIndex directly, then invalidate
	// its *original* script -- the binding must still be forgotten.
	originalSource := v.SourceIndex
	v.SourceIndex = originalSource + 1

	creator.Thaw()
	creator.Invalidate(originalSource)
	if global.Lookup("a") != nil {
		t.Fatal("expected 'a' to be forgotten when its original script is invalidated, even after moving")
	}
	creator.Freeze()
	creator.Thaw()
	creator.RefreshDirty()
	creator.Freeze()

	// 'a' should have been rescanned back into existence since the AST
	// still declares it.
	if global.Lookup("a") == nil {
		t.Fatal("expected 'a' to be re-discovered after refresh since the AST still declares it")
	}
}
