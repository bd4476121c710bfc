package ast

// Kind is the syntactic tag of a Node (§3 "a syntactic kind: tagged
// variant"). It intentionally covers only the ES3-through-ES2017 surface
// this compiler core reasons about; anything the parser accepts beyond that
// is expected to already have been lowered by the external parser
// collaborator (§1 Non-goals).
type Kind uint16

const (
	KindInvalid Kind = iota

	// Program / module structure
	KindProgram
	KindModuleBody

	// Statements
	KindBlock
	KindExprStatement
	KindEmptyStatement
	KindVarDecl
	KindLetDecl
	KindConstDecl
	KindFunctionDecl
	KindClassDecl
	KindIf
	KindFor
	KindForIn
	KindForOf
	KindWhile
	KindDoWhile
	KindSwitch
	KindCase
	KindDefaultCase
	KindTry
	KindCatch
	KindFinally
	KindReturn
	KindThrow
	KindBreak
	KindContinue
	KindLabel
	KindDebugger

	// Bindings
	KindVarDeclarator
	KindParam
	KindRestParam
	KindObjectPattern
	KindArrayPattern
	KindPatternProperty
	KindCatchBinding

	// Expressions
	KindName
	KindThis
	KindSuperExpr
	KindArguments
	KindLiteralNumber
	KindLiteralString
	KindLiteralBool
	KindLiteralNull
	KindLiteralUndefined
	KindLiteralRegExp
	KindTemplate
	KindArrayLiteral
	KindObjectLiteral
	KindProperty
	KindFunctionExpr
	KindArrowFunction
	KindClassExpr
	KindUnary
	KindUpdate
	KindBinary
	KindLogical
	KindAssign
	KindConditional
	KindCall
	KindNew
	KindMember
	KindIndex
	KindSequence
	KindSpread
	KindTaggedTemplate
	KindYield
	KindAwait
)

var kindNames = [...]string{
	KindInvalid:          "Invalid",
	KindProgram:          "Program",
	KindModuleBody:       "ModuleBody",
	KindBlock:            "Block",
	KindExprStatement:    "ExprStatement",
	KindEmptyStatement:   "EmptyStatement",
	KindVarDecl:          "VarDecl",
	KindLetDecl:          "LetDecl",
	KindConstDecl:        "ConstDecl",
	KindFunctionDecl:     "FunctionDecl",
	KindClassDecl:        "ClassDecl",
	KindIf:               "If",
	KindFor:              "For",
	KindForIn:            "ForIn",
	KindForOf:            "ForOf",
	KindWhile:            "While",
	KindDoWhile:          "DoWhile",
	KindSwitch:           "Switch",
	KindCase:             "Case",
	KindDefaultCase:      "DefaultCase",
	KindTry:              "Try",
	KindCatch:            "Catch",
	KindFinally:          "Finally",
	KindReturn:           "Return",
	KindThrow:            "Throw",
	KindBreak:            "Break",
	KindContinue:         "Continue",
	KindLabel:            "Label",
	KindDebugger:         "Debugger",
	KindVarDeclarator:    "VarDeclarator",
	KindParam:            "Param",
	KindRestParam:        "RestParam",
	KindObjectPattern:    "ObjectPattern",
	KindArrayPattern:     "ArrayPattern",
	KindPatternProperty:  "PatternProperty",
	KindCatchBinding:     "CatchBinding",
	KindName:             "Name",
	KindThis:             "This",
	KindSuperExpr:        "Super",
	KindArguments:        "Arguments",
	KindLiteralNumber:    "LiteralNumber",
	KindLiteralString:    "LiteralString",
	KindLiteralBool:      "LiteralBool",
	KindLiteralNull:      "LiteralNull",
	KindLiteralUndefined: "LiteralUndefined",
	KindLiteralRegExp:    "LiteralRegExp",
	KindTemplate:         "Template",
	KindArrayLiteral:     "ArrayLiteral",
	KindObjectLiteral:    "ObjectLiteral",
	KindProperty:         "Property",
	KindFunctionExpr:     "FunctionExpr",
	KindArrowFunction:    "ArrowFunction",
	KindClassExpr:        "ClassExpr",
	KindUnary:            "Unary",
	KindUpdate:           "Update",
	KindBinary:           "Binary",
	KindLogical:          "Logical",
	KindAssign:           "Assign",
	KindConditional:      "Conditional",
	KindCall:             "Call",
	KindNew:              "New",
	KindMember:           "Member",
	KindIndex:            "Index",
	KindSequence:         "Sequence",
	KindSpread:           "Spread",
	KindTaggedTemplate:   "TaggedTemplate",
	KindYield:            "Yield",
	KindAwait:            "Await",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Unknown"
}

// IsFunctionLike reports whether a node of this kind introduces its own
// intra-procedural control flow boundary (§4.2 "function expressions
// produce no intra-procedural flow ... to be analyzed when their own scope
// is built") and its own scope (§4.1).
func (k Kind) IsFunctionLike() bool {
	switch k {
	case KindFunctionDecl, KindFunctionExpr, KindArrowFunction:
		return true
	default:
		return false
	}
}

// IsLoop reports whether a node of this kind is a looping construct, used
// by both the CFG builder (back-edges, §4.2) and liveness (§4.4 for-in/
// for-of/do-while special cases).
func (k Kind) IsLoop() bool {
	switch k {
	case KindFor, KindForIn, KindForOf, KindWhile, KindDoWhile:
		return true
	default:
		return false
	}
}

// IsPotentialScopeRoot reports whether a node of this kind is a scope root per the
// GLOSSARY: "the syntactic node that delimits a lexical scope (program,
// function, block-with-lets, catch, module body, for-with-binding)". Block
// scoping additionally depends on whether the block contains a let/const/
// class declaration, which callers must check separately (see
// internal/scope).
func (k Kind) IsPotentialScopeRoot() bool {
	switch k {
	case KindProgram, KindModuleBody, KindFunctionDecl, KindFunctionExpr,
		KindArrowFunction, KindBlock, KindCatch, KindFor, KindForIn, KindForOf:
		return true
	default:
		return false
	}
}
