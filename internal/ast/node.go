package ast

import "github.com/tiobe/closure-compiler/internal/logger"

// Node is the unit of syntax (§3). All cross-node references are NodeID
// values into the owning Tree's arena rather than pointers: this sidesteps
// the parent/child cycle that a pointer-based tree would create (§9's
// "arena+index representation... eliminates borrow conflicts") and makes a
// Node trivially copyable for snapshotting (§4.10).
//
// Two Nodes are never compared by value; Node identity is the NodeID that
// indexes them, matching §3's "nodes are never value-compared".
type Node struct {
	Kind Kind

	Parent   NodeID
	Children []NodeID

	// SourceIndex identifies which logger.Source this node's Loc is
	// relative to (§3 "a pointer to a source input identity").
	SourceIndex uint32
	Loc         logger.Loc
	EndLoc      logger.Loc

	// Doc carries the attached documentation slot from §3. Left nil for
	// nodes with no jsdoc.
	Doc *Doc

	// TypeID is the write-once type annotation slot (§3). It indexes into
	// a type table owned by whichever internal/types.Store is inferring
	// this tree; the zero value means "unset". Kept as a bare index (not
	// an internal/types.Type) so this package never imports internal/types
	// and the dependency stays one-directional (types depends on ast, not
	// the reverse).
	TypeID uint32

	// ChangeStamp is a node-local counter for direct inspection. No code in
	// this module updates it: the mutation primitives in mutate.go report
	// structural changes through a ChangeReporter, and the stamp the
	// verifier compares is the scope-level one in internal/scope.
	ChangeStamp uint32

	// Detached is true once this node has been removed from the tree via
	// Tree.Detach but is still referenced by an analysis that captured it
	// before detachment (§3 "detaching is a pass-visible mutation").
	Detached bool

	// Data holds kind-specific fields that don't participate in the
	// uniform child list (e.g. the operator code for KindBinary, the name
	// text for KindName). It is deliberately untyped here; kind-specific
	// typed accessors live in extra.go so callers get compile-time safety
	// without every Kind needing its own Go struct (mirrors the way
	// esbuild's E-prefixed expression types are threaded through Expr.Data,
	// but collapsed into a single arena entry instead of a boxed interface
	// so nodes stay index-addressable).
	Data interface{}

	flags props
}

func (n *Node) IsGenerated() bool  { return n.flags.get(PropIsGenerated) }
func (n *Node) SetGenerated(v bool) { n.flags.set(PropIsGenerated, v) }
func (n *Node) IsExport() bool      { return n.flags.get(PropIsExport) }
func (n *Node) SetExport(v bool)    { n.flags.set(PropIsExport, v) }
func (n *Node) IsAsync() bool       { return n.flags.get(PropIsAsync) }
func (n *Node) SetAsync(v bool)     { n.flags.set(PropIsAsync, v) }
func (n *Node) IsGenerator() bool   { return n.flags.get(PropIsGenerator) }
func (n *Node) SetGenerator(v bool) { n.flags.set(PropIsGenerator, v) }

// NameData is Node.Data for KindName.
type NameData struct {
	Text string
}

// LiteralData is Node.Data for the KindLiteral* kinds.
type LiteralData struct {
	StringValue string
	NumberValue float64
	BoolValue   bool
}

// OpData is Node.Data for KindUnary/KindUpdate/KindBinary/KindLogical/KindAssign.
type OpData struct {
	Operator string
}

// LabelData is Node.Data for KindLabel/KindBreak/KindContinue.
type LabelData struct {
	Name string
}
