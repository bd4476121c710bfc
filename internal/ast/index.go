package ast

// NodeID identifies a node inside a Tree's arena. The zero value is the
// invalid ID (flipped-bits trick borrowed from the teacher's ast.Index32):
// a zero-initialized Node's Parent/Children entries are invalid by
// construction, so the arena never has to zero-fill a "not set" sentinel.
type NodeID struct {
	flippedBits uint32
}

var InvalidNodeID = NodeID{}

func nodeIDFromIndex(index int) NodeID {
	return NodeID{flippedBits: ^uint32(index)}
}

func (id NodeID) IsValid() bool {
	return id.flippedBits != 0
}

func (id NodeID) index() int {
	return int(^id.flippedBits)
}
