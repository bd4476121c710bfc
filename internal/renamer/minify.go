package renamer

// NameMinifier generates short identifier-legal names in a fixed
// enumeration order: single ASCII letters and "_"/"$" first, then longer
// names built from the wider alphanumeric alphabet. Ported from the
// teacher's own js_ast.NameMinifier, minus the source-character-frequency
// histogram it uses to reorder the alphabet -- this module doesn't print
// the renamed program itself, so there is no character stream to weight
// against, and a fixed alphabet order is enough to guarantee determinism.
type NameMinifier struct {
	head string
	tail string
}

var DefaultNameMinifier = NameMinifier{
	head: "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_$",
	tail: "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_$",
}

// NumberToMinifiedName maps a dense integer priority to a name: 0 through
// 53 are single characters from head (identifiers may not start with a
// digit), after which additional characters from the wider tail alphabet
// are appended.
func (m *NameMinifier) NumberToMinifiedName(i int) string {
	j := i % len(m.head)
	name := m.head[j : j+1]
	i /= len(m.head)

	for i > 0 {
		i--
		j := i % len(m.tail)
		name += m.tail[j : j+1]
		i /= len(m.tail)
	}

	return name
}
