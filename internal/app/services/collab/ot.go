package collab

import (
	"encoding/json"
	"fmt"
)

// Component is one step of an operation. Exactly one field is set: Retain
// skips runes, Insert adds text, Delete removes runes.
type Component struct {
	Retain int
	Delete int
	Insert string
}

func (c Component) isRetain() bool { return c.Retain > 0 }
func (c Component) isDelete() bool { return c.Delete > 0 }
func (c Component) isInsert() bool { return c.Insert != "" }

// Op is a text operation: a sequence of components that consumes a document
// of exactly BaseLen runes and produces one of TargetLen runes.
type Op struct {
	Components []Component
	BaseLen    int
	TargetLen  int
}

// Retain appends a retain, merging with a trailing retain.
func (op *Op) Retain(n int) *Op {
	if n <= 0 {
		return op
	}
	op.BaseLen += n
	op.TargetLen += n
	if l := len(op.Components); l > 0 && op.Components[l-1].isRetain() {
		op.Components[l-1].Retain += n
		return op
	}
	op.Components = append(op.Components, Component{Retain: n})
	return op
}

// Insert appends an insert, merging with a trailing insert.
func (op *Op) Insert(s string) *Op {
	if s == "" {
		return op
	}
	op.TargetLen += runeLen(s)
	l := len(op.Components)
	if l > 0 && op.Components[l-1].isInsert() {
		op.Components[l-1].Insert += s
		return op
	}
	// Keep inserts before a trailing delete so equivalent ops have one
	// canonical form.
	if l > 0 && op.Components[l-1].isDelete() {
		if l > 1 && op.Components[l-2].isInsert() {
			op.Components[l-2].Insert += s
			return op
		}
		op.Components = append(op.Components, op.Components[l-1])
		op.Components[l-1] = Component{Insert: s}
		return op
	}
	op.Components = append(op.Components, Component{Insert: s})
	return op
}

// Delete appends a delete, merging with a trailing delete.
func (op *Op) Delete(n int) *Op {
	if n <= 0 {
		return op
	}
	op.BaseLen += n
	if l := len(op.Components); l > 0 && op.Components[l-1].isDelete() {
		op.Components[l-1].Delete += n
		return op
	}
	op.Components = append(op.Components, Component{Delete: n})
	return op
}

// IsNoop reports whether the operation changes nothing.
func (op *Op) IsNoop() bool {
	return len(op.Components) == 0 || (len(op.Components) == 1 && op.Components[0].isRetain())
}

// Apply runs the operation against a document.
func (op *Op) Apply(doc string) (string, error) {
	runes := []rune(doc)
	if len(runes) != op.BaseLen {
		return "", fmt.Errorf("operation base length %d does not match document length %d", op.BaseLen, len(runes))
	}

	out := make([]rune, 0, op.TargetLen)
	pos := 0
	for _, c := range op.Components {
		switch {
		case c.isRetain():
			if pos+c.Retain > len(runes) {
				return "", fmt.Errorf("retain past end of document")
			}
			out = append(out, runes[pos:pos+c.Retain]...)
			pos += c.Retain
		case c.isInsert():
			out = append(out, []rune(c.Insert)...)
		case c.isDelete():
			if pos+c.Delete > len(runes) {
				return "", fmt.Errorf("delete past end of document")
			}
			pos += c.Delete
		}
	}
	if pos != len(runes) {
		return "", fmt.Errorf("operation consumed %d of %d runes", pos, len(runes))
	}
	return string(out), nil
}

// Transform takes two operations a and b made against the same document
// state and produces (a', b') such that applying a then b' yields the same
// document as b then a'. Concurrent inserts at the same position resolve
// with a's insert first.
func Transform(a, b Op) (Op, Op, error) {
	if a.BaseLen != b.BaseLen {
		return Op{}, Op{}, fmt.Errorf("cannot transform operations with base lengths %d and %d", a.BaseLen, b.BaseLen)
	}

	var a1, b1 Op
	as, bs := a.Components, b.Components
	var ca, cb Component
	nextA := func() bool {
		if len(as) == 0 {
			ca = Component{}
			return false
		}
		ca, as = as[0], as[1:]
		return true
	}
	nextB := func() bool {
		if len(bs) == 0 {
			cb = Component{}
			return false
		}
		cb, bs = bs[0], bs[1:]
		return true
	}
	haveA := nextA()
	haveB := nextB()

	for haveA || haveB {
		// Inserts go first; a wins ties.
		if haveA && ca.isInsert() {
			a1.Insert(ca.Insert)
			b1.Retain(runeLen(ca.Insert))
			haveA = nextA()
			continue
		}
		if haveB && cb.isInsert() {
			a1.Retain(runeLen(cb.Insert))
			b1.Insert(cb.Insert)
			haveB = nextB()
			continue
		}
		if !haveA || !haveB {
			return Op{}, Op{}, fmt.Errorf("cannot transform operations: length mismatch")
		}

		switch {
		case ca.isRetain() && cb.isRetain():
			n := min(ca.Retain, cb.Retain)
			a1.Retain(n)
			b1.Retain(n)
			ca.Retain -= n
			cb.Retain -= n
		case ca.isDelete() && cb.isDelete():
			// Both deleted the same span; nothing to emit.
			n := min(ca.Delete, cb.Delete)
			ca.Delete -= n
			cb.Delete -= n
		case ca.isDelete() && cb.isRetain():
			n := min(ca.Delete, cb.Retain)
			a1.Delete(n)
			ca.Delete -= n
			cb.Retain -= n
		case ca.isRetain() && cb.isDelete():
			n := min(ca.Retain, cb.Delete)
			b1.Delete(n)
			ca.Retain -= n
			cb.Delete -= n
		default:
			return Op{}, Op{}, fmt.Errorf("cannot transform operations: incompatible components")
		}
		if ca == (Component{}) {
			haveA = nextA()
		}
		if cb == (Component{}) {
			haveB = nextB()
		}
	}

	return a1, b1, nil
}

// Compose merges two consecutive operations into one with the same effect.
// b must apply to the output of a.
func Compose(a, b Op) (Op, error) {
	if a.TargetLen != b.BaseLen {
		return Op{}, fmt.Errorf("cannot compose: target length %d does not match base length %d", a.TargetLen, b.BaseLen)
	}

	var out Op
	as, bs := a.Components, b.Components
	var ca, cb Component
	nextA := func() bool {
		if len(as) == 0 {
			ca = Component{}
			return false
		}
		ca, as = as[0], as[1:]
		return true
	}
	nextB := func() bool {
		if len(bs) == 0 {
			cb = Component{}
			return false
		}
		cb, bs = bs[0], bs[1:]
		return true
	}
	haveA := nextA()
	haveB := nextB()

	for haveA || haveB {
		if haveA && ca.isDelete() {
			out.Delete(ca.Delete)
			haveA = nextA()
			continue
		}
		if haveB && cb.isInsert() {
			out.Insert(cb.Insert)
			haveB = nextB()
			continue
		}
		if !haveA || !haveB {
			return Op{}, fmt.Errorf("cannot compose operations: length mismatch")
		}

		switch {
		case ca.isRetain() && cb.isRetain():
			n := min(ca.Retain, cb.Retain)
			out.Retain(n)
			ca.Retain -= n
			cb.Retain -= n
		case ca.isRetain() && cb.isDelete():
			n := min(ca.Retain, cb.Delete)
			out.Delete(n)
			ca.Retain -= n
			cb.Delete -= n
		case ca.isInsert() && cb.isRetain():
			text := []rune(ca.Insert)
			n := min(len(text), cb.Retain)
			out.Insert(string(text[:n]))
			ca.Insert = string(text[n:])
			cb.Retain -= n
		case ca.isInsert() && cb.isDelete():
			// b deletes text a inserted; it never existed.
			text := []rune(ca.Insert)
			n := min(len(text), cb.Delete)
			ca.Insert = string(text[n:])
			cb.Delete -= n
		default:
			return Op{}, fmt.Errorf("cannot compose operations: incompatible components")
		}
		if ca == (Component{}) {
			haveA = nextA()
		}
		if cb == (Component{}) {
			haveB = nextB()
		}
	}

	return out, nil
}

// TransformPosition maps a cursor position through the operation. Positions
// are in runes relative to the operation's base document.
func (op *Op) TransformPosition(pos int) int {
	newPos := pos
	basePos := 0
	for _, c := range op.Components {
		if basePos > pos {
			break
		}
		switch {
		case c.isRetain():
			basePos += c.Retain
		case c.isInsert():
			if basePos <= pos {
				newPos += runeLen(c.Insert)
			}
		case c.isDelete():
			if basePos < pos {
				newPos -= min(c.Delete, pos-basePos)
			}
			basePos += c.Delete
		}
	}
	return newPos
}

// MarshalJSON encodes the operation in the compact wire form: a positive
// integer retains, a string inserts, a negative integer deletes.
func (op Op) MarshalJSON() ([]byte, error) {
	wire := make([]any, 0, len(op.Components))
	for _, c := range op.Components {
		switch {
		case c.isRetain():
			wire = append(wire, c.Retain)
		case c.isInsert():
			wire = append(wire, c.Insert)
		case c.isDelete():
			wire = append(wire, -c.Delete)
		}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the compact wire form.
func (op *Op) UnmarshalJSON(data []byte) error {
	var wire []json.RawMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*op = Op{}
	for _, raw := range wire {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			op.Insert(s)
			continue
		}
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("invalid operation component %s", string(raw))
		}
		switch {
		case n > 0:
			op.Retain(n)
		case n < 0:
			op.Delete(-n)
		default:
			return fmt.Errorf("invalid zero-length component")
		}
	}
	return nil
}

func runeLen(s string) int { return len([]rune(s)) }

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
