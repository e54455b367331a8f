package collab

import (
	"encoding/json"
	"testing"
)

func TestOpApply(t *testing.T) {
	op := (&Op{}).Retain(5).Insert(" cruel").Retain(7)
	out, err := op.Apply("hello world!")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out != "hello cruel world!" {
		t.Fatalf("unexpected result %q", out)
	}
}

func TestOpApplyDelete(t *testing.T) {
	op := (&Op{}).Retain(6).Delete(5).Insert("there")
	out, err := op.Apply("hello world")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out != "hello there" {
		t.Fatalf("unexpected result %q", out)
	}
}

func TestOpApplyLengthMismatch(t *testing.T) {
	op := (&Op{}).Retain(3)
	if _, err := op.Apply("hello"); err == nil {
		t.Fatalf("expected error for base length mismatch")
	}
}

func TestOpApplyUnicode(t *testing.T) {
	op := (&Op{}).Retain(2).Insert("é").Retain(2)
	out, err := op.Apply("añbc")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out != "añébc" {
		t.Fatalf("unexpected result %q", out)
	}
}

// Applying a then b' must give the same document as b then a'.
func TestTransformConvergence(t *testing.T) {
	doc := "hello world"
	cases := []struct {
		name string
		a, b *Op
	}{
		{
			name: "concurrent inserts",
			a:    (&Op{}).Retain(5).Insert("!").Retain(6),
			b:    (&Op{}).Retain(11).Insert("?"),
		},
		{
			name: "insert at same position",
			a:    (&Op{}).Retain(5).Insert("A").Retain(6),
			b:    (&Op{}).Retain(5).Insert("B").Retain(6),
		},
		{
			name: "insert vs delete",
			a:    (&Op{}).Retain(5).Insert(" there").Retain(6),
			b:    (&Op{}).Retain(5).Delete(6),
		},
		{
			name: "overlapping deletes",
			a:    (&Op{}).Retain(3).Delete(5).Retain(3),
			b:    (&Op{}).Retain(5).Delete(6),
		},
		{
			name: "delete everything vs edit",
			a:    (&Op{}).Delete(11),
			b:    (&Op{}).Retain(6).Insert("big ").Retain(5),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a1, b1, err := Transform(*tc.a, *tc.b)
			if err != nil {
				t.Fatalf("transform: %v", err)
			}

			afterA, err := tc.a.Apply(doc)
			if err != nil {
				t.Fatalf("apply a: %v", err)
			}
			left, err := b1.Apply(afterA)
			if err != nil {
				t.Fatalf("apply b': %v", err)
			}

			afterB, err := tc.b.Apply(doc)
			if err != nil {
				t.Fatalf("apply b: %v", err)
			}
			right, err := a1.Apply(afterB)
			if err != nil {
				t.Fatalf("apply a': %v", err)
			}

			if left != right {
				t.Fatalf("diverged: %q vs %q", left, right)
			}
		})
	}
}

func TestTransformInsertTieBreak(t *testing.T) {
	a := (&Op{}).Retain(2).Insert("A").Retain(2)
	b := (&Op{}).Retain(2).Insert("B").Retain(2)
	a1, b1, err := Transform(*a, *b)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	afterA, _ := a.Apply("wxyz")
	out, err := b1.Apply(afterA)
	if err != nil {
		t.Fatalf("apply b': %v", err)
	}
	if out != "wxAByz" {
		t.Fatalf("expected a's insert first, got %q", out)
	}
	afterB, _ := b.Apply("wxyz")
	if out2, _ := a1.Apply(afterB); out2 != out {
		t.Fatalf("diverged: %q vs %q", out, out2)
	}
}

func TestTransformBaseLengthMismatch(t *testing.T) {
	a := (&Op{}).Retain(3)
	b := (&Op{}).Retain(4)
	if _, _, err := Transform(*a, *b); err == nil {
		t.Fatalf("expected error for mismatched base lengths")
	}
}

func TestCompose(t *testing.T) {
	doc := "hello"
	a := (&Op{}).Retain(5).Insert(" world")
	b := (&Op{}).Retain(11).Insert("!")

	ab, err := Compose(*a, *b)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	step, _ := a.Apply(doc)
	want, _ := b.Apply(step)
	got, err := ab.Apply(doc)
	if err != nil {
		t.Fatalf("apply composed: %v", err)
	}
	if got != want {
		t.Fatalf("composed op gave %q, want %q", got, want)
	}
}

func TestComposeInsertThenDelete(t *testing.T) {
	// b deletes part of what a inserted.
	a := (&Op{}).Retain(2).Insert("abc").Retain(2)
	b := (&Op{}).Retain(2).Delete(2).Retain(3)

	ab, err := Compose(*a, *b)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	got, err := ab.Apply("wxyz")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got != "wxcyz" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestComposeLengthMismatch(t *testing.T) {
	a := (&Op{}).Retain(3)
	b := (&Op{}).Retain(5)
	if _, err := Compose(*a, *b); err == nil {
		t.Fatalf("expected error for mismatched lengths")
	}
}

func TestTransformPosition(t *testing.T) {
	op := (&Op{}).Retain(3).Insert("ab").Retain(4)
	if got := op.TransformPosition(2); got != 2 {
		t.Fatalf("position before insert moved to %d", got)
	}
	if got := op.TransformPosition(5); got != 7 {
		t.Fatalf("position after insert: got %d, want 7", got)
	}

	del := (&Op{}).Retain(2).Delete(3).Retain(2)
	if got := del.TransformPosition(6); got != 3 {
		t.Fatalf("position after delete: got %d, want 3", got)
	}
	if got := del.TransformPosition(3); got != 2 {
		t.Fatalf("position inside deleted span: got %d, want 2", got)
	}
}

func TestOpWireFormat(t *testing.T) {
	op := (&Op{}).Retain(3).Insert("hi").Delete(2)
	data, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[3,"hi",-2]` {
		t.Fatalf("unexpected wire form %s", data)
	}

	var decoded Op
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.BaseLen != 5 || decoded.TargetLen != 5 {
		t.Fatalf("decoded lengths base=%d target=%d", decoded.BaseLen, decoded.TargetLen)
	}
	if len(decoded.Components) != 3 {
		t.Fatalf("decoded %d components", len(decoded.Components))
	}
}

func TestOpWireFormatRejectsZero(t *testing.T) {
	var op Op
	if err := json.Unmarshal([]byte(`[3,0]`), &op); err == nil {
		t.Fatalf("expected error for zero component")
	}
}

func TestInsertCanonicalOrder(t *testing.T) {
	// Delete then insert normalizes to insert before delete.
	a := (&Op{}).Retain(1).Delete(2).Insert("x")
	b := (&Op{}).Retain(1).Insert("x").Delete(2)
	outA, err := a.Apply("abc")
	if err != nil {
		t.Fatalf("apply a: %v", err)
	}
	outB, err := b.Apply("abc")
	if err != nil {
		t.Fatalf("apply b: %v", err)
	}
	if outA != outB {
		t.Fatalf("canonical forms differ: %q vs %q", outA, outB)
	}
	dataA, _ := json.Marshal(a)
	dataB, _ := json.Marshal(b)
	if string(dataA) != string(dataB) {
		t.Fatalf("wire forms differ: %s vs %s", dataA, dataB)
	}
}
