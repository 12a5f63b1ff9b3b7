package poolref

import (
	"testing"

	"github.com/go-krakatau/krak/constpool"
)

func TestDirectRefIsAlreadyResolved(t *testing.T) {
	r := NewDirect(7)
	idx, err := r.ToIndex(nil, nil)
	if err != nil || idx != 7 {
		t.Fatalf("ToIndex = %d, %v, want 7, nil", idx, err)
	}
}

func TestStructuralRefResolvesSubRefsBeforeInterning(t *testing.T) {
	h := constpool.NewHandle(constpool.NewBasicPool())
	nameIdx := h.Utf8("x")
	name := NewDirect(nameIdx)
	typeIdx := h.Utf8("I")
	typ := NewDirect(typeIdx)

	nat := NewStructural(constpool.TagNameAndType, name, typ)
	idx, err := nat.ToIndex(h, nil)
	if err != nil {
		t.Fatalf("ToIndex: %v", err)
	}

	idx2, err := nat.ToIndex(h, nil)
	if err != nil || idx2 != idx {
		t.Fatalf("ToIndex memoized = %d, %v, want %d, nil", idx2, err, idx)
	}
}

func TestLabelledRefResolvesThroughHandle(t *testing.T) {
	h := constpool.NewHandle(constpool.NewBasicPool())
	target := NewDirect(h.Utf8("hello"))
	h.BindLabel("L", target)

	r := NewLabelled("L")
	idx, err := r.ToIndex(h, nil)
	if err != nil {
		t.Fatalf("ToIndex: %v", err)
	}
	if idx != target.Index {
		t.Fatalf("ToIndex = %d, want %d", idx, target.Index)
	}
}

func TestLabelledRefPropagatesCycleError(t *testing.T) {
	h := constpool.NewHandle(constpool.NewBasicPool())
	h.BindLabel("a", NewLabelled("a"))

	r := NewLabelled("a")
	if _, err := r.ToIndex(h, nil); err == nil {
		t.Fatalf("ToIndex: want a cycle error, got nil")
	}
}
