package restruct

import (
	"testing"

	"github.com/go-krakatau/krak/cfg"
	"github.com/go-krakatau/krak/krakerr"
)

func newIfConstraint(id int, head cfg.NodeID, armLbound ...cfg.NodeID) *Constraint {
	var scopes []*Scope
	for _, n := range armLbound {
		scopes = append(scopes, &Scope{Lbound: newSet(n), Ubound: newSet(n), Entry: n})
	}
	c := &Constraint{ID: id, Tag: TagIf, Head: head, Scopes: scopes}
	c.recomputeAggregate()
	return c
}

// TestOrderNestsByUboundContainment checks that a constraint whose
// Ubound is a strict subset of another's becomes that constraint's
// child.
func TestOrderNestsByUboundContainment(t *testing.T) {
	inner := newIfConstraint(0, 1, 2, 3)
	outer := &Constraint{ID: 1, Tag: TagScope, Lbound: newSet(1, 2, 3, 4), Ubound: newSet(0, 1, 2, 3, 4)}

	roots, err := Order([]*Constraint{inner, outer})
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if len(roots) != 1 || roots[0] != outer {
		t.Fatalf("roots = %v, want just outer", roots)
	}
	if len(outer.Children) != 1 || outer.Children[0] != inner {
		t.Fatalf("outer.Children = %v, want [inner]", outer.Children)
	}
	if inner.Parent != outer {
		t.Fatalf("inner.Parent = %v, want outer", inner.Parent)
	}
}

// TestOrderRejectsOverlappingSiblings checks that two constraints at the
// same nesting level with intersecting Lbound produce StructuringFailed
// rather than a silently malformed tree.
func TestOrderRejectsOverlappingSiblings(t *testing.T) {
	a := newIfConstraint(0, 1, 2, 3)
	b := newIfConstraint(1, 10, 3, 4) // shares node 3 with a

	_, err := Order([]*Constraint{a, b})
	if err == nil {
		t.Fatalf("Order: want an error for overlapping siblings, got nil")
	}
	kerr, ok := err.(*krakerr.Error)
	if !ok || kerr.Kind != krakerr.StructuringFailed {
		t.Fatalf("err = %v, want krakerr.StructuringFailed", err)
	}
}

// TestEnclosingRankPrefersLoopAsParent checks that when a while and an
// if tie on Ubound size, the while sorts after the if so Order picks it
// as the parent (spec.md §4.9: the loop wraps the branch deciding
// whether to continue).
func TestEnclosingRankPrefersLoopAsParent(t *testing.T) {
	whileC := &Constraint{ID: 0, Tag: TagWhile, Lbound: newSet(1, 2), Ubound: newSet(1, 2, 3)}
	ifC := newIfConstraint(1, 1, 2)
	ifC.Ubound = newSet(1, 2, 3)

	cs := []*Constraint{whileC, ifC}
	sortByUboundSize(cs)
	if cs[0] != ifC || cs[1] != whileC {
		t.Fatalf("sorted = %v, want [if, while] so while is found as if's parent", cs)
	}
}
