package restruct

import (
	"testing"

	"github.com/go-krakatau/krak/cfg"
	"github.com/go-krakatau/krak/domtree"
)

// TestMergeTriesCombinesCompatibleSameHandlerTries builds two
// try-constraints guarding the same handler with the same caught
// variable and checks MergeTries folds them into one, widening the
// guarded region to cover both try scopes.
func TestMergeTriesCombinesCompatibleSameHandlerTries(t *testing.T) {
	g := cfg.New()
	try1 := g.AddNode(cfg.TermGoto)
	try2 := g.AddNode(cfg.TermGoto)
	handler := g.AddNode(cfg.TermReturn)
	join := g.AddNode(cfg.TermReturn)
	g.AddEdge(try1.ID, try2.ID)
	g.AddEdge(try2.ID, join.ID)

	info := domtree.Build(g, try1.ID)
	u := cfg.NewUniverse(flatHierarchy{}, []string{"IOException"})
	cset := u.FromTypes("IOException")

	c1 := &Constraint{
		ID:  0,
		Tag: TagTry,
		Scopes: []*Scope{
			{Entry: try1.ID, Lbound: newSet(try1.ID), Ubound: NodeSet(info.Area(try1.ID))},
			{Entry: handler.ID, Lbound: newSet(handler.ID), Ubound: NodeSet(info.Area(handler.ID))},
		},
		CSet:      cset,
		Forbidden: map[cfg.NodeID]*cfg.ExceptionSet{},
	}
	c1.recomputeAggregate()
	c2 := &Constraint{
		ID:  1,
		Tag: TagTry,
		Scopes: []*Scope{
			{Entry: try2.ID, Lbound: newSet(try2.ID), Ubound: NodeSet(info.Area(try2.ID))},
			{Entry: handler.ID, Lbound: newSet(handler.ID), Ubound: NodeSet(info.Area(handler.ID))},
		},
		CSet:      cset,
		Forbidden: map[cfg.NodeID]*cfg.ExceptionSet{},
	}
	c2.recomputeAggregate()

	merged := MergeTries(g, info, []*Constraint{c1, c2})
	if len(merged) != 1 {
		t.Fatalf("merged = %+v, want the two tries folded into one", merged)
	}
	m := merged[0]
	if !m.Scopes[0].Lbound[try1.ID] || !m.Scopes[0].Lbound[try2.ID] {
		t.Fatalf("merged try scope Lbound = %v, want both try1 and try2", m.Scopes[0].Lbound)
	}
}

// TestMergeTriesLeavesIncompatibleSetsApart checks that two
// same-handler tries with different exception sets are NOT merged.
func TestMergeTriesLeavesIncompatibleSetsApart(t *testing.T) {
	g := cfg.New()
	try1 := g.AddNode(cfg.TermGoto)
	try2 := g.AddNode(cfg.TermGoto)
	handler := g.AddNode(cfg.TermReturn)
	g.AddEdge(try1.ID, try2.ID)

	info := domtree.Build(g, try1.ID)
	u := cfg.NewUniverse(flatHierarchy{}, []string{"IOException", "RuntimeException"})

	c1 := &Constraint{
		ID: 0, Tag: TagTry,
		Scopes: []*Scope{
			{Entry: try1.ID, Lbound: newSet(try1.ID), Ubound: NodeSet(info.Area(try1.ID))},
			{Entry: handler.ID, Lbound: newSet(handler.ID), Ubound: NodeSet(info.Area(handler.ID))},
		},
		CSet: u.FromTypes("IOException"), Forbidden: map[cfg.NodeID]*cfg.ExceptionSet{},
	}
	c1.recomputeAggregate()
	c2 := &Constraint{
		ID: 1, Tag: TagTry,
		Scopes: []*Scope{
			{Entry: try2.ID, Lbound: newSet(try2.ID), Ubound: NodeSet(info.Area(try2.ID))},
			{Entry: handler.ID, Lbound: newSet(handler.ID), Ubound: NodeSet(info.Area(handler.ID))},
		},
		CSet: u.FromTypes("RuntimeException"), Forbidden: map[cfg.NodeID]*cfg.ExceptionSet{},
	}
	c2.recomputeAggregate()

	merged := MergeTries(g, info, []*Constraint{c1, c2})
	if len(merged) != 2 {
		t.Fatalf("merged = %+v, want both tries kept apart", merged)
	}
}

// TestMergeTriesUnionsNestedExceptionSets checks that two same-handler
// tries whose exception sets are in a strict subset relation (rather
// than equal) still merge, and that the merged set is the union of
// both — not either input's set alone (spec.md §8 property S4).
func TestMergeTriesUnionsNestedExceptionSets(t *testing.T) {
	g := cfg.New()
	try1 := g.AddNode(cfg.TermGoto)
	try2 := g.AddNode(cfg.TermGoto)
	handler := g.AddNode(cfg.TermReturn)
	g.AddEdge(try1.ID, try2.ID)

	info := domtree.Build(g, try1.ID)
	h := flatHierarchy{parent: map[string]string{"RuntimeException": "IOException"}}
	u := cfg.NewUniverse(h, []string{"IOException", "RuntimeException"})
	narrow := u.FromTypes("RuntimeException")
	wide := u.FromTypes("IOException")
	if !narrow.Subset(wide) || narrow.Equal(wide) {
		t.Fatalf("test setup: want narrow to be a strict subset of wide")
	}

	c1 := &Constraint{
		ID: 0, Tag: TagTry,
		Scopes: []*Scope{
			{Entry: try1.ID, Lbound: newSet(try1.ID), Ubound: NodeSet(info.Area(try1.ID))},
			{Entry: handler.ID, Lbound: newSet(handler.ID), Ubound: NodeSet(info.Area(handler.ID))},
		},
		CSet:       narrow,
		Forbidden:  map[cfg.NodeID]*cfg.ExceptionSet{},
		ForcedUp:   map[*Constraint]bool{},
		ForcedDown: map[*Constraint]bool{},
	}
	c1.recomputeAggregate()
	c2 := &Constraint{
		ID: 1, Tag: TagTry,
		Scopes: []*Scope{
			{Entry: try2.ID, Lbound: newSet(try2.ID), Ubound: NodeSet(info.Area(try2.ID))},
			{Entry: handler.ID, Lbound: newSet(handler.ID), Ubound: NodeSet(info.Area(handler.ID))},
		},
		CSet:       wide,
		Forbidden:  map[cfg.NodeID]*cfg.ExceptionSet{},
		ForcedUp:   map[*Constraint]bool{},
		ForcedDown: map[*Constraint]bool{},
	}
	c2.recomputeAggregate()
	seedTryOrder([]*Constraint{c1, c2})

	merged := MergeTries(g, info, []*Constraint{c1, c2})
	if len(merged) != 1 {
		t.Fatalf("merged = %+v, want the nested tries folded into one", merged)
	}
	if !merged[0].CSet.Equal(wide) {
		t.Fatalf("merged CSet = %v, want the union (equal to the wider input)", merged[0].CSet)
	}
}
