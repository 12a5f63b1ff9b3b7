package restruct

import (
	"testing"

	"github.com/go-krakatau/krak/cfg"
)

// TestCompleteScopeStopsAtLoopExit is the motivating case for isLoopy:
// a while-body scope (Entry=head, Ubound={head,body,exit}) must grow to
// include body (reachable back to head) but never exit (a dead end that
// cannot reach back to head), or it would collide with the sibling if's
// Lbound once both get built around the same nodes.
func TestCompleteScopeStopsAtLoopExit(t *testing.T) {
	g := cfg.New()
	head := g.AddNode(cfg.TermIf)
	body := g.AddNode(cfg.TermGoto)
	exit := g.AddNode(cfg.TermReturn)
	g.AddEdge(head.ID, body.ID)
	g.AddEdge(head.ID, exit.ID)
	g.AddEdge(body.ID, head.ID)

	s := &Scope{Lbound: newSet(head.ID), Ubound: newSet(head.ID, body.ID, exit.ID), Entry: head.ID}
	CompleteScope(g, s)

	if !s.Lbound[head.ID] || !s.Lbound[body.ID] {
		t.Fatalf("Lbound = %v, want head and body", s.Lbound)
	}
	if s.Lbound[exit.ID] {
		t.Fatalf("Lbound = %v, must not include the loop's exit node", s.Lbound)
	}
}

// TestCompleteScopeGrowsPlainForwardChain checks ordinary (non-loop)
// forward closure still works: a straight chain with no back edge grows
// Lbound all the way to Ubound.
func TestCompleteScopeGrowsPlainForwardChain(t *testing.T) {
	g := cfg.New()
	a := g.AddNode(cfg.TermGoto)
	b := g.AddNode(cfg.TermGoto)
	c := g.AddNode(cfg.TermReturn)
	g.AddEdge(a.ID, b.ID)
	g.AddEdge(b.ID, c.ID)

	s := &Scope{Lbound: newSet(a.ID), Ubound: newSet(a.ID, b.ID, c.ID), Entry: a.ID}
	CompleteScope(g, s)

	for _, n := range []cfg.NodeID{a.ID, b.ID, c.ID} {
		if !s.Lbound[n] {
			t.Fatalf("Lbound = %v, want the whole chain %v", s.Lbound, []cfg.NodeID{a.ID, b.ID, c.ID})
		}
	}
}
