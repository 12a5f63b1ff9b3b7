package restruct

import (
	"testing"

	"github.com/go-krakatau/krak/cfg"
)

// TestInsertBreakScopesPicksMostFrequentExit builds a constraint whose
// Ubound has two interior nodes both exiting to the same target, plus a
// third exiting elsewhere, and checks the shared target wins as the
// primary (most frequent) exit.
func TestInsertBreakScopesPicksMostFrequentExit(t *testing.T) {
	g := cfg.New()
	a := g.AddNode(cfg.TermGoto)
	b := g.AddNode(cfg.TermGoto)
	c := g.AddNode(cfg.TermGoto)
	common := g.AddNode(cfg.TermReturn)
	rare := g.AddNode(cfg.TermReturn)
	g.AddEdge(a.ID, common.ID)
	g.AddEdge(b.ID, common.ID)
	g.AddEdge(c.ID, rare.ID)

	con := &Constraint{ID: 0, Tag: TagScope, Ubound: newSet(a.ID, b.ID, c.ID)}
	primary := InsertBreakScopes(g, []*Constraint{con})

	if got := primary[con]; got != common.ID {
		t.Fatalf("primary = %d, want the 2-vote exit %d", got, common.ID)
	}
}

func TestLeavesFirstOrdersChildrenBeforeParent(t *testing.T) {
	parent := &Constraint{ID: 0}
	child := &Constraint{ID: 1, Parent: parent}
	parent.Children = []*Constraint{child}

	order := leavesFirst([]*Constraint{parent, child})
	if len(order) != 2 || order[0] != child || order[1] != parent {
		t.Fatalf("leavesFirst = %v, want [child, parent]", order)
	}
}
