package restruct

import (
	"testing"

	"github.com/go-krakatau/krak/cfg"
)

type flatHierarchy struct{ parent map[string]string }

func (h flatHierarchy) IsSubtype(sub, sup string) bool {
	for sub != "" {
		if sub == sup {
			return true
		}
		sub = h.parent[sub]
	}
	return false
}

// TestStructureExceptionsSplitsByTopType builds a throwing node with one
// handler catching two unrelated top-level types (via a pre-merged
// ExceptionSet, as a parser would produce for a multi-catch) and checks
// it gets split into one dummy+edge per top type.
func TestStructureExceptionsSplitsByTopType(t *testing.T) {
	h := flatHierarchy{parent: map[string]string{}}
	u := cfg.NewUniverse(h, []string{"IOException", "RuntimeException"})

	g := cfg.New()
	thrower := g.AddNode(cfg.TermOnException)
	handler := g.AddNode(cfg.TermGoto)
	g.AddEdge(thrower.ID, handler.ID)
	thrower.Handlers[handler.ID] = u.FromTypes("IOException", "RuntimeException")
	thrower.EAssigns[handler.ID] = []cfg.Value{"exc"}

	nodes := newSet(thrower.ID, handler.ID)
	edges := StructureExceptions(g, nodes)

	if len(edges) != 2 {
		t.Fatalf("edges = %v, want one per top type", edges)
	}
	tops := map[string]bool{}
	for _, e := range edges {
		tops[e.Top] = true
		if e.Source != thrower.ID || e.Target != handler.ID {
			t.Fatalf("edge = %+v, want Source=thrower Target=handler", e)
		}
		if e.CaughtVar != cfg.Value("exc") {
			t.Fatalf("edge.CaughtVar = %v, want %q", e.CaughtVar, "exc")
		}
	}
	if !tops["IOException"] || !tops["RuntimeException"] {
		t.Fatalf("tops = %v, want both IOException and RuntimeException", tops)
	}
	if len(thrower.Handlers) != 0 {
		t.Fatalf("thrower.Handlers = %v, want empty (direct edge detached)", thrower.Handlers)
	}
	if len(thrower.Succs) != 2 {
		t.Fatalf("thrower.Succs = %v, want one dummy per top type", thrower.Succs)
	}
}

func TestStructureExceptionsDropsEmptySet(t *testing.T) {
	h := flatHierarchy{parent: map[string]string{}}
	u := cfg.NewUniverse(h, []string{"IOException"})

	g := cfg.New()
	thrower := g.AddNode(cfg.TermOnException)
	handler := g.AddNode(cfg.TermGoto)
	g.AddEdge(thrower.ID, handler.ID)
	thrower.Handlers[handler.ID] = u.Empty()

	edges := StructureExceptions(g, newSet(thrower.ID, handler.ID))
	if len(edges) != 0 {
		t.Fatalf("edges = %v, want none for an empty handler set", edges)
	}
	if len(thrower.Handlers) != 0 {
		t.Fatalf("thrower.Handlers = %v, want the empty entry removed", thrower.Handlers)
	}
}
