package domtree

import (
	"reflect"
	"testing"

	"github.com/go-krakatau/krak/cfg"
)

// diamond builds entry -> {a, b} -> merge -> exit.
func diamond() (*cfg.Graph, cfg.NodeID, cfg.NodeID, cfg.NodeID, cfg.NodeID, cfg.NodeID) {
	g := cfg.New()
	entry := g.AddNode(cfg.TermIf)
	a := g.AddNode(cfg.TermGoto)
	b := g.AddNode(cfg.TermGoto)
	merge := g.AddNode(cfg.TermGoto)
	exit := g.AddNode(cfg.TermReturn)
	g.AddEdge(entry.ID, a.ID)
	g.AddEdge(entry.ID, b.ID)
	g.AddEdge(a.ID, merge.ID)
	g.AddEdge(b.ID, merge.ID)
	g.AddEdge(merge.ID, exit.ID)
	return g, entry.ID, a.ID, b.ID, merge.ID, exit.ID
}

func TestDominatorsOfMergeIsEntryThenMerge(t *testing.T) {
	g, entry, _, _, merge, _ := diamond()
	info := Build(g, entry)

	got := info.Dominators(merge)
	want := []cfg.NodeID{entry, merge}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Dominators(merge) = %v, want %v", got, want)
	}
}

func TestCommonDominatorOfArmsIsEntry(t *testing.T) {
	g, entry, a, b, _, _ := diamond()
	info := Build(g, entry)

	if got := info.CommonDominator([]cfg.NodeID{a, b}); got != entry {
		t.Fatalf("CommonDominator(a, b) = %d, want entry %d", got, entry)
	}
}

func TestAreaOfEntryIsWholeGraph(t *testing.T) {
	g, entry, a, b, merge, exit := diamond()
	info := Build(g, entry)

	area := info.Area(entry)
	for _, n := range []cfg.NodeID{entry, a, b, merge, exit} {
		if !area[n] {
			t.Fatalf("Area(entry) missing node %d", n)
		}
	}
}

func TestAreaOfArmExcludesTheOtherArm(t *testing.T) {
	g, entry, a, b, _, _ := diamond()
	info := Build(g, entry)

	area := info.Area(a)
	if area[b] {
		t.Fatalf("Area(a) should not include the other branch %d", b)
	}
	if !area[a] {
		t.Fatalf("Area(a) should include a itself")
	}
}

func TestExtendOfBothArmsReachesCommonDominator(t *testing.T) {
	g, entry, a, b, _, _ := diamond()
	info := Build(g, entry)

	ext := info.Extend(g, []cfg.NodeID{a, b})
	if !ext[entry] {
		t.Fatalf("Extend(a, b) should include the common dominator %d", entry)
	}
	if !ext[a] || !ext[b] {
		t.Fatalf("Extend(a, b) should include both nodes")
	}
}
