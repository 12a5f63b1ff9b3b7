package restruct

import (
	"github.com/go-krakatau/krak/cfg"
	"github.com/go-krakatau/krak/domtree"
)

// Build turns one pass's loop heads, split exception edges, and
// remaining if/switch heads into the unordered Constraint set
// (spec.md §4.9 "Build"). Every Constraint gets a strictly increasing
// ID in the order it was built, used only to break ties deterministically
// later.
func Build(g *cfg.Graph, info *domtree.Info, nodes NodeSet, heads NodeSet, edges []ExceptionEdge) []*Constraint {
	next := 0
	alloc := func() int {
		id := next
		next++
		return id
	}

	var out []*Constraint

	for _, h := range sortedIDs(heads) {
		body := NodeSet(info.Area(h))
		scope := &Scope{Lbound: newSet(h), Ubound: body, Entry: h}
		c := &Constraint{ID: alloc(), Tag: TagWhile, Scopes: []*Scope{scope}}
		c.recomputeAggregate()
		out = append(out, c)
	}

	var tries []*Constraint
	for _, e := range edges {
		trySc := &Scope{Lbound: newSet(e.Source), Ubound: NodeSet(info.Area(e.Source)), Entry: e.Source}
		catchSc := &Scope{Lbound: newSet(e.Target), Ubound: NodeSet(info.Area(e.Target)), Entry: e.Target}
		c := &Constraint{
			ID:         alloc(),
			Tag:        TagTry,
			Scopes:     []*Scope{trySc, catchSc},
			Target:     e.Dummy,
			CSet:       e.CSet.ForType(e.Top),
			CaughtVar:  e.CaughtVar,
			Forbidden:  map[cfg.NodeID]*cfg.ExceptionSet{},
			ForcedUp:   map[*Constraint]bool{},
			ForcedDown: map[*Constraint]bool{},
		}
		c.recomputeAggregate()
		tries = append(tries, c)
		out = append(out, c)
	}
	seedTryOrder(tries)

	for _, n := range sortedIDs(nodes) {
		node := g.Node(n)
		var tag Tag
		switch node.Term {
		case cfg.TermIf:
			tag = TagIf
		case cfg.TermSwitch:
			tag = TagSwitch
		default:
			continue
		}
		var scopes []*Scope
		for _, succ := range node.Succs {
			scopes = append(scopes, &Scope{
				Lbound: newSet(succ),
				Ubound: NodeSet(info.Area(succ)),
				Entry:  succ,
			})
		}
		c := &Constraint{ID: alloc(), Tag: tag, Head: n, Scopes: scopes}
		c.recomputeAggregate()
		out = append(out, c)
	}

	return out
}

// seedTryOrder records, for every pair of Try constraints that share a
// handler and caught variable, which one must nest inside the other: a
// strictly narrower exception set nests inside a wider one (spec.md §4.9).
// Pairs whose sets are equal or incomparable are left unrelated.
func seedTryOrder(tries []*Constraint) {
	for i, a := range tries {
		for _, b := range tries[i+1:] {
			if a.Scopes[1].Entry != b.Scopes[1].Entry || a.CaughtVar != b.CaughtVar {
				continue
			}
			switch {
			case a.CSet.Equal(b.CSet):
				// Same set: neither nests inside the other, they merge as peers.
			case a.CSet.Subset(b.CSet):
				a.ForcedUp[b] = true
				b.ForcedDown[a] = true
			case b.CSet.Subset(a.CSet):
				b.ForcedUp[a] = true
				a.ForcedDown[b] = true
			}
		}
	}
}
