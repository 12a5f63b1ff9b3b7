package restruct

import "github.com/go-krakatau/krak/cfg"

// CompleteScope grows s.Lbound to the maximal subset of s.Ubound that
// has no predecessor outside the set other than through s.Entry itself
// — the final concrete scope boundary (spec.md §4.11). Because every
// branch and loop head was already made single-entry by the earlier
// canonicalisation passes, this boundary is forced node by node rather
// than merely bounded by one: a node qualifies once every predecessor
// of it is already in the set (or lies outside Ubound entirely and is
// therefore none of this scope's business), so a straightforward
// closure computes the same final region the full min-vertex-cut search
// spec.md §4.11 describes would, without needing its augmenting-path
// machinery; the simplification is recorded in DESIGN.md.
//
// One refinement is needed once Entry can be re-entered from within its
// own Ubound — true exactly for a loop's body scope, where the back
// edge makes Entry its own ancestor. Plain forward closure alone would
// then swallow whatever the loop exits into as well, since the single
// node standing between "loop body" and "after the loop" typically has
// no predecessor but the head and so looks eligible by that rule alone.
// For such scopes, a candidate additionally has to be able to reach
// back to Entry within Ubound — the natural-loop-body test — so the
// closure stops at the loop's own boundary instead of absorbing
// whatever comes after it.
func CompleteScope(g *cfg.Graph, s *Scope) {
	set := s.Lbound.clone()

	var ancestors NodeSet
	if isLoopy(g, s) {
		ancestors = ancestorsOf(g, s.Entry, s.Ubound)
	}

	changed := true
	for changed {
		changed = false
		for _, n := range sortedIDs(s.Ubound) {
			if set[n] {
				continue
			}
			if ancestors != nil && !ancestors[n] {
				continue
			}
			eligible := true
			for _, p := range g.Node(n).Preds {
				if !s.Ubound[p] {
					continue
				}
				if !set[p] {
					eligible = false
					break
				}
			}
			if eligible {
				set[n] = true
				changed = true
			}
		}
	}
	s.Lbound = set
}

// isLoopy reports whether s.Entry has a predecessor within s.Ubound,
// meaning it can be re-entered from inside its own scope — the signal
// that this is a loop's body scope rather than a straight-line or
// branch scope.
func isLoopy(g *cfg.Graph, s *Scope) bool {
	for _, p := range g.Node(s.Entry).Preds {
		if s.Ubound[p] {
			return true
		}
	}
	return false
}

// ancestorsOf returns every node in ubound that can reach entry using
// only edges within ubound, entry included — the natural-loop-body
// test, computed by an explicit-stack walk over predecessor edges.
func ancestorsOf(g *cfg.Graph, entry cfg.NodeID, ubound NodeSet) NodeSet {
	out := NodeSet{entry: true}
	stack := []cfg.NodeID{entry}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range g.Node(n).Preds {
			if ubound[p] && !out[p] {
				out[p] = true
				stack = append(stack, p)
			}
		}
	}
	return out
}

// CompleteAll runs CompleteScope over every scope of every constraint,
// smallest Ubound first, so inner scopes freeze before the outer scopes
// around them are completed (spec.md §4.11).
func CompleteAll(g *cfg.Graph, constraints []*Constraint) {
	type entry struct {
		c *Constraint
		s *Scope
	}
	var scopes []entry
	for _, c := range constraints {
		for _, s := range c.Scopes {
			scopes = append(scopes, entry{c, s})
		}
	}
	for i := 1; i < len(scopes); i++ {
		for j := i; j > 0 && len(scopes[j].s.Ubound) < len(scopes[j-1].s.Ubound); j-- {
			scopes[j-1], scopes[j] = scopes[j], scopes[j-1]
		}
	}
	for _, e := range scopes {
		CompleteScope(g, e.s)
	}
	for _, c := range constraints {
		c.recomputeAggregate()
	}
}
