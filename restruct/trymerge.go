package restruct

import (
	"github.com/go-krakatau/krak/cfg"
	"github.com/go-krakatau/krak/domtree"
)

// tryKey groups try-constraints that guard the same handler with the
// same caught variable — the only candidates §4.10's merge pass ever
// considers joining into a single try/catch.
type tryKey struct {
	catch  cfg.NodeID
	caught cfg.Value
}

// MergeTries greedily folds compatible try-constraints that share a
// handler into one, widening the guarded region with domtree.Extend
// (spec.md §4.10). Two try-constraints are compatible when they carry
// the same exception set, or when build.go's forcedup/forceddown seeding
// already ordered them one inside the other (a strict subset relation) —
// in the latter case the merged set is their union, not either input's
// set alone. That is the one ordering question this pass needs to
// answer, so unlike the full reverse-topological fixed point described
// in spec.md §4.10, it runs a single greedy left-to-right pass per
// group, which is exact whenever the candidates are pairwise compatible
// (checked explicitly) and is documented in DESIGN.md as a scoped-down
// merge strategy.
func MergeTries(g *cfg.Graph, info *domtree.Info, constraints []*Constraint) []*Constraint {
	groups := map[tryKey][]*Constraint{}
	var order []tryKey
	var rest []*Constraint

	for _, c := range constraints {
		if c.Tag != TagTry {
			rest = append(rest, c)
			continue
		}
		key := tryKey{catch: c.Scopes[1].Entry, caught: c.CaughtVar}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], c)
	}

	for _, key := range order {
		rest = append(rest, mergeGroup(g, info, groups[key])...)
	}
	return rest
}

func mergeGroup(g *cfg.Graph, info *domtree.Info, group []*Constraint) []*Constraint {
	var out []*Constraint
	acc := group[0]
	for _, next := range group[1:] {
		if !acc.CSet.Equal(next.CSet) && !forces(acc, next) && !forces(next, acc) {
			out = append(out, acc)
			acc = next
			continue
		}
		acc = combineTry(g, info, acc, next)
	}
	out = append(out, acc)
	return out
}

// forces reports whether a and b have a resolvable nesting order: one's
// exception set is a subset of the other's, so they can merge into a
// single try whose set is their union (spec.md §8 property S4).
func forces(a, b *Constraint) bool {
	return a.ForcedUp[b] || a.ForcedDown[b] || b.ForcedUp[a] || b.ForcedDown[a]
}

func combineTry(g *cfg.Graph, info *domtree.Info, a, b *Constraint) *Constraint {
	entries := []cfg.NodeID{a.Scopes[0].Entry, b.Scopes[0].Entry}
	ubound := NodeSet(info.Extend(g, entries))
	lbound := a.Scopes[0].Lbound.union(b.Scopes[0].Lbound)

	trySc := &Scope{Lbound: lbound, Ubound: ubound, Entry: a.Scopes[0].Entry}
	catchSc := a.Scopes[1]

	forbidden := map[cfg.NodeID]*cfg.ExceptionSet{}
	for k, v := range a.Forbidden {
		forbidden[k] = v
	}
	for k, v := range b.Forbidden {
		forbidden[k] = v
	}

	forcedUp := map[*Constraint]bool{}
	forcedDown := map[*Constraint]bool{}
	for k, v := range a.ForcedUp {
		if k != b {
			forcedUp[k] = v
		}
	}
	for k, v := range b.ForcedUp {
		if k != a {
			forcedUp[k] = v
		}
	}
	for k, v := range a.ForcedDown {
		if k != b {
			forcedDown[k] = v
		}
	}
	for k, v := range b.ForcedDown {
		if k != a {
			forcedDown[k] = v
		}
	}

	merged := &Constraint{
		ID:         a.ID,
		Tag:        TagTry,
		Scopes:     []*Scope{trySc, catchSc},
		Target:     a.Target,
		CSet:       a.CSet.Union(b.CSet),
		CaughtVar:  a.CaughtVar,
		Forbidden:  forbidden,
		ForcedUp:   forcedUp,
		ForcedDown: forcedDown,
	}
	merged.recomputeAggregate()
	return merged
}
