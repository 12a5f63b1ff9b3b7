package restruct

import "github.com/go-krakatau/krak/cfg"

// sccs computes the strongly-connected components of the subgraph
// induced by nodes, via two passes of an explicit-stack DFS (Kosaraju),
// so no step of loop canonicalisation recurses over CFG depth (spec.md
// §5). Component order, and node order within a component, are both
// deterministic.
func sccs(g *cfg.Graph, nodes NodeSet) [][]cfg.NodeID {
	visited := NodeSet{}
	var finish []cfg.NodeID

	type frame struct {
		n cfg.NodeID
		i int
	}
	for _, start := range sortedIDs(nodes) {
		if visited[start] {
			continue
		}
		visited[start] = true
		stack := []frame{{start, 0}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succs := g.Node(top.n).Succs
			advanced := false
			for top.i < len(succs) {
				next := succs[top.i]
				top.i++
				if nodes[next] && !visited[next] {
					visited[next] = true
					stack = append(stack, frame{next, 0})
					advanced = true
					break
				}
			}
			if advanced {
				continue
			}
			finish = append(finish, top.n)
			stack = stack[:len(stack)-1]
		}
	}

	visited2 := NodeSet{}
	var comps [][]cfg.NodeID
	for i := len(finish) - 1; i >= 0; i-- {
		start := finish[i]
		if visited2[start] {
			continue
		}
		var comp []cfg.NodeID
		stack := []cfg.NodeID{start}
		visited2[start] = true
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, n)
			for _, p := range g.Node(n).Preds {
				if nodes[p] && !visited2[p] {
					visited2[p] = true
					stack = append(stack, p)
				}
			}
		}
		sortNodeIDs(comp)
		comps = append(comps, comp)
	}
	return comps
}

// entriesOf returns the members of comp with at least one predecessor
// outside comp, ascending.
func entriesOf(g *cfg.Graph, comp NodeSet) []cfg.NodeID {
	var entries []cfg.NodeID
	for _, n := range sortedIDs(comp) {
		for _, p := range g.Node(n).Preds {
			if !comp[p] {
				entries = append(entries, n)
				break
			}
		}
	}
	return entries
}

// CanonicalizeLoops ensures every SCC of size ≥ 2 within nodes has
// exactly one entry, by cloning the region reachable (within the SCC)
// from every non-head entry (spec.md §4.6). It returns the set of
// chosen loop heads and the possibly-grown node set (cloning adds
// nodes).
func CanonicalizeLoops(g *cfg.Graph, nodes NodeSet) (heads NodeSet, all NodeSet) {
	heads = NodeSet{}
	all = nodes.clone()

	queue := []NodeSet{nodes.clone()}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, comp := range sccs(g, cur) {
			if len(comp) < 2 {
				continue
			}
			compSet := newSet(comp...)

			entries := entriesOf(g, compSet)
			var head cfg.NodeID
			if len(entries) == 0 {
				// No node in this component has an external
				// predecessor (e.g. the whole function entry sits
				// inside a self-contained cycle); fall back to the
				// smallest node id, deterministically (spec.md §9).
				ids := sortedIDs(compSet)
				head = ids[0]
				entries = []cfg.NodeID{head}
			} else {
				head = entries[0]
				for _, e := range entries[1:] {
					if e < head {
						head = e
					}
				}
			}
			heads[head] = true

			for _, e := range entries {
				if e == head {
					continue
				}
				clone := cloneRegion(g, compSet, e, head)
				all = all.union(clone)
				queue = append(queue, clone)
			}

			rest := compSet.clone()
			delete(rest, head)
			if len(rest) > 0 {
				queue = append(queue, rest)
			}
		}
	}
	return heads, all
}

// cloneRegion duplicates the subgraph reachable from entry within scope
// (excluding head), redirects scope-external predecessors of entry to
// the clone, and returns the set of newly created node ids.
func cloneRegion(g *cfg.Graph, scope NodeSet, entry, head cfg.NodeID) NodeSet {
	reachable := NodeSet{}
	stack := []cfg.NodeID{entry}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reachable[n] || n == head || !scope[n] {
			continue
		}
		reachable[n] = true
		for _, s := range g.Node(n).Succs {
			if scope[s] && s != head && !reachable[s] {
				stack = append(stack, s)
			}
		}
	}

	ids := sortedIDs(reachable)
	clones := make(map[cfg.NodeID]cfg.NodeID, len(ids))
	for _, id := range ids {
		clones[id] = g.Clone(id)
	}

	// Retarget every clone's successors that land back inside the
	// cloned region to the corresponding clone, not the original.
	for _, id := range ids {
		cloneID := clones[id]
		origSuccs := append([]cfg.NodeID(nil), g.Node(cloneID).Succs...)
		for _, succ := range origSuccs {
			if newTarget, ok := clones[succ]; ok {
				g.RemoveEdge(cloneID, succ)
				g.AddEdge(cloneID, newTarget)
			}
		}
	}

	// Only scope-external predecessors of entry move to the clone;
	// internal (within-SCC) edges keep pointing at the original, which
	// remains reachable solely through the head once every non-head
	// entry has been processed this way.
	externalPreds := append([]cfg.NodeID(nil), g.Node(entry).Preds...)
	for _, p := range externalPreds {
		if !scope[p] {
			g.RemoveEdge(p, entry)
			g.AddEdge(p, clones[entry])
		}
	}

	return newSet(valuesOf(clones)...)
}

func valuesOf(m map[cfg.NodeID]cfg.NodeID) []cfg.NodeID {
	out := make([]cfg.NodeID, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
