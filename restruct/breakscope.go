package restruct

import "github.com/go-krakatau/krak/cfg"

// exits returns a frequency count per distinct successor outside
// c.Ubound of a node inside it, plus, keyed by that outside target, the
// interior nodes whose edges lead to it.
func exits(g *cfg.Graph, c *Constraint) (map[cfg.NodeID]int, map[cfg.NodeID][]cfg.NodeID) {
	freq := map[cfg.NodeID]int{}
	by := map[cfg.NodeID][]cfg.NodeID{}
	for _, n := range sortedIDs(c.Ubound) {
		for _, s := range g.Node(n).Succs {
			if c.Ubound[s] {
				continue
			}
			freq[s]++
			by[s] = append(by[s], n)
		}
	}
	return freq, by
}

// InsertBreakScopes picks, for every constraint with at least one live
// exit, the most frequent exit as the construct's natural fallthrough
// and returns it as that constraint's primary exit (spec.md §4.12).
// Ties are broken by smallest node id, and constraints are processed
// leaves-first. The remaining exits are not recorded, and no scope
// constraints are added.
func InsertBreakScopes(g *cfg.Graph, constraints []*Constraint) map[*Constraint]cfg.NodeID {
	primary := map[*Constraint]cfg.NodeID{}
	order := leavesFirst(constraints)

	for _, c := range order {
		freq, _ := exits(g, c)
		if len(freq) == 0 {
			continue
		}
		var targets []cfg.NodeID
		for t := range freq {
			targets = append(targets, t)
		}
		sortNodeIDs(targets)

		best := targets[0]
		for _, t := range targets[1:] {
			if freq[t] > freq[best] || (freq[t] == freq[best] && t < best) {
				best = t
			}
		}
		primary[c] = best
	}
	return primary
}

// leavesFirst returns constraints ordered so every constraint appears
// after all of its Children (a reverse-topological order over the
// Order-built forest), using an explicit stack rather than recursion.
func leavesFirst(constraints []*Constraint) []*Constraint {
	var roots []*Constraint
	for _, c := range constraints {
		if c.Parent == nil {
			roots = append(roots, c)
		}
	}

	var post []*Constraint
	visited := map[*Constraint]bool{}
	type frame struct {
		c *Constraint
		i int
	}
	for _, r := range roots {
		if visited[r] {
			continue
		}
		visited[r] = true
		stack := []frame{{r, 0}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.i < len(top.c.Children) {
				child := top.c.Children[top.i]
				top.i++
				if !visited[child] {
					visited[child] = true
					stack = append(stack, frame{child, 0})
				}
				continue
			}
			post = append(post, top.c)
			stack = stack[:len(stack)-1]
		}
	}
	return post
}
