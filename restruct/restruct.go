package restruct

import (
	"github.com/go-krakatau/krak/cfg"
	"github.com/go-krakatau/krak/domtree"
	"github.com/go-krakatau/krak/setree"
)

// Structure turns the CFG reachable from entry into a structured tree:
// loop canonicalisation, exception structuring, conditional structuring,
// constraint building, try-merging, scope completion, ordering, and
// break-scope insertion, in that order (spec.md §4.6-§4.12), followed by
// a bottom-up conversion of the resulting constraint forest into a
// setree.Item. g is mutated in place (cloned loop-head regions and
// spliced dummy nodes become permanent parts of it).
func Structure(g *cfg.Graph, entry cfg.NodeID) (*setree.Item, error) {
	nodes := reachableFrom(g, entry)
	heads, _ := CanonicalizeLoops(g, nodes)

	nodes = reachableFrom(g, entry)
	edges := StructureExceptions(g, nodes)

	nodes = reachableFrom(g, entry)
	info := domtree.Build(g, entry)
	StructureConditionals(g, info, nodes)

	nodes = reachableFrom(g, entry)
	info = domtree.Build(g, entry)

	constraints := Build(g, info, nodes, heads, edges)
	constraints = MergeTries(g, info, constraints)
	CompleteAll(g, constraints)

	roots, err := Order(constraints)
	if err != nil {
		return nil, err
	}
	primary := InsertBreakScopes(g, constraints)

	itemOf := map[*Constraint]*setree.Item{}
	for _, c := range leavesFirst(constraints) {
		itemOf[c] = convert(g, c, itemOf, primary)
	}

	return setree.Scope(sequence(entry, nodes, roots, g, itemOf, primary)), nil
}

// reachableFrom computes the set of nodes reachable from entry via an
// explicit-stack DFS (spec.md §5).
func reachableFrom(g *cfg.Graph, entry cfg.NodeID) NodeSet {
	visited := NodeSet{entry: true}
	stack := []cfg.NodeID{entry}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range g.Node(n).Succs {
			if !visited[s] {
				visited[s] = true
				stack = append(stack, s)
			}
		}
	}
	return visited
}

// entryOf returns the single node at which a constraint's construct
// begins: the branch node itself for if/switch, the loop head or try
// entry otherwise.
func entryOf(c *Constraint) cfg.NodeID {
	if c.Tag == TagIf || c.Tag == TagSwitch {
		return c.Head
	}
	return c.Scopes[0].Entry
}

// childrenIn returns the members of children whose own entry node falls
// within lbound — the subset of a constraint's direct children that
// belong to one particular scope of that constraint. Order's sibling-
// disjointness check guarantees at most one child claims any given
// entry node, so the caller can build an unambiguous lookup from this.
func childrenIn(children []*Constraint, lbound NodeSet) []*Constraint {
	var out []*Constraint
	for _, ch := range children {
		if lbound[entryOf(ch)] {
			out = append(out, ch)
		}
	}
	return out
}

// convert turns one constraint's scopes into a setree.Item, assuming
// every descendant constraint already has an entry in itemOf. Each
// scope is linearised against that scope's own slice of c.Children, so
// a nested construct only ever substitutes inside the scope it actually
// belongs to.
func convert(g *cfg.Graph, c *Constraint, itemOf map[*Constraint]*setree.Item, primary map[*Constraint]cfg.NodeID) *setree.Item {
	switch c.Tag {
	case TagWhile:
		s := c.Scopes[0]
		body := setree.Scope(sequence(s.Entry, s.Lbound, childrenIn(c.Children, s.Lbound), g, itemOf, primary))
		return setree.While(body)
	case TagIf:
		then := c.Scopes[0]
		els := c.Scopes[1]
		thenItem := setree.Scope(sequence(then.Entry, then.Lbound, childrenIn(c.Children, then.Lbound), g, itemOf, primary))
		elsItem := setree.Scope(sequence(els.Entry, els.Lbound, childrenIn(c.Children, els.Lbound), g, itemOf, primary))
		return setree.If(c.Head, thenItem, elsItem)
	case TagSwitch:
		var arms []*setree.Item
		for _, s := range c.Scopes {
			arms = append(arms, setree.Scope(sequence(s.Entry, s.Lbound, childrenIn(c.Children, s.Lbound), g, itemOf, primary)))
		}
		return setree.Switch(c.Head, arms)
	case TagTry:
		try := c.Scopes[0]
		catch := c.Scopes[1]
		tryItem := setree.Scope(sequence(try.Entry, try.Lbound, childrenIn(c.Children, try.Lbound), g, itemOf, primary))
		catchItem := setree.Scope(sequence(catch.Entry, catch.Lbound, childrenIn(c.Children, catch.Lbound), g, itemOf, primary))
		return setree.Try(tryItem, catchItem, c.CSet, c.CaughtVar)
	default:
		return setree.Block(c.Head)
	}
}

// sequence linearises region starting at entry: plain nodes become
// Block items, and reaching the entry node of one of children emits
// that child's already-converted subtree in its place and skips the
// rest of its Lbound. children is always the direct-child slice for
// THIS particular scope (top level: the forest's roots) rather than a
// single flat ownership map, so a constraint and a child that happens
// to share its own entry node — a loop head that is also the if-branch
// deciding whether to continue — substitute at the right level instead
// of one hiding the other (spec.md §4.9).
//
// For if/switch children, the branch node's own Block is emitted
// immediately before the substituted item, since that node sits
// outside every arm's Lbound and would otherwise never appear anywhere
// in the tree; for while/try children, the entry node is already part
// of the child's own body/try scope, so its recursive conversion emits
// that Block instead and no separate one is needed here.
//
// The walk stops at the region boundary or at a dead end, which is the
// construct's natural fallthrough in the overwhelming majority of
// structured loops/conditionals (spec.md §4.12); constraints whose
// chosen primary exit leaves this region rely on that boundary being
// the caller's own continuation point, so no explicit break item is
// needed there either — InsertBreakScopes' primary map remains
// available for a caller that wants to render the few remaining
// multi-exit cases explicitly.
func sequence(entry cfg.NodeID, region NodeSet, children []*Constraint, g *cfg.Graph, itemOf map[*Constraint]*setree.Item, primary map[*Constraint]cfg.NodeID) []*setree.Item {
	entryToChild := make(map[cfg.NodeID]*Constraint, len(children))
	for _, ch := range children {
		entryToChild[entryOf(ch)] = ch
	}

	var items []*setree.Item
	visited := map[cfg.NodeID]bool{}
	cur := entry

	for region[cur] && !visited[cur] {
		visited[cur] = true

		if c, ok := entryToChild[cur]; ok {
			if c.Tag == TagIf || c.Tag == TagSwitch {
				items = append(items, setree.Block(cur))
			}
			items = append(items, itemOf[c])
			for n := range c.Lbound {
				visited[n] = true
			}
			next, ok := primary[c]
			if !ok {
				break
			}
			cur = next
			continue
		}

		items = append(items, setree.Block(cur))
		next := cfg.NodeID(-1)
		for _, s := range g.Node(cur).Succs {
			if region[s] {
				next = s
				break
			}
		}
		if next == -1 {
			break
		}
		cur = next
	}
	return items
}
