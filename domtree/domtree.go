// Package domtree computes dominator information over a cfg.Graph and
// answers the area/extend queries the restructurer needs (spec.md §4.5).
//
// The relaxation algorithm spec.md §4.5 describes in prose — "doms[n] is
// the longest common prefix of candidate paths, iterate to a fixed
// point" — is exactly the textbook formulation Cooper, Harvey, and
// Kennedy's engineered algorithm computes more cheaply by tracking only
// each node's immediate dominator and deriving any dominator path from
// it by walking up. This package adopts that engine (the same one the
// teacher's obj/internal/graph.IDom implements) rather than the naive
// per-node path relaxation, per spec.md §9's design note, and exposes
// Dominators/CommonDominator/Area/Extend on top of it under the names
// Krakatau/java/structuring.py's DominatorInfo uses.
package domtree

import "github.com/go-krakatau/krak/cfg"

// Info is the dominator information for one entry-rooted subgraph of a
// cfg.Graph, fixed at the point Build was called.
type Info struct {
	root cfg.NodeID

	// order[i] is the node whose post-order number is i; index is its
	// inverse. Reachable nodes only.
	order []cfg.NodeID
	index map[cfg.NodeID]int

	// idom[i] is the post-order number of order[i]'s immediate
	// dominator, or -1 for the root.
	idom []int

	// children[i] lists the post-order numbers of order[i]'s immediate
	// dominator-tree children.
	children [][]int
}

// Build computes dominator information for every node reachable from
// root in g.
func Build(g *cfg.Graph, root cfg.NodeID) *Info {
	order := postOrder(g, root)
	index := make(map[cfg.NodeID]int, len(order))
	for i, n := range order {
		index[n] = i
	}

	idom := idomOf(g, order, index)

	children := make([][]int, len(order))
	for i, p := range idom {
		if p != -1 {
			children[p] = append(children[p], i)
		}
	}

	return &Info{root: root, order: order, index: index, idom: idom, children: children}
}

// postOrder computes a post-order walk of g from root using an explicit
// stack (spec.md §5: "tree walks are iterative with explicit work lists,
// not recursive over graph depth").
func postOrder(g *cfg.Graph, root cfg.NodeID) []cfg.NodeID {
	visited := map[cfg.NodeID]bool{root: true}
	var order []cfg.NodeID

	type frame struct {
		n cfg.NodeID
		i int
	}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		succs := g.Node(top.n).Succs
		if top.i < len(succs) {
			next := succs[top.i]
			top.i++
			if !visited[next] {
				visited[next] = true
				stack = append(stack, frame{next, 0})
			}
			continue
		}
		order = append(order, top.n)
		stack = stack[:len(stack)-1]
	}
	return order
}

// idomOf runs Cooper/Harvey/Kennedy's fixed-point relaxation over the
// reachable subgraph named by order/index. Because order is itself a
// post-order numbering, a node's post-order number doubles as the
// "poNum" the original algorithm looks up separately.
func idomOf(g *cfg.Graph, order []cfg.NodeID, index map[cfg.NodeID]int) []int {
	n := len(order)
	idom := make([]int, n)
	for i := range idom {
		idom[i] = -1
	}
	rootIdx := n - 1 // postorder always visits the root last
	idom[rootIdx] = rootIdx

	rpo := make([]int, n)
	for i := range rpo {
		rpo[i] = n - 1 - i
	}

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == rootIdx {
				continue
			}
			newIdom := -1
			for _, p := range g.Node(order[b]).Preds {
				pi, ok := index[p]
				if !ok || idom[pi] == -1 {
					continue
				}
				if newIdom == -1 {
					newIdom = pi
					continue
				}
				newIdom = intersect(idom, pi, newIdom)
			}
			if idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	idom[rootIdx] = -1
	return idom
}

func intersect(idom []int, a, b int) int {
	for a != b {
		for a < b {
			a = idom[a]
		}
		for b < a {
			b = idom[b]
		}
	}
	return a
}

// Dominators returns the path from the root to n, n included, in root-
// to-n order (spec.md §4.5).
func (info *Info) Dominators(n cfg.NodeID) []cfg.NodeID {
	i, ok := info.index[n]
	if !ok {
		return nil
	}
	var rev []cfg.NodeID
	for {
		rev = append(rev, info.order[i])
		if info.idom[i] == -1 {
			break
		}
		i = info.idom[i]
	}
	for l, r := 0, len(rev)-1; l < r; l, r = l+1, r-1 {
		rev[l], rev[r] = rev[r], rev[l]
	}
	return rev
}

// CommonDominator returns the deepest node whose dominator path prefixes
// every node in nodes.
func (info *Info) CommonDominator(nodes []cfg.NodeID) cfg.NodeID {
	if len(nodes) == 0 {
		return info.root
	}
	common := info.index[nodes[0]]
	for _, n := range nodes[1:] {
		common = intersect(info.idom, info.index[n], common)
	}
	return info.order[common]
}

// Area returns the (fresh) set of nodes n dominates, including n itself.
func (info *Info) Area(n cfg.NodeID) map[cfg.NodeID]bool {
	start, ok := info.index[n]
	out := make(map[cfg.NodeID]bool)
	if !ok {
		return out
	}
	stack := []int{start}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out[info.order[i]] = true
		stack = append(stack, info.children[i]...)
	}
	return out
}

// Extend returns the topologically-closed set reachable from
// CommonDominator(nodes) down to any member of nodes, using only the
// reverse-CFG restricted to CommonDominator(nodes)'s dominance area
// (spec.md §4.5).
func (info *Info) Extend(g *cfg.Graph, nodes []cfg.NodeID) map[cfg.NodeID]bool {
	common := info.CommonDominator(nodes)
	area := info.Area(common)

	visited := map[cfg.NodeID]bool{common: true}
	var stack []cfg.NodeID
	for _, n := range nodes {
		if area[n] && !visited[n] {
			visited[n] = true
			stack = append(stack, n)
		}
	}
	for len(stack) > 0 {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if m == common {
			continue
		}
		for _, p := range g.Node(m).Preds {
			if area[p] && !visited[p] {
				visited[p] = true
				stack = append(stack, p)
			}
		}
	}
	return visited
}
