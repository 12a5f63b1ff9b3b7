package restruct

import (
	"github.com/go-krakatau/krak/cfg"
	"github.com/go-krakatau/krak/domtree"
)

// StructureConditionals splices a fresh dummy node between every if/
// switch head and any arm target it does not privately own, so the
// constraint builder (§4.9) can give every arm its own scope without
// ever sharing a node between two scopes (spec.md §4.8). An arm target
// is privately owned when the head dominates it and is its only
// predecessor; shared join points and fallthrough targets are not
// owned and get a dummy in between instead.
//
// Switch arms keep the order of Node.Succs as given; this pass does not
// reorder switch targets into fallthrough chains.
func StructureConditionals(g *cfg.Graph, info *domtree.Info, nodes NodeSet) {
	for _, n := range sortedIDs(nodes) {
		node := g.Node(n)
		if node.Term != cfg.TermIf && node.Term != cfg.TermSwitch {
			continue
		}
		spliceArms(g, info, n, node.Succs)
	}
}

func spliceArms(g *cfg.Graph, info *domtree.Info, head cfg.NodeID, succs []cfg.NodeID) {
	orig := append([]cfg.NodeID(nil), succs...)
	claimed := map[cfg.NodeID]bool{}
	for _, target := range orig {
		if !claimed[target] && isOwnedArm(g, info, head, target) {
			claimed[target] = true
			continue
		}
		dummy := g.NewDummyNode(target)
		g.RemoveEdge(head, target)
		g.AddEdge(head, dummy.ID)
	}
}

func isOwnedArm(g *cfg.Graph, info *domtree.Info, head, target cfg.NodeID) bool {
	if target == head {
		return false
	}
	area := info.Area(head)
	if !area[target] {
		return false
	}
	for _, p := range g.Node(target).Preds {
		if p != head {
			return false
		}
	}
	return true
}
