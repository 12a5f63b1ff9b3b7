package restruct

import "github.com/go-krakatau/krak/cfg"

// ExceptionEdge is one detached handler edge, ready to seed a TagTry
// Constraint (spec.md §4.7 and §4.9).
type ExceptionEdge struct {
	Source cfg.NodeID // the on-exception node this edge left
	Dummy  cfg.NodeID // the forwarding node now standing in its place
	Target cfg.NodeID // the original handler block
	Top    string     // the top-level exception type this edge is split on
	CSet   *cfg.ExceptionSet
	CaughtVar cfg.Value
}

// StructureExceptions rewrites every on-exception terminator within
// nodes: each handler successor's exception set is split by its top
// types (cfg.ExceptionSet.TopTypes), the direct edge is detached, and a
// fresh dummy node is spliced in per top type, so every subsequent
// try-constraint gets a single coherent catch type to work with
// (spec.md §4.7).
func StructureExceptions(g *cfg.Graph, nodes NodeSet) []ExceptionEdge {
	var edges []ExceptionEdge

	for _, n := range sortedIDs(nodes) {
		node := g.Node(n)
		if node.Term != cfg.TermOnException || len(node.Handlers) == 0 {
			continue
		}

		var succs []cfg.NodeID
		for succ := range node.Handlers {
			succs = append(succs, succ)
		}
		sortNodeIDs(succs)

		for _, succ := range succs {
			cset := node.Handlers[succ]
			if cset == nil || cset.Empty() {
				delete(node.Handlers, succ)
				continue
			}
			caughtVar := firstValue(node.EAssigns[succ])

			g.RemoveEdge(n, succ)
			for _, top := range cset.TopTypes() {
				dummy := g.NewDummyNode(succ)
				g.AddEdge(n, dummy.ID)
				edges = append(edges, ExceptionEdge{
					Source:    n,
					Dummy:     dummy.ID,
					Target:    succ,
					Top:       top,
					CSet:      cset,
					CaughtVar: caughtVar,
				})
			}
			delete(node.Handlers, succ)
		}
	}

	return edges
}

func firstValue(vs []cfg.Value) cfg.Value {
	if len(vs) == 0 {
		return nil
	}
	return vs[0]
}
