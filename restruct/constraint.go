// Package restruct turns a CFG into a structured-tree (spec.md §4.6-
// §4.12): loop canonicalisation, exception structuring, conditional
// structuring, constraint building and ordering, try-scope merging,
// scope completion, and break-scope insertion, grounded almost line for
// line on Krakatau/java/structuring.py's pipeline.
package restruct

import "github.com/go-krakatau/krak/cfg"

// Tag distinguishes the five Constraint shapes spec.md §3 describes.
type Tag uint8

const (
	TagWhile Tag = iota
	TagTry
	TagSwitch
	TagIf
	TagScope
)

// NodeSet is a node membership set; restruct uses plain maps throughout
// rather than cfg's ExceptionSet-style bitset, since constraint node
// sets are built and mutated incrementally from many different sources
// and a dense bitset over the whole arena would need renumbering on
// every clone (spec.md §4.6).
type NodeSet map[cfg.NodeID]bool

func newSet(ids ...cfg.NodeID) NodeSet {
	s := make(NodeSet, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func (s NodeSet) clone() NodeSet {
	out := make(NodeSet, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func (s NodeSet) union(o NodeSet) NodeSet {
	out := s.clone()
	for k := range o {
		out[k] = true
	}
	return out
}

func (s NodeSet) intersects(o NodeSet) bool {
	small, big := s, o
	if len(big) < len(small) {
		small, big = big, small
	}
	for k := range small {
		if big[k] {
			return true
		}
	}
	return false
}

func (s NodeSet) subset(o NodeSet) bool {
	for k := range s {
		if !o[k] {
			return false
		}
	}
	return true
}

// sortedIDs returns a set's members in ascending order — the
// deterministic iteration spec.md §5 requires.
func sortedIDs(s NodeSet) []cfg.NodeID {
	out := make([]cfg.NodeID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sortNodeIDs(out)
	return out
}

func sortNodeIDs(ids []cfg.NodeID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// Scope is one (lbound, ubound) pair within a Constraint — spec.md §3:
// "a sequence of scopes, each with a lower bound lbound ⊆ node set and
// an upper bound ubound ⊇ lbound".
type Scope struct {
	Lbound NodeSet
	Ubound NodeSet

	// Entry is the scope's single designated entry node, used by scope
	// completion (spec.md §4.11) and break-scope insertion (§4.12).
	Entry cfg.NodeID
}

// Constraint is one pending structured construct (spec.md §3).
type Constraint struct {
	ID  int // allocation order; used only for deterministic tie-breaks
	Tag Tag

	// Head is meaningful for TagIf/TagSwitch.
	Head cfg.NodeID

	Scopes []*Scope

	// Aggregated bounds across Scopes plus Head.
	Lbound NodeSet
	Ubound NodeSet

	// Try-only fields.
	Target     cfg.NodeID
	CSet       *cfg.ExceptionSet
	CaughtVar  cfg.Value
	Forbidden  map[cfg.NodeID]*cfg.ExceptionSet
	ForcedUp   map[*Constraint]bool
	ForcedDown map[*Constraint]bool

	Parent   *Constraint
	Children []*Constraint
}

func (c *Constraint) recomputeAggregate() {
	lb := NodeSet{}
	ub := NodeSet{}
	for _, s := range c.Scopes {
		for k := range s.Lbound {
			lb[k] = true
		}
		for k := range s.Ubound {
			ub[k] = true
		}
	}
	if c.Tag == TagIf || c.Tag == TagSwitch {
		lb[c.Head] = true
		ub[c.Head] = true
	}
	c.Lbound, c.Ubound = lb, ub
}
