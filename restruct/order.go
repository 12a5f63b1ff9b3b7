package restruct

import (
	"github.com/go-krakatau/krak/krakerr"
)

// Order nests constraints into a forest by upper-bound containment:
// among the constraints whose Ubound contains a given constraint's
// Lbound, its parent is the one with the smallest such Ubound
// (spec.md §4.9 "Order" — "freeze early, process siblings in
// increasing ubound size"). Siblings under the same parent must have
// pairwise-disjoint Lbound (spec.md §8 P6); a violation means the
// input CFG was not structurable and is reported as
// krakerr.StructuringFailed rather than silently produced as a
// malformed tree.
func Order(constraints []*Constraint) ([]*Constraint, error) {
	ordered := append([]*Constraint(nil), constraints...)
	sortByUboundSize(ordered)

	for _, c := range ordered {
		c.Parent = nil
		c.Children = nil
	}
	for i, c := range ordered {
		var parent *Constraint
		for j := i + 1; j < len(ordered); j++ {
			cand := ordered[j]
			if cand == c || !c.Lbound.subset(cand.Ubound) {
				continue
			}
			parent = cand
			break
		}
		if parent != nil {
			c.Parent = parent
			parent.Children = append(parent.Children, c)
		}
	}

	var roots []*Constraint
	for _, c := range ordered {
		if c.Parent == nil {
			roots = append(roots, c)
		}
	}

	for _, c := range ordered {
		if err := checkSiblingsDisjoint(c.Children); err != nil {
			return nil, err
		}
	}
	if err := checkSiblingsDisjoint(roots); err != nil {
		return nil, err
	}

	for _, c := range ordered {
		sortByUboundSize(c.Children)
	}
	sortByUboundSize(roots)

	return roots, nil
}

func checkSiblingsDisjoint(siblings []*Constraint) error {
	for i, a := range siblings {
		for _, b := range siblings[i+1:] {
			if a.Lbound.intersects(b.Lbound) {
				return krakerr.New(krakerr.StructuringFailed,
					"sibling constraints %d and %d share a node in their lower bound", a.ID, b.ID)
			}
		}
	}
	return nil
}

// sortByUboundSize orders constraints ascending by |Ubound|, breaking
// ties first by parent preference and finally by ID for a total,
// deterministic order (spec.md §5).
func sortByUboundSize(cs []*Constraint) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && less(cs[j], cs[j-1]); j-- {
			cs[j-1], cs[j] = cs[j], cs[j-1]
		}
	}
}

// enclosingRank breaks same-Ubound-size ties in favour of loop/try
// constraints becoming the parent rather than the child. A loop head
// that is also an if's branch node shares its Ubound exactly with that
// if (both dominate precisely the loop body); the if must nest inside
// the while, not the other way around, since the branch is what
// decides whether the loop continues or exits (spec.md §4.9).
func enclosingRank(c *Constraint) int {
	if c.Tag == TagWhile || c.Tag == TagTry {
		return 1
	}
	return 0
}

func less(a, b *Constraint) bool {
	if len(a.Ubound) != len(b.Ubound) {
		return len(a.Ubound) < len(b.Ubound)
	}
	if ra, rb := enclosingRank(a), enclosingRank(b); ra != rb {
		return ra < rb
	}
	return a.ID < b.ID
}
