package cfg

import "math/big"

// Hierarchy answers subtype queries over the (externally supplied, e.g.
// parsed from a classpath) exception-class hierarchy. IsSubtype reports
// whether sub is sup itself or a proper subtype of sup.
type Hierarchy interface {
	IsSubtype(sub, sup string) bool
}

// Universe is the closed set of concrete exception types a single
// structuring run cares about — the union of every catch-clause type
// appearing in the method being restructured. ExceptionSet represents
// membership as a bitset over Universe's members (grounded on the
// teacher's math/big bitset trick in obj/internal/graph/order.go), which
// makes union/intersection/difference exact and cheap as long as every
// type of interest is a member — true here, since a method's own throw
// sites are the only types its own try-merge pass ever needs to reason
// about.
type Universe struct {
	h     Hierarchy
	types []string
	index map[string]int
}

// NewUniverse builds a Universe over the given (deduplicated by the
// caller) concrete type names.
func NewUniverse(h Hierarchy, types []string) *Universe {
	u := &Universe{h: h, types: append([]string(nil), types...), index: make(map[string]int, len(types))}
	for i, t := range u.types {
		u.index[t] = i
	}
	return u
}

// Empty returns the bottom of the lattice.
func (u *Universe) Empty() *ExceptionSet {
	return &ExceptionSet{u: u, bits: new(big.Int)}
}

// Full returns the top of the lattice (every universe member).
func (u *Universe) Full() *ExceptionSet {
	bits := new(big.Int)
	for i := range u.types {
		bits.SetBit(bits, i, 1)
	}
	return &ExceptionSet{u: u, bits: bits}
}

// FromTypes returns the ExceptionSet of every universe member that is a
// subtype of some named type (spec.md §3: "a set of catchable types
// closed under 'subtype of thrown type'").
func (u *Universe) FromTypes(names ...string) *ExceptionSet {
	bits := new(big.Int)
	for i, member := range u.types {
		for _, name := range names {
			if u.h.IsSubtype(member, name) {
				bits.SetBit(bits, i, 1)
				break
			}
		}
	}
	return &ExceptionSet{u: u, bits: bits}
}

// ExceptionSet is an element of the lattice of exception-type sets that
// drives try-scope merging (spec.md §4.10).
type ExceptionSet struct {
	u    *Universe
	bits *big.Int
}

func (s *ExceptionSet) checkCompat(o *ExceptionSet) {
	if s.u != o.u {
		panic("cfg: ExceptionSet operands belong to different universes")
	}
}

// Union returns s ∪ o.
func (s *ExceptionSet) Union(o *ExceptionSet) *ExceptionSet {
	s.checkCompat(o)
	return &ExceptionSet{u: s.u, bits: new(big.Int).Or(s.bits, o.bits)}
}

// Intersect returns s ∩ o.
func (s *ExceptionSet) Intersect(o *ExceptionSet) *ExceptionSet {
	s.checkCompat(o)
	return &ExceptionSet{u: s.u, bits: new(big.Int).And(s.bits, o.bits)}
}

// Difference returns s − o.
func (s *ExceptionSet) Difference(o *ExceptionSet) *ExceptionSet {
	s.checkCompat(o)
	return &ExceptionSet{u: s.u, bits: new(big.Int).AndNot(s.bits, o.bits)}
}

// Empty reports whether s has no members.
func (s *ExceptionSet) Empty() bool {
	return s.bits.Sign() == 0
}

// Subset reports whether s ⊆ o.
func (s *ExceptionSet) Subset(o *ExceptionSet) bool {
	return s.Difference(o).Empty()
}

// Equal reports whether s and o contain exactly the same members.
func (s *ExceptionSet) Equal(o *ExceptionSet) bool {
	s.checkCompat(o)
	return s.bits.Cmp(o.bits) == 0
}

// members returns the universe indices present in s, ascending.
func (s *ExceptionSet) members() []int {
	var out []int
	for i := range s.u.types {
		if s.bits.Bit(i) == 1 {
			out = append(out, i)
		}
	}
	return out
}

// ForType returns the subset of s that is a subtype of top — how the
// exception structurer narrows a handler's full set down to one coherent
// catch type per split edge (spec.md §4.7).
func (s *ExceptionSet) ForType(top string) *ExceptionSet {
	return s.u.FromTypes(top).Intersect(s)
}

// TopTypes returns s's maximal representatives (spec.md §3): members not
// strictly dominated, within s, by some other member of s. The result is
// sorted by universe index for determinism.
func (s *ExceptionSet) TopTypes() []string {
	idxs := s.members()
	var tops []string
	for _, i := range idxs {
		dominated := false
		for _, j := range idxs {
			if i == j {
				continue
			}
			if s.u.h.IsSubtype(s.u.types[i], s.u.types[j]) && s.u.types[i] != s.u.types[j] {
				dominated = true
				break
			}
		}
		if !dominated {
			tops = append(tops, s.u.types[i])
		}
	}
	return tops
}
