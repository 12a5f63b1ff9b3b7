// Package poolref implements the pool reference (spec.md §4.2): a
// deferred handle to a constant-pool entry that resolves lazily and
// memoizes its own index.
package poolref

import "github.com/go-krakatau/krak/constpool"

// Kind distinguishes the three Ref variants.
type Kind uint8

const (
	// Direct refs already carry a concrete index.
	Direct Kind = iota
	// Labelled refs name another Ref by identifier, via a label table
	// on the constpool.Handle.
	Labelled
	// Structural refs are a tag plus a sequence of sub-references,
	// resolved recursively.
	Structural
)

// Ref is a tagged variant over Direct/Labelled/Structural pool
// references, matching spec.md §3's Invariant: resolving a Structural
// ref resolves every sub-ref first; resolving a Labelled ref walks the
// label table; the forbidden set only ever grows along Labelled edges.
type Ref struct {
	Kind Kind

	// Direct
	Index int

	// Labelled
	Label string

	// Structural
	Tag  constpool.Tag
	Args []any // each element is either a literal or *Ref

	resolved bool
	memo     int
}

// NewDirect returns a Ref that is already resolved to index.
func NewDirect(index int) *Ref {
	return &Ref{Kind: Direct, Index: index, resolved: true, memo: index}
}

// NewLabelled returns a Ref that resolves by looking up label in the
// Handle's label table.
func NewLabelled(label string) *Ref {
	return &Ref{Kind: Labelled, Label: label}
}

// NewStructural returns a Ref that interns (tag, resolved args) once
// every element of args that is itself a *Ref has been resolved.
func NewStructural(tag constpool.Tag, args ...any) *Ref {
	return &Ref{Kind: Structural, Tag: tag, Args: args}
}

// ToIndex resolves r against pool, memoizing the result. forbidden is the
// set of labels already on the current recursive-descent path; only
// Labelled resolution ever extends it or checks membership in it —
// Structural sub-references are independent of each other and never fail
// for cycles through their own resolution (spec.md §4.2).
func (r *Ref) ToIndex(h *constpool.Handle, forbidden []string) (int, error) {
	if r.resolved {
		return r.memo, nil
	}

	switch r.Kind {
	case Direct:
		r.resolved, r.memo = true, r.Index
		return r.memo, nil

	case Labelled:
		idx, err := h.ResolveLabel(r.Label, forbidden)
		if err != nil {
			return 0, err
		}
		r.resolved, r.memo = true, idx
		return idx, nil

	case Structural:
		resolvedArgs := make([]any, len(r.Args))
		for i, a := range r.Args {
			if sub, ok := a.(*Ref); ok {
				idx, err := sub.ToIndex(h, forbidden)
				if err != nil {
					return 0, err
				}
				resolvedArgs[i] = idx
			} else {
				resolvedArgs[i] = a
			}
		}
		idx := h.Intern(r.Tag, resolvedArgs...)
		r.resolved, r.memo = true, idx
		return idx, nil
	}
	panic("poolref: unknown Ref kind")
}
