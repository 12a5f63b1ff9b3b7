// Package setree defines the structured-tree output contract (spec.md
// §3): the tagged variant the restructurer's final bottom-up conversion
// produces, consumed by an out-of-scope text emitter.
package setree

import "github.com/go-krakatau/krak/cfg"

// Kind distinguishes the structured-tree Item variants.
type Kind uint8

const (
	KindBlock Kind = iota
	KindScope
	KindIf
	KindSwitch
	KindWhile
	KindTry
	KindBreak
)

// Item is one node of the structured tree, tagged by Kind (spec.md §9's
// tagged-variant-over-inheritance design note).
type Item struct {
	Kind Kind

	// Block
	Node cfg.NodeID

	// Scope: an ordered sequence of nested items.
	Items []*Item

	// If: Head is the branching node; Scopes holds exactly two
	// single-target scopes, [then, else].
	Head   cfg.NodeID
	Scopes []*Item

	// Switch: Head is the switch node; Scopes holds one scope per
	// ordered target (spec.md §4.8).
	// (reuses Head/Scopes above)

	// While: Body is the loop scope.
	Body *Item

	// Try: Try is the guarded scope, Catch is the handler scope, Caught
	// is the set of exception types this try guards against, and
	// CaughtVar identifies the variable the handler receives.
	Try       *Item
	Catch     *Item
	Caught    *cfg.ExceptionSet
	CaughtVar cfg.Value

	// Break: an explicit jump to an enclosing scope's exit, for when a
	// block has more than one live successor outside its own scope and
	// only one of them can be the scope's natural fallthrough
	// (spec.md §4.12). BreakTo names which enclosing scope's exit this
	// targets, by that scope's designated Entry node.
	BreakTo cfg.NodeID
}

// Block wraps a single CFG node.
func Block(n cfg.NodeID) *Item {
	return &Item{Kind: KindBlock, Node: n}
}

// Scope wraps a sequence of items as a single nested construct.
func Scope(items []*Item) *Item {
	return &Item{Kind: KindScope, Items: items}
}

// If builds an if-construct: head plus its two arm scopes.
func If(head cfg.NodeID, then, els *Item) *Item {
	return &Item{Kind: KindIf, Head: head, Scopes: []*Item{then, els}}
}

// Switch builds a switch-construct: head plus its ordered target scopes.
func Switch(head cfg.NodeID, scopes []*Item) *Item {
	return &Item{Kind: KindSwitch, Head: head, Scopes: scopes}
}

// While builds a while-construct around a single body scope.
func While(body *Item) *Item {
	return &Item{Kind: KindWhile, Body: body}
}

// Try builds a try-construct: the guarded scope, the handler scope, the
// exception set it catches, and the caught-variable identity.
func Try(try, catch *Item, caught *cfg.ExceptionSet, caughtVar cfg.Value) *Item {
	return &Item{Kind: KindTry, Try: try, Catch: catch, Caught: caught, CaughtVar: caughtVar}
}

// Break builds an explicit jump to an enclosing scope's exit.
func Break(to cfg.NodeID) *Item {
	return &Item{Kind: KindBreak, BreakTo: to}
}

// Nodes returns every cfg.NodeID wrapped by a block-item anywhere in the
// subtree rooted at it, in tree order. Used by tests checking the
// block-item/input-node-set invariant (spec.md §8 P5).
func (it *Item) Nodes() []cfg.NodeID {
	if it == nil {
		return nil
	}
	var out []cfg.NodeID
	var walk func(*Item)
	walk = func(n *Item) {
		if n == nil {
			return
		}
		switch n.Kind {
		case KindBlock:
			out = append(out, n.Node)
		case KindScope:
			for _, c := range n.Items {
				walk(c)
			}
		case KindIf, KindSwitch:
			for _, c := range n.Scopes {
				walk(c)
			}
		case KindWhile:
			walk(n.Body)
		case KindTry:
			walk(n.Try)
			walk(n.Catch)
		}
	}
	walk(it)
	return out
}
