package setree

import (
	"reflect"
	"testing"

	"github.com/go-krakatau/krak/cfg"
)

func TestNodesWalksScopeIfSwitchWhileTry(t *testing.T) {
	tree := Scope([]*Item{
		Block(1),
		If(1, Scope([]*Item{Block(2)}), Scope([]*Item{Block(3)})),
		While(Scope([]*Item{Block(4), Break(4)})),
		Switch(5, []*Item{
			Scope([]*Item{Block(6)}),
			Scope([]*Item{Block(7)}),
		}),
		Try(Scope([]*Item{Block(8)}), Scope([]*Item{Block(9)}), nil, 0),
	})

	got := tree.Nodes()
	want := []cfg.NodeID{1, 2, 3, 4, 6, 7, 8, 9}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Nodes() = %v, want %v", got, want)
	}
}

func TestNodesOnNilItemIsEmpty(t *testing.T) {
	var it *Item
	if got := it.Nodes(); got != nil {
		t.Fatalf("Nodes() on nil = %v, want nil", got)
	}
}

func TestNodesOnBareBlockIsSingleton(t *testing.T) {
	got := Block(42).Nodes()
	want := []cfg.NodeID{42}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Nodes() = %v, want %v", got, want)
	}
}

func TestIfBuildsExactlyTwoArms(t *testing.T) {
	it := If(0, Block(1), Block(2))
	if it.Kind != KindIf || len(it.Scopes) != 2 {
		t.Fatalf("If() = %+v, want KindIf with 2 scopes", it)
	}
	if it.Scopes[0].Node != 1 || it.Scopes[1].Node != 2 {
		t.Fatalf("If() scopes = %v, %v, want [Block(1), Block(2)]", it.Scopes[0], it.Scopes[1])
	}
}

func TestBreakCarriesNoNodesOfItsOwn(t *testing.T) {
	got := Break(7).Nodes()
	if got != nil {
		t.Fatalf("Nodes() on Break = %v, want nil", got)
	}
}
