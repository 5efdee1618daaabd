package trace

import (
	"slices"
	"testing"
)

func TestDeriveLinks(t *testing.T) {
	// A ─┬─► B   (pre-edge)
	//    └─► C   (pre-edge)
	//    │
	//    └── D   (father-child)
	nodes := []Node{
		{ID: "A"},
		{ID: "B", PreIDs: []string{"A"}},
		{ID: "C", PreIDs: []string{"A"}},
		{ID: "D", FatherID: "A"},
	}

	got := DeriveLinks(nodes)

	if want := []string{"B", "C"}; !slices.Equal(got[0].PostIDs, want) {
		t.Errorf("A.PostIDs = %v, want %v", got[0].PostIDs, want)
	}
	if want := []string{"D"}; !slices.Equal(got[0].ChildIDs, want) {
		t.Errorf("A.ChildIDs = %v, want %v", got[0].ChildIDs, want)
	}
	for _, n := range got[1:] {
		if len(n.PostIDs) != 0 || len(n.ChildIDs) != 0 {
			t.Errorf("%s gained links: post=%v child=%v", n.ID, n.PostIDs, n.ChildIDs)
		}
	}

	if nodes[0].PostIDs != nil || nodes[0].ChildIDs != nil {
		t.Error("DeriveLinks mutated its input")
	}
}

func TestDeriveLinks_MissingReferences(t *testing.T) {
	nodes := []Node{
		{ID: "X", PreIDs: []string{"no_exist"}},
		{ID: "Y", PreIDs: []string{"X"}, FatherID: "no_exist"},
	}
	got := DeriveLinks(nodes)

	if want := []string{"Y"}; !slices.Equal(got[0].PostIDs, want) {
		t.Errorf("X.PostIDs = %v, want %v", got[0].PostIDs, want)
	}
	if len(got[0].ChildIDs) != 0 {
		t.Errorf("X.ChildIDs = %v, want empty", got[0].ChildIDs)
	}
}

func TestDeriveLinks_KeepsExistingOrder(t *testing.T) {
	nodes := []Node{
		{ID: "A", PostIDs: []string{"C"}, ChildIDs: []string{"E"}},
		{ID: "B", PreIDs: []string{"A"}},
		{ID: "C", PreIDs: []string{"A"}},
		{ID: "D", FatherID: "A"},
		{ID: "E", FatherID: "A"},
	}
	got := DeriveLinks(nodes)

	if want := []string{"C", "B"}; !slices.Equal(got[0].PostIDs, want) {
		t.Errorf("A.PostIDs = %v, want %v", got[0].PostIDs, want)
	}
	if want := []string{"E", "D"}; !slices.Equal(got[0].ChildIDs, want) {
		t.Errorf("A.ChildIDs = %v, want %v", got[0].ChildIDs, want)
	}
}
