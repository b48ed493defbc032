package nestedset

import (
	"errors"
	"testing"
)

func TestBuildRelations(t *testing.T) {
	nodes := []Node{
		{ID: "a", Parent: "r"},
		{ID: "r"},
		{ID: "leaf", Parent: "a", Leaf: true},
		{ID: "a", Parent: "r"},
	}

	rel, err := BuildRelations(nodes)
	if err != nil {
		t.Fatalf("BuildRelations() error = %v", err)
	}
	if rel.Root != 1 {
		t.Errorf("Root = %d, want 1", rel.Root)
	}
	if i, ok := rel.Parent("a"); !ok || i != 0 {
		t.Errorf("Parent(a) = %d, %v, want 0, true", i, ok)
	}
	if _, ok := rel.Parent("leaf"); ok {
		t.Error("leaf identity should not be in the lookup")
	}
	if len(rel.Lookup) != 2 {
		t.Errorf("len(Lookup) = %d, want 2", len(rel.Lookup))
	}
}

func TestBuildRelations_LeafRoot(t *testing.T) {
	rel, err := BuildRelations([]Node{{ID: "only", Leaf: true}})
	if err != nil {
		t.Fatalf("BuildRelations() error = %v", err)
	}
	if rel.Root != 0 {
		t.Errorf("Root = %d, want 0", rel.Root)
	}
}

func TestBuildRelations_Errors(t *testing.T) {
	if _, err := BuildRelations([]Node{{ID: "a", Parent: "a"}}); !errors.Is(err, ErrRootNotFound) {
		t.Errorf("no root: error = %v, want ErrRootNotFound", err)
	}
	if _, err := BuildRelations([]Node{{ID: "a"}, {ID: "b", Leaf: true}}); !errors.Is(err, ErrMultipleRoots) {
		t.Errorf("two roots: error = %v, want ErrMultipleRoots", err)
	}
}

func TestValidate(t *testing.T) {
	if _, err := Validate(clothing()); err != nil {
		t.Errorf("Validate(clothing) error = %v", err)
	}

	_, err := Validate([]Node{{ID: "r"}, {ID: "a", Parent: "r"}, {ID: "b", Parent: "nope"}})
	var pe *ParentNotFoundError
	if !errors.As(err, &pe) || pe.Identity != "nope" {
		t.Errorf("Validate() error = %v, want ParentNotFoundError(nope)", err)
	}
}
