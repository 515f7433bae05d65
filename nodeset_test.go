// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package exodus_test

import (
	"reflect"
	"testing"

	exodus "github.com/mcoppeta/junior-design-1337-sub000"
	"github.com/mcoppeta/junior-design-1337-sub000/errors"
)

// Ensure node sets present in an archive surface with their ids,
// default names and members.
func TestNodeSets_FromArchive(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeRead)

	if got := f.NumNodeSets(); got != 2 {
		t.Fatalf("expected 2 node sets, got %d", got)
	}
	if got, want := f.NodeSetIDs(), []int64{50, 51}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected ids %v, got %v", want, got)
	}
	if got, want := f.NodeSetNames(), []string{"NodeSet 50", "NodeSet 51"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected names %v, got %v", want, got)
	}

	if members, err := f.NodeSet(exodus.ByID(50)); err != nil {
		t.Fatal(err)
	} else if want := []int64{1, 2, 3}; !reflect.DeepEqual(members, want) {
		t.Fatalf("expected members %v, got %v", want, members)
	}
	if members, err := f.NodeSet(exodus.ByName("NodeSet 51")); err != nil {
		t.Fatal(err)
	} else if want := []int64{4, 5, 6, 7}; !reflect.DeepEqual(members, want) {
		t.Fatalf("expected members %v, got %v", want, members)
	}

	if _, err := f.NodeSet(exodus.ByID(99)); !errors.Is(err, exodus.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

// Ensure a staged node set stores its members sorted with duplicates
// collapsed, and an empty name falls back to the id-derived default.
func TestNodeSets_Add(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.AddNodeSet([]int64{9, 3, 9, 1}, 60, ""); err != nil {
		t.Fatal(err)
	}
	if members, err := f.NodeSet(exodus.ByID(60)); err != nil {
		t.Fatal(err)
	} else if want := []int64{1, 3, 9}; !reflect.DeepEqual(members, want) {
		t.Fatalf("expected members %v, got %v", want, members)
	}
	if name, err := f.NodeSetName(exodus.ByID(60)); err != nil {
		t.Fatal(err)
	} else if name != "NodeSet 60" {
		t.Fatalf("expected default name, got %q", name)
	}
}

// Ensure id and name collisions are rejected, including the collision
// between a given name and the default name a later unnamed set would
// take.
func TestNodeSets_Add_Collisions(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.AddNodeSet([]int64{1}, 50, "fresh"); !errors.Is(err, exodus.ErrDuplicateID) {
		t.Fatalf("expected DuplicateID, got %v", err)
	}
	if err := f.AddNodeSet([]int64{1}, 60, "NodeSet 51"); !errors.Is(err, exodus.ErrDuplicateName) {
		t.Fatalf("expected DuplicateName, got %v", err)
	}

	// Claim the name an id-61 set would default to, then try to stage
	// id 61 under a different name.
	if err := f.AddNodeSet([]int64{1}, 60, "NodeSet 61"); err != nil {
		t.Fatal(err)
	}
	if err := f.AddNodeSet([]int64{2}, 61, "other"); !errors.Is(err, exodus.ErrDuplicateName) {
		t.Fatalf("expected DuplicateName, got %v", err)
	}
}

// Ensure removing a node set frees its id and name for reuse.
func TestNodeSets_Remove(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.RemoveNodeSet(exodus.ByID(50)); err != nil {
		t.Fatal(err)
	}
	if got := f.NumNodeSets(); got != 1 {
		t.Fatalf("expected 1 node set, got %d", got)
	}
	if _, err := f.NodeSet(exodus.ByID(50)); !errors.Is(err, exodus.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if err := f.AddNodeSet([]int64{11, 12}, 50, ""); err != nil {
		t.Fatal(err)
	}
	if members, err := f.NodeSet(exodus.ByID(50)); err != nil {
		t.Fatal(err)
	} else if want := []int64{11, 12}; !reflect.DeepEqual(members, want) {
		t.Fatalf("expected members %v, got %v", want, members)
	}
}

// Ensure adding nodes and then removing the same nodes restores the
// original membership.
func TestNodeSets_AddRemoveNodes_Inverse(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	before, err := f.NodeSet(exodus.ByID(50))
	if err != nil {
		t.Fatal(err)
	}

	if err := f.AddNodesToNodeSet([]int64{8, 9}, exodus.ByID(50)); err != nil {
		t.Fatal(err)
	}
	if members, err := f.NodeSet(exodus.ByID(50)); err != nil {
		t.Fatal(err)
	} else if want := []int64{1, 2, 3, 8, 9}; !reflect.DeepEqual(members, want) {
		t.Fatalf("expected members %v, got %v", want, members)
	}

	if err := f.RemoveNodesFromNodeSet([]int64{8, 9}, exodus.ByID(50)); err != nil {
		t.Fatal(err)
	}
	if members, err := f.NodeSet(exodus.ByID(50)); err != nil {
		t.Fatal(err)
	} else if !reflect.DeepEqual(members, before) {
		t.Fatalf("expected members %v, got %v", before, members)
	}
}

// Ensure adding a node that is already a member collapses instead of
// duplicating.
func TestNodeSets_AddNodes_AlreadyMember(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.AddNodeToNodeSet(2, exodus.ByID(50)); err != nil {
		t.Fatal(err)
	}
	if members, err := f.NodeSet(exodus.ByID(50)); err != nil {
		t.Fatal(err)
	} else if want := []int64{1, 2, 3}; !reflect.DeepEqual(members, want) {
		t.Fatalf("expected members %v, got %v", want, members)
	}
}

// Ensure a removal request listing more nodes than actually match is
// rejected before anything changes, including the same node listed
// twice.
func TestNodeSets_RemoveNodes_Overshoot(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.RemoveNodesFromNodeSet([]int64{2, 99}, exodus.ByID(50)); !errors.Is(err, exodus.ErrSizeMismatch) {
		t.Fatalf("expected SizeMismatch, got %v", err)
	}
	if err := f.RemoveNodesFromNodeSet([]int64{2, 2}, exodus.ByID(50)); !errors.Is(err, exodus.ErrSizeMismatch) {
		t.Fatalf("expected SizeMismatch, got %v", err)
	}
	if members, err := f.NodeSet(exodus.ByID(50)); err != nil {
		t.Fatal(err)
	} else if want := []int64{1, 2, 3}; !reflect.DeepEqual(members, want) {
		t.Fatalf("expected members unchanged %v, got %v", want, members)
	}
}

// Ensure merging two sets produces the sorted union of their members
// under the new id's default name.
func TestNodeSets_Merge(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	// Overlap the operands first so the union actually collapses.
	if err := f.AddNodesToNodeSet([]int64{4, 5}, exodus.ByID(50)); err != nil {
		t.Fatal(err)
	}
	if err := f.MergeNodeSets(52, 50, 51, false); err != nil {
		t.Fatal(err)
	}

	if members, err := f.NodeSet(exodus.ByID(52)); err != nil {
		t.Fatal(err)
	} else if want := []int64{1, 2, 3, 4, 5, 6, 7}; !reflect.DeepEqual(members, want) {
		t.Fatalf("expected union %v, got %v", want, members)
	}
	if name, err := f.NodeSetName(exodus.ByID(52)); err != nil {
		t.Fatal(err)
	} else if name != "NodeSet 52" {
		t.Fatalf("expected default name, got %q", name)
	}
	if got := f.NumNodeSets(); got != 3 {
		t.Fatalf("expected operands kept, got %d sets", got)
	}
}

// Ensure merge can consume its operands.
func TestNodeSets_Merge_DeleteOperands(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.MergeNodeSets(52, 50, 51, true); err != nil {
		t.Fatal(err)
	}
	if got, want := f.NodeSetIDs(), []int64{52}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected ids %v, got %v", want, got)
	}
	if members, err := f.NodeSet(exodus.ByID(52)); err != nil {
		t.Fatal(err)
	} else if want := []int64{1, 2, 3, 4, 5, 6, 7}; !reflect.DeepEqual(members, want) {
		t.Fatalf("expected union %v, got %v", want, members)
	}
}

// Ensure merging onto a taken id is rejected.
func TestNodeSets_Merge_TakenID(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.MergeNodeSets(51, 50, 51, false); !errors.Is(err, exodus.ErrDuplicateID) {
		t.Fatalf("expected DuplicateID, got %v", err)
	}
}

// Ensure partial reads slice the membership with 1-based bounds.
func TestNodeSets_PartialRead(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeRead)

	if members, err := f.PartialNodeSet(exodus.ByID(51), 2, 2); err != nil {
		t.Fatal(err)
	} else if want := []int64{5, 6}; !reflect.DeepEqual(members, want) {
		t.Fatalf("expected members %v, got %v", want, members)
	}
	if _, err := f.PartialNodeSet(exodus.ByID(51), 0, 1); !errors.Is(err, exodus.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if _, err := f.PartialNodeSet(exodus.ByID(51), 3, 3); !errors.Is(err, exodus.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}
