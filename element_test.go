// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package exodus_test

import (
	"reflect"
	"testing"

	exodus "github.com/mcoppeta/junior-design-1337-sub000"
	"github.com/mcoppeta/junior-design-1337-sub000/errors"
)

// Ensure element blocks present in an archive surface with their ids,
// default names, shape and connectivity.
func TestElements_FromArchive(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeRead)

	if got := f.NumElementBlocks(); got != 1 {
		t.Fatalf("expected 1 block, got %d", got)
	}
	if got := f.NumElements(); got != 2 {
		t.Fatalf("expected 2 elements, got %d", got)
	}
	if got, want := f.ElementBlockIDs(), []int64{100}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected block ids %v, got %v", want, got)
	}
	if got, want := f.ElementBlockNames(), []string{"Block 100"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected block names %v, got %v", want, got)
	}
	if got, want := f.ElementIDMap(), []int64{10, 20}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected element ids %v, got %v", want, got)
	}

	elemType, nodesPer, count, err := f.BlockInfo(exodus.ByID(100))
	if err != nil {
		t.Fatal(err)
	}
	if elemType != "HEX8" || nodesPer != 8 || count != 2 {
		t.Fatalf("unexpected block info: %s %d %d", elemType, nodesPer, count)
	}

	conn, err := f.BlockConnectivity(exodus.ByName("Block 100"))
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{1, 2, 3, 4, 5, 6, 7, 8, 5, 6, 7, 8, 9, 10, 11, 12}
	if !reflect.DeepEqual(conn, want) {
		t.Fatalf("expected connectivity %v, got %v", want, conn)
	}

	if _, _, _, err := f.BlockInfo(exodus.ByID(999)); !errors.Is(err, exodus.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

// Ensure a new element lands at the end of its block with the smallest
// unused positive external id.
func TestElements_Add(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	id, err := f.AddElement(exodus.ByID(100), []int64{1, 2, 3, 4, 9, 10, 11, 12})
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Fatalf("expected minted id 1, got %d", id)
	}

	if got := f.NumElements(); got != 3 {
		t.Fatalf("expected 3 elements, got %d", got)
	}
	if got, want := f.ElementIDMap(), []int64{10, 20, 1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected element ids %v, got %v", want, got)
	}
	if _, _, count, err := f.BlockInfo(exodus.ByID(100)); err != nil {
		t.Fatal(err)
	} else if count != 3 {
		t.Fatalf("expected 3 elements in block, got %d", count)
	}
	conn, err := f.BlockConnectivity(exodus.ByID(100))
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{1, 2, 3, 4, 5, 6, 7, 8, 5, 6, 7, 8, 9, 10, 11, 12, 1, 2, 3, 4, 9, 10, 11, 12}
	if !reflect.DeepEqual(conn, want) {
		t.Fatalf("expected connectivity %v, got %v", want, conn)
	}
}

// Ensure malformed elements are rejected: wrong node counts, node
// lists already present in the block, repeated nodes and unknown
// blocks.
func TestElements_Add_Validation(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if _, err := f.AddElement(exodus.ByID(100), []int64{1, 2, 3}); !errors.Is(err, exodus.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if _, err := f.AddElement(exodus.ByID(100), []int64{1, 2, 3, 4, 5, 6, 7, 8}); !errors.Is(err, exodus.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument for duplicate row, got %v", err)
	}
	if _, err := f.AddElement(exodus.ByID(100), []int64{1, 1, 3, 4, 9, 10, 11, 12}); !errors.Is(err, exodus.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument for repeated node, got %v", err)
	}
	if _, err := f.AddElement(exodus.ByID(999), []int64{1, 2, 3, 4, 9, 10, 11, 12}); !errors.Is(err, exodus.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

// Ensure removal drops the element's row, id and variable columns, and
// freed ids are reusable.
func TestElements_Remove(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.RemoveElement(10); err != nil {
		t.Fatal(err)
	}
	if got := f.NumElements(); got != 1 {
		t.Fatalf("expected 1 element, got %d", got)
	}
	if got, want := f.ElementIDMap(), []int64{20}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected element ids %v, got %v", want, got)
	}
	if conn, err := f.BlockConnectivity(exodus.ByID(100)); err != nil {
		t.Fatal(err)
	} else if want := []int64{5, 6, 7, 8, 9, 10, 11, 12}; !reflect.DeepEqual(conn, want) {
		t.Fatalf("expected connectivity %v, got %v", want, conn)
	}

	if err := f.RemoveElement(10); !errors.Is(err, exodus.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	if id, err := f.AddElement(exodus.ByID(100), []int64{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatal(err)
	} else if id != 1 {
		t.Fatalf("expected minted id 1, got %d", id)
	}
}

// Ensure skinning the bar finds the ten boundary faces and skips the
// one interior face the two elements share.
func TestElements_Skin(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.SkinBlock(exodus.ByID(100), 90, "boundary"); err != nil {
		t.Fatal(err)
	}

	elems, sides, err := f.SideSet(exodus.ByID(90))
	if err != nil {
		t.Fatal(err)
	}
	wantElems := []int64{1, 1, 1, 1, 1, 2, 2, 2, 2, 2}
	wantSides := []int64{1, 2, 3, 4, 5, 1, 2, 3, 4, 6}
	if !reflect.DeepEqual(elems, wantElems) {
		t.Fatalf("expected elements %v, got %v", wantElems, elems)
	}
	if !reflect.DeepEqual(sides, wantSides) {
		t.Fatalf("expected sides %v, got %v", wantSides, sides)
	}
	if name, err := f.SideSetName(exodus.ByID(90)); err != nil {
		t.Fatal(err)
	} else if name != "boundary" {
		t.Fatalf("expected name boundary, got %q", name)
	}
	if facts, err := f.SideSetDistFactors(exodus.ByID(90)); err != nil {
		t.Fatal(err)
	} else if len(facts) != 0 {
		t.Fatalf("expected no factors on a skin, got %v", facts)
	}
}

// Ensure the whole-mesh skin matches the single-block skin when there
// is only one block, and refuses taken side set ids.
func TestElements_SkinAll(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.Skin(90, ""); err != nil {
		t.Fatal(err)
	}
	if _, sides, err := f.SideSet(exodus.ByID(90)); err != nil {
		t.Fatal(err)
	} else if len(sides) != 10 {
		t.Fatalf("expected 10 boundary faces, got %d", len(sides))
	}
	if name, err := f.SideSetName(exodus.ByID(90)); err != nil {
		t.Fatal(err)
	} else if name != "SideSet 90" {
		t.Fatalf("expected default name, got %q", name)
	}

	if err := f.Skin(10, ""); !errors.Is(err, exodus.ErrDuplicateID) {
		t.Fatalf("expected DuplicateID, got %v", err)
	}
}

// Ensure a face shared by three elements fails the skin with an
// invalid mesh error.
func TestElements_Skin_NonManifold(t *testing.T) {
	path := tempPath(t, "nonmanifold.db")
	buildNonManifoldMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.Skin(90, ""); !errors.Is(err, exodus.ErrInvalidMesh) {
		t.Fatalf("expected InvalidMesh, got %v", err)
	}
}

// Ensure staged element edits and skins compose: removing an element
// changes which faces are on the boundary.
func TestElements_RemoveThenSkin(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.RemoveElement(20); err != nil {
		t.Fatal(err)
	}
	if err := f.Skin(90, ""); err != nil {
		t.Fatal(err)
	}
	elems, sides, err := f.SideSet(exodus.ByID(90))
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{1, 1, 1, 1, 1, 1}; !reflect.DeepEqual(elems, want) {
		t.Fatalf("expected elements %v, got %v", want, elems)
	}
	if want := []int64{1, 2, 3, 4, 5, 6}; !reflect.DeepEqual(sides, want) {
		t.Fatalf("expected sides %v, got %v", want, sides)
	}
}
