// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package exodus_test

import (
	"reflect"
	"strings"
	"testing"

	exodus "github.com/mcoppeta/junior-design-1337-sub000"
	"github.com/mcoppeta/junior-design-1337-sub000/archive"
	"github.com/mcoppeta/junior-design-1337-sub000/boltdb"
	"github.com/mcoppeta/junior-design-1337-sub000/errors"
	"github.com/mcoppeta/junior-design-1337-sub000/logger"
)

// Ensure side sets present in an archive surface with their ids,
// default names, side lists and distribution factors.
func TestSideSets_FromArchive(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeRead)

	if got := f.NumSideSets(); got != 1 {
		t.Fatalf("expected 1 side set, got %d", got)
	}
	if got, want := f.SideSetIDs(), []int64{10}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected ids %v, got %v", want, got)
	}
	if got, want := f.SideSetNames(), []string{"SideSet 10"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected names %v, got %v", want, got)
	}

	elems, sides, err := f.SideSet(exodus.ByID(10))
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{1, 2}; !reflect.DeepEqual(elems, want) {
		t.Fatalf("expected elements %v, got %v", want, elems)
	}
	if want := []int64{5, 6}; !reflect.DeepEqual(sides, want) {
		t.Fatalf("expected sides %v, got %v", want, sides)
	}

	if facts, err := f.SideSetDistFactors(exodus.ByID(10)); err != nil {
		t.Fatal(err)
	} else if want := []float64{1, 2, 3, 4, 5, 6, 7, 8}; !reflect.DeepEqual(facts, want) {
		t.Fatalf("expected factors %v, got %v", want, facts)
	}

	if _, _, err := f.SideSet(exodus.ByID(99)); !errors.Is(err, exodus.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

// Ensure a staged side set translates external element ids to internal
// element numbers on the way in.
func TestSideSets_Add(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.AddSideSet([]int64{20, 10}, []int64{1, 2}, 20, "walls", nil, nil); err != nil {
		t.Fatal(err)
	}

	elems, sides, err := f.SideSet(exodus.ByID(20))
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{2, 1}; !reflect.DeepEqual(elems, want) {
		t.Fatalf("expected internal elements %v, got %v", want, elems)
	}
	if want := []int64{1, 2}; !reflect.DeepEqual(sides, want) {
		t.Fatalf("expected sides %v, got %v", want, sides)
	}
	if name, err := f.SideSetName(exodus.ByID(20)); err != nil {
		t.Fatal(err)
	} else if name != "walls" {
		t.Fatalf("expected name walls, got %q", name)
	}
}

// Ensure an empty side list is a no-op rather than an empty set.
func TestSideSets_Add_Empty(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.AddSideSet(nil, nil, 20, "", nil, nil); err != nil {
		t.Fatal(err)
	}
	if got := f.NumSideSets(); got != 1 {
		t.Fatalf("expected no new set, got %d sets", got)
	}
}

// Ensure malformed add requests are rejected: mismatched lists,
// unknown element ids, taken ids and factor counts that do not divide
// evenly.
func TestSideSets_Add_Validation(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.AddSideSet([]int64{10, 20}, []int64{1}, 20, "", nil, nil); !errors.Is(err, exodus.ErrSizeMismatch) {
		t.Fatalf("expected SizeMismatch, got %v", err)
	}
	if err := f.AddSideSet([]int64{77}, []int64{1}, 20, "", nil, nil); !errors.Is(err, exodus.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if err := f.AddSideSet([]int64{10}, []int64{1}, 10, "", nil, nil); !errors.Is(err, exodus.ErrDuplicateID) {
		t.Fatalf("expected DuplicateID, got %v", err)
	}
	if err := f.AddSideSet([]int64{10}, []int64{1}, 20, "SideSet 10", nil, nil); !errors.Is(err, exodus.ErrDuplicateName) {
		t.Fatalf("expected DuplicateName, got %v", err)
	}
	if err := f.AddSideSet([]int64{10, 20}, []int64{1, 2}, 20, "", []float64{1, 2, 3}, nil); !errors.Is(err, exodus.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if err := f.AddSideSet([]int64{10}, []int64{1}, 20, "", nil, [][][]float64{{{1}}, {{2}}}); !errors.Is(err, exodus.ErrSizeMismatch) {
		t.Fatalf("expected SizeMismatch for variable count, got %v", err)
	}
}

// Ensure new sides inherit the set's distribution factor ratio: a set
// with four factors per side gains four unit factors per added side.
func TestSideSets_AddSides_RatioPreserved(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.AddSidesToSideSet([]int64{10}, []int64{1}, exodus.ByID(10), nil, nil); err != nil {
		t.Fatal(err)
	}

	elems, sides, err := f.SideSet(exodus.ByID(10))
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{1, 2, 1}; !reflect.DeepEqual(elems, want) {
		t.Fatalf("expected elements %v, got %v", want, elems)
	}
	if want := []int64{5, 6, 1}; !reflect.DeepEqual(sides, want) {
		t.Fatalf("expected sides %v, got %v", want, sides)
	}
	if facts, err := f.SideSetDistFactors(exodus.ByID(10)); err != nil {
		t.Fatal(err)
	} else if want := []float64{1, 2, 3, 4, 5, 6, 7, 8, 1, 1, 1, 1}; !reflect.DeepEqual(facts, want) {
		t.Fatalf("expected factors %v, got %v", want, facts)
	}
}

// Ensure explicit factors must match the set's ratio exactly.
func TestSideSets_AddSides_ExplicitFactors(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.AddSidesToSideSet([]int64{10}, []int64{1}, exodus.ByID(10), []float64{9, 9}, nil); !errors.Is(err, exodus.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if err := f.AddSidesToSideSet([]int64{10}, []int64{1}, exodus.ByID(10), []float64{9, 9, 9, 9}, nil); err != nil {
		t.Fatal(err)
	}
	if facts, err := f.SideSetDistFactors(exodus.ByID(10)); err != nil {
		t.Fatal(err)
	} else if want := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 9, 9, 9}; !reflect.DeepEqual(facts, want) {
		t.Fatalf("expected factors %v, got %v", want, facts)
	}
}

// Ensure a factor-free set stays factor-free, and refuses sides that
// try to introduce factors after the fact.
func TestSideSets_AddSides_FactorFree(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.AddSideSet([]int64{10}, []int64{1}, 20, "", nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := f.AddSidesToSideSet([]int64{20}, []int64{2}, exodus.ByID(20), nil, nil); err != nil {
		t.Fatal(err)
	}
	if facts, err := f.SideSetDistFactors(exodus.ByID(20)); err != nil {
		t.Fatal(err)
	} else if len(facts) != 0 {
		t.Fatalf("expected no factors, got %v", facts)
	}
	if err := f.AddSidesToSideSet([]int64{20}, []int64{3}, exodus.ByID(20), []float64{1}, nil); !errors.Is(err, exodus.ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

// Ensure removal drops side, factor group and variable column in
// lockstep, and rejects requests that do not fully match.
func TestSideSets_RemoveSides(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.RemoveSidesFromSideSet([]int64{10}, []int64{5}, exodus.ByID(10)); err != nil {
		t.Fatal(err)
	}
	elems, sides, err := f.SideSet(exodus.ByID(10))
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{2}; !reflect.DeepEqual(elems, want) {
		t.Fatalf("expected elements %v, got %v", want, elems)
	}
	if want := []int64{6}; !reflect.DeepEqual(sides, want) {
		t.Fatalf("expected sides %v, got %v", want, sides)
	}
	if facts, err := f.SideSetDistFactors(exodus.ByID(10)); err != nil {
		t.Fatal(err)
	} else if want := []float64{5, 6, 7, 8}; !reflect.DeepEqual(facts, want) {
		t.Fatalf("expected factors %v, got %v", want, facts)
	}

	if err := f.RemoveSidesFromSideSet([]int64{20}, []int64{1}, exodus.ByID(10)); !errors.Is(err, exodus.ErrSizeMismatch) {
		t.Fatalf("expected SizeMismatch, got %v", err)
	}
}

// Ensure a predicate split partitions sides, carves factor groups with
// their sides and can consume the source set.
func TestSideSets_Split(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	pred := func(elem, side int64) (bool, error) { return side == 5, nil }
	if err := f.SplitSideSet(exodus.ByID(10), pred, 70, 71, true, "", ""); err != nil {
		t.Fatal(err)
	}

	if _, _, err := f.SideSet(exodus.ByID(10)); !errors.Is(err, exodus.ErrNotFound) {
		t.Fatalf("expected source removed, got %v", err)
	}

	elems, sides, err := f.SideSet(exodus.ByID(70))
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{1}; !reflect.DeepEqual(elems, want) {
		t.Fatalf("expected elements %v, got %v", want, elems)
	}
	if want := []int64{5}; !reflect.DeepEqual(sides, want) {
		t.Fatalf("expected sides %v, got %v", want, sides)
	}
	if facts, err := f.SideSetDistFactors(exodus.ByID(70)); err != nil {
		t.Fatal(err)
	} else if want := []float64{1, 2, 3, 4}; !reflect.DeepEqual(facts, want) {
		t.Fatalf("expected factors %v, got %v", want, facts)
	}

	if facts, err := f.SideSetDistFactors(exodus.ByID(71)); err != nil {
		t.Fatal(err)
	} else if want := []float64{5, 6, 7, 8}; !reflect.DeepEqual(facts, want) {
		t.Fatalf("expected factors %v, got %v", want, facts)
	}
	if name, err := f.SideSetName(exodus.ByID(71)); err != nil {
		t.Fatal(err)
	} else if name != "SideSet 71" {
		t.Fatalf("expected default name, got %q", name)
	}
}

// Ensure an empty partition's set is not created at all.
func TestSideSets_Split_EmptyPartition(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	pred := func(elem, side int64) (bool, error) { return true, nil }
	if err := f.SplitSideSet(exodus.ByID(10), pred, 70, 71, false, "", ""); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.SideSet(exodus.ByID(70)); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.SideSet(exodus.ByID(71)); !errors.Is(err, exodus.ErrNotFound) {
		t.Fatalf("expected no set for empty partition, got %v", err)
	}
}

// Ensure offspring of a factor-free source get one unit factor per
// side.
func TestSideSets_Split_DefaultFactors(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.AddSideSet([]int64{10, 20}, []int64{1, 2}, 20, "", nil, nil); err != nil {
		t.Fatal(err)
	}
	pred := func(elem, side int64) (bool, error) { return side == 1, nil }
	if err := f.SplitSideSet(exodus.ByID(20), pred, 70, 71, false, "", ""); err != nil {
		t.Fatal(err)
	}
	if facts, err := f.SideSetDistFactors(exodus.ByID(70)); err != nil {
		t.Fatal(err)
	} else if want := []float64{1}; !reflect.DeepEqual(facts, want) {
		t.Fatalf("expected factors %v, got %v", want, facts)
	}
}

// Ensure a split refuses to create its two offspring under one id or
// name, and stages nothing when it refuses.
func TestSideSets_Split_OffspringCollision(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	pred := func(elem, side int64) (bool, error) { return side == 5, nil }
	if err := f.SplitSideSet(exodus.ByID(10), pred, 70, 70, false, "", ""); !errors.Is(err, exodus.ErrDuplicateID) {
		t.Fatalf("expected DuplicateID, got %v", err)
	}
	if err := f.SplitSideSet(exodus.ByID(10), pred, 70, 71, false, "same", "same"); !errors.Is(err, exodus.ErrDuplicateName) {
		t.Fatalf("expected DuplicateName, got %v", err)
	}
	if err := f.SplitSideSet(exodus.ByID(10), pred, 70, 71, false, "SideSet 71", ""); !errors.Is(err, exodus.ErrDuplicateName) {
		t.Fatalf("expected DuplicateName, got %v", err)
	}
	if got := f.NumSideSets(); got != 1 {
		t.Fatalf("expected no staged offspring, got %d sets", got)
	}
}

// Ensure a coordinate threshold split sorts sides by where their face
// nodes sit on an axis: the bottom of the bar is below z=1, the top is
// not.
func TestSideSets_SplitByCoordinate(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	if err := f.SplitSideSetZ(exodus.ByID(10), exodus.Less, 1.0, exodus.AllNodes, 70, 71, false, "bottom", "top"); err != nil {
		t.Fatal(err)
	}

	elems, sides, err := f.SideSet(exodus.ByID(70))
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{1}; !reflect.DeepEqual(elems, want) {
		t.Fatalf("expected elements %v, got %v", want, elems)
	}
	if want := []int64{5}; !reflect.DeepEqual(sides, want) {
		t.Fatalf("expected sides %v, got %v", want, sides)
	}

	elems, sides, err = f.SideSet(exodus.ByID(71))
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{2}; !reflect.DeepEqual(elems, want) {
		t.Fatalf("expected elements %v, got %v", want, elems)
	}
	if want := []int64{6}; !reflect.DeepEqual(sides, want) {
		t.Fatalf("expected sides %v, got %v", want, sides)
	}
}

// Ensure the any-node test is satisfied by a single matching node
// where the all-nodes test is not.
func TestSideSets_SplitByCoordinate_AnyNode(t *testing.T) {
	path := tempPath(t, "bar.db")
	buildBarMesh(t, path)
	f := mustOpen(t, path, exodus.ModeAppend)

	// Face 2 of element 1 spans z=0 and z=1, so it only lands in the
	// first output when a single node above z=0.5 is enough.
	if err := f.AddSideSet([]int64{10}, []int64{2}, 20, "", nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := f.SplitSideSetZ(exodus.ByID(20), exodus.Greater, 0.5, exodus.AnyNode, 70, 71, false, "", ""); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.SideSet(exodus.ByID(70)); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.SideSet(exodus.ByID(71)); !errors.Is(err, exodus.ErrNotFound) {
		t.Fatalf("expected empty second partition, got %v", err)
	}

	if err := f.AddSideSet([]int64{10}, []int64{2}, 30, "", nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := f.SplitSideSetZ(exodus.ByID(30), exodus.Greater, 0.5, exodus.AllNodes, 80, 81, false, "", ""); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.SideSet(exodus.ByID(80)); !errors.Is(err, exodus.ErrNotFound) {
		t.Fatalf("expected empty first partition, got %v", err)
	}
	if _, _, err := f.SideSet(exodus.ByID(81)); err != nil {
		t.Fatal(err)
	}
}

// Ensure a source set whose distribution factor count is not a
// per-side multiple is treated as factor-free on first pull, with the
// drop logged instead of silent.
func TestSideSets_RaggedDistFactors(t *testing.T) {
	path := tempPath(t, "ragged.db")
	mustBuildArchive(t, path, func(a *boltdb.Datastore) {
		must := func(err error) {
			t.Helper()
			if err != nil {
				t.Fatal(err)
			}
		}
		stampHeader(t, a)
		must(a.DefineDimension("num_side_sets", 1))
		must(a.DefineVariable(archive.VarMeta{Name: "ss_prop1", Type: archive.TypeInt, Dims: []string{"num_side_sets"}, Attrs: map[string]interface{}{"name": "ID"}}))
		must(a.WriteInts("ss_prop1", []int64{10}))
		must(a.DefineDimension("num_side_ss1", 2))
		must(a.DefineVariable(archive.VarMeta{Name: "elem_ss1", Type: archive.TypeInt, Dims: []string{"num_side_ss1"}}))
		must(a.WriteInts("elem_ss1", []int64{1, 2}))
		must(a.DefineVariable(archive.VarMeta{Name: "side_ss1", Type: archive.TypeInt, Dims: []string{"num_side_ss1"}}))
		must(a.WriteInts("side_ss1", []int64{5, 6}))
		must(a.DefineDimension("num_df_ss1", 3))
		must(a.DefineVariable(archive.VarMeta{Name: "dist_fact_ss1", Type: archive.TypeFloat, Dims: []string{"num_df_ss1"}}))
		must(a.WriteFloats("dist_fact_ss1", []float64{1, 2, 3}))
		must(a.Sync())
	})

	buf := logger.NewBufferLogger()
	l, err := exodus.NewSideSetLedger(mustOpenRaw(t, path), buf, exodus.NopStatsClient)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.AddSides([]int64{1}, []int64{3}, exodus.ByID(10), nil, nil); err != nil {
		t.Fatal(err)
	}
	if facts, err := l.DistFactors(exodus.ByID(10)); err != nil {
		t.Fatal(err)
	} else if len(facts) != 0 {
		t.Fatalf("expected the ragged factors to be dropped, got %v", facts)
	}
	logs, err := buf.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(logs), "not a per-side multiple") {
		t.Fatalf("expected a warning about the dropped factors, got %q", logs)
	}
}
