// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package exodus_test

import (
	"reflect"
	"testing"

	exodus "github.com/mcoppeta/junior-design-1337-sub000"
	"github.com/mcoppeta/junior-design-1337-sub000/errors"
)

// Ensure element type names resolve regardless of case and padding,
// and that the bare aliases map to their smallest variant.
func TestTopologyFor(t *testing.T) {
	for _, tt := range []struct {
		in       string
		numNodes int
		numFaces int
	}{
		{"HEX8", 8, 6},
		{"hex8", 8, 6},
		{" HEX8 ", 8, 6},
		{"HEX", 8, 6},
		{"HEX27", 27, 6},
		{"TETRA", 4, 4},
		{"TETRA10", 10, 4},
		{"WEDGE6", 6, 5},
		{"PYRA5", 5, 5},
		{"QUAD4", 4, 4},
		{"TRI3", 3, 5},
		{"SHELL4", 4, 6},
		{"BAR2", 2, 1},
		{"SPHERE", 1, 1},
	} {
		topo, err := exodus.TopologyFor(tt.in)
		if err != nil {
			t.Fatalf("TopologyFor(%q): %v", tt.in, err)
		}
		if topo.NumNodes != tt.numNodes {
			t.Fatalf("TopologyFor(%q): expected %d nodes, got %d", tt.in, tt.numNodes, topo.NumNodes)
		}
		if topo.NumFaces() != tt.numFaces {
			t.Fatalf("TopologyFor(%q): expected %d faces, got %d", tt.in, tt.numFaces, topo.NumFaces())
		}
	}
}

// Ensure unknown element types are rejected with a coded error.
func TestTopologyFor_Unsupported(t *testing.T) {
	_, err := exodus.TopologyFor("DODECAHEDRON")
	if err == nil {
		t.Fatal("expected error")
	} else if !errors.Is(err, exodus.ErrUnsupportedType) {
		t.Fatalf("expected UnsupportedType, got %v", err)
	}
}

// Ensure a connectivity row maps to its faces through the local face
// node positions.
func TestTopology_ElementFaces(t *testing.T) {
	topo, err := exodus.TopologyFor("HEX8")
	if err != nil {
		t.Fatal(err)
	}

	faces, err := topo.ElementFaces([]int64{21, 22, 23, 24, 25, 26, 27, 28})
	if err != nil {
		t.Fatal(err)
	}
	if len(faces) != 6 {
		t.Fatalf("expected 6 faces, got %d", len(faces))
	}
	if got, want := faces[0], []int64{21, 22, 26, 25}; !reflect.DeepEqual(got, want) {
		t.Fatalf("face 1: expected %v, got %v", want, got)
	}
	if got, want := faces[4], []int64{21, 24, 23, 22}; !reflect.DeepEqual(got, want) {
		t.Fatalf("face 5: expected %v, got %v", want, got)
	}
	if got, want := faces[5], []int64{25, 26, 27, 28}; !reflect.DeepEqual(got, want) {
		t.Fatalf("face 6: expected %v, got %v", want, got)
	}
}

// Ensure a row of the wrong length is rejected.
func TestTopology_ElementFaces_WrongLength(t *testing.T) {
	topo, err := exodus.TopologyFor("TETRA4")
	if err != nil {
		t.Fatal(err)
	}
	_, err = topo.ElementFaces([]int64{1, 2, 3})
	if err == nil {
		t.Fatal("expected error")
	} else if !errors.Is(err, exodus.ErrInvalidShape) {
		t.Fatalf("expected InvalidShape, got %v", err)
	}
}

// Ensure the quadratic variants reuse their parents' face structure,
// with midside nodes folded into the right faces.
func TestTopology_ElementFaces_Quadratic(t *testing.T) {
	topo, err := exodus.TopologyFor("TETRA10")
	if err != nil {
		t.Fatal(err)
	}
	row := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	faces, err := topo.ElementFaces(row)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := faces[0], []int64{1, 2, 4, 5, 9, 8}; !reflect.DeepEqual(got, want) {
		t.Fatalf("face 1: expected %v, got %v", want, got)
	}
}
