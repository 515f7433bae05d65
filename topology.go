// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package exodus

import (
	"fmt"
	"strings"
)

// Topology describes one supported element type: the number of nodes
// an element of that type carries, and the ordered local node
// positions that make up each of its faces. Local positions are
// 1-based, matching the face numbering of the format's C API.
type Topology struct {
	Type     string
	NumNodes int
	FaceMap  [][]int
}

// NumFaces returns the number of faces an element of this type has.
func (t Topology) NumFaces() int { return len(t.FaceMap) }

// ElementFaces maps one connectivity row to its faces. The returned
// slice holds, for each face in face order, the node ids making up
// that face. The row must contain exactly NumNodes entries.
func (t Topology) ElementFaces(element []int64) ([][]int64, error) {
	if len(element) != t.NumNodes {
		return nil, NewErrInvalidShape(fmt.Sprintf("element type %s should have %d nodes, but %d nodes found in element %v", t.Type, t.NumNodes, len(element), element))
	}
	faces := make([][]int64, 0, len(t.FaceMap))
	for _, locals := range t.FaceMap {
		face := make([]int64, len(locals))
		for i, pos := range locals {
			face[i] = element[pos-1]
		}
		faces = append(faces, face)
	}
	return faces, nil
}

// Face maps shared between an element type and its padded variants.
// The variants carry extra nodes which sit on no face.
var (
	quad4Faces = [][]int{{1, 2}, {2, 3}, {3, 4}, {4, 1}}
	quad8Faces = [][]int{{1, 2, 5}, {2, 3, 6}, {3, 4, 7}, {4, 1, 8}}

	wedge15Faces = [][]int{
		{1, 2, 5, 4, 7, 11, 13, 10},
		{2, 3, 6, 5, 8, 12, 14, 11},
		{1, 4, 6, 3, 10, 15, 12, 9},
		{1, 3, 2, 9, 8, 7},
		{4, 5, 6, 13, 14, 15},
	}
	wedge20Faces = [][]int{
		{1, 2, 5, 4, 7, 11, 13, 10, 20},
		{2, 3, 6, 5, 8, 12, 14, 11, 18},
		{1, 4, 6, 3, 10, 15, 12, 9, 19},
		{1, 3, 2, 9, 8, 7, 16},
		{4, 5, 6, 13, 14, 15, 17},
	}
	hex8Faces = [][]int{
		{1, 2, 6, 5},
		{2, 3, 7, 6},
		{3, 4, 8, 7},
		{1, 5, 8, 4},
		{1, 4, 3, 2},
		{5, 6, 7, 8},
	}
	pyra13Faces = [][]int{
		{1, 2, 5, 6, 11, 10},
		{2, 3, 5, 7, 12, 11},
		{3, 4, 5, 8, 13, 12},
		{4, 1, 5, 9, 10, 13},
		{1, 4, 3, 2, 9, 8, 7, 6},
	}
)

var (
	topoCircle = Topology{Type: "CIRCLE", NumNodes: 1, FaceMap: [][]int{{1}}}
	topoBar2   = Topology{Type: "BAR2", NumNodes: 2, FaceMap: [][]int{{1, 2}}}
	topoBar3   = Topology{Type: "BAR3", NumNodes: 3, FaceMap: [][]int{{1, 2, 3}}}

	topoQuad4 = Topology{Type: "QUAD4", NumNodes: 4, FaceMap: quad4Faces}
	topoQuad5 = Topology{Type: "QUAD5", NumNodes: 5, FaceMap: quad4Faces}
	topoQuad8 = Topology{Type: "QUAD8", NumNodes: 8, FaceMap: quad8Faces}
	topoQuad9 = Topology{Type: "QUAD9", NumNodes: 9, FaceMap: quad8Faces}

	topoShell4 = Topology{Type: "SHELL4", NumNodes: 4, FaceMap: [][]int{
		{1, 2, 3, 4},
		{1, 4, 3, 2},
		{1, 2},
		{2, 3},
		{3, 4},
		{4, 1},
	}}
	topoShell8 = Topology{Type: "SHELL8", NumNodes: 8, FaceMap: [][]int{
		{1, 2, 3, 4, 5, 6, 7, 8},
		{1, 4, 3, 2, 8, 7, 6, 5},
		{1, 2, 5},
		{2, 3, 6},
		{3, 4, 7},
		{4, 1, 8},
	}}
	topoShell9 = Topology{Type: "SHELL9", NumNodes: 9, FaceMap: [][]int{
		{1, 2, 3, 4, 5, 6, 7, 8, 9},
		{1, 4, 3, 2, 8, 7, 6, 5, 9},
		{1, 2, 5},
		{2, 3, 6},
		{3, 4, 7},
		{4, 1, 8},
	}}

	topoTriShell3 = Topology{Type: "TRISHELL3", NumNodes: 3, FaceMap: [][]int{
		{1, 2, 3},
		{1, 3, 2},
		{1, 2},
		{2, 3},
		{3, 1},
	}}
	topoTriShell6 = Topology{Type: "TRISHELL6", NumNodes: 6, FaceMap: [][]int{
		{1, 2, 3, 4, 5, 6},
		{1, 3, 2, 6, 5, 4},
		{1, 2, 4},
		{2, 3, 5},
		{3, 1, 6},
	}}

	topoTetra4 = Topology{Type: "TETRA4", NumNodes: 4, FaceMap: [][]int{
		{1, 2, 4},
		{2, 3, 4},
		{1, 4, 3},
		{1, 3, 2},
	}}
	topoTetra10 = Topology{Type: "TETRA10", NumNodes: 10, FaceMap: [][]int{
		{1, 2, 4, 5, 9, 8},
		{2, 3, 4, 6, 10, 9},
		{1, 4, 3, 8, 10, 7},
		{1, 3, 2, 7, 6, 5},
	}}

	topoWedge6 = Topology{Type: "WEDGE6", NumNodes: 6, FaceMap: [][]int{
		{1, 2, 5, 4},
		{2, 3, 6, 5},
		{1, 4, 6, 3},
		{1, 3, 2},
		{4, 5, 6},
	}}
	topoWedge15 = Topology{Type: "WEDGE15", NumNodes: 15, FaceMap: wedge15Faces}
	topoWedge16 = Topology{Type: "WEDGE16", NumNodes: 16, FaceMap: wedge15Faces}
	topoWedge20 = Topology{Type: "WEDGE20", NumNodes: 20, FaceMap: wedge20Faces}
	topoWedge21 = Topology{Type: "WEDGE21", NumNodes: 21, FaceMap: wedge20Faces}

	topoHex8  = Topology{Type: "HEX8", NumNodes: 8, FaceMap: hex8Faces}
	topoHex9  = Topology{Type: "HEX9", NumNodes: 9, FaceMap: hex8Faces}
	topoHex20 = Topology{Type: "HEX20", NumNodes: 20, FaceMap: [][]int{
		{1, 2, 6, 5, 9, 14, 17, 13},
		{2, 3, 7, 6, 10, 15, 18, 14},
		{3, 4, 8, 7, 11, 16, 19, 15},
		{1, 5, 8, 4, 13, 20, 16, 12},
		{1, 4, 3, 2, 12, 11, 10, 9},
		{5, 6, 7, 8, 17, 18, 19, 20},
	}}
	topoHex27 = Topology{Type: "HEX27", NumNodes: 27, FaceMap: [][]int{
		{1, 2, 6, 5, 9, 14, 17, 13, 26},
		{2, 3, 7, 6, 10, 15, 18, 14, 25},
		{3, 4, 8, 7, 11, 16, 19, 15, 27},
		{1, 5, 8, 4, 13, 20, 16, 12, 24},
		{1, 4, 3, 2, 12, 11, 10, 9, 22},
		{5, 6, 7, 8, 17, 18, 19, 20, 23},
	}}

	topoPyra5 = Topology{Type: "PYRA5", NumNodes: 5, FaceMap: [][]int{
		{1, 2, 5},
		{2, 3, 5},
		{3, 4, 5},
		{4, 1, 5},
		{1, 4, 3, 2},
	}}
	topoPyra13 = Topology{Type: "PYRA13", NumNodes: 13, FaceMap: pyra13Faces}
	topoPyra14 = Topology{Type: "PYRA14", NumNodes: 14, FaceMap: pyra13Faces}
)

// topologies resolves the element type names found in block metadata,
// including the bare aliases some writers use. Triangles resolve to
// their shell forms, matching the treatment of planar meshes in the
// tools this format comes from.
var topologies = map[string]Topology{
	"CIRCLE": topoCircle,
	"SPHERE": topoCircle,

	"BEAM": topoBar2,
	"BAR":  topoBar2,
	"BAR2": topoBar2,
	"BAR3": topoBar3,

	"QUAD":  topoQuad4,
	"QUAD4": topoQuad4,
	"QUAD5": topoQuad5,
	"QUAD8": topoQuad8,
	"QUAD9": topoQuad9,

	"SHELL":  topoShell4,
	"SHELL4": topoShell4,
	"SHELL8": topoShell8,
	"SHELL9": topoShell9,

	"TRI":  topoTriShell3,
	"TRI3": topoTriShell3,
	"TRI6": topoTriShell6,

	"TRISHELL":  topoTriShell3,
	"TRISHELL3": topoTriShell3,
	"TRISHELL6": topoTriShell6,

	"TETRA":   topoTetra4,
	"TETRA4":  topoTetra4,
	"TETRA10": topoTetra10,

	"WEDGE":   topoWedge6,
	"WEDGE6":  topoWedge6,
	"WEDGE15": topoWedge15,
	"WEDGE16": topoWedge16,
	"WEDGE20": topoWedge20,
	"WEDGE21": topoWedge21,

	"HEX":   topoHex8,
	"HEX8":  topoHex8,
	"HEX9":  topoHex9,
	"HEX20": topoHex20,
	"HEX27": topoHex27,

	"PYRA":   topoPyra5,
	"PYRA5":  topoPyra5,
	"PYRA13": topoPyra13,
	"PYRA14": topoPyra14,
}

// TopologyFor resolves an element type name, as stored in a block's
// metadata, to its topology. The lookup is case-insensitive and
// ignores the padding writers leave on fixed-width names.
func TopologyFor(elemType string) (Topology, error) {
	s := strings.ToUpper(strings.TrimSpace(elemType))
	topo, ok := topologies[s]
	if !ok {
		return Topology{}, NewErrUnsupportedType(s)
	}
	return topo, nil
}
