// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package exodus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mcoppeta/junior-design-1337-sub000/archive"
	"github.com/mcoppeta/junior-design-1337-sub000/boltdb"
	"github.com/mcoppeta/junior-design-1337-sub000/errors"
	"github.com/mcoppeta/junior-design-1337-sub000/logger"
	"github.com/mcoppeta/junior-design-1337-sub000/tracing"
	"github.com/ricochet2200/go-disk-usage/du"
	uuid "github.com/satori/go.uuid"
)

// Axis selects a coordinate axis for threshold splits.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// CompareOp is a comparison operator for coordinate threshold splits.
type CompareOp string

const (
	Less           CompareOp = "<"
	Greater        CompareOp = ">"
	LessOrEqual    CompareOp = "<="
	GreaterOrEqual CompareOp = ">="
	Equal          CompareOp = "="
	NotEqual       CompareOp = "!="
)

// SideTest picks which of a side's nodes must satisfy a coordinate
// comparison for the side to land in the first split output.
type SideTest int

const (
	AllNodes SideTest = iota
	AnyNode
)

// Ledger coordinates the three sub-ledgers over one open archive and
// owns the two commit strategies. It does not enforce the open-mode
// discipline itself; the File handle guards mutations before they
// reach it. Collection counts always reflect the ledger, not the
// archive the session started from.
type Ledger struct {
	source archive.Archive

	nodeSets *NodeSetLedger
	sideSets *SideSetLedger
	elements *ElementLedger

	// openOut creates the graft output; tests swap it out.
	openOut func(path string, mode archive.Mode) (archive.Archive, error)

	logger logger.Logger
	stats  StatsClient
}

// NewLedger builds the ledger stack over an open archive.
func NewLedger(src archive.Archive, log logger.Logger, stats StatsClient) (*Ledger, error) {
	nodeSets, err := NewNodeSetLedger(src, log, stats)
	if err != nil {
		return nil, errors.Wrap(err, "reading node sets")
	}
	sideSets, err := NewSideSetLedger(src, log, stats)
	if err != nil {
		return nil, errors.Wrap(err, "reading side sets")
	}
	elements, err := NewElementLedger(src, log, stats)
	if err != nil {
		return nil, errors.Wrap(err, "reading element blocks")
	}
	return &Ledger{
		source:   src,
		nodeSets: nodeSets,
		sideSets: sideSets,
		elements: elements,
		openOut: func(path string, mode archive.Mode) (archive.Archive, error) {
			return boltdb.Open(path, mode)
		},
		logger: log,
		stats:  stats,
	}, nil
}

// NumNodeSets returns the number of node sets in the ledger.
func (l *Ledger) NumNodeSets() int { return l.nodeSets.Count() }

// NodeSetIDs returns the external node set ids in ledger order.
func (l *Ledger) NodeSetIDs() []int64 { return l.nodeSets.IDs() }

// NodeSetNames returns the node set names in ledger order.
func (l *Ledger) NodeSetNames() []string { return l.nodeSets.Names() }

// NodeSet returns the members of a node set.
func (l *Ledger) NodeSet(ident Identifier) ([]int64, error) {
	return l.nodeSets.Members(ident)
}

// NodeSetDistFactors returns the distribution factors of a node set.
func (l *Ledger) NodeSetDistFactors(ident Identifier) ([]float64, error) {
	return l.nodeSets.DistFactors(ident)
}

// NodeSetName returns a node set's name.
func (l *Ledger) NodeSetName(ident Identifier) (string, error) {
	return l.nodeSets.Name(ident)
}

// AddNodeSet stages a new node set.
func (l *Ledger) AddNodeSet(nodes []int64, id int64, name string) error {
	return l.nodeSets.Add(nodes, id, name)
}

// RemoveNodeSet deletes a node set.
func (l *Ledger) RemoveNodeSet(ident Identifier) error {
	return l.nodeSets.Remove(ident)
}

// MergeNodeSets stages the union of two node sets as a new set.
func (l *Ledger) MergeNodeSets(newID, id1, id2 int64, deleteOperands bool) error {
	return l.nodeSets.Merge(newID, id1, id2, deleteOperands)
}

// AddNodesToNodeSet unions nodes into an existing set.
func (l *Ledger) AddNodesToNodeSet(nodes []int64, ident Identifier) error {
	return l.nodeSets.AddNodes(nodes, ident)
}

// RemoveNodesFromNodeSet subtracts nodes from an existing set.
func (l *Ledger) RemoveNodesFromNodeSet(nodes []int64, ident Identifier) error {
	return l.nodeSets.RemoveNodes(nodes, ident)
}

// NumSideSets returns the number of side sets in the ledger.
func (l *Ledger) NumSideSets() int { return l.sideSets.Count() }

// SideSetIDs returns the external side set ids in ledger order.
func (l *Ledger) SideSetIDs() []int64 { return l.sideSets.IDs() }

// SideSetNames returns the side set names in ledger order.
func (l *Ledger) SideSetNames() []string { return l.sideSets.Names() }

// SideSet returns a side set's element and side lists. The element
// entries are 1-based internal element numbers.
func (l *Ledger) SideSet(ident Identifier) ([]int64, []int64, error) {
	return l.sideSets.Sides(ident)
}

// SideSetDistFactors returns a side set's distribution factor block.
func (l *Ledger) SideSetDistFactors(ident Identifier) ([]float64, error) {
	return l.sideSets.DistFactors(ident)
}

// SideSetName returns a side set's name.
func (l *Ledger) SideSetName(ident Identifier) (string, error) {
	return l.sideSets.Name(ident)
}

// AddSideSet stages a new side set. Element ids are external and are
// translated through the element number map before storage.
func (l *Ledger) AddSideSet(elemIDs, sideIDs []int64, id int64, name string, distFacts []float64, variables [][][]float64) error {
	internal, err := l.elements.Translate(elemIDs)
	if err != nil {
		return err
	}
	return l.sideSets.Add(internal, sideIDs, id, name, distFacts, variables)
}

// RemoveSideSet deletes a side set.
func (l *Ledger) RemoveSideSet(ident Identifier) error {
	return l.sideSets.Remove(ident)
}

// AddSidesToSideSet appends sides to an existing set. Element ids are
// external.
func (l *Ledger) AddSidesToSideSet(elemIDs, sideIDs []int64, ident Identifier, distFacts []float64, variables [][][]float64) error {
	internal, err := l.elements.Translate(elemIDs)
	if err != nil {
		return err
	}
	return l.sideSets.AddSides(internal, sideIDs, ident, distFacts, variables)
}

// RemoveSidesFromSideSet deletes the listed sides from a set. Element
// ids are external.
func (l *Ledger) RemoveSidesFromSideSet(elemIDs, sideIDs []int64, ident Identifier) error {
	internal, err := l.elements.Translate(elemIDs)
	if err != nil {
		return err
	}
	return l.sideSets.RemoveSides(internal, sideIDs, ident)
}

// SplitSideSet partitions a side set by an arbitrary predicate over
// its (internal element, side) pairs.
func (l *Ledger) SplitSideSet(ident Identifier, pred SidePredicate, id1, id2 int64, deleteOld bool, name1, name2 string) error {
	return l.sideSets.Split(ident, pred, id1, id2, deleteOld, name1, name2)
}

// SplitSideSetByCoordinate partitions a side set by comparing node
// coordinates on one axis against a threshold. With AllNodes every
// node of a side must satisfy the comparison for the side to go to
// id1; with AnyNode a single satisfying node is enough.
func (l *Ledger) SplitSideSetByCoordinate(ident Identifier, axis Axis, op CompareOp, threshold float64, test SideTest, id1, id2 int64, deleteOld bool, name1, name2 string) error {
	pred, err := l.coordPredicate(axis, op, threshold, test)
	if err != nil {
		return err
	}
	return l.sideSets.Split(ident, pred, id1, id2, deleteOld, name1, name2)
}

// NumElementBlocks returns the number of element blocks.
func (l *Ledger) NumElementBlocks() int { return l.elements.NumBlocks() }

// NumElements returns the total element count.
func (l *Ledger) NumElements() int { return l.elements.NumElements() }

// ElementBlockIDs returns the external block ids in block order.
func (l *Ledger) ElementBlockIDs() []int64 { return l.elements.BlockIDs() }

// ElementBlockNames returns the block names in block order.
func (l *Ledger) ElementBlockNames() []string { return l.elements.BlockNames() }

// ElementIDMap returns a copy of the global element number map.
func (l *Ledger) ElementIDMap() []int64 { return l.elements.ElementIDMap() }

// BlockInfo returns a block's element type, nodes per element and
// element count.
func (l *Ledger) BlockInfo(ident Identifier) (string, int, int, error) {
	return l.elements.BlockInfo(ident)
}

// BlockConnectivity returns a copy of a block's flattened connectivity
// table.
func (l *Ledger) BlockConnectivity(ident Identifier) ([]int64, error) {
	return l.elements.Connectivity(ident)
}

// AddElement appends an element to a block and returns its minted
// external id.
func (l *Ledger) AddElement(ident Identifier, nodes []int64) (int64, error) {
	return l.elements.AddElement(ident, nodes)
}

// RemoveElement deletes an element by external id.
func (l *Ledger) RemoveElement(externalID int64) error {
	return l.elements.RemoveElement(externalID)
}

// SkinBlock derives the boundary faces of one block and materializes
// them as a new side set with no distribution factors.
func (l *Ledger) SkinBlock(ident Identifier, skinID int64, skinName string) error {
	elems, sides, err := l.elements.Skin(ident)
	if err != nil {
		return err
	}
	return l.AddSideSet(elems, sides, skinID, skinName, nil, nil)
}

// Skin derives the boundary faces of every block and materializes the
// concatenated result as a new side set.
func (l *Ledger) Skin(skinID int64, skinName string) error {
	elems, sides, err := l.elements.SkinAll()
	if err != nil {
		return err
	}
	return l.AddSideSet(elems, sides, skinID, skinName, nil, nil)
}

// Write commits the ledger. A write-mode archive is built in place
// from ledger state alone; an append-mode archive is grafted into a
// new file at path, which must not exist yet. Each commit appends a
// provenance record.
func (l *Ledger) Write(ctx context.Context, path string) error {
	span, _ := tracing.StartSpanFromContext(ctx, "Ledger.Write")
	defer span.Finish()
	start := time.Now()
	defer func() {
		l.stats.Timing(MetricCommitDuration, time.Since(start), 1.0)
	}()

	switch l.source.Mode() {
	case archive.ModeWrite:
		if path != "" {
			return NewErrInvalidMode("do not specify a new path in write mode, the open path is used")
		}
		return l.freshBuild()
	case archive.ModeAppend:
		if path == "" {
			return NewErrInvalidMode("must specify a new path when in append mode")
		}
		return l.graft(path)
	default:
		return NewErrInvalidMode("need to be in write or append mode to write")
	}
}

// freshBuild emits the ledgers' current state into the archive the
// session opened for writing. There is no prior content to preserve.
func (l *Ledger) freshBuild() error {
	if err := l.nodeSets.writeDimensions(l.source); err != nil {
		return err
	}
	if err := l.nodeSets.writeVariables(l.source); err != nil {
		return err
	}
	if err := l.sideSets.writeDimensions(l.source); err != nil {
		return err
	}
	if err := l.sideSets.writeVariables(l.source); err != nil {
		return err
	}
	if err := l.elements.writeDimensions(l.source); err != nil {
		return err
	}
	if err := l.elements.writeVariables(l.source); err != nil {
		return err
	}
	if err := l.writeProvenance(l.source); err != nil {
		return err
	}
	if err := l.source.Sync(); err != nil {
		return err
	}
	l.logger.Printf("committed archive %s", l.source.Path())
	return nil
}

// graft builds a new archive at path: everything the sub-ledgers do
// not own is copied from the source verbatim, then the ledgers emit
// their own families. The output is assembled under a temporary name
// and renamed into place so a crash cannot leave a half-written file
// at path.
func (l *Ledger) graft(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("file '%s' already exists", path)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.Wrapf(err, "mkdir %s", dir)
	}
	if info, err := os.Stat(l.source.Path()); err == nil {
		if free := du.NewDiskUsage(dir).Free(); free < uint64(info.Size()) {
			return errors.Errorf("insufficient disk space at %s: need %d bytes, %d free", dir, info.Size(), free)
		}
	}

	u, err := uuid.NewV4()
	if err != nil {
		return errors.Wrap(err, "generating temp file suffix")
	}
	tmp := fmt.Sprintf("%s.%s.tmp", path, u.String()[:8])
	out, err := l.openOut(tmp, archive.ModeWrite)
	if err != nil {
		return err
	}
	if err := l.graftInto(out); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "renaming '%s' to '%s'", tmp, path)
	}
	l.logger.Printf("grafted archive %s to %s", l.source.Path(), path)
	return nil
}

func (l *Ledger) graftInto(out archive.Archive) error {
	attrs, err := l.source.Attrs()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := out.SetAttr(name, attrs[name]); err != nil {
			return err
		}
	}

	dims, err := l.source.Dimensions()
	if err != nil {
		return err
	}
	for _, d := range dims {
		if graftSkipDimension(d.Name) {
			continue
		}
		size := d.Size
		if d.Unlimited {
			size = archive.UnlimitedSize
		}
		if err := out.DefineDimension(d.Name, size); err != nil {
			return err
		}
	}
	for name, size := range map[string]int64{
		DimLenName:   DefaultLenName,
		DimLenString: DefaultLenString,
		DimLenLine:   DefaultLenLine,
	} {
		if !out.HasDimension(name) {
			if err := out.DefineDimension(name, size); err != nil {
				return err
			}
		}
	}

	if err := l.nodeSets.writeDimensions(out); err != nil {
		return err
	}
	if err := l.sideSets.writeDimensions(out); err != nil {
		return err
	}
	if err := l.elements.writeDimensions(out); err != nil {
		return err
	}

	vars, err := l.source.Variables()
	if err != nil {
		return err
	}
	copied := int64(0)
	for _, meta := range vars {
		if graftSkipVariable(meta.Name) {
			continue
		}
		if l.nodeSets.dirty && nodeSetResultVariable(meta.Name) {
			l.logger.Warnf("copying node set variable '%s' verbatim into an archive whose node sets changed; its values may not line up with the re-emitted set sizes", meta.Name)
		}
		if err := out.CopyVariable(meta.Name, l.source); err != nil {
			return errors.Wrapf(err, "copying variable '%s'", meta.Name)
		}
		copied++
	}
	l.stats.Count(MetricCommitVariables, copied, 1.0)

	if err := l.nodeSets.writeVariables(out); err != nil {
		return err
	}
	if err := l.sideSets.writeVariables(out); err != nil {
		return err
	}
	if err := l.elements.writeVariables(out); err != nil {
		return err
	}
	if err := l.writeProvenance(out); err != nil {
		return err
	}
	return out.Sync()
}

// graftSkipDimension reports whether a dimension belongs to a family
// the sub-ledgers or the provenance writer re-emit themselves.
func graftSkipDimension(name string) bool {
	switch name {
	case DimNumNodeSets, DimNumSideSets, DimNumSideSetVars,
		DimNumElem, DimNumElemBlock, DimNumElemVars, DimNumQARec:
		return true
	}
	for _, prefix := range []string{
		"num_nod_ns", "num_side_ss", "num_df_ss",
		"num_el_in_blk", "num_nod_per_el", "num_att_in_blk",
	} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// nodeSetResultVariable reports whether a variable carries node set
// result values. The ledger does not own these, so a graft copies them
// through as-is even though the set size dimensions they were written
// against are re-emitted from ledger state.
func nodeSetResultVariable(name string) bool {
	for _, prefix := range []string{"vals_nset_var", "name_nset_var", "nset_var_tab"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// graftSkipVariable reports whether a variable belongs to a family the
// sub-ledgers or the provenance writer re-emit themselves.
func graftSkipVariable(name string) bool {
	switch name {
	case VarElemOrderMap, VarElemIDMap, VarElemVarNames, VarElemVarTable, VarQARecords:
		return true
	}
	for _, prefix := range []string{
		"ns_", "node_ns", "dist_fact_ns",
		"ss_", "side_ss", "elem_ss", "dist_fact_ss",
		"vals_sset_var", "name_sset_var", "sset_var_tab",
		"eb_", "connect", "attrib", "vals_elem_var",
	} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// writeProvenance appends one provenance record to whatever records
// the source already carries: library name, version, date and time.
func (l *Ledger) writeProvenance(w archive.Writer) error {
	old := int64(0)
	var records []string
	if l.source.HasDimension(DimNumQARec) {
		dim, err := l.source.Dimension(DimNumQARec)
		if err != nil {
			return err
		}
		old = dim.Size
		if l.source.HasVariable(VarQARecords) {
			if records, err = l.source.ReadStrings(VarQARecords); err != nil {
				return err
			}
		}
	}
	for int64(len(records)) < old*4 {
		records = append(records, "")
	}
	now := time.Now()
	records = append(records, LibName, Version, now.Format("01/02/06"), now.Format("15:04:05"))

	if err := w.DefineDimension(DimFour, 4); err != nil {
		return err
	}
	if err := w.DefineDimension(DimNumQARec, old+1); err != nil {
		return err
	}
	if err := w.DefineVariable(archive.VarMeta{
		Name: VarQARecords,
		Type: archive.TypeChar,
		Dims: []string{DimNumQARec, DimFour, DimLenString},
	}); err != nil {
		return err
	}
	return w.WriteStrings(VarQARecords, records)
}

// coordPredicate builds a side predicate that tests node coordinates
// on one axis against a threshold. Coordinates and connectivity are
// read once per split, not per side.
func (l *Ledger) coordPredicate(axis Axis, op CompareOp, threshold float64, test SideTest) (SidePredicate, error) {
	coords, err := l.readCoords(axis)
	if err != nil {
		return nil, err
	}
	connCache := make(map[int][]int64)
	topoCache := make(map[int]Topology)

	return func(elem, side int64) (bool, error) {
		blockPos, local, err := l.elements.locate(elem)
		if err != nil {
			return false, err
		}
		b := l.elements.blocks[blockPos]

		topo, ok := topoCache[blockPos]
		if !ok {
			if topo, err = TopologyFor(b.elemType); err != nil {
				return false, err
			}
			topoCache[blockPos] = topo
		}
		if side < 1 || int(side) > topo.NumFaces() {
			return false, NewErrInvalidArgument(
				fmt.Sprintf("side %d out of range for element type %s", side, b.elemType))
		}

		conn, ok := connCache[blockPos]
		if !ok {
			if conn, err = l.elements.blockConnectivity(blockPos); err != nil {
				return false, err
			}
			connCache[blockPos] = conn
		}
		row := conn[local*b.nodesPer : (local+1)*b.nodesPer]

		for _, li := range topo.FaceMap[side-1] {
			if li < 1 || li > len(row) {
				return false, NewErrInvalidShape(
					fmt.Sprintf("face node index %d out of range for element type %s", li, b.elemType))
			}
			node := row[li-1]
			if node < 1 || node > int64(len(coords)) {
				return false, NewErrInvalidShape(
					fmt.Sprintf("node %d outside coordinate table of %d nodes", node, len(coords)))
			}
			ok, err := compareCoord(coords[node-1], op, threshold)
			if err != nil {
				return false, err
			}
			if test == AllNodes && !ok {
				return false, nil
			}
			if test == AnyNode && ok {
				return true, nil
			}
		}
		return test == AllNodes, nil
	}, nil
}

// readCoords returns one axis of the node coordinate table, whether
// the archive stores coordinates as separate coordx/coordy/coordz
// variables or one packed coord table.
func (l *Ledger) readCoords(axis Axis) ([]float64, error) {
	name := map[Axis]string{AxisX: VarCoordX, AxisY: VarCoordY, AxisZ: VarCoordZ}[axis]
	if name == "" {
		return nil, NewErrInvalidArgument(fmt.Sprintf("unknown coordinate axis %d", axis))
	}
	if l.source.HasVariable(name) {
		return l.source.ReadFloats(name)
	}
	if !l.source.HasVariable(VarCoord) {
		return nil, archive.NewErrVariableNotFound(name)
	}

	dim, err := l.source.Dimension(DimNumDim)
	if err != nil {
		return nil, err
	}
	if int64(axis) >= dim.Size {
		return nil, NewErrInvalidArgument(
			fmt.Sprintf("archive has %d coordinate axes, axis %d requested", dim.Size, axis))
	}
	nodes, err := l.source.Dimension(DimNumNodes)
	if err != nil {
		return nil, err
	}
	return l.source.ReadFloatsAt(VarCoord, int64(axis)*nodes.Size, nodes.Size)
}

func compareCoord(v float64, op CompareOp, threshold float64) (bool, error) {
	switch op {
	case Less:
		return v < threshold, nil
	case Greater:
		return v > threshold, nil
	case LessOrEqual:
		return v <= threshold, nil
	case GreaterOrEqual:
		return v >= threshold, nil
	case Equal:
		return v == threshold, nil
	case NotEqual:
		return v != threshold, nil
	default:
		return false, NewErrInvalidArgument(fmt.Sprintf("unknown comparison operator '%s'", op))
	}
}
