// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package exodus edits finite element mesh archives. An archive is a
// dimensioned, named-variable container that only supports declaring
// everything up front and then filling it in, so edits are staged in
// ledgers and emitted wholesale on commit: a write-mode archive is
// built fresh from ledger state, an append-mode archive is grafted
// into a new file that copies everything the ledgers do not own.
package exodus

import (
	"context"
	"fmt"

	"github.com/mcoppeta/junior-design-1337-sub000/archive"
	"github.com/mcoppeta/junior-design-1337-sub000/boltdb"
	"github.com/mcoppeta/junior-design-1337-sub000/errors"
	"github.com/mcoppeta/junior-design-1337-sub000/logger"
)

// Mode re-exports the archive open modes for callers that only import
// this package.
type Mode = archive.Mode

const (
	ModeRead   = archive.ModeRead
	ModeWrite  = archive.ModeWrite
	ModeAppend = archive.ModeAppend
)

// File is an open mesh archive plus the ledger that stages edits to
// it. Reads are served from the ledger so that counts and memberships
// always reflect staged mutations; mutating calls require write or
// append mode. A File is not safe for concurrent use.
type File struct {
	ar     archive.Archive
	path   string
	ledger *Ledger

	wordSize  int64
	committed bool

	openArchive func(path string, mode archive.Mode) (archive.Archive, error)
	logger      logger.Logger
	stats       StatsClient
}

// fileOption is a functional option type for exodus.File.
type fileOption func(*File) error

// OptFileLogger sets the logger the handle and its ledgers log to.
func OptFileLogger(log logger.Logger) fileOption {
	return func(f *File) error {
		f.logger = log
		return nil
	}
}

// OptFileStats sets the stats client mutation metrics are reported to.
func OptFileStats(stats StatsClient) fileOption {
	return func(f *File) error {
		f.stats = stats
		return nil
	}
}

// OptFileWordSize sets the floating point word size recorded in a
// newly created archive. Only 4 and 8 are supported.
func OptFileWordSize(size int) fileOption {
	return func(f *File) error {
		if size != 4 && size != 8 {
			return errors.Errorf("word size must be 4 or 8 bytes, %d is not supported", size)
		}
		f.wordSize = int64(size)
		return nil
	}
}

// OptFileArchiveOpener swaps out the archive container implementation.
func OptFileArchiveOpener(open func(path string, mode archive.Mode) (archive.Archive, error)) fileOption {
	return func(f *File) error {
		f.openArchive = open
		return nil
	}
}

// Open opens the archive at path. Mode "w" creates a new archive and
// fails if the file exists, "r" opens read-only, and "a" opens the
// file read-only and commits edits to a separate path on Write.
func Open(path string, mode Mode, opts ...fileOption) (*File, error) {
	f := &File{
		path:     path,
		wordSize: 4,
		openArchive: func(path string, mode archive.Mode) (archive.Archive, error) {
			return boltdb.Open(path, mode)
		},
		logger: logger.NopLogger,
		stats:  NopStatsClient,
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, errors.Wrap(err, "applying option")
		}
	}

	ar, err := f.openArchive(path, mode)
	if err != nil {
		return nil, err
	}
	f.ar = ar

	if mode == ModeWrite {
		if err := f.initialize(); err != nil {
			ar.Close()
			return nil, err
		}
	}
	if err := f.check(); err != nil {
		ar.Close()
		return nil, err
	}

	if f.ledger, err = NewLedger(ar, f.logger, f.stats); err != nil {
		ar.Close()
		return nil, err
	}
	return f, nil
}

// initialize stamps a new archive with the attributes and name length
// dimensions every reader of the format expects.
func (f *File) initialize() error {
	if err := f.ar.SetAttr(AttrTitle, DefaultTitle); err != nil {
		return err
	}
	if err := f.ar.DefineDimension(DimLenString, DefaultLenString); err != nil {
		return err
	}
	if err := f.ar.DefineDimension(DimLenName, DefaultLenName); err != nil {
		return err
	}
	if err := f.ar.DefineDimension(DimLenLine, DefaultLenLine); err != nil {
		return err
	}
	if err := f.ar.SetAttr(AttrMaxNameLength, int64(MaxNameLength)); err != nil {
		return err
	}
	if err := f.ar.SetAttr(AttrVersion, FormatVersion); err != nil {
		return err
	}
	if err := f.ar.SetAttr(AttrAPIVersion, FormatVersion); err != nil {
		return err
	}
	if err := f.ar.SetAttr(AttrWordSize, f.wordSize); err != nil {
		return err
	}
	if err := f.ar.SetAttr(AttrFileSize, int64(0)); err != nil {
		return err
	}
	return f.ar.SetAttr(AttrInt64Status, int64(0))
}

// check validates the opened archive's version and word size.
func (f *File) check() error {
	ver, err := f.Version()
	if err != nil {
		return err
	}
	if ver < 2.0 {
		return errors.Errorf("unsupported file version %.2f, only versions >2.0 are supported", ver)
	}
	ws, err := f.WordSize()
	if err != nil {
		return err
	}
	if ws != 4 && ws != 8 {
		return errors.Errorf("file contains a word size of %d which is not supported", ws)
	}
	f.wordSize = ws
	return nil
}

// Path returns the path the archive was opened with.
func (f *File) Path() string { return f.path }

// Mode returns the mode the archive was opened with.
func (f *File) Mode() Mode { return f.ar.Mode() }

// Close closes the underlying archive.
func (f *File) Close() error { return f.ar.Close() }

// Title returns the archive title.
func (f *File) Title() (string, error) {
	v, err := f.ar.Attr(AttrTitle)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("title attribute is a %T, not a string", v)
	}
	return s, nil
}

// Version returns the format version the archive was written with.
func (f *File) Version() (float64, error) {
	return f.floatAttr(AttrVersion)
}

// APIVersion returns the library version the archive was written with.
func (f *File) APIVersion() (float64, error) {
	return f.floatAttr(AttrAPIVersion)
}

// WordSize returns the floating point word size recorded in the
// archive.
func (f *File) WordSize() (int64, error) {
	return f.intAttr(AttrWordSize)
}

// Int64Status returns the integer width flags recorded in the archive.
func (f *File) Int64Status() (int64, error) {
	return f.intAttr(AttrInt64Status)
}

// MaxUsedNameLength returns the longest object name length the archive
// declares.
func (f *File) MaxUsedNameLength() (int64, error) {
	return f.intAttr(AttrMaxNameLength)
}

// MaxNameLength returns the usable object name length, one less than
// the len_name dimension to leave room for the terminating NUL other
// readers of the format expect.
func (f *File) MaxNameLength() (int64, error) {
	return f.dimLess1(DimLenName)
}

// MaxStringLength returns the usable string length.
func (f *File) MaxStringLength() (int64, error) {
	return f.dimLess1(DimLenString)
}

// MaxLineLength returns the usable info record line length.
func (f *File) MaxLineLength() (int64, error) {
	return f.dimLess1(DimLenLine)
}

// NumDimensions returns the number of coordinate axes in the model.
func (f *File) NumDimensions() (int64, error) {
	return f.dimSize(DimNumDim)
}

// NumNodes returns the number of nodes in the model.
func (f *File) NumNodes() (int64, error) {
	return f.dimSize(DimNumNodes)
}

// NumTimeSteps returns the number of time steps written to the
// archive.
func (f *File) NumTimeSteps() (int64, error) {
	return f.dimSize(DimTimeStep)
}

// NumQA returns the number of provenance records in the archive.
func (f *File) NumQA() (int64, error) {
	return f.dimSize(DimNumQARec)
}

// NumInfo returns the number of info records in the archive.
func (f *File) NumInfo() (int64, error) {
	return f.dimSize(DimNumInfo)
}

// NumNodeSets returns the number of node sets, staged edits included.
func (f *File) NumNodeSets() int { return f.ledger.NumNodeSets() }

// NumSideSets returns the number of side sets, staged edits included.
func (f *File) NumSideSets() int { return f.ledger.NumSideSets() }

// NumElementBlocks returns the number of element blocks.
func (f *File) NumElementBlocks() int { return f.ledger.NumElementBlocks() }

// NumElements returns the total element count, staged edits included.
func (f *File) NumElements() int { return f.ledger.NumElements() }

// QARecords returns the provenance records in the archive, one
// [name, version, date, time] row per record.
func (f *File) QARecords() ([][]string, error) {
	if !f.ar.HasVariable(VarQARecords) {
		return nil, nil
	}
	flat, err := f.ar.ReadStrings(VarQARecords)
	if err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(flat)/4)
	for i := 0; i+4 <= len(flat); i += 4 {
		out = append(out, flat[i:i+4])
	}
	return out, nil
}

// InfoRecords returns the info records in the archive.
func (f *File) InfoRecords() ([]string, error) {
	if !f.ar.HasVariable(VarInfoRecords) {
		return nil, nil
	}
	return f.ar.ReadStrings(VarInfoRecords)
}

// Coords returns one axis of the node coordinate table.
func (f *File) Coords(axis Axis) ([]float64, error) {
	return f.ledger.readCoords(axis)
}

// NodeSetIDs returns the external node set ids in ledger order.
func (f *File) NodeSetIDs() []int64 { return f.ledger.NodeSetIDs() }

// NodeSetNames returns the node set names in ledger order.
func (f *File) NodeSetNames() []string { return f.ledger.NodeSetNames() }

// NodeSet returns the members of a node set.
func (f *File) NodeSet(ident Identifier) ([]int64, error) {
	return f.ledger.NodeSet(ident)
}

// PartialNodeSet returns count members of a node set starting at the
// 1-based position start.
func (f *File) PartialNodeSet(ident Identifier, start, count int64) ([]int64, error) {
	if start < 1 {
		return nil, NewErrInvalidArgument(fmt.Sprintf("start must be greater than 0, got %d", start))
	}
	if count < 0 {
		return nil, NewErrInvalidArgument(fmt.Sprintf("count must be non-negative, got %d", count))
	}
	members, err := f.ledger.NodeSet(ident)
	if err != nil {
		return nil, err
	}
	if start-1+count > int64(len(members)) {
		return nil, NewErrInvalidArgument(
			fmt.Sprintf("range [%d, %d) exceeds node set size %d", start, start+count, len(members)))
	}
	return members[start-1 : start-1+count], nil
}

// NodeSetDistFactors returns the distribution factors of a node set.
func (f *File) NodeSetDistFactors(ident Identifier) ([]float64, error) {
	return f.ledger.NodeSetDistFactors(ident)
}

// NodeSetName returns a node set's name.
func (f *File) NodeSetName(ident Identifier) (string, error) {
	return f.ledger.NodeSetName(ident)
}

// SideSetIDs returns the external side set ids in ledger order.
func (f *File) SideSetIDs() []int64 { return f.ledger.SideSetIDs() }

// SideSetNames returns the side set names in ledger order.
func (f *File) SideSetNames() []string { return f.ledger.SideSetNames() }

// SideSet returns a side set's element and side lists. Elements are
// 1-based internal element numbers.
func (f *File) SideSet(ident Identifier) ([]int64, []int64, error) {
	return f.ledger.SideSet(ident)
}

// SideSetDistFactors returns a side set's distribution factor block.
func (f *File) SideSetDistFactors(ident Identifier) ([]float64, error) {
	return f.ledger.SideSetDistFactors(ident)
}

// SideSetName returns a side set's name.
func (f *File) SideSetName(ident Identifier) (string, error) {
	return f.ledger.SideSetName(ident)
}

// ElementBlockIDs returns the external block ids in block order.
func (f *File) ElementBlockIDs() []int64 { return f.ledger.ElementBlockIDs() }

// ElementBlockNames returns the block names in block order.
func (f *File) ElementBlockNames() []string { return f.ledger.ElementBlockNames() }

// ElementIDMap returns a copy of the global element number map.
func (f *File) ElementIDMap() []int64 { return f.ledger.ElementIDMap() }

// BlockInfo returns a block's element type, nodes per element and
// element count.
func (f *File) BlockInfo(ident Identifier) (string, int, int, error) {
	return f.ledger.BlockInfo(ident)
}

// BlockConnectivity returns a copy of a block's flattened connectivity
// table.
func (f *File) BlockConnectivity(ident Identifier) ([]int64, error) {
	return f.ledger.BlockConnectivity(ident)
}

// needWrite gates the mutating API on the open mode.
func (f *File) needWrite() error {
	switch f.ar.Mode() {
	case ModeWrite, ModeAppend:
		return nil
	default:
		return NewErrInvalidMode("need to be in write or append mode")
	}
}

// AddNodeSet stages a new node set with the given members.
func (f *File) AddNodeSet(nodes []int64, id int64, name string) error {
	if err := f.needWrite(); err != nil {
		return err
	}
	return f.ledger.AddNodeSet(nodes, id, name)
}

// RemoveNodeSet deletes a node set.
func (f *File) RemoveNodeSet(ident Identifier) error {
	if err := f.needWrite(); err != nil {
		return err
	}
	return f.ledger.RemoveNodeSet(ident)
}

// MergeNodeSets stages the union of two node sets as a new set,
// optionally removing the operands.
func (f *File) MergeNodeSets(newID, id1, id2 int64, deleteOperands bool) error {
	if err := f.needWrite(); err != nil {
		return err
	}
	return f.ledger.MergeNodeSets(newID, id1, id2, deleteOperands)
}

// AddNodeToNodeSet adds one node to a node set.
func (f *File) AddNodeToNodeSet(node int64, ident Identifier) error {
	return f.AddNodesToNodeSet([]int64{node}, ident)
}

// AddNodesToNodeSet unions nodes into a node set.
func (f *File) AddNodesToNodeSet(nodes []int64, ident Identifier) error {
	if err := f.needWrite(); err != nil {
		return err
	}
	return f.ledger.AddNodesToNodeSet(nodes, ident)
}

// RemoveNodeFromNodeSet removes one node from a node set.
func (f *File) RemoveNodeFromNodeSet(node int64, ident Identifier) error {
	return f.RemoveNodesFromNodeSet([]int64{node}, ident)
}

// RemoveNodesFromNodeSet removes nodes from a node set. Every
// requested node must currently be a member.
func (f *File) RemoveNodesFromNodeSet(nodes []int64, ident Identifier) error {
	if err := f.needWrite(); err != nil {
		return err
	}
	return f.ledger.RemoveNodesFromNodeSet(nodes, ident)
}

// AddSideSet stages a new side set from parallel external element id
// and side lists.
func (f *File) AddSideSet(elemIDs, sideIDs []int64, id int64, name string, distFacts []float64, variables [][][]float64) error {
	if err := f.needWrite(); err != nil {
		return err
	}
	return f.ledger.AddSideSet(elemIDs, sideIDs, id, name, distFacts, variables)
}

// RemoveSideSet deletes a side set.
func (f *File) RemoveSideSet(ident Identifier) error {
	if err := f.needWrite(); err != nil {
		return err
	}
	return f.ledger.RemoveSideSet(ident)
}

// AddSidesToSideSet appends sides to an existing side set.
func (f *File) AddSidesToSideSet(elemIDs, sideIDs []int64, ident Identifier, distFacts []float64, variables [][][]float64) error {
	if err := f.needWrite(); err != nil {
		return err
	}
	return f.ledger.AddSidesToSideSet(elemIDs, sideIDs, ident, distFacts, variables)
}

// RemoveSidesFromSideSet deletes the listed sides from a side set.
func (f *File) RemoveSidesFromSideSet(elemIDs, sideIDs []int64, ident Identifier) error {
	if err := f.needWrite(); err != nil {
		return err
	}
	return f.ledger.RemoveSidesFromSideSet(elemIDs, sideIDs, ident)
}

// SplitSideSet partitions a side set by a predicate over its (internal
// element, side) pairs: true goes to id1, false to id2. An empty
// partition's set is not created, and the source set is optionally
// removed.
func (f *File) SplitSideSet(ident Identifier, pred SidePredicate, id1, id2 int64, deleteOld bool, name1, name2 string) error {
	if err := f.needWrite(); err != nil {
		return err
	}
	return f.ledger.SplitSideSet(ident, pred, id1, id2, deleteOld, name1, name2)
}

// SplitSideSetX partitions a side set by comparing node x coordinates
// against a threshold.
func (f *File) SplitSideSetX(ident Identifier, op CompareOp, threshold float64, test SideTest, id1, id2 int64, deleteOld bool, name1, name2 string) error {
	return f.splitByCoord(ident, AxisX, op, threshold, test, id1, id2, deleteOld, name1, name2)
}

// SplitSideSetY partitions a side set by comparing node y coordinates
// against a threshold.
func (f *File) SplitSideSetY(ident Identifier, op CompareOp, threshold float64, test SideTest, id1, id2 int64, deleteOld bool, name1, name2 string) error {
	return f.splitByCoord(ident, AxisY, op, threshold, test, id1, id2, deleteOld, name1, name2)
}

// SplitSideSetZ partitions a side set by comparing node z coordinates
// against a threshold.
func (f *File) SplitSideSetZ(ident Identifier, op CompareOp, threshold float64, test SideTest, id1, id2 int64, deleteOld bool, name1, name2 string) error {
	return f.splitByCoord(ident, AxisZ, op, threshold, test, id1, id2, deleteOld, name1, name2)
}

func (f *File) splitByCoord(ident Identifier, axis Axis, op CompareOp, threshold float64, test SideTest, id1, id2 int64, deleteOld bool, name1, name2 string) error {
	if err := f.needWrite(); err != nil {
		return err
	}
	return f.ledger.SplitSideSetByCoordinate(ident, axis, op, threshold, test, id1, id2, deleteOld, name1, name2)
}

// AddElement appends an element to a block and returns its minted
// external id.
func (f *File) AddElement(ident Identifier, nodes []int64) (int64, error) {
	if err := f.needWrite(); err != nil {
		return 0, err
	}
	return f.ledger.AddElement(ident, nodes)
}

// RemoveElement deletes an element by external id.
func (f *File) RemoveElement(externalID int64) error {
	if err := f.needWrite(); err != nil {
		return err
	}
	return f.ledger.RemoveElement(externalID)
}

// SkinBlock derives the boundary faces of one block into a new side
// set.
func (f *File) SkinBlock(ident Identifier, skinID int64, skinName string) error {
	if err := f.needWrite(); err != nil {
		return err
	}
	return f.ledger.SkinBlock(ident, skinID, skinName)
}

// Skin derives the boundary faces of the whole model into a new side
// set.
func (f *File) Skin(skinID int64, skinName string) error {
	if err := f.needWrite(); err != nil {
		return err
	}
	return f.ledger.Skin(skinID, skinName)
}

// Write commits staged edits. In write mode the archive opened at Open
// is finalized in place and path must be empty; a second Write is
// rejected. In append mode path names the new output file and the
// handle is redirected to it afterwards, so further edits stack on the
// committed state.
func (f *File) Write(ctx context.Context, path string) error {
	if err := f.needWrite(); err != nil {
		return NewErrInvalidMode("need to be in write or append mode to write")
	}
	if f.ar.Mode() == ModeWrite && f.committed {
		return NewErrInvalidMode("archive has already been committed")
	}
	if err := f.ledger.Write(ctx, path); err != nil {
		return err
	}
	if f.ar.Mode() == ModeWrite {
		f.committed = true
		return nil
	}
	return f.rebind(path)
}

// rebind redirects the handle to the freshly grafted archive so the
// next session of edits reads the committed state.
func (f *File) rebind(path string) error {
	if err := f.ar.Close(); err != nil {
		return err
	}
	ar, err := f.openArchive(path, ModeAppend)
	if err != nil {
		return err
	}
	ledger, err := NewLedger(ar, f.logger, f.stats)
	if err != nil {
		ar.Close()
		return err
	}
	ledger.openOut = f.ledger.openOut
	f.ar = ar
	f.path = path
	f.ledger = ledger
	return nil
}

func (f *File) floatAttr(name string) (float64, error) {
	v, err := f.ar.Attr(name)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	default:
		return 0, errors.Errorf("attribute '%s' is a %T, not a number", name, v)
	}
}

func (f *File) intAttr(name string) (int64, error) {
	v, err := f.ar.Attr(name)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	default:
		return 0, errors.Errorf("attribute '%s' is a %T, not a number", name, v)
	}
}

func (f *File) dimSize(name string) (int64, error) {
	if !f.ar.HasDimension(name) {
		return 0, nil
	}
	dim, err := f.ar.Dimension(name)
	if err != nil {
		return 0, err
	}
	return dim.Size, nil
}

func (f *File) dimLess1(name string) (int64, error) {
	size, err := f.dimSize(name)
	if err != nil || size == 0 {
		return 0, err
	}
	return size - 1, nil
}
