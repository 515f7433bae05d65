// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package exodus

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cespare/xxhash"
	"github.com/mcoppeta/junior-design-1337-sub000/archive"
	"github.com/mcoppeta/junior-design-1337-sub000/errors"
	"github.com/mcoppeta/junior-design-1337-sub000/logger"
)

// elementBlock is one block slot. Blocks are fixed at open; only their
// element rows change. Connectivity is a flattened row-major
// [count][nodesPer] table of node ids, attrs a flattened
// [count][attrCount] table, and vars one [time][localElem] grid per
// declared element variable.
type elementBlock struct {
	id       int64
	name     string
	elemType string
	nodesPer int
	count    int
	srcSeq   int
	status   int64

	loaded    bool
	connect   []int64
	attrCount int
	attrs     []float64
	vars      [][][]float64
	tab       []int64
}

// ElementLedger stages element edits against an open archive. It owns
// the element blocks and the single global element number map shared
// by all of them: position i of the map names the external id of
// internal element i+1, and each block covers a contiguous range of
// positions fixed by block order. Block metadata and the map are read
// up front; connectivity and variable grids are pulled only when a
// block is first mutated.
type ElementLedger struct {
	ar archive.Reader

	blocks  []*elementBlock
	elemMap []int64

	numVars   int
	varNames  []string
	timeSteps int64

	logger logger.Logger
	stats  StatsClient
}

// NewElementLedger builds a ledger over the element blocks already
// present in ar. Every element is assumed to live in some block, so an
// archive without block declarations has no elements.
func NewElementLedger(ar archive.Reader, log logger.Logger, stats StatsClient) (*ElementLedger, error) {
	l := &ElementLedger{
		ar:     ar,
		logger: log,
		stats:  stats,
	}

	if ar.HasDimension(DimNumElemVars) {
		dim, err := ar.Dimension(DimNumElemVars)
		if err != nil {
			return nil, err
		}
		l.numVars = int(dim.Size)
		if ar.HasVariable(VarElemVarNames) {
			l.varNames, err = ar.ReadStrings(VarElemVarNames)
			if err != nil {
				return nil, err
			}
		}
		for len(l.varNames) < l.numVars {
			l.varNames = append(l.varNames, "")
		}
	}
	if ar.HasDimension(DimTimeStep) {
		dim, err := ar.Dimension(DimTimeStep)
		if err != nil {
			return nil, err
		}
		l.timeSteps = dim.Size
	}

	if !ar.HasDimension(DimNumElemBlock) {
		return l, nil
	}
	dim, err := ar.Dimension(DimNumElemBlock)
	if err != nil {
		return nil, err
	}
	n := int(dim.Size)

	ids := make([]int64, 0, n)
	if ar.HasVariable(VarBlockIDs) {
		ids, err = ar.ReadInts(VarBlockIDs)
		if err != nil {
			return nil, err
		}
		if len(ids) != n {
			return nil, NewErrSizeMismatch(VarBlockIDs, n, len(ids))
		}
	} else {
		for i := 0; i < n; i++ {
			ids = append(ids, int64(i+1))
		}
	}

	var names []string
	if ar.HasVariable(VarBlockNames) {
		names, err = ar.ReadStrings(VarBlockNames)
		if err != nil {
			return nil, err
		}
		if len(names) != n {
			return nil, NewErrSizeMismatch(VarBlockNames, n, len(names))
		}
	} else {
		for _, id := range ids {
			names = append(names, fmt.Sprintf("Block %d", id))
		}
	}

	statuses := make([]int64, n)
	for i := range statuses {
		statuses[i] = 1
	}
	if ar.HasVariable(VarBlockStatus) {
		statuses, err = ar.ReadInts(VarBlockStatus)
		if err != nil {
			return nil, err
		}
		if len(statuses) != n {
			return nil, NewErrSizeMismatch(VarBlockStatus, n, len(statuses))
		}
	}

	var table []int64
	if l.numVars > 0 && ar.HasVariable(VarElemVarTable) {
		table, err = ar.ReadInts(VarElemVarTable)
		if err != nil {
			return nil, err
		}
	}

	total := 0
	for i := 0; i < n; i++ {
		seq := i + 1
		b := &elementBlock{id: ids[i], name: names[i], srcSeq: seq, status: statuses[i]}

		sizeDim, err := ar.Dimension(DimBlockSize(seq))
		if err != nil {
			return nil, err
		}
		b.count = int(sizeDim.Size)
		nodesDim, err := ar.Dimension(DimBlockNodesPerElem(seq))
		if err != nil {
			return nil, err
		}
		b.nodesPer = int(nodesDim.Size)
		if ar.HasDimension(DimBlockAttrCount(seq)) {
			attrDim, err := ar.Dimension(DimBlockAttrCount(seq))
			if err != nil {
				return nil, err
			}
			b.attrCount = int(attrDim.Size)
		}

		meta, err := ar.Variable(VarBlockConnect(seq))
		if err != nil {
			return nil, err
		}
		if s, ok := meta.Attrs[AttrElemType].(string); ok {
			b.elemType = s
		}

		if l.numVars > 0 {
			b.tab = make([]int64, l.numVars)
			for v := 0; v < l.numVars; v++ {
				if table != nil && i*l.numVars+v < len(table) {
					b.tab[v] = table[i*l.numVars+v]
				} else {
					b.tab[v] = 1
				}
			}
		}

		total += b.count
		l.blocks = append(l.blocks, b)
	}

	// TODO: elem_map is an element order map, not an id map; stop
	// treating archives that carry only elem_map as if it named ids.
	hasOrder := ar.HasVariable(VarElemOrderMap)
	hasIDs := ar.HasVariable(VarElemIDMap)
	switch {
	case hasOrder && hasIDs:
		return nil, errors.New(ErrConflictingDefinition,
			"archive contains both elem_map and elem_num_map, element ids are ambiguous")
	case hasIDs:
		l.elemMap, err = ar.ReadInts(VarElemIDMap)
	case hasOrder:
		l.elemMap, err = ar.ReadInts(VarElemOrderMap)
	default:
		l.elemMap = make([]int64, total)
		for i := range l.elemMap {
			l.elemMap[i] = int64(i + 1)
		}
	}
	if err != nil {
		return nil, err
	}
	if len(l.elemMap) != total {
		return nil, NewErrSizeMismatch(VarElemIDMap, total, len(l.elemMap))
	}
	return l, nil
}

// NumBlocks returns the number of element blocks.
func (l *ElementLedger) NumBlocks() int { return len(l.blocks) }

// NumElements returns the total element count across all blocks.
func (l *ElementLedger) NumElements() int { return len(l.elemMap) }

// BlockIDs returns the external ids of every block, in block order.
func (l *ElementLedger) BlockIDs() []int64 {
	out := make([]int64, len(l.blocks))
	for i, b := range l.blocks {
		out[i] = b.id
	}
	return out
}

// BlockNames returns the names of every block, in block order.
func (l *ElementLedger) BlockNames() []string {
	out := make([]string, len(l.blocks))
	for i, b := range l.blocks {
		out[i] = b.name
	}
	return out
}

// ElementIDMap returns a copy of the global element number map.
func (l *ElementLedger) ElementIDMap() []int64 {
	return append([]int64(nil), l.elemMap...)
}

// Translate maps external element ids to 1-based internal element
// numbers, which is how side sets store their element lists.
func (l *ElementLedger) Translate(ids []int64) ([]int64, error) {
	index := make(map[int64]int64, len(l.elemMap))
	for i, id := range l.elemMap {
		index[id] = int64(i + 1)
	}
	out := make([]int64, len(ids))
	for i, id := range ids {
		internal, ok := index[id]
		if !ok {
			return nil, NewErrElementNotFound(id)
		}
		out[i] = internal
	}
	return out, nil
}

// BlockInfo returns a block's element type, nodes per element and
// element count.
func (l *ElementLedger) BlockInfo(ident Identifier) (elemType string, nodesPer, count int, err error) {
	pos, err := l.findBlock(ident)
	if err != nil {
		return "", 0, 0, err
	}
	b := l.blocks[pos]
	return b.elemType, b.nodesPer, b.count, nil
}

// Connectivity returns a copy of a block's flattened connectivity
// table. Unmodified blocks are served from the archive without
// pulling them.
func (l *ElementLedger) Connectivity(ident Identifier) ([]int64, error) {
	pos, err := l.findBlock(ident)
	if err != nil {
		return nil, err
	}
	b := l.blocks[pos]
	if b.loaded {
		return append([]int64(nil), b.connect...), nil
	}
	return l.ar.ReadInts(VarBlockConnect(b.srcSeq))
}

// AddElement appends an element to a block and returns its freshly
// minted external id, the smallest positive integer not already in
// use. The id is spliced into the global element number map at the
// block's end position so that block ranges stay contiguous, and every
// per-element variable and attribute table of the block gains a
// zero-filled entry.
func (l *ElementLedger) AddElement(ident Identifier, nodes []int64) (int64, error) {
	pos, err := l.findBlock(ident)
	if err != nil {
		return 0, err
	}
	b := l.blocks[pos]
	if len(nodes) != b.nodesPer {
		return 0, NewErrInvalidArgument(
			fmt.Sprintf("given node list contains %d nodes when element of type %s requires %d",
				len(nodes), b.elemType, b.nodesPer))
	}
	if err := l.loadBlock(b); err != nil {
		return 0, err
	}
	for r := 0; r < b.count; r++ {
		if rowEqual(b.connect[r*b.nodesPer:(r+1)*b.nodesPer], nodes) {
			return 0, NewErrInvalidArgument(
				fmt.Sprintf("given node list already exists in block %d", b.id))
		}
	}
	seen := make(map[int64]struct{}, len(nodes))
	for _, n := range nodes {
		if _, ok := seen[n]; ok {
			return 0, NewErrInvalidArgument("the same node is used more than once in the given node list")
		}
		seen[n] = struct{}{}
	}

	id := l.mintElementID()
	at := l.blockOffset(pos) + b.count
	l.elemMap = append(l.elemMap, 0)
	copy(l.elemMap[at+1:], l.elemMap[at:])
	l.elemMap[at] = id

	b.connect = append(b.connect, nodes...)
	b.count++
	for v := range b.vars {
		for t := range b.vars[v] {
			b.vars[v][t] = append(b.vars[v][t], 0)
		}
	}
	if b.attrCount > 0 {
		b.attrs = append(b.attrs, make([]float64, b.attrCount)...)
	}
	l.stats.Count(MetricAddElement, 1, 1.0)
	return id, nil
}

// RemoveElement deletes the element with the given external id,
// wherever it lives: its connectivity row, its column in every
// per-element variable of its block, its attribute row and its slot in
// the global element number map.
func (l *ElementLedger) RemoveElement(externalID int64) error {
	pos := -1
	for i, id := range l.elemMap {
		if id == externalID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return NewErrElementNotFound(externalID)
	}

	off := 0
	var b *elementBlock
	local := 0
	for _, blk := range l.blocks {
		if pos < off+blk.count {
			b = blk
			local = pos - off
			break
		}
		off += blk.count
	}
	if b == nil {
		return NewErrElementNotFound(externalID)
	}
	if err := l.loadBlock(b); err != nil {
		return err
	}

	b.connect = append(b.connect[:local*b.nodesPer], b.connect[(local+1)*b.nodesPer:]...)
	for v := range b.vars {
		for t := range b.vars[v] {
			b.vars[v][t] = append(b.vars[v][t][:local], b.vars[v][t][local+1:]...)
		}
	}
	if b.attrCount > 0 {
		b.attrs = append(b.attrs[:local*b.attrCount], b.attrs[(local+1)*b.attrCount:]...)
	}
	b.count--
	l.elemMap = append(l.elemMap[:pos], l.elemMap[pos+1:]...)
	l.stats.Count(MetricRemoveElement, 1, 1.0)
	return nil
}

// faceTally counts occurrences of one canonical face. Entries hang off
// an xxhash of the sorted node ids; collisions chain.
type faceTally struct {
	nodes []int64
	count int
}

// Skin derives the boundary faces of one block: every face of every
// element is canonicalized by sorting its node ids, faces are tallied
// across the block, and the faces seen exactly once are the boundary.
// Interior faces are seen exactly twice; a face shared by more than
// two elements means the mesh is not manifold and is rejected. The
// result is parallel external element id and 1-based face number
// lists, in element order then face order.
func (l *ElementLedger) Skin(ident Identifier) ([]int64, []int64, error) {
	pos, err := l.findBlock(ident)
	if err != nil {
		return nil, nil, err
	}
	return l.skinBlock(pos)
}

// SkinAll skins every block in block order and concatenates the
// results.
func (l *ElementLedger) SkinAll() ([]int64, []int64, error) {
	var elems, sides []int64
	for pos := range l.blocks {
		e, s, err := l.skinBlock(pos)
		if err != nil {
			return nil, nil, err
		}
		elems = append(elems, e...)
		sides = append(sides, s...)
	}
	return elems, sides, nil
}

func (l *ElementLedger) skinBlock(pos int) ([]int64, []int64, error) {
	b := l.blocks[pos]
	topo, err := TopologyFor(b.elemType)
	if err != nil {
		return nil, nil, err
	}
	conn := b.connect
	if !b.loaded {
		if conn, err = l.ar.ReadInts(VarBlockConnect(b.srcSeq)); err != nil {
			return nil, nil, err
		}
	}

	tallies := make(map[uint64][]*faceTally)
	elemFaces := make([][][]int64, b.count)
	for i := 0; i < b.count; i++ {
		row := conn[i*b.nodesPer : (i+1)*b.nodesPer]
		faces, err := topo.ElementFaces(row)
		if err != nil {
			return nil, nil, err
		}
		canon := make([][]int64, len(faces))
		for f, face := range faces {
			c := append([]int64(nil), face...)
			sort.Slice(c, func(x, y int) bool { return c[x] < c[y] })
			canon[f] = c
			key := faceKey(c)
			t := findTally(tallies[key], c)
			if t == nil {
				t = &faceTally{nodes: c}
				tallies[key] = append(tallies[key], t)
			}
			t.count++
		}
		elemFaces[i] = canon
	}

	for _, chain := range tallies {
		for _, t := range chain {
			if t.count > 2 {
				return nil, nil, NewErrNonManifoldFace(t.nodes, t.count)
			}
		}
	}

	off := l.blockOffset(pos)
	var elems, sides []int64
	for i, canon := range elemFaces {
		for f, c := range canon {
			t := findTally(tallies[faceKey(c)], c)
			if t != nil && t.count == 1 {
				elems = append(elems, l.elemMap[off+i])
				sides = append(sides, int64(f+1))
			}
		}
	}
	l.stats.Count(MetricSkin, 1, 1.0)
	l.stats.Count(MetricSkinFaces, int64(len(sides)), 1.0)
	return elems, sides, nil
}

// locate resolves a 1-based internal element number to its block
// position and local index within that block.
func (l *ElementLedger) locate(internal int64) (int, int, error) {
	pos := int(internal) - 1
	if pos < 0 || pos >= len(l.elemMap) {
		return 0, 0, errors.New(ErrNotFound, fmt.Sprintf("no element at internal position %d", internal))
	}
	off := 0
	for i, b := range l.blocks {
		if pos < off+b.count {
			return i, pos - off, nil
		}
		off += b.count
	}
	return 0, 0, errors.New(ErrNotFound, fmt.Sprintf("no element at internal position %d", internal))
}

// blockConnectivity returns a block's connectivity without staging it,
// serving unmodified blocks straight from the archive.
func (l *ElementLedger) blockConnectivity(pos int) ([]int64, error) {
	b := l.blocks[pos]
	if b.loaded {
		return b.connect, nil
	}
	return l.ar.ReadInts(VarBlockConnect(b.srcSeq))
}

func (l *ElementLedger) findBlock(ident Identifier) (int, error) {
	switch ident := ident.(type) {
	case ByID:
		for i, b := range l.blocks {
			if b.id == int64(ident) {
				return i, nil
			}
		}
	case ByName:
		for i, b := range l.blocks {
			if b.name == string(ident) {
				return i, nil
			}
		}
	}
	return -1, NewErrBlockNotFound(ident)
}

// blockOffset returns the global position of a block's first element.
func (l *ElementLedger) blockOffset(pos int) int {
	off := 0
	for i := 0; i < pos; i++ {
		off += l.blocks[i].count
	}
	return off
}

func (l *ElementLedger) mintElementID() int64 {
	used := make(map[int64]struct{}, len(l.elemMap))
	for _, id := range l.elemMap {
		used[id] = struct{}{}
	}
	id := int64(1)
	for {
		if _, ok := used[id]; !ok {
			return id
		}
		id++
	}
}

// loadBlock pulls a block's connectivity, attribute table and variable
// grids out of the archive on first mutation.
func (l *ElementLedger) loadBlock(b *elementBlock) error {
	if b.loaded {
		return nil
	}
	conn, err := l.ar.ReadInts(VarBlockConnect(b.srcSeq))
	if err != nil {
		return err
	}
	b.connect = conn

	if b.attrCount > 0 {
		if l.ar.HasVariable(VarBlockAttrs(b.srcSeq)) {
			if b.attrs, err = l.ar.ReadFloats(VarBlockAttrs(b.srcSeq)); err != nil {
				return err
			}
		} else {
			b.attrs = make([]float64, b.count*b.attrCount)
		}
	}

	if l.numVars > 0 {
		b.vars = make([][][]float64, l.numVars)
		for v := 1; v <= l.numVars; v++ {
			name := VarElemVarVals(v, b.srcSeq)
			if b.tab[v-1] == 1 && l.ar.HasVariable(name) {
				flat, err := l.ar.ReadFloats(name)
				if err != nil {
					return err
				}
				b.vars[v-1] = unflatten(flat, int(l.timeSteps), b.count)
			} else {
				b.vars[v-1] = zeroGrid(int(l.timeSteps), b.count)
			}
		}
	}

	l.logger.Debugf("pulled element block %d (%d elements) from archive", b.id, b.count)
	l.stats.Count(MetricLazyPull, 1, 1.0)
	b.loaded = true
	return nil
}

// writeDimensions declares the element totals, per-block sizes and the
// element variable count.
func (l *ElementLedger) writeDimensions(w archive.Writer) error {
	if len(l.blocks) == 0 {
		return nil
	}
	if err := w.DefineDimension(DimNumElem, int64(len(l.elemMap))); err != nil {
		return err
	}
	if err := w.DefineDimension(DimNumElemBlock, int64(len(l.blocks))); err != nil {
		return err
	}
	for i, b := range l.blocks {
		seq := i + 1
		if err := w.DefineDimension(DimBlockSize(seq), int64(b.count)); err != nil {
			return err
		}
		if err := w.DefineDimension(DimBlockNodesPerElem(seq), int64(b.nodesPer)); err != nil {
			return err
		}
		if b.attrCount > 0 {
			if err := w.DefineDimension(DimBlockAttrCount(seq), int64(b.attrCount)); err != nil {
				return err
			}
		}
	}
	if l.numVars > 0 {
		if err := w.DefineDimension(DimNumElemVars, int64(l.numVars)); err != nil {
			return err
		}
	}
	return nil
}

// writeVariables emits the block id, name and status tables, the
// global element number map, each block's connectivity, attributes and
// variable grids, and the element variable name and truth tables.
func (l *ElementLedger) writeVariables(w archive.Writer) error {
	if len(l.blocks) == 0 {
		return nil
	}

	if err := w.DefineVariable(archive.VarMeta{
		Name:  VarBlockIDs,
		Type:  archive.TypeInt,
		Dims:  []string{DimNumElemBlock},
		Attrs: map[string]interface{}{AttrName: "ID"},
	}); err != nil {
		return err
	}
	if err := w.WriteInts(VarBlockIDs, l.BlockIDs()); err != nil {
		return err
	}

	if err := w.DefineVariable(archive.VarMeta{
		Name: VarBlockNames,
		Type: archive.TypeChar,
		Dims: []string{DimNumElemBlock, DimLenName},
	}); err != nil {
		return err
	}
	if err := w.WriteStrings(VarBlockNames, l.BlockNames()); err != nil {
		return err
	}

	statuses := make([]int64, len(l.blocks))
	for i, b := range l.blocks {
		statuses[i] = b.status
	}
	if err := w.DefineVariable(archive.VarMeta{
		Name: VarBlockStatus,
		Type: archive.TypeInt,
		Dims: []string{DimNumElemBlock},
	}); err != nil {
		return err
	}
	if err := w.WriteInts(VarBlockStatus, statuses); err != nil {
		return err
	}

	if err := w.DefineVariable(archive.VarMeta{
		Name: VarElemIDMap,
		Type: archive.TypeInt,
		Dims: []string{DimNumElem},
	}); err != nil {
		return err
	}
	if err := w.WriteInts(VarElemIDMap, l.elemMap); err != nil {
		return err
	}

	for i, b := range l.blocks {
		if err := l.writeBlock(w, b, i+1); err != nil {
			return err
		}
	}

	if l.numVars > 0 {
		if err := l.writeVarTables(w); err != nil {
			return err
		}
	}
	return nil
}

func (l *ElementLedger) writeBlock(w archive.Writer, b *elementBlock, seq int) error {
	if err := w.DefineVariable(archive.VarMeta{
		Name:  VarBlockConnect(seq),
		Type:  archive.TypeInt,
		Dims:  []string{DimBlockSize(seq), DimBlockNodesPerElem(seq)},
		Attrs: map[string]interface{}{AttrElemType: b.elemType},
	}); err != nil {
		return err
	}
	conn := b.connect
	if !b.loaded {
		var err error
		if conn, err = l.ar.ReadInts(VarBlockConnect(b.srcSeq)); err != nil {
			return err
		}
	}
	if err := w.WriteInts(VarBlockConnect(seq), conn); err != nil {
		return err
	}

	if b.attrCount > 0 {
		if err := w.DefineVariable(archive.VarMeta{
			Name: VarBlockAttrs(seq),
			Type: archive.TypeFloat,
			Dims: []string{DimBlockSize(seq), DimBlockAttrCount(seq)},
		}); err != nil {
			return err
		}
		attrs := b.attrs
		if !b.loaded {
			attrs = make([]float64, b.count*b.attrCount)
			if l.ar.HasVariable(VarBlockAttrs(b.srcSeq)) {
				var err error
				if attrs, err = l.ar.ReadFloats(VarBlockAttrs(b.srcSeq)); err != nil {
					return err
				}
			}
		}
		if err := w.WriteFloats(VarBlockAttrs(seq), attrs); err != nil {
			return err
		}
	}

	for v := 1; v <= l.numVars; v++ {
		if b.tab != nil && b.tab[v-1] != 1 {
			continue
		}
		name := VarElemVarVals(v, seq)
		if err := w.DefineVariable(archive.VarMeta{
			Name: name,
			Type: archive.TypeFloat,
			Dims: []string{DimTimeStep, DimBlockSize(seq)},
		}); err != nil {
			return err
		}
		var flat []float64
		if b.loaded {
			flat = flatten(b.vars[v-1])
		} else if l.ar.HasVariable(VarElemVarVals(v, b.srcSeq)) {
			var err error
			if flat, err = l.ar.ReadFloats(VarElemVarVals(v, b.srcSeq)); err != nil {
				return err
			}
		} else {
			flat = make([]float64, l.timeSteps*int64(b.count))
		}
		if err := w.WriteFloats(name, flat); err != nil {
			return err
		}
	}
	return nil
}

func (l *ElementLedger) writeVarTables(w archive.Writer) error {
	if err := w.DefineVariable(archive.VarMeta{
		Name: VarElemVarNames,
		Type: archive.TypeChar,
		Dims: []string{DimNumElemVars, DimLenName},
	}); err != nil {
		return err
	}
	if err := w.WriteStrings(VarElemVarNames, l.varNames[:l.numVars]); err != nil {
		return err
	}

	table := make([]int64, 0, len(l.blocks)*l.numVars)
	for _, b := range l.blocks {
		if b.tab != nil {
			table = append(table, b.tab...)
		} else {
			table = append(table, onesInt(l.numVars)...)
		}
	}
	if err := w.DefineVariable(archive.VarMeta{
		Name: VarElemVarTable,
		Type: archive.TypeInt,
		Dims: []string{DimNumElemBlock, DimNumElemVars},
	}); err != nil {
		return err
	}
	return w.WriteInts(VarElemVarTable, table)
}

// faceKey hashes a canonical face's node ids.
func faceKey(nodes []int64) uint64 {
	buf := make([]byte, 8*len(nodes))
	for i, n := range nodes {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(n))
	}
	return xxhash.Sum64(buf)
}

func findTally(chain []*faceTally, nodes []int64) *faceTally {
	for _, t := range chain {
		if rowEqual(t.nodes, nodes) {
			return t
		}
	}
	return nil
}

func rowEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
