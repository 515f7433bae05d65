// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package exodus

import (
	"fmt"
	"sort"

	"github.com/mcoppeta/junior-design-1337-sub000/archive"
	"github.com/mcoppeta/junior-design-1337-sub000/errors"
	"github.com/mcoppeta/junior-design-1337-sub000/logger"
)

// nodeSet is one ledger slot. A set that existed in the source
// archive stays unloaded, and therefore unread, until the first
// mutation touches it; srcSeq remembers its 1-based position in the
// source so commit can copy member data straight through.
type nodeSet struct {
	id     int64
	name   string
	srcSeq int
	status int64

	loaded  bool
	members []int64
}

// NodeSetLedger stages node set edits against an open archive. It is
// populated from the archive's node set tables on construction but
// only pulls membership data when a set is first mutated.
type NodeSetLedger struct {
	ar archive.Reader

	sets  []*nodeSet
	ids   map[int64]struct{}
	names map[string]struct{}
	dirty bool

	logger logger.Logger
	stats  StatsClient
}

// NewNodeSetLedger builds a ledger over the node sets already present
// in ar.
func NewNodeSetLedger(ar archive.Reader, log logger.Logger, stats StatsClient) (*NodeSetLedger, error) {
	l := &NodeSetLedger{
		ar:     ar,
		ids:    make(map[int64]struct{}),
		names:  make(map[string]struct{}),
		logger: log,
		stats:  stats,
	}

	if !ar.HasDimension(DimNumNodeSets) {
		return l, nil
	}
	dim, err := ar.Dimension(DimNumNodeSets)
	if err != nil {
		return nil, err
	}
	n := int(dim.Size)

	ids := make([]int64, 0, n)
	if ar.HasVariable(VarNodeSetIDs) {
		ids, err = ar.ReadInts(VarNodeSetIDs)
		if err != nil {
			return nil, err
		}
		if len(ids) != n {
			return nil, NewErrSizeMismatch(VarNodeSetIDs, n, len(ids))
		}
	} else {
		for i := 0; i < n; i++ {
			ids = append(ids, int64(i+1))
		}
	}

	var names []string
	if ar.HasVariable(VarNodeSetNames) {
		names, err = ar.ReadStrings(VarNodeSetNames)
		if err != nil {
			return nil, err
		}
		if len(names) != n {
			return nil, NewErrSizeMismatch(VarNodeSetNames, n, len(names))
		}
	} else {
		for _, id := range ids {
			names = append(names, fmt.Sprintf("NodeSet %d", id))
		}
	}

	statuses := make([]int64, n)
	for i := range statuses {
		statuses[i] = 1
	}
	if ar.HasVariable(VarNodeSetStatus) {
		statuses, err = ar.ReadInts(VarNodeSetStatus)
		if err != nil {
			return nil, err
		}
		if len(statuses) != n {
			return nil, NewErrSizeMismatch(VarNodeSetStatus, n, len(statuses))
		}
	}

	for i := 0; i < n; i++ {
		l.sets = append(l.sets, &nodeSet{id: ids[i], name: names[i], srcSeq: i + 1, status: statuses[i]})
		l.ids[ids[i]] = struct{}{}
		l.names[names[i]] = struct{}{}
	}
	return l, nil
}

// Count returns the number of node sets currently in the ledger.
func (l *NodeSetLedger) Count() int { return len(l.sets) }

// IDs returns the external ids of every node set, in ledger order.
func (l *NodeSetLedger) IDs() []int64 {
	out := make([]int64, len(l.sets))
	for i, s := range l.sets {
		out[i] = s.id
	}
	return out
}

// Names returns the names of every node set, in ledger order.
func (l *NodeSetLedger) Names() []string {
	out := make([]string, len(l.sets))
	for i, s := range l.sets {
		out[i] = s.name
	}
	return out
}

// Add stages a new node set. Members are stored sorted with
// duplicates collapsed. The empty name defaults to "NodeSet {id}";
// both the given name and that default are checked for collisions so
// a later unnamed set cannot shadow an existing one.
func (l *NodeSetLedger) Add(nodes []int64, id int64, name string) error {
	if _, ok := l.ids[id]; ok {
		return NewErrNodeSetIDExists(id)
	}
	defaultName := fmt.Sprintf("NodeSet %d", id)
	if name == "" {
		name = defaultName
	}
	if _, ok := l.names[name]; ok {
		return NewErrNodeSetNameExists(name)
	}
	if _, ok := l.names[defaultName]; ok {
		return NewErrNodeSetNameExists(defaultName)
	}

	l.sets = append(l.sets, &nodeSet{
		id:      id,
		name:    name,
		status:  1,
		loaded:  true,
		members: uniqueSorted(nodes),
	})
	l.ids[id] = struct{}{}
	l.names[name] = struct{}{}
	l.dirty = true
	l.stats.Count(MetricAddNodeSet, 1, 1.0)
	return nil
}

// Remove deletes a node set from the ledger.
func (l *NodeSetLedger) Remove(ident Identifier) error {
	pos, err := l.find(ident)
	if err != nil {
		return err
	}
	s := l.sets[pos]
	l.sets = append(l.sets[:pos], l.sets[pos+1:]...)
	delete(l.ids, s.id)
	delete(l.names, s.name)
	l.dirty = true
	l.stats.Count(MetricRemoveNodeSet, 1, 1.0)
	return nil
}

// Merge creates a new set holding the union of two existing sets'
// members, pulling either operand from the archive if needed, and
// optionally removes the operands. The merged set gets the default
// name for newID.
func (l *NodeSetLedger) Merge(newID, id1, id2 int64, deleteOperands bool) error {
	if _, ok := l.ids[newID]; ok {
		return NewErrNodeSetIDExists(newID)
	}
	m1, err := l.Members(ByID(id1))
	if err != nil {
		return err
	}
	m2, err := l.Members(ByID(id2))
	if err != nil {
		return err
	}
	if err := l.Add(append(m1, m2...), newID, ""); err != nil {
		return err
	}
	if deleteOperands {
		if err := l.Remove(ByID(id1)); err != nil {
			return err
		}
		if err := l.Remove(ByID(id2)); err != nil {
			return err
		}
	}
	l.stats.Count(MetricMergeNodeSets, 1, 1.0)
	return nil
}

// AddNodes unions the given nodes into a set, pulling it from the
// archive on first touch. Nodes already present are collapsed.
func (l *NodeSetLedger) AddNodes(nodes []int64, ident Identifier) error {
	pos, err := l.find(ident)
	if err != nil {
		return err
	}
	s := l.sets[pos]
	if err := l.load(s); err != nil {
		return err
	}
	s.members = uniqueSorted(append(s.members, nodes...))
	l.stats.Count(MetricAddNodes, int64(len(nodes)), 1.0)
	return nil
}

// RemoveNodes subtracts the given nodes from a set. Every requested
// node must currently be a member: the number of members actually
// removed has to equal the number requested, so an overshooting
// request (including one that lists the same node twice) fails before
// anything is changed.
func (l *NodeSetLedger) RemoveNodes(nodes []int64, ident Identifier) error {
	pos, err := l.find(ident)
	if err != nil {
		return err
	}
	s := l.sets[pos]
	if err := l.load(s); err != nil {
		return err
	}

	drop := make(map[int64]struct{}, len(nodes))
	for _, id := range nodes {
		drop[id] = struct{}{}
	}
	kept := make([]int64, 0, len(s.members))
	removed := 0
	for _, m := range s.members {
		if _, ok := drop[m]; ok {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	if removed != len(nodes) {
		return errors.New(ErrSizeMismatch,
			fmt.Sprintf("node set %d: requested removal of %d nodes but only %d are members", s.id, len(nodes), removed))
	}
	s.members = uniqueSorted(kept)
	l.stats.Count(MetricRemoveNodes, int64(len(nodes)), 1.0)
	return nil
}

// Members returns a copy of a set's membership. Reading does not pull
// the set into the ledger; unmodified sets are served straight from
// the archive.
func (l *NodeSetLedger) Members(ident Identifier) ([]int64, error) {
	pos, err := l.find(ident)
	if err != nil {
		return nil, err
	}
	s := l.sets[pos]
	if s.loaded {
		out := make([]int64, len(s.members))
		copy(out, s.members)
		return out, nil
	}
	return l.ar.ReadInts(VarNodeSetNodes(s.srcSeq))
}

// DistFactors returns a copy of a set's distribution factors. Sets
// the archive stores no factors for read as empty; staged and edited
// sets carry one unit factor per member.
func (l *NodeSetLedger) DistFactors(ident Identifier) ([]float64, error) {
	pos, err := l.find(ident)
	if err != nil {
		return nil, err
	}
	s := l.sets[pos]
	if s.loaded {
		return ones(len(s.members)), nil
	}
	if !l.ar.HasVariable(VarNodeSetDistFact(s.srcSeq)) {
		return []float64{}, nil
	}
	return l.ar.ReadFloats(VarNodeSetDistFact(s.srcSeq))
}

// Name returns a set's name.
func (l *NodeSetLedger) Name(ident Identifier) (string, error) {
	pos, err := l.find(ident)
	if err != nil {
		return "", err
	}
	return l.sets[pos].name, nil
}

func (l *NodeSetLedger) find(ident Identifier) (int, error) {
	switch ident := ident.(type) {
	case ByID:
		for i, s := range l.sets {
			if s.id == int64(ident) {
				return i, nil
			}
		}
	case ByName:
		for i, s := range l.sets {
			if s.name == string(ident) {
				return i, nil
			}
		}
	}
	return -1, NewErrNodeSetNotFound(ident)
}

// load pulls an unmodified set's members out of the archive so they
// can be edited in memory.
func (l *NodeSetLedger) load(s *nodeSet) error {
	if s.loaded {
		return nil
	}
	members, err := l.ar.ReadInts(VarNodeSetNodes(s.srcSeq))
	if err != nil {
		return err
	}
	l.logger.Debugf("pulled node set %d (%d nodes) from archive", s.id, len(members))
	l.stats.Count(MetricLazyPull, 1, 1.0)
	s.members = members
	s.loaded = true
	l.dirty = true
	return nil
}

// writeDimensions declares the node set count and one size dimension
// per set. Sizes for unloaded sets come from the source archive's
// dimension table, not from a data read.
func (l *NodeSetLedger) writeDimensions(w archive.Writer) error {
	if len(l.sets) == 0 {
		return nil
	}
	if err := w.DefineDimension(DimNumNodeSets, int64(len(l.sets))); err != nil {
		return err
	}
	for i, s := range l.sets {
		size, err := l.setSize(s)
		if err != nil {
			return err
		}
		if err := w.DefineDimension(DimNodeSetSize(i+1), size); err != nil {
			return err
		}
	}
	return nil
}

// writeVariables emits the id, name and status tables and each set's
// membership and distribution factors. Sets never pulled into memory
// are copied from the source archive; sets staged or edited here are
// written from ledger state with unit distribution factors.
func (l *NodeSetLedger) writeVariables(w archive.Writer) error {
	if len(l.sets) == 0 {
		return nil
	}

	if err := w.DefineVariable(archive.VarMeta{
		Name:  VarNodeSetIDs,
		Type:  archive.TypeInt,
		Dims:  []string{DimNumNodeSets},
		Attrs: map[string]interface{}{AttrName: "ID"},
	}); err != nil {
		return err
	}
	if err := w.WriteInts(VarNodeSetIDs, l.IDs()); err != nil {
		return err
	}

	if err := w.DefineVariable(archive.VarMeta{
		Name: VarNodeSetNames,
		Type: archive.TypeChar,
		Dims: []string{DimNumNodeSets, DimLenName},
	}); err != nil {
		return err
	}
	if err := w.WriteStrings(VarNodeSetNames, l.Names()); err != nil {
		return err
	}

	statuses := make([]int64, len(l.sets))
	for i, s := range l.sets {
		statuses[i] = s.status
	}
	if err := w.DefineVariable(archive.VarMeta{
		Name: VarNodeSetStatus,
		Type: archive.TypeInt,
		Dims: []string{DimNumNodeSets},
	}); err != nil {
		return err
	}
	if err := w.WriteInts(VarNodeSetStatus, statuses); err != nil {
		return err
	}

	for i, s := range l.sets {
		seq := i + 1
		if err := w.DefineVariable(archive.VarMeta{
			Name: VarNodeSetNodes(seq),
			Type: archive.TypeInt,
			Dims: []string{DimNodeSetSize(seq)},
		}); err != nil {
			return err
		}
		if err := w.DefineVariable(archive.VarMeta{
			Name: VarNodeSetDistFact(seq),
			Type: archive.TypeFloat,
			Dims: []string{DimNodeSetSize(seq)},
		}); err != nil {
			return err
		}

		var members []int64
		var facts []float64
		if s.loaded {
			members = s.members
		} else {
			var err error
			members, err = l.ar.ReadInts(VarNodeSetNodes(s.srcSeq))
			if err != nil {
				return err
			}
			if l.ar.HasVariable(VarNodeSetDistFact(s.srcSeq)) {
				facts, err = l.ar.ReadFloats(VarNodeSetDistFact(s.srcSeq))
				if err != nil {
					return err
				}
			}
		}
		if facts == nil {
			facts = ones(len(members))
		}

		if err := w.WriteInts(VarNodeSetNodes(seq), members); err != nil {
			return err
		}
		if err := w.WriteFloats(VarNodeSetDistFact(seq), facts); err != nil {
			return err
		}
	}
	return nil
}

func (l *NodeSetLedger) setSize(s *nodeSet) (int64, error) {
	if s.loaded {
		return int64(len(s.members)), nil
	}
	dim, err := l.ar.Dimension(DimNodeSetSize(s.srcSeq))
	if err != nil {
		return 0, err
	}
	return dim.Size, nil
}

func uniqueSorted(in []int64) []int64 {
	if len(in) == 0 {
		return []int64{}
	}
	out := make([]int64, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1.0
	}
	return out
}
