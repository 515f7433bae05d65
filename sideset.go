// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package exodus

import (
	"fmt"

	"github.com/mcoppeta/junior-design-1337-sub000/archive"
	"github.com/mcoppeta/junior-design-1337-sub000/errors"
	"github.com/mcoppeta/junior-design-1337-sub000/logger"
)

// sideSet is one ledger slot. Sides are (element, local face) pairs;
// elements are held as internal element numbers. Distribution factors
// are a flat block of dfPerSide values per side, and vars holds one
// [time][side] grid per declared side set variable.
type sideSet struct {
	id     int64
	name   string
	srcSeq int
	status int64

	loaded    bool
	elems     []int64
	sides     []int64
	dfPerSide int
	distFacts []float64
	vars      [][][]float64
	tab       []int64
}

func (s *sideSet) len() int { return len(s.elems) }

// SidePredicate partitions a side set: it receives each side's
// internal element number and 1-based face and reports whether the
// side belongs in the first output set.
type SidePredicate func(elem, side int64) (bool, error)

// SideSetLedger stages side set edits against an open archive. Like
// the node set ledger it reads per-set data only when a set is first
// mutated; the id, name, status and variable truth tables are small
// and pulled up front.
type SideSetLedger struct {
	ar archive.Reader

	sets  []*sideSet
	ids   map[int64]struct{}
	names map[string]struct{}

	numVars   int
	varNames  []string
	timeSteps int64

	logger logger.Logger
	stats  StatsClient
}

// NewSideSetLedger builds a ledger over the side sets already present
// in ar.
func NewSideSetLedger(ar archive.Reader, log logger.Logger, stats StatsClient) (*SideSetLedger, error) {
	l := &SideSetLedger{
		ar:     ar,
		ids:    make(map[int64]struct{}),
		names:  make(map[string]struct{}),
		logger: log,
		stats:  stats,
	}

	if ar.HasDimension(DimNumSideSetVars) {
		dim, err := ar.Dimension(DimNumSideSetVars)
		if err != nil {
			return nil, err
		}
		l.numVars = int(dim.Size)
		if ar.HasVariable(VarSideSetVarNames) {
			l.varNames, err = ar.ReadStrings(VarSideSetVarNames)
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

	if !ar.HasDimension(DimNumSideSets) {
		return l, nil
	}
	dim, err := ar.Dimension(DimNumSideSets)
	if err != nil {
		return nil, err
	}
	n := int(dim.Size)

	ids := make([]int64, 0, n)
	if ar.HasVariable(VarSideSetIDs) {
		ids, err = ar.ReadInts(VarSideSetIDs)
		if err != nil {
			return nil, err
		}
		if len(ids) != n {
			return nil, NewErrSizeMismatch(VarSideSetIDs, n, len(ids))
		}
	} else {
		for i := 0; i < n; i++ {
			ids = append(ids, int64(i+1))
		}
	}

	var names []string
	if ar.HasVariable(VarSideSetNames) {
		names, err = ar.ReadStrings(VarSideSetNames)
		if err != nil {
			return nil, err
		}
		if len(names) != n {
			return nil, NewErrSizeMismatch(VarSideSetNames, n, len(names))
		}
	} else {
		for _, id := range ids {
			names = append(names, fmt.Sprintf("SideSet %d", id))
		}
	}

	statuses := make([]int64, n)
	for i := range statuses {
		statuses[i] = 1
	}
	if ar.HasVariable(VarSideSetStatus) {
		statuses, err = ar.ReadInts(VarSideSetStatus)
		if err != nil {
			return nil, err
		}
		if len(statuses) != n {
			return nil, NewErrSizeMismatch(VarSideSetStatus, n, len(statuses))
		}
	}

	var table []int64
	if l.numVars > 0 && ar.HasVariable(VarSideSetVarTable) {
		table, err = ar.ReadInts(VarSideSetVarTable)
		if err != nil {
			return nil, err
		}
	}

	for i := 0; i < n; i++ {
		s := &sideSet{id: ids[i], name: names[i], srcSeq: i + 1, status: statuses[i]}
		if l.numVars > 0 {
			s.tab = make([]int64, l.numVars)
			for v := 0; v < l.numVars; v++ {
				if table != nil && i*l.numVars+v < len(table) {
					s.tab[v] = table[i*l.numVars+v]
				} else {
					s.tab[v] = 1
				}
			}
		}
		l.sets = append(l.sets, s)
		l.ids[ids[i]] = struct{}{}
		l.names[names[i]] = struct{}{}
	}
	return l, nil
}

// Count returns the number of side sets currently in the ledger.
func (l *SideSetLedger) Count() int { return len(l.sets) }

// IDs returns the external ids of every side set, in ledger order.
func (l *SideSetLedger) IDs() []int64 {
	out := make([]int64, len(l.sets))
	for i, s := range l.sets {
		out[i] = s.id
	}
	return out
}

// Names returns the names of every side set, in ledger order.
func (l *SideSetLedger) Names() []string {
	out := make([]string, len(l.sets))
	for i, s := range l.sets {
		out[i] = s.name
	}
	return out
}

// Add stages a new side set from parallel element and side lists.
// Elements are internal element numbers; the caller translates
// external ids first. A request with no sides is a no-op. When the
// archive declares side set variables and none are supplied, zero
// grids of the right shape are synthesized.
func (l *SideSetLedger) Add(elems, sides []int64, id int64, name string, distFacts []float64, variables [][][]float64) error {
	if len(elems) == 0 && len(sides) == 0 {
		return nil
	}
	if len(elems) != len(sides) {
		return errors.New(ErrSizeMismatch,
			fmt.Sprintf("side set %d: %d element ids but %d side ids", id, len(elems), len(sides)))
	}
	if _, ok := l.ids[id]; ok {
		return NewErrSideSetIDExists(id)
	}
	defaultName := fmt.Sprintf("SideSet %d", id)
	if name == "" {
		name = defaultName
	}
	if _, ok := l.names[name]; ok {
		return NewErrSideSetNameExists(name)
	}
	if _, ok := l.names[defaultName]; ok {
		return NewErrSideSetNameExists(defaultName)
	}

	dfPerSide := 0
	if len(distFacts) > 0 {
		if len(distFacts)%len(sides) != 0 {
			return NewErrInvalidArgument(
				fmt.Sprintf("side set %d: %d distribution factors is not a multiple of %d sides", id, len(distFacts), len(sides)))
		}
		dfPerSide = len(distFacts) / len(sides)
	}

	vars, err := l.checkVariables(id, variables, len(sides))
	if err != nil {
		return err
	}

	s := &sideSet{
		id:        id,
		name:      name,
		status:    1,
		loaded:    true,
		elems:     append([]int64(nil), elems...),
		sides:     append([]int64(nil), sides...),
		dfPerSide: dfPerSide,
		distFacts: append([]float64(nil), distFacts...),
		vars:      vars,
		tab:       onesInt(l.numVars),
	}
	l.sets = append(l.sets, s)
	l.ids[id] = struct{}{}
	l.names[name] = struct{}{}
	l.stats.Count(MetricAddSideSet, 1, 1.0)
	return nil
}

// Remove deletes a side set from the ledger.
func (l *SideSetLedger) Remove(ident Identifier) error {
	pos, err := l.find(ident)
	if err != nil {
		return err
	}
	s := l.sets[pos]
	l.sets = append(l.sets[:pos], l.sets[pos+1:]...)
	delete(l.ids, s.id)
	delete(l.names, s.name)
	l.stats.Count(MetricRemoveSideSet, 1, 1.0)
	return nil
}

// AddSides appends sides to an existing set, pulling it from the
// archive on first touch. The distribution factor width for the new
// sides is derived from the set's pre-mutation ratio: a set with no
// factors stays factor-free, one with k factors per side gains k unit
// factors per new side unless explicit factors are supplied.
func (l *SideSetLedger) AddSides(elems, sides []int64, ident Identifier, distFacts []float64, variables [][][]float64) error {
	if len(elems) == 0 && len(sides) == 0 {
		return nil
	}
	pos, err := l.find(ident)
	if err != nil {
		return err
	}
	s := l.sets[pos]
	if len(elems) != len(sides) {
		return errors.New(ErrSizeMismatch,
			fmt.Sprintf("side set %d: %d element ids but %d side ids", s.id, len(elems), len(sides)))
	}
	if err := l.load(s); err != nil {
		return err
	}

	n := len(sides)
	var newFacts []float64
	switch {
	case len(distFacts) == 0:
		if s.dfPerSide > 0 {
			newFacts = ones(s.dfPerSide * n)
		}
	case s.dfPerSide > 0:
		if len(distFacts) != s.dfPerSide*n {
			return NewErrInvalidArgument(
				fmt.Sprintf("side set %d carries %d distribution factors per side, %d sides need %d factors, got %d",
					s.id, s.dfPerSide, n, s.dfPerSide*n, len(distFacts)))
		}
		newFacts = distFacts
	case s.len() == 0:
		if len(distFacts)%n != 0 {
			return NewErrInvalidArgument(
				fmt.Sprintf("side set %d: %d distribution factors is not a multiple of %d sides", s.id, len(distFacts), n))
		}
		s.dfPerSide = len(distFacts) / n
		newFacts = distFacts
	default:
		return NewErrInvalidArgument(
			fmt.Sprintf("side set %d has no distribution factors, cannot add sides that carry them", s.id))
	}

	cols, err := l.checkVariables(s.id, variables, n)
	if err != nil {
		return err
	}

	s.elems = append(s.elems, elems...)
	s.sides = append(s.sides, sides...)
	s.distFacts = append(s.distFacts, newFacts...)
	for v := range s.vars {
		for t := range s.vars[v] {
			s.vars[v][t] = append(s.vars[v][t], cols[v][t]...)
		}
	}
	l.stats.Count(MetricAddSides, int64(n), 1.0)
	return nil
}

// RemoveSides deletes the listed (element, side) pairs from a set,
// keeping sides, distribution factor groups and every variable column
// in lockstep. The number of sides actually removed must equal the
// number requested.
func (l *SideSetLedger) RemoveSides(elems, sides []int64, ident Identifier) error {
	pos, err := l.find(ident)
	if err != nil {
		return err
	}
	s := l.sets[pos]
	if len(elems) != len(sides) {
		return errors.New(ErrSizeMismatch,
			fmt.Sprintf("side set %d: %d element ids but %d side ids", s.id, len(elems), len(sides)))
	}
	if err := l.load(s); err != nil {
		return err
	}

	drop := make(map[[2]int64]struct{}, len(elems))
	for i := range elems {
		drop[[2]int64{elems[i], sides[i]}] = struct{}{}
	}

	kept := make([]int, 0, s.len())
	for i := 0; i < s.len(); i++ {
		if _, ok := drop[[2]int64{s.elems[i], s.sides[i]}]; ok {
			continue
		}
		kept = append(kept, i)
	}
	removed := s.len() - len(kept)
	if removed != len(elems) {
		return errors.New(ErrSizeMismatch,
			fmt.Sprintf("side set %d: requested removal of %d sides but %d matched", s.id, len(elems), removed))
	}

	l.applySelection(s, kept)
	l.stats.Count(MetricRemoveSides, int64(removed), 1.0)
	return nil
}

// Split partitions a set's sides by a predicate into up to two new
// sets: pred true goes to id1, false to id2. An empty partition's set
// is simply not created. Sources without distribution factors give
// their offspring one unit factor per side. The old set is optionally
// removed afterwards.
func (l *SideSetLedger) Split(ident Identifier, pred SidePredicate, id1, id2 int64, deleteOld bool, name1, name2 string) error {
	pos, err := l.find(ident)
	if err != nil {
		return err
	}
	s := l.sets[pos]
	if err := l.load(s); err != nil {
		return err
	}

	var yes, no []int
	for i := 0; i < s.len(); i++ {
		ok, err := pred(s.elems[i], s.sides[i])
		if err != nil {
			return err
		}
		if ok {
			yes = append(yes, i)
		} else {
			no = append(no, i)
		}
	}

	// Validate both partitions, including the offspring against each
	// other, before staging either. A rejected split stages nothing.
	if len(yes) > 0 {
		if err := l.checkAvailable(id1, name1); err != nil {
			return err
		}
	}
	if len(no) > 0 {
		if err := l.checkAvailable(id2, name2); err != nil {
			return err
		}
	}
	if len(yes) > 0 && len(no) > 0 {
		if id1 == id2 {
			return NewErrSideSetIDExists(id2)
		}
		n1 := name1
		if n1 == "" {
			n1 = fmt.Sprintf("SideSet %d", id1)
		}
		n2 := name2
		defaultName2 := fmt.Sprintf("SideSet %d", id2)
		if n2 == "" {
			n2 = defaultName2
		}
		if n1 == n2 || n1 == defaultName2 {
			return NewErrSideSetNameExists(n1)
		}
	}
	if len(yes) > 0 {
		l.stage(l.carve(s, yes, id1, name1))
	}
	if len(no) > 0 {
		l.stage(l.carve(s, no, id2, name2))
	}
	if deleteOld {
		if err := l.Remove(ByID(s.id)); err != nil {
			return err
		}
	}
	l.stats.Count(MetricSplitSideSet, 1, 1.0)
	return nil
}

// Sides returns copies of a set's element and side lists. Unmodified
// sets are served from the archive without pulling them.
func (l *SideSetLedger) Sides(ident Identifier) ([]int64, []int64, error) {
	pos, err := l.find(ident)
	if err != nil {
		return nil, nil, err
	}
	s := l.sets[pos]
	if s.loaded {
		return append([]int64(nil), s.elems...), append([]int64(nil), s.sides...), nil
	}
	elems, err := l.ar.ReadInts(VarSideSetElems(s.srcSeq))
	if err != nil {
		return nil, nil, err
	}
	sides, err := l.ar.ReadInts(VarSideSetSides(s.srcSeq))
	if err != nil {
		return nil, nil, err
	}
	return elems, sides, nil
}

// DistFactors returns a copy of a set's distribution factor block,
// which is empty for sets that carry none.
func (l *SideSetLedger) DistFactors(ident Identifier) ([]float64, error) {
	pos, err := l.find(ident)
	if err != nil {
		return nil, err
	}
	s := l.sets[pos]
	if s.loaded {
		return append([]float64(nil), s.distFacts...), nil
	}
	if !l.ar.HasVariable(VarSideSetDistFact(s.srcSeq)) {
		return []float64{}, nil
	}
	return l.ar.ReadFloats(VarSideSetDistFact(s.srcSeq))
}

// Name returns a set's name.
func (l *SideSetLedger) Name(ident Identifier) (string, error) {
	pos, err := l.find(ident)
	if err != nil {
		return "", err
	}
	return l.sets[pos].name, nil
}

func (l *SideSetLedger) find(ident Identifier) (int, error) {
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
	return -1, NewErrSideSetNotFound(ident)
}

func (l *SideSetLedger) checkAvailable(id int64, name string) error {
	if _, ok := l.ids[id]; ok {
		return NewErrSideSetIDExists(id)
	}
	defaultName := fmt.Sprintf("SideSet %d", id)
	if name == "" {
		name = defaultName
	}
	if _, ok := l.names[name]; ok {
		return NewErrSideSetNameExists(name)
	}
	if _, ok := l.names[defaultName]; ok {
		return NewErrSideSetNameExists(defaultName)
	}
	return nil
}

// checkVariables validates caller-supplied variable grids for n new
// sides, or synthesizes zero grids when the archive declares side set
// variables and the caller supplied none.
func (l *SideSetLedger) checkVariables(id int64, variables [][][]float64, n int) ([][][]float64, error) {
	if l.numVars == 0 {
		if len(variables) > 0 {
			return nil, NewErrInvalidArgument(
				fmt.Sprintf("side set %d: archive declares no side set variables, got %d", id, len(variables)))
		}
		return nil, nil
	}
	if variables == nil {
		return zeroGrids(l.numVars, int(l.timeSteps), n), nil
	}
	if len(variables) != l.numVars {
		return nil, NewErrSizeMismatch("side set variables", l.numVars, len(variables))
	}
	for v := range variables {
		if int64(len(variables[v])) != l.timeSteps {
			return nil, NewErrSizeMismatch(fmt.Sprintf("side set variable %d time steps", v+1), int(l.timeSteps), len(variables[v]))
		}
		for t := range variables[v] {
			if len(variables[v][t]) != n {
				return nil, NewErrSizeMismatch(fmt.Sprintf("side set variable %d values", v+1), n, len(variables[v][t]))
			}
		}
	}
	return variables, nil
}

// carve builds a new staged set from the selected positions of src.
func (l *SideSetLedger) carve(src *sideSet, sel []int, id int64, name string) *sideSet {
	if name == "" {
		name = fmt.Sprintf("SideSet %d", id)
	}
	out := &sideSet{
		id:     id,
		name:   name,
		status: 1,
		loaded: true,
		tab:    append([]int64(nil), src.tab...),
	}
	out.elems = make([]int64, 0, len(sel))
	out.sides = make([]int64, 0, len(sel))
	for _, i := range sel {
		out.elems = append(out.elems, src.elems[i])
		out.sides = append(out.sides, src.sides[i])
	}

	if src.dfPerSide > 0 {
		out.dfPerSide = src.dfPerSide
		out.distFacts = make([]float64, 0, src.dfPerSide*len(sel))
		for _, i := range sel {
			out.distFacts = append(out.distFacts, src.distFacts[i*src.dfPerSide:(i+1)*src.dfPerSide]...)
		}
	} else {
		out.dfPerSide = 1
		out.distFacts = ones(len(sel))
	}

	if len(src.vars) > 0 {
		out.vars = make([][][]float64, len(src.vars))
		for v := range src.vars {
			out.vars[v] = make([][]float64, len(src.vars[v]))
			for t := range src.vars[v] {
				row := make([]float64, 0, len(sel))
				for _, i := range sel {
					row = append(row, src.vars[v][t][i])
				}
				out.vars[v][t] = row
			}
		}
	}
	return out
}

func (l *SideSetLedger) stage(s *sideSet) {
	l.sets = append(l.sets, s)
	l.ids[s.id] = struct{}{}
	l.names[s.name] = struct{}{}
	l.stats.Count(MetricAddSideSet, 1, 1.0)
}

// applySelection keeps only the listed positions, in order, across
// every parallel structure of the set.
func (l *SideSetLedger) applySelection(s *sideSet, kept []int) {
	elems := make([]int64, 0, len(kept))
	sides := make([]int64, 0, len(kept))
	for _, i := range kept {
		elems = append(elems, s.elems[i])
		sides = append(sides, s.sides[i])
	}
	s.elems, s.sides = elems, sides

	if s.dfPerSide > 0 {
		facts := make([]float64, 0, len(kept)*s.dfPerSide)
		for _, i := range kept {
			facts = append(facts, s.distFacts[i*s.dfPerSide:(i+1)*s.dfPerSide]...)
		}
		s.distFacts = facts
	}

	for v := range s.vars {
		for t := range s.vars[v] {
			row := make([]float64, 0, len(kept))
			for _, i := range kept {
				row = append(row, s.vars[v][t][i])
			}
			s.vars[v][t] = row
		}
	}
}

// load pulls an unmodified set out of the archive: its side list, its
// distribution factors and one grid per declared variable, zero
// grids standing in for variables the source never materialized.
func (l *SideSetLedger) load(s *sideSet) error {
	if s.loaded {
		return nil
	}
	elems, err := l.ar.ReadInts(VarSideSetElems(s.srcSeq))
	if err != nil {
		return err
	}
	sides, err := l.ar.ReadInts(VarSideSetSides(s.srcSeq))
	if err != nil {
		return err
	}
	s.elems, s.sides = elems, sides

	if l.ar.HasVariable(VarSideSetDistFact(s.srcSeq)) {
		facts, err := l.ar.ReadFloats(VarSideSetDistFact(s.srcSeq))
		if err != nil {
			return err
		}
		if len(sides) > 0 && len(facts)%len(sides) == 0 {
			s.dfPerSide = len(facts) / len(sides)
			s.distFacts = facts
		} else if len(facts) > 0 {
			l.logger.Warnf("side set %d carries %d distribution factors across %d sides; not a per-side multiple, dropping them", s.id, len(facts), len(sides))
		}
	}

	if l.numVars > 0 {
		s.vars = make([][][]float64, l.numVars)
		for v := 1; v <= l.numVars; v++ {
			name := VarSideSetVarVals(v, s.srcSeq)
			if s.tab[v-1] == 1 && l.ar.HasVariable(name) {
				flat, err := l.ar.ReadFloats(name)
				if err != nil {
					return err
				}
				s.vars[v-1] = unflatten(flat, int(l.timeSteps), len(sides))
			} else {
				s.vars[v-1] = zeroGrid(int(l.timeSteps), len(sides))
			}
		}
	}

	l.logger.Debugf("pulled side set %d (%d sides) from archive", s.id, len(sides))
	l.stats.Count(MetricLazyPull, 1, 1.0)
	s.loaded = true
	return nil
}

// writeDimensions declares the side set count, per-set size and
// distribution factor dimensions, and the variable count dimension.
func (l *SideSetLedger) writeDimensions(w archive.Writer) error {
	if len(l.sets) == 0 {
		return nil
	}
	if err := w.DefineDimension(DimNumSideSets, int64(len(l.sets))); err != nil {
		return err
	}
	for i, s := range l.sets {
		seq := i + 1
		size, dfCount, err := l.setSize(s)
		if err != nil {
			return err
		}
		if err := w.DefineDimension(DimSideSetSize(seq), size); err != nil {
			return err
		}
		if dfCount > 0 {
			if err := w.DefineDimension(DimSideSetDFCount(seq), dfCount); err != nil {
				return err
			}
		}
	}
	if l.numVars > 0 {
		if err := w.DefineDimension(DimNumSideSetVars, int64(l.numVars)); err != nil {
			return err
		}
	}
	return nil
}

// writeVariables emits the id, name and status tables, each set's
// side list and factors, and the side set variable family.
func (l *SideSetLedger) writeVariables(w archive.Writer) error {
	if len(l.sets) == 0 {
		return nil
	}

	if err := w.DefineVariable(archive.VarMeta{
		Name:  VarSideSetIDs,
		Type:  archive.TypeInt,
		Dims:  []string{DimNumSideSets},
		Attrs: map[string]interface{}{AttrName: "ID"},
	}); err != nil {
		return err
	}
	if err := w.WriteInts(VarSideSetIDs, l.IDs()); err != nil {
		return err
	}

	if err := w.DefineVariable(archive.VarMeta{
		Name: VarSideSetNames,
		Type: archive.TypeChar,
		Dims: []string{DimNumSideSets, DimLenName},
	}); err != nil {
		return err
	}
	if err := w.WriteStrings(VarSideSetNames, l.Names()); err != nil {
		return err
	}

	statuses := make([]int64, len(l.sets))
	for i, s := range l.sets {
		statuses[i] = s.status
	}
	if err := w.DefineVariable(archive.VarMeta{
		Name: VarSideSetStatus,
		Type: archive.TypeInt,
		Dims: []string{DimNumSideSets},
	}); err != nil {
		return err
	}
	if err := w.WriteInts(VarSideSetStatus, statuses); err != nil {
		return err
	}

	for i, s := range l.sets {
		if err := l.writeSet(w, s, i+1); err != nil {
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

func (l *SideSetLedger) writeSet(w archive.Writer, s *sideSet, seq int) error {
	if err := w.DefineVariable(archive.VarMeta{
		Name: VarSideSetElems(seq),
		Type: archive.TypeInt,
		Dims: []string{DimSideSetSize(seq)},
	}); err != nil {
		return err
	}
	if err := w.DefineVariable(archive.VarMeta{
		Name: VarSideSetSides(seq),
		Type: archive.TypeInt,
		Dims: []string{DimSideSetSize(seq)},
	}); err != nil {
		return err
	}

	elems, sides := s.elems, s.sides
	facts := s.distFacts
	if !s.loaded {
		var err error
		if elems, sides, err = l.readSrcSides(s); err != nil {
			return err
		}
		facts = nil
		if l.ar.HasVariable(VarSideSetDistFact(s.srcSeq)) {
			if facts, err = l.ar.ReadFloats(VarSideSetDistFact(s.srcSeq)); err != nil {
				return err
			}
		}
	}

	if err := w.WriteInts(VarSideSetElems(seq), elems); err != nil {
		return err
	}
	if err := w.WriteInts(VarSideSetSides(seq), sides); err != nil {
		return err
	}

	if len(facts) > 0 {
		if err := w.DefineVariable(archive.VarMeta{
			Name: VarSideSetDistFact(seq),
			Type: archive.TypeFloat,
			Dims: []string{DimSideSetDFCount(seq)},
		}); err != nil {
			return err
		}
		if err := w.WriteFloats(VarSideSetDistFact(seq), facts); err != nil {
			return err
		}
	}

	for v := 1; v <= l.numVars; v++ {
		if s.tab != nil && s.tab[v-1] != 1 {
			continue
		}
		name := VarSideSetVarVals(v, seq)
		if err := w.DefineVariable(archive.VarMeta{
			Name: name,
			Type: archive.TypeFloat,
			Dims: []string{DimTimeStep, DimSideSetSize(seq)},
		}); err != nil {
			return err
		}
		var flat []float64
		if s.loaded {
			flat = flatten(s.vars[v-1])
		} else if l.ar.HasVariable(VarSideSetVarVals(v, s.srcSeq)) {
			var err error
			if flat, err = l.ar.ReadFloats(VarSideSetVarVals(v, s.srcSeq)); err != nil {
				return err
			}
		} else {
			flat = make([]float64, l.timeSteps*int64(len(sides)))
		}
		if err := w.WriteFloats(name, flat); err != nil {
			return err
		}
	}
	return nil
}

func (l *SideSetLedger) writeVarTables(w archive.Writer) error {
	if err := w.DefineVariable(archive.VarMeta{
		Name: VarSideSetVarNames,
		Type: archive.TypeChar,
		Dims: []string{DimNumSideSetVars, DimLenName},
	}); err != nil {
		return err
	}
	if err := w.WriteStrings(VarSideSetVarNames, l.varNames[:l.numVars]); err != nil {
		return err
	}

	table := make([]int64, 0, len(l.sets)*l.numVars)
	for _, s := range l.sets {
		if s.tab != nil {
			table = append(table, s.tab...)
		} else {
			table = append(table, onesInt(l.numVars)...)
		}
	}
	if err := w.DefineVariable(archive.VarMeta{
		Name: VarSideSetVarTable,
		Type: archive.TypeInt,
		Dims: []string{DimNumSideSets, DimNumSideSetVars},
	}); err != nil {
		return err
	}
	return w.WriteInts(VarSideSetVarTable, table)
}

func (l *SideSetLedger) readSrcSides(s *sideSet) ([]int64, []int64, error) {
	elems, err := l.ar.ReadInts(VarSideSetElems(s.srcSeq))
	if err != nil {
		return nil, nil, err
	}
	sides, err := l.ar.ReadInts(VarSideSetSides(s.srcSeq))
	if err != nil {
		return nil, nil, err
	}
	return elems, sides, nil
}

// setSize returns the side count and distribution factor count a set
// will occupy in the output.
func (l *SideSetLedger) setSize(s *sideSet) (int64, int64, error) {
	if s.loaded {
		return int64(s.len()), int64(len(s.distFacts)), nil
	}
	dim, err := l.ar.Dimension(DimSideSetSize(s.srcSeq))
	if err != nil {
		return 0, 0, err
	}
	var dfCount int64
	if l.ar.HasDimension(DimSideSetDFCount(s.srcSeq)) {
		dfDim, err := l.ar.Dimension(DimSideSetDFCount(s.srcSeq))
		if err != nil {
			return 0, 0, err
		}
		dfCount = dfDim.Size
	}
	return dim.Size, dfCount, nil
}

func zeroGrid(times, n int) [][]float64 {
	out := make([][]float64, times)
	for t := range out {
		out[t] = make([]float64, n)
	}
	return out
}

func zeroGrids(vars, times, n int) [][][]float64 {
	out := make([][][]float64, vars)
	for v := range out {
		out[v] = zeroGrid(times, n)
	}
	return out
}

func unflatten(flat []float64, times, n int) [][]float64 {
	out := make([][]float64, times)
	for t := 0; t < times; t++ {
		row := make([]float64, n)
		if (t+1)*n <= len(flat) {
			copy(row, flat[t*n:(t+1)*n])
		}
		out[t] = row
	}
	return out
}

func flatten(grid [][]float64) []float64 {
	var out []float64
	for _, row := range grid {
		out = append(out, row...)
	}
	if out == nil {
		out = []float64{}
	}
	return out
}

func onesInt(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
