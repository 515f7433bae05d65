// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package exodus

import "fmt"

// LibName is the library title recorded in the provenance records
// appended to an archive on commit.
const LibName = "Exodus Utilities"

// Global attributes.
const (
	AttrTitle         = "title"
	AttrMaxNameLength = "maximum_name_length"
	AttrAPIVersion    = "api_version"
	AttrVersion       = "version"
	AttrFileSize      = "file_size"
	AttrInt64Status   = "int64_status"
	AttrWordSize      = "floating_point_word_size"
)

// Variable attributes.
const (
	AttrElemType = "elem_type"
	AttrName     = "name"
)

// Fixed dimensions.
const (
	DimLenString    = "len_string"
	DimLenLine      = "len_line"
	DimLenName      = "len_name"
	DimFour         = "four"
	DimTimeStep     = "time_step"
	DimNumInfo      = "num_info"
	DimNumQARec     = "num_qa_rec"
	DimNumDim       = "num_dim"
	DimNumNodes     = "num_nodes"
	DimNumElem      = "num_elem"
	DimNumElemBlock = "num_el_blk"
	DimNumNodeSets  = "num_node_sets"
	DimNumSideSets  = "num_side_sets"
)

// Result variable count dimensions.
const (
	DimNumGlobalVars  = "num_glo_var"
	DimNumNodeVars    = "num_nod_var"
	DimNumElemVars    = "num_elem_var"
	DimNumNodeSetVars = "num_nset_var"
	DimNumSideSetVars = "num_sset_var"
)

// Fixed variables.
const (
	VarInfoRecords     = "info_records"
	VarQARecords       = "qa_records"
	VarCoord           = "coord"
	VarCoordX          = "coordx"
	VarCoordY          = "coordy"
	VarCoordZ          = "coordz"
	VarCoordNames      = "coor_names"
	VarNodeSetNames    = "ns_names"
	VarSideSetNames    = "ss_names"
	VarBlockNames      = "eb_names"
	VarNodeSetStatus   = "ns_status"
	VarSideSetStatus   = "ss_status"
	VarBlockStatus     = "eb_status"
	VarElemOrderMap    = "elem_map"
	VarNodeIDMap       = "node_num_map"
	VarElemIDMap       = "elem_num_map"
	VarNodeSetIDs      = "ns_prop1"
	VarSideSetIDs      = "ss_prop1"
	VarBlockIDs        = "eb_prop1"
	VarTimeWhole       = "time_whole"
	VarGlobalVarVals   = "vals_glo_var"
	VarGlobalVarNames  = "name_glo_var"
	VarNodeVarNames    = "name_nod_var"
	VarElemVarNames    = "name_elem_var"
	VarNodeSetVarNames = "name_nset_var"
	VarSideSetVarNames = "name_sset_var"
	VarElemVarTable    = "elem_var_tab"
	VarNodeSetVarTable = "nset_var_tab"
	VarSideSetVarTable = "sset_var_tab"
)

// Default sizes for new archives. Name lengths include the trailing NUL
// of the C API, so the usable length is one less than the dimension.
const (
	DefaultTitle     = "Untitled database"
	DefaultLenString = 33
	DefaultLenLine   = 81
	DefaultLenName   = 33
	MaxNameLength    = 32
	FormatVersion    = 7.22
)

// Sequence-numbered dimension names. Sequence numbers are 1-based
// positions within the archive, not external ids.

func DimNodeSetSize(seq int) string       { return fmt.Sprintf("num_nod_ns%d", seq) }
func DimSideSetSize(seq int) string       { return fmt.Sprintf("num_side_ss%d", seq) }
func DimSideSetDFCount(seq int) string    { return fmt.Sprintf("num_df_ss%d", seq) }
func DimBlockSize(seq int) string         { return fmt.Sprintf("num_el_in_blk%d", seq) }
func DimBlockNodesPerElem(seq int) string { return fmt.Sprintf("num_nod_per_el%d", seq) }
func DimBlockAttrCount(seq int) string    { return fmt.Sprintf("num_att_in_blk%d", seq) }

// Sequence-numbered variable names.

func VarNodeSetNodes(seq int) string    { return fmt.Sprintf("node_ns%d", seq) }
func VarNodeSetDistFact(seq int) string { return fmt.Sprintf("dist_fact_ns%d", seq) }
func VarSideSetElems(seq int) string    { return fmt.Sprintf("elem_ss%d", seq) }
func VarSideSetSides(seq int) string    { return fmt.Sprintf("side_ss%d", seq) }
func VarSideSetDistFact(seq int) string { return fmt.Sprintf("dist_fact_ss%d", seq) }
func VarBlockConnect(seq int) string    { return fmt.Sprintf("connect%d", seq) }
func VarBlockAttrs(seq int) string      { return fmt.Sprintf("attrib%d", seq) }
func VarNodeVarVals(v int) string       { return fmt.Sprintf("vals_nod_var%d", v) }

// VarElemVarVals returns the name of the values variable for element
// result variable v on block seq.
func VarElemVarVals(v, seq int) string { return fmt.Sprintf("vals_elem_var%deb%d", v, seq) }

// VarNodeSetVarVals returns the name of the values variable for node
// set result variable v on node set seq.
func VarNodeSetVarVals(v, seq int) string { return fmt.Sprintf("vals_nset_var%dns%d", v, seq) }

// VarSideSetVarVals returns the name of the values variable for side
// set result variable v on side set seq.
func VarSideSetVarVals(v, seq int) string { return fmt.Sprintf("vals_sset_var%dss%d", v, seq) }
