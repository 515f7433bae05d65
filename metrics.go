// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package exodus

const (
	MetricAddNodeSet      = "add_node_set_total"
	MetricRemoveNodeSet   = "remove_node_set_total"
	MetricMergeNodeSets   = "merge_node_sets_total"
	MetricAddNodes        = "add_nodes_total"
	MetricRemoveNodes     = "remove_nodes_total"
	MetricAddSideSet      = "add_side_set_total"
	MetricRemoveSideSet   = "remove_side_set_total"
	MetricAddSides        = "add_sides_total"
	MetricRemoveSides     = "remove_sides_total"
	MetricSplitSideSet    = "split_side_set_total"
	MetricAddElement      = "add_element_total"
	MetricRemoveElement   = "remove_element_total"
	MetricSkin            = "skin_total"
	MetricSkinFaces       = "skin_faces"
	MetricCommitDuration  = "commit_duration_seconds"
	MetricCommitVariables = "commit_variables_total"
	MetricLazyPull        = "lazy_pull_total"
)
