// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package exodus

import "strconv"

// Identifier selects a node set, side set or element block either by
// its external id or by its name. The two forms are resolved to an
// internal position exactly once, at the API boundary.
type Identifier interface {
	String() string
	isIdentifier()
}

// ByID selects a collection by its external id.
type ByID int64

func (b ByID) String() string { return strconv.FormatInt(int64(b), 10) }

func (ByID) isIdentifier() {}

// ByName selects a collection by its user-assigned name.
type ByName string

func (b ByName) String() string { return string(b) }

func (ByName) isIdentifier() {}
