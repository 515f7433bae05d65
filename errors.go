// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package exodus

import (
	"fmt"

	"github.com/mcoppeta/junior-design-1337-sub000/archive"
	"github.com/mcoppeta/junior-design-1337-sub000/errors"
)

// Error codes shared with the archive package, re-exported so callers
// of the editing layer only need this package for errors.Is checks.
const (
	ErrNotFound        = archive.ErrNotFound
	ErrDuplicateID     = archive.ErrDuplicateID
	ErrDuplicateName   = archive.ErrDuplicateName
	ErrInvalidArgument = archive.ErrInvalidArgument
	ErrSizeMismatch    = archive.ErrSizeMismatch
	ErrInvalidMode     = archive.ErrInvalidMode
	ErrUnsupportedType = archive.ErrUnsupportedType
	ErrInvalidShape    = archive.ErrInvalidShape
	ErrInvalidMesh     = archive.ErrInvalidMesh

	ErrConflictingDefinition = archive.ErrConflictingDefinition
)

// The following are helper functions for constructing coded errors containing
// relevant information about the specific error.

func NewErrNodeSetNotFound(ident Identifier) error {
	return errors.New(
		ErrNotFound,
		fmt.Sprintf("node set '%s' does not exist", ident),
	)
}

func NewErrSideSetNotFound(ident Identifier) error {
	return errors.New(
		ErrNotFound,
		fmt.Sprintf("side set '%s' does not exist", ident),
	)
}

func NewErrBlockNotFound(ident Identifier) error {
	return errors.New(
		ErrNotFound,
		fmt.Sprintf("element block '%s' does not exist", ident),
	)
}

func NewErrElementNotFound(id int64) error {
	return errors.New(
		ErrNotFound,
		fmt.Sprintf("element %d does not exist", id),
	)
}

func NewErrNodeSetIDExists(id int64) error {
	return errors.New(
		ErrDuplicateID,
		fmt.Sprintf("node set id %d already exists", id),
	)
}

func NewErrSideSetIDExists(id int64) error {
	return errors.New(
		ErrDuplicateID,
		fmt.Sprintf("side set id %d already exists", id),
	)
}

func NewErrNodeSetNameExists(name string) error {
	return errors.New(
		ErrDuplicateName,
		fmt.Sprintf("node set name '%s' already exists", name),
	)
}

func NewErrSideSetNameExists(name string) error {
	return errors.New(
		ErrDuplicateName,
		fmt.Sprintf("side set name '%s' already exists", name),
	)
}

func NewErrSizeMismatch(what string, want, got int) error {
	return errors.New(
		ErrSizeMismatch,
		fmt.Sprintf("%s: expected length %d, got %d", what, want, got),
	)
}

func NewErrInvalidMode(msg string) error {
	return errors.New(ErrInvalidMode, msg)
}

func NewErrInvalidArgument(msg string) error {
	return errors.New(ErrInvalidArgument, msg)
}

func NewErrUnsupportedType(elemType string) error {
	return errors.New(
		ErrUnsupportedType,
		fmt.Sprintf("%s is an unsupported element type", elemType),
	)
}

func NewErrInvalidShape(msg string) error {
	return errors.New(ErrInvalidShape, msg)
}

func NewErrNonManifoldFace(face []int64, count int) error {
	return errors.New(
		ErrInvalidMesh,
		fmt.Sprintf("face %v is shared by %d elements, mesh is not manifold", face, count),
	)
}
