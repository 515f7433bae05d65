// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package archive

import (
	"fmt"

	"github.com/mcoppeta/junior-design-1337-sub000/errors"
)

const (
	ErrNotFound        errors.Code = "NotFound"
	ErrDuplicateID     errors.Code = "DuplicateID"
	ErrDuplicateName   errors.Code = "DuplicateName"
	ErrInvalidArgument errors.Code = "InvalidArgument"
	ErrSizeMismatch    errors.Code = "SizeMismatch"
	ErrInvalidMode     errors.Code = "InvalidMode"
	ErrUnsupportedType errors.Code = "UnsupportedType"
	ErrInvalidShape    errors.Code = "InvalidShape"
	ErrInvalidMesh     errors.Code = "InvalidMesh"

	ErrConflictingDefinition errors.Code = "ConflictingDefinition"
)

// The following are helper functions for constructing coded errors containing
// relevant information about the specific error.

func NewErrDimensionNotFound(name string) error {
	return errors.New(
		ErrNotFound,
		fmt.Sprintf("dimension '%s' does not exist", name),
	)
}

func NewErrVariableNotFound(name string) error {
	return errors.New(
		ErrNotFound,
		fmt.Sprintf("variable '%s' does not exist", name),
	)
}

func NewErrAttributeNotFound(name string) error {
	return errors.New(
		ErrNotFound,
		fmt.Sprintf("attribute '%s' does not exist", name),
	)
}

func NewErrDimensionConflict(name string, have, want int64) error {
	return errors.New(
		ErrConflictingDefinition,
		fmt.Sprintf("dimension '%s' already defined with size %d, redefinition to %d not allowed", name, have, want),
	)
}

func NewErrVariableConflict(name string) error {
	return errors.New(
		ErrConflictingDefinition,
		fmt.Sprintf("variable '%s' already defined", name),
	)
}

func NewErrWrongType(name string, have, want DataType) error {
	return errors.New(
		ErrInvalidArgument,
		fmt.Sprintf("variable '%s' holds %s data, not %s", name, have, want),
	)
}

func NewErrInvalidShape(msg string) error {
	return errors.New(ErrInvalidShape, msg)
}

func NewErrReadOnly(path string) error {
	return errors.New(
		ErrInvalidMode,
		fmt.Sprintf("archive '%s' is open read-only", path),
	)
}

func NewErrOutOfRange(name string, offset, count, size int64) error {
	return errors.New(
		ErrInvalidArgument,
		fmt.Sprintf("range [%d, %d) is out of bounds for variable '%s' of size %d", offset, offset+count, name, size),
	)
}
