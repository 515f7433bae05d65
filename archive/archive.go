// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package archive defines the storage model of a mesh database: named
// dimensions, typed variables spanning those dimensions, and global
// attributes. It is the contract between the editing layer and the
// backing container; the boltdb package provides the on-disk
// implementation.
package archive

// Mode selects how an archive is opened.
type Mode string

const (
	// ModeRead opens an existing archive read-only.
	ModeRead Mode = "r"
	// ModeWrite creates a new, empty archive.
	ModeWrite Mode = "w"
	// ModeAppend opens an existing archive for editing. The container
	// cannot grow arrays in place, so edits are committed by writing a
	// new archive at a different path.
	ModeAppend Mode = "a"
)

// Valid reports whether m is one of the three supported open modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeRead, ModeWrite, ModeAppend:
		return true
	}
	return false
}

// DataType enumerates the storable value types of a variable.
type DataType int

const (
	TypeInt DataType = iota + 1
	TypeFloat
	TypeChar
)

func (t DataType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeChar:
		return "char"
	default:
		return "unknown"
	}
}

// UnlimitedSize declares a dimension that grows as records are
// written along it.
const UnlimitedSize = int64(-1)

// Dimension is a named array extent. For an unlimited dimension, Size
// holds the current record count.
type Dimension struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Unlimited bool   `json:"unlimited,omitempty"`
}

// VarMeta describes a declared variable: its value type, the named
// dimensions it spans in row-major order, and any attributes attached
// to it. Attribute values are strings, int64s or float64s.
type VarMeta struct {
	Name  string                 `json:"name"`
	Type  DataType               `json:"type"`
	Dims  []string               `json:"dims"`
	Attrs map[string]interface{} `json:"attrs,omitempty"`
}

// Reader is the read side of an archive. Offsets and counts on the
// partial reads are in values, over the row-major flattening of the
// variable.
type Reader interface {
	Dimension(name string) (Dimension, error)
	HasDimension(name string) bool
	Dimensions() ([]Dimension, error)

	Variable(name string) (VarMeta, error)
	HasVariable(name string) bool
	Variables() ([]VarMeta, error)

	ReadInts(name string) ([]int64, error)
	ReadIntsAt(name string, offset, count int64) ([]int64, error)
	ReadFloats(name string) ([]float64, error)
	ReadFloatsAt(name string, offset, count int64) ([]float64, error)

	// ReadStrings returns one string per row of a char variable, with
	// trailing NUL padding removed. Rows are the row-major flattening
	// of every dimension but the last.
	ReadStrings(name string) ([]string, error)

	Attr(name string) (interface{}, error)
	Attrs() (map[string]interface{}, error)
}

// Writer is the write side of an archive.
type Writer interface {
	// DefineDimension declares a dimension. Pass UnlimitedSize for the
	// record dimension. Redefining a dimension with the same size is a
	// no-op; redefining with a different size fails.
	DefineDimension(name string, size int64) error

	// DefineVariable declares a variable and its attributes. The
	// dimensions it names must already be defined.
	DefineVariable(meta VarMeta) error

	WriteInts(name string, data []int64) error
	WriteIntsAt(name string, offset int64, data []int64) error
	WriteFloats(name string, data []float64) error
	WriteFloatsAt(name string, offset int64, data []float64) error

	// WriteStrings fills a char variable row by row. Strings longer
	// than the row width are truncated; shorter ones are NUL padded.
	WriteStrings(name string, rows []string) error

	SetAttr(name string, value interface{}) error

	// CopyVariable copies a variable's definition, attributes and
	// payload from src into this archive. The dimensions the variable
	// spans must already be defined.
	CopyVariable(name string, src Reader) error

	Sync() error
}

// Archive combines both sides of an open mesh archive.
type Archive interface {
	Reader
	Writer

	Path() string
	Mode() Mode
	Close() error
}
