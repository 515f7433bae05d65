// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package boltdb

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mcoppeta/junior-design-1337-sub000/archive"
	"github.com/mcoppeta/junior-design-1337-sub000/errors"
	"github.com/zeebo/blake3"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/sync/errgroup"
)

var (
	bucketDims  = []byte("dimensions")
	bucketVars  = []byte("variables")
	bucketData  = []byte("data")
	bucketAttrs = []byte("attributes")
	bucketSums  = []byte("checksums")
)

const errFmtBucketNotFound = "boltdb: bucket '%s' not found"

// Ensure type implements interface.
var _ archive.Archive = &Datastore{}

// Datastore is the bolt-backed archive container. Dimensions,
// variable metadata and attributes are stored as JSON records;
// variable payloads are stored as little-endian value arrays in the
// row-major flattening the archive model prescribes.
type Datastore struct {
	db   *bolt.DB
	path string
	mode archive.Mode

	once sync.Once
}

// Open opens the archive at path. ModeWrite creates a new file and
// fails if one already exists; ModeRead and ModeAppend require an
// existing file and leave it untouched, append edits being committed
// to a different path by the editing layer.
func Open(path string, mode archive.Mode) (*Datastore, error) {
	if !mode.Valid() {
		return nil, errors.New(archive.ErrInvalidMode, fmt.Sprintf("mode must be 'w', 'r', or 'a', got '%s'", mode))
	}

	_, statErr := os.Stat(path)
	switch mode {
	case archive.ModeWrite:
		if statErr == nil {
			return nil, errors.Errorf("file '%s' already exists", path)
		}
	case archive.ModeRead, archive.ModeAppend:
		if os.IsNotExist(statErr) {
			return nil, errors.Errorf("file '%s' does not exist", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Wrapf(err, "mkdir %s", filepath.Dir(path))
	}

	opt := &bolt.Options{Timeout: 1 * time.Second}
	if mode != archive.ModeWrite {
		// The file is never modified in place outside of mode 'w'.
		opt.ReadOnly = true
	}
	db, err := bolt.Open(path, 0600, opt)
	if err != nil {
		return nil, errors.Wrapf(err, "open file: %s", path)
	}

	s := &Datastore{db: db, path: path, mode: mode}
	if mode == archive.ModeWrite {
		if err := db.Update(func(tx *bolt.Tx) error {
			for _, name := range [][]byte{bucketDims, bucketVars, bucketData, bucketAttrs, bucketSums} {
				if _, err := tx.CreateBucketIfNotExists(name); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Path returns the file path the store was opened with.
func (s *Datastore) Path() string { return s.path }

// Mode returns the mode the store was opened with.
func (s *Datastore) Mode() archive.Mode { return s.mode }

// Close closes the underlying database.
func (s *Datastore) Close() error {
	var err error
	s.once.Do(func() {
		if s.db != nil {
			err = s.db.Close()
		}
	})
	return err
}

// Sync flushes the database file to stable storage.
func (s *Datastore) Sync() error {
	if s.mode != archive.ModeWrite {
		return nil
	}
	return s.db.Sync()
}

// dimRecord is the stored form of a dimension. For unlimited
// dimensions Current tracks the high-water record count.
type dimRecord struct {
	Size      int64 `json:"size"`
	Unlimited bool  `json:"unlimited,omitempty"`
	Current   int64 `json:"current,omitempty"`
}

func (d dimRecord) size() int64 {
	if d.Unlimited {
		return d.Current
	}
	return d.Size
}

// varRecord is the stored form of a variable's metadata. Attribute
// values are kept tagged so integers survive the JSON round trip.
type varRecord struct {
	Name  string               `json:"name"`
	Type  archive.DataType     `json:"type"`
	Dims  []string             `json:"dims"`
	Attrs map[string]attrValue `json:"attrs,omitempty"`
}

type attrValue struct {
	Kind string  `json:"kind"`
	S    string  `json:"s,omitempty"`
	I    int64   `json:"i,omitempty"`
	F    float64 `json:"f,omitempty"`
}

func encodeAttr(v interface{}) (attrValue, error) {
	switch v := v.(type) {
	case string:
		return attrValue{Kind: "s", S: v}, nil
	case int:
		return attrValue{Kind: "i", I: int64(v)}, nil
	case int64:
		return attrValue{Kind: "i", I: v}, nil
	case float64:
		return attrValue{Kind: "f", F: v}, nil
	default:
		return attrValue{}, errors.New(archive.ErrInvalidArgument, fmt.Sprintf("unsupported attribute type %T", v))
	}
}

func (a attrValue) value() interface{} {
	switch a.Kind {
	case "s":
		return a.S
	case "i":
		return a.I
	default:
		return a.F
	}
}

// DefineDimension declares a dimension. Redeclaring with an identical
// size is a no-op so grafts can run the same definition code paths as
// fresh builds.
func (s *Datastore) DefineDimension(name string, size int64) error {
	if s.mode != archive.ModeWrite {
		return archive.NewErrReadOnly(s.path)
	}
	if name == "" {
		return errors.New(archive.ErrInvalidArgument, "dimension name must not be empty")
	}
	if size < 0 && size != archive.UnlimitedSize {
		return errors.New(archive.ErrInvalidArgument, fmt.Sprintf("dimension '%s' size %d must be non-negative or unlimited", name, size))
	}

	rec := dimRecord{Size: size}
	if size == archive.UnlimitedSize {
		rec = dimRecord{Unlimited: true}
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketDims)
		if bkt == nil {
			return errors.Errorf(errFmtBucketNotFound, bucketDims)
		}
		if buf := bkt.Get([]byte(name)); buf != nil {
			var have dimRecord
			if err := json.Unmarshal(buf, &have); err != nil {
				return errors.Wrapf(err, "decoding dimension '%s'", name)
			}
			if have.Unlimited != rec.Unlimited || (!have.Unlimited && have.Size != rec.Size) {
				return archive.NewErrDimensionConflict(name, have.Size, size)
			}
			return nil
		}
		buf, err := json.Marshal(rec)
		if err != nil {
			return errors.Wrapf(err, "encoding dimension '%s'", name)
		}
		return bkt.Put([]byte(name), buf)
	})
}

// Dimension returns the named dimension. For unlimited dimensions the
// returned size is the current record count.
func (s *Datastore) Dimension(name string) (archive.Dimension, error) {
	var out archive.Dimension
	err := s.db.View(func(tx *bolt.Tx) error {
		rec, err := getDim(tx, name)
		if err != nil {
			return err
		}
		out = archive.Dimension{Name: name, Size: rec.size(), Unlimited: rec.Unlimited}
		return nil
	})
	return out, err
}

// HasDimension reports whether the named dimension is defined.
func (s *Datastore) HasDimension(name string) bool {
	ok := false
	_ = s.db.View(func(tx *bolt.Tx) error {
		if bkt := tx.Bucket(bucketDims); bkt != nil {
			ok = bkt.Get([]byte(name)) != nil
		}
		return nil
	})
	return ok
}

// Dimensions returns every defined dimension, sorted by name.
func (s *Datastore) Dimensions() ([]archive.Dimension, error) {
	var out []archive.Dimension
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketDims)
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, v []byte) error {
			var rec dimRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return errors.Wrapf(err, "decoding dimension '%s'", k)
			}
			out = append(out, archive.Dimension{Name: string(k), Size: rec.size(), Unlimited: rec.Unlimited})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DefineVariable declares a variable over already-defined dimensions.
// An unlimited dimension may only appear as the first dimension.
func (s *Datastore) DefineVariable(meta archive.VarMeta) error {
	if s.mode != archive.ModeWrite {
		return archive.NewErrReadOnly(s.path)
	}
	if meta.Name == "" {
		return errors.New(archive.ErrInvalidArgument, "variable name must not be empty")
	}
	switch meta.Type {
	case archive.TypeInt, archive.TypeFloat, archive.TypeChar:
	default:
		return errors.New(archive.ErrInvalidArgument, fmt.Sprintf("variable '%s' has unknown type %d", meta.Name, meta.Type))
	}
	if meta.Type == archive.TypeChar && len(meta.Dims) == 0 {
		return errors.New(archive.ErrInvalidArgument, fmt.Sprintf("char variable '%s' needs a width dimension", meta.Name))
	}

	rec := varRecord{Name: meta.Name, Type: meta.Type, Dims: meta.Dims}
	if len(meta.Attrs) > 0 {
		rec.Attrs = make(map[string]attrValue, len(meta.Attrs))
		for k, v := range meta.Attrs {
			av, err := encodeAttr(v)
			if err != nil {
				return err
			}
			rec.Attrs[k] = av
		}
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		for i, dim := range meta.Dims {
			rec, err := getDim(tx, dim)
			if err != nil {
				return err
			}
			if rec.Unlimited && i != 0 {
				return errors.New(archive.ErrInvalidArgument, fmt.Sprintf("record dimension '%s' must come first in variable '%s'", dim, meta.Name))
			}
		}
		bkt := tx.Bucket(bucketVars)
		if bkt == nil {
			return errors.Errorf(errFmtBucketNotFound, bucketVars)
		}
		if bkt.Get([]byte(meta.Name)) != nil {
			return archive.NewErrVariableConflict(meta.Name)
		}
		buf, err := json.Marshal(rec)
		if err != nil {
			return errors.Wrapf(err, "encoding variable '%s'", meta.Name)
		}
		return bkt.Put([]byte(meta.Name), buf)
	})
}

// Variable returns the named variable's metadata.
func (s *Datastore) Variable(name string) (archive.VarMeta, error) {
	var out archive.VarMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		rec, err := getVar(tx, name)
		if err != nil {
			return err
		}
		out = rec.meta()
		return nil
	})
	return out, err
}

// HasVariable reports whether the named variable is defined.
func (s *Datastore) HasVariable(name string) bool {
	ok := false
	_ = s.db.View(func(tx *bolt.Tx) error {
		if bkt := tx.Bucket(bucketVars); bkt != nil {
			ok = bkt.Get([]byte(name)) != nil
		}
		return nil
	})
	return ok
}

// Variables returns every defined variable, sorted by name.
func (s *Datastore) Variables() ([]archive.VarMeta, error) {
	var out []archive.VarMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketVars)
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, v []byte) error {
			var rec varRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return errors.Wrapf(err, "decoding variable '%s'", k)
			}
			out = append(out, rec.meta())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r varRecord) meta() archive.VarMeta {
	meta := archive.VarMeta{Name: r.Name, Type: r.Type, Dims: r.Dims}
	if len(r.Attrs) > 0 {
		meta.Attrs = make(map[string]interface{}, len(r.Attrs))
		for k, v := range r.Attrs {
			meta.Attrs[k] = v.value()
		}
	}
	return meta
}

// SetAttr sets a global attribute. Strings, ints and floats are the
// storable kinds.
func (s *Datastore) SetAttr(name string, value interface{}) error {
	if s.mode != archive.ModeWrite {
		return archive.NewErrReadOnly(s.path)
	}
	av, err := encodeAttr(value)
	if err != nil {
		return err
	}
	buf, err := json.Marshal(av)
	if err != nil {
		return errors.Wrapf(err, "encoding attribute '%s'", name)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketAttrs)
		if bkt == nil {
			return errors.Errorf(errFmtBucketNotFound, bucketAttrs)
		}
		return bkt.Put([]byte(name), buf)
	})
}

// Attr returns a global attribute's value as a string, int64 or
// float64.
func (s *Datastore) Attr(name string) (interface{}, error) {
	var out interface{}
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketAttrs)
		if bkt == nil {
			return archive.NewErrAttributeNotFound(name)
		}
		buf := bkt.Get([]byte(name))
		if buf == nil {
			return archive.NewErrAttributeNotFound(name)
		}
		var av attrValue
		if err := json.Unmarshal(buf, &av); err != nil {
			return errors.Wrapf(err, "decoding attribute '%s'", name)
		}
		out = av.value()
		return nil
	})
	return out, err
}

// Attrs returns all global attributes.
func (s *Datastore) Attrs() (map[string]interface{}, error) {
	out := make(map[string]interface{})
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketAttrs)
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, v []byte) error {
			var av attrValue
			if err := json.Unmarshal(v, &av); err != nil {
				return errors.Wrapf(err, "decoding attribute '%s'", k)
			}
			out[string(k)] = av.value()
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WriteInts fills an int variable in one call. For variables spanning
// the record dimension the record count grows to fit the data.
func (s *Datastore) WriteInts(name string, data []int64) error {
	body := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(body[i*8:], uint64(v))
	}
	return s.writeWhole(name, archive.TypeInt, body, int64(len(data)))
}

// WriteFloats fills a float variable in one call.
func (s *Datastore) WriteFloats(name string, data []float64) error {
	body := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(body[i*8:], math.Float64bits(v))
	}
	return s.writeWhole(name, archive.TypeFloat, body, int64(len(data)))
}

// WriteIntsAt overwrites count values starting at offset, in the
// row-major flattening of the variable.
func (s *Datastore) WriteIntsAt(name string, offset int64, data []int64) error {
	body := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(body[i*8:], uint64(v))
	}
	return s.writeAt(name, archive.TypeInt, offset, body, int64(len(data)))
}

// WriteFloatsAt overwrites count values starting at offset.
func (s *Datastore) WriteFloatsAt(name string, offset int64, data []float64) error {
	body := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(body[i*8:], math.Float64bits(v))
	}
	return s.writeAt(name, archive.TypeFloat, offset, body, int64(len(data)))
}

// WriteStrings fills a char variable row by row, padding or
// truncating each string to the variable's row width.
func (s *Datastore) WriteStrings(name string, rows []string) error {
	if s.mode != archive.ModeWrite {
		return archive.NewErrReadOnly(s.path)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		rec, err := getVar(tx, name)
		if err != nil {
			return err
		}
		if rec.Type != archive.TypeChar {
			return archive.NewErrWrongType(name, rec.Type, archive.TypeChar)
		}
		width, nrows, err := charShape(tx, rec)
		if err != nil {
			return err
		}
		if int64(len(rows)) != nrows {
			return archive.NewErrInvalidShape(fmt.Sprintf("variable '%s' expects %d rows, got %d", name, nrows, len(rows)))
		}
		body := make([]byte, width*int64(len(rows)))
		for i, row := range rows {
			copy(body[int64(i)*width:int64(i+1)*width], row)
		}
		return putPayload(tx, name, body)
	})
}

// ReadInts returns the full contents of an int variable. Variables
// declared but never written read as zeroes.
func (s *Datastore) ReadInts(name string) ([]int64, error) {
	body, err := s.readWhole(name, archive.TypeInt)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(body)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(body[i*8:]))
	}
	return out, nil
}

// ReadIntsAt returns count values starting at offset.
func (s *Datastore) ReadIntsAt(name string, offset, count int64) ([]int64, error) {
	body, err := s.readRange(name, archive.TypeInt, offset, count)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(body)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(body[i*8:]))
	}
	return out, nil
}

// ReadFloats returns the full contents of a float variable.
func (s *Datastore) ReadFloats(name string) ([]float64, error) {
	body, err := s.readWhole(name, archive.TypeFloat)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(body)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(body[i*8:]))
	}
	return out, nil
}

// ReadFloatsAt returns count values starting at offset.
func (s *Datastore) ReadFloatsAt(name string, offset, count int64) ([]float64, error) {
	body, err := s.readRange(name, archive.TypeFloat, offset, count)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(body)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(body[i*8:]))
	}
	return out, nil
}

// ReadStrings returns one NUL-trimmed string per row of a char
// variable.
func (s *Datastore) ReadStrings(name string) ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		rec, err := getVar(tx, name)
		if err != nil {
			return err
		}
		if rec.Type != archive.TypeChar {
			return archive.NewErrWrongType(name, rec.Type, archive.TypeChar)
		}
		width, nrows, err := charShape(tx, rec)
		if err != nil {
			return err
		}
		body := getPayload(tx, name, width*nrows)
		out = make([]string, nrows)
		for i := int64(0); i < nrows; i++ {
			out[i] = strings.TrimRight(string(body[i*width:(i+1)*width]), "\x00")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CopyVariable copies a variable's definition, attributes and payload
// from src. The dimensions it spans must already be defined.
func (s *Datastore) CopyVariable(name string, src archive.Reader) error {
	meta, err := src.Variable(name)
	if err != nil {
		return err
	}
	if err := s.DefineVariable(meta); err != nil {
		return err
	}

	// Byte-for-byte when the source is another datastore. The target's
	// record dimension still has to grow to the source's record count,
	// since the raw payload carries no shape.
	if ds, ok := src.(*Datastore); ok {
		var records int64
		for _, dimName := range meta.Dims {
			d, err := src.Dimension(dimName)
			if err != nil {
				return err
			}
			if d.Unlimited {
				records = d.Size
			}
		}
		var body []byte
		if err := ds.db.View(func(tx *bolt.Tx) error {
			if bkt := tx.Bucket(bucketData); bkt != nil {
				if buf := bkt.Get([]byte(name)); buf != nil {
					body = make([]byte, len(buf))
					copy(body, buf)
				}
			}
			return nil
		}); err != nil {
			return err
		}
		if body == nil && records == 0 {
			return nil
		}
		return s.db.Update(func(tx *bolt.Tx) error {
			rec, err := getVar(tx, name)
			if err != nil {
				return err
			}
			if records > 0 {
				if err := growRecordDim(tx, rec, records); err != nil {
					return err
				}
			}
			if body == nil {
				return nil
			}
			return putPayload(tx, name, body)
		})
	}

	switch meta.Type {
	case archive.TypeInt:
		data, err := src.ReadInts(name)
		if err != nil {
			return err
		}
		return s.WriteInts(name, data)
	case archive.TypeFloat:
		data, err := src.ReadFloats(name)
		if err != nil {
			return err
		}
		return s.WriteFloats(name, data)
	default:
		rows, err := src.ReadStrings(name)
		if err != nil {
			return err
		}
		return s.WriteStrings(name, rows)
	}
}

// Checksum returns the stored digest of a variable's payload, or nil
// if the variable has never been written.
func (s *Datastore) Checksum(name string) ([]byte, error) {
	if !s.HasVariable(name) {
		return nil, archive.NewErrVariableNotFound(name)
	}
	var sum []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if bkt := tx.Bucket(bucketSums); bkt != nil {
			if buf := bkt.Get([]byte(name)); buf != nil {
				sum = make([]byte, len(buf))
				copy(sum, buf)
			}
		}
		return nil
	})
	return sum, err
}

// VerifyChecksums rehashes every written variable payload and returns
// the names of those whose digests no longer match, sorted.
func (s *Datastore) VerifyChecksums() ([]string, error) {
	type entry struct {
		name string
		body []byte
		sum  []byte
	}
	var entries []entry
	if err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketData)
		sums := tx.Bucket(bucketSums)
		if data == nil || sums == nil {
			return nil
		}
		return data.ForEach(func(k, v []byte) error {
			e := entry{name: string(k), body: make([]byte, len(v))}
			copy(e.body, v)
			if buf := sums.Get(k); buf != nil {
				e.sum = make([]byte, len(buf))
				copy(e.sum, buf)
			}
			entries = append(entries, e)
			return nil
		})
	}); err != nil {
		return nil, err
	}

	var (
		mu  sync.Mutex
		bad []string
	)
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range entries {
		e := entries[i]
		g.Go(func() error {
			sum := blake3.Sum256(e.body)
			if e.sum == nil || !bytesEqual(sum[:], e.sum) {
				mu.Lock()
				bad = append(bad, e.name)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(bad)
	return bad, nil
}

func bytesEqual(a, b []byte) bool {
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

func getDim(tx *bolt.Tx, name string) (dimRecord, error) {
	bkt := tx.Bucket(bucketDims)
	if bkt == nil {
		return dimRecord{}, archive.NewErrDimensionNotFound(name)
	}
	buf := bkt.Get([]byte(name))
	if buf == nil {
		return dimRecord{}, archive.NewErrDimensionNotFound(name)
	}
	var rec dimRecord
	if err := json.Unmarshal(buf, &rec); err != nil {
		return dimRecord{}, errors.Wrapf(err, "decoding dimension '%s'", name)
	}
	return rec, nil
}

func getVar(tx *bolt.Tx, name string) (varRecord, error) {
	bkt := tx.Bucket(bucketVars)
	if bkt == nil {
		return varRecord{}, archive.NewErrVariableNotFound(name)
	}
	buf := bkt.Get([]byte(name))
	if buf == nil {
		return varRecord{}, archive.NewErrVariableNotFound(name)
	}
	var rec varRecord
	if err := json.Unmarshal(buf, &rec); err != nil {
		return varRecord{}, errors.Wrapf(err, "decoding variable '%s'", name)
	}
	return rec, nil
}

// shape returns the fixed row size of one record and the current
// total value count for a variable. For variables without a record
// dimension the row size equals the total count.
func shape(tx *bolt.Tx, rec varRecord) (rowSize, total int64, unlimited bool, err error) {
	rowSize = 1
	total = 1
	for _, dim := range rec.Dims {
		d, err := getDim(tx, dim)
		if err != nil {
			return 0, 0, false, err
		}
		if d.Unlimited {
			unlimited = true
			total *= d.Current
			continue
		}
		total *= d.Size
		rowSize *= d.Size
	}
	return rowSize, total, unlimited, nil
}

func charShape(tx *bolt.Tx, rec varRecord) (width, nrows int64, err error) {
	if len(rec.Dims) == 0 {
		return 0, 0, errors.New(archive.ErrInvalidArgument, fmt.Sprintf("char variable '%s' has no dimensions", rec.Name))
	}
	last, err := getDim(tx, rec.Dims[len(rec.Dims)-1])
	if err != nil {
		return 0, 0, err
	}
	width = last.size()
	nrows = 1
	for _, dim := range rec.Dims[:len(rec.Dims)-1] {
		d, err := getDim(tx, dim)
		if err != nil {
			return 0, 0, err
		}
		nrows *= d.size()
	}
	return width, nrows, nil
}

func getPayload(tx *bolt.Tx, name string, want int64) []byte {
	var body []byte
	if bkt := tx.Bucket(bucketData); bkt != nil {
		if buf := bkt.Get([]byte(name)); buf != nil {
			body = make([]byte, len(buf))
			copy(body, buf)
		}
	}
	if body == nil {
		body = make([]byte, want)
	}
	if int64(len(body)) < want {
		body = append(body, make([]byte, want-int64(len(body)))...)
	}
	return body
}

func putPayload(tx *bolt.Tx, name string, body []byte) error {
	bkt := tx.Bucket(bucketData)
	if bkt == nil {
		return errors.Errorf(errFmtBucketNotFound, bucketData)
	}
	if err := bkt.Put([]byte(name), body); err != nil {
		return err
	}
	sums := tx.Bucket(bucketSums)
	if sums == nil {
		return errors.Errorf(errFmtBucketNotFound, bucketSums)
	}
	sum := blake3.Sum256(body)
	return sums.Put([]byte(name), sum[:])
}

func (s *Datastore) writeWhole(name string, typ archive.DataType, body []byte, n int64) error {
	if s.mode != archive.ModeWrite {
		return archive.NewErrReadOnly(s.path)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		rec, err := getVar(tx, name)
		if err != nil {
			return err
		}
		if rec.Type != typ {
			return archive.NewErrWrongType(name, rec.Type, typ)
		}
		rowSize, total, unlimited, err := shape(tx, rec)
		if err != nil {
			return err
		}
		if unlimited {
			if rowSize == 0 || n%rowSize != 0 {
				return archive.NewErrInvalidShape(fmt.Sprintf("variable '%s' takes records of %d values, got %d values", name, rowSize, n))
			}
			if records := n / rowSize; records > 0 {
				if err := growRecordDim(tx, rec, records); err != nil {
					return err
				}
			}
		} else if n != total {
			return archive.NewErrInvalidShape(fmt.Sprintf("variable '%s' expects %d values, got %d", name, total, n))
		}
		return putPayload(tx, name, body)
	})
}

func (s *Datastore) writeAt(name string, typ archive.DataType, offset int64, part []byte, n int64) error {
	if s.mode != archive.ModeWrite {
		return archive.NewErrReadOnly(s.path)
	}
	if offset < 0 {
		return errors.New(archive.ErrInvalidArgument, fmt.Sprintf("negative offset %d writing variable '%s'", offset, name))
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		rec, err := getVar(tx, name)
		if err != nil {
			return err
		}
		if rec.Type != typ {
			return archive.NewErrWrongType(name, rec.Type, typ)
		}
		rowSize, total, unlimited, err := shape(tx, rec)
		if err != nil {
			return err
		}
		end := offset + n
		if unlimited {
			if end > total {
				if rowSize == 0 {
					return archive.NewErrInvalidShape(fmt.Sprintf("variable '%s' has an empty record shape", name))
				}
				records := (end + rowSize - 1) / rowSize
				if err := growRecordDim(tx, rec, records); err != nil {
					return err
				}
				total = records * rowSize
			}
		} else if end > total {
			return archive.NewErrOutOfRange(name, offset, n, total)
		}
		body := getPayload(tx, name, total*8)
		copy(body[offset*8:], part)
		return putPayload(tx, name, body)
	})
}

func (s *Datastore) readWhole(name string, typ archive.DataType) ([]byte, error) {
	var body []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		rec, err := getVar(tx, name)
		if err != nil {
			return err
		}
		if rec.Type != typ {
			return archive.NewErrWrongType(name, rec.Type, typ)
		}
		_, total, _, err := shape(tx, rec)
		if err != nil {
			return err
		}
		body = getPayload(tx, name, total*8)
		body = body[:total*8]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (s *Datastore) readRange(name string, typ archive.DataType, offset, count int64) ([]byte, error) {
	if offset < 0 || count < 0 {
		return nil, errors.New(archive.ErrInvalidArgument, fmt.Sprintf("negative range [%d, %d) reading variable '%s'", offset, offset+count, name))
	}
	var body []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		rec, err := getVar(tx, name)
		if err != nil {
			return err
		}
		if rec.Type != typ {
			return archive.NewErrWrongType(name, rec.Type, typ)
		}
		_, total, _, err := shape(tx, rec)
		if err != nil {
			return err
		}
		if offset+count > total {
			return archive.NewErrOutOfRange(name, offset, count, total)
		}
		full := getPayload(tx, name, total*8)
		body = full[offset*8 : (offset+count)*8]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// growRecordDim raises the record count of rec's unlimited dimension
// to at least records.
func growRecordDim(tx *bolt.Tx, rec varRecord, records int64) error {
	if len(rec.Dims) == 0 {
		return nil
	}
	name := rec.Dims[0]
	d, err := getDim(tx, name)
	if err != nil {
		return err
	}
	if !d.Unlimited || d.Current >= records {
		return nil
	}
	d.Current = records
	buf, err := json.Marshal(d)
	if err != nil {
		return errors.Wrapf(err, "encoding dimension '%s'", name)
	}
	bkt := tx.Bucket(bucketDims)
	if bkt == nil {
		return errors.Errorf(errFmtBucketNotFound, bucketDims)
	}
	return bkt.Put([]byte(name), buf)
}
