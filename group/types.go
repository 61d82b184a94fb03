// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package group implements a high-throughput grouping and aggregation
// engine over columnar data: hashing, sorting, panel-setup, and per-group
// reduction (sum, mean, sd, percentiles, and friends).
package group

import "math"

// Idx is a row index into the host's columns.
type Idx = uint64

// ColumnKind identifies the concrete representation of a by-column or
// value column.
type ColumnKind uint8

const (
	KindInt64 ColumnKind = iota
	KindFloat64
	KindBytes
)

// MissingInt64 is the reserved sentinel for an absent int64 value.
const MissingInt64 = math.MaxInt64

// MissingFloat64 returns the reserved sentinel for an absent float64
// value. It is a normalized NaN bit pattern so that it compares equal
// only to itself under raw bit comparison.
func MissingFloat64() float64 {
	return math.Float64frombits(0x7ff8000000000000)
}

func isMissingFloat64(f float64) bool {
	return math.Float64bits(f) == 0x7ff8000000000000
}

// MissingByte is the byte value used to pad/fill a missing fixed-width
// byte-string column entry.
const MissingByte = 0xFF

// ColumnView is a read-only view onto one column of N rows, supplied by
// the host environment. The core never mutates a ColumnView.
type ColumnView interface {
	Kind() ColumnKind
	Len() int

	// Int64At returns the value at row i for a KindInt64 column.
	Int64At(i int) int64
	// Float64At returns the value at row i for a KindFloat64 column.
	Float64At(i int) float64
	// BytesAt returns the fixed-width byte representation at row i for
	// a KindBytes column. The returned slice must not be retained past
	// the next call (the host may reuse the backing array).
	BytesAt(i int) []byte
	// Width is the declared byte width for KindBytes columns.
	Width() int
}

// ColumnSpec describes one column in a by-tuple schema.
type ColumnSpec struct {
	Name string
	Kind ColumnKind
}

// Schema is the fixed by-tuple schema for a single engine invocation.
type Schema struct {
	Columns []ColumnSpec
}

// FingerprintMode selects how Fingerprint.H1/H2 should be interpreted.
type FingerprintMode uint8

const (
	// BijectMode means H1[i] is an exact integer encoding of the
	// by-tuple; H2 is unused and collisions are impossible.
	BijectMode FingerprintMode = iota
	// HashMode means H1/H2 together form a 128-bit non-cryptographic
	// hash of the by-tuple's canonical byte image.
	HashMode
)

// Fingerprint is the per-row hash output of the Hasher (C1).
type Fingerprint struct {
	Mode FingerprintMode
	H1   []uint64
	H2   []uint64 // nil in BijectMode
}

// Int64Column is a simple slice-backed ColumnView for int64 data.
type Int64Column []int64

func (c Int64Column) Kind() ColumnKind       { return KindInt64 }
func (c Int64Column) Len() int               { return len(c) }
func (c Int64Column) Int64At(i int) int64    { return c[i] }
func (c Int64Column) Float64At(i int) float64 { panic("not a float64 column") }
func (c Int64Column) BytesAt(i int) []byte   { panic("not a bytes column") }
func (c Int64Column) Width() int             { return 8 }

// Float64Column is a simple slice-backed ColumnView for float64 data.
type Float64Column []float64

func (c Float64Column) Kind() ColumnKind        { return KindFloat64 }
func (c Float64Column) Len() int                { return len(c) }
func (c Float64Column) Int64At(i int) int64     { panic("not an int64 column") }
func (c Float64Column) Float64At(i int) float64 { return c[i] }
func (c Float64Column) BytesAt(i int) []byte    { panic("not a bytes column") }
func (c Float64Column) Width() int              { return 8 }

// BytesColumn is a simple slice-backed ColumnView for fixed-width byte
// string data. Every entry must have the same length (the declared
// width); shorter entries should be padded by the caller with
// MissingByte.
type BytesColumn struct {
	Data  [][]byte
	Wide  int
}

func (c BytesColumn) Kind() ColumnKind        { return KindBytes }
func (c BytesColumn) Len() int                { return len(c.Data) }
func (c BytesColumn) Int64At(i int) int64     { panic("not an int64 column") }
func (c BytesColumn) Float64At(i int) float64 { panic("not a float64 column") }
func (c BytesColumn) BytesAt(i int) []byte    { return c.Data[i] }
func (c BytesColumn) Width() int              { return c.Wide }
