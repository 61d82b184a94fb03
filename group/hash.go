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

package group

import (
	"encoding/binary"
	"math"

	"github.com/spaolacci/murmur3"
)

// RowFilter is an "if" predicate evaluated once per row during hashing.
// Rows for which it returns false are treated as absent from every
// group and from every aggregate.
type RowFilter func(row Idx) bool

// RowRange is an "in" row-range restriction, half-open [Lo, Hi).
type RowRange struct {
	Lo, Hi Idx
}

// hashRows implements C1: it maps every row selected by filter/rng to a
// Fingerprint, returning the fingerprint array together with the
// initial index permutation (perm[i] is the original row index of
// the i-th surviving row, in original row order — the required
// identity permutation for the stable sort in C2).
func hashRows(cols []ColumnView, schema Schema, n int, filter RowFilter, rng *RowRange) (Fingerprint, []Idx, error) {
	if len(schema.Columns) == 0 {
		return Fingerprint{}, nil, newErr(CodeUnsupportedSchema, "at least one by-column is required")
	}
	if len(cols) != len(schema.Columns) {
		return Fingerprint{}, nil, newErr(CodeUnsupportedSchema, "column count %d does not match schema %d", len(cols), len(schema.Columns))
	}

	lo, hi := Idx(0), Idx(n)
	if rng != nil {
		lo, hi = rng.Lo, rng.Hi
	}
	if hi > Idx(n) {
		hi = Idx(n)
	}

	perm := make([]Idx, 0, hi-lo)
	for r := lo; r < hi; r++ {
		if filter != nil && !filter(r) {
			continue
		}
		perm = append(perm, r)
	}
	if len(perm) == 0 {
		return Fingerprint{Mode: HashMode}, perm, nil
	}

	if biject, h1 := tryBiject(cols, schema, perm); biject {
		return Fingerprint{Mode: BijectMode, H1: h1}, perm, nil
	}

	h1 := make([]uint64, len(perm))
	h2 := make([]uint64, len(perm))
	image := make([]byte, 0, 8*len(schema.Columns))
	for i, row := range perm {
		image = canonicalImage(image[:0], cols, schema, int(row))
		a, b := murmur3.Sum128(image)
		h1[i], h2[i] = a, b
	}
	return Fingerprint{Mode: HashMode, H1: h1, H2: h2}, perm, nil
}

// tryBiject attempts the integer-bijection fast path: every by-column
// must be int64-typed and the product of per-column ranges must fit
// under 2^63. It returns false immediately (without touching h1) when
// the schema is not all-integer.
func tryBiject(cols []ColumnView, schema Schema, rows []Idx) (bool, []uint64) {
	for _, c := range schema.Columns {
		if c.Kind != KindInt64 {
			return false, nil
		}
	}

	mins := make([]int64, len(cols))
	maxs := make([]int64, len(cols))
	for k := range cols {
		mins[k] = math.MaxInt64
		maxs[k] = math.MinInt64
	}
	for _, row := range rows {
		for k, c := range cols {
			v := c.Int64At(int(row))
			if v < mins[k] {
				mins[k] = v
			}
			if v > maxs[k] {
				maxs[k] = v
			}
		}
	}

	ranges := make([]uint64, len(cols))
	var product uint64 = 1
	const bijectLimit = uint64(1) << 63
	for k := range cols {
		span := uint64(maxs[k]-mins[k]) + 1
		ranges[k] = span
		if span != 0 && product > bijectLimit/span {
			return false, nil // product would overflow the 2^63 budget
		}
		product *= span
	}
	if product >= bijectLimit {
		return false, nil
	}

	// strides[k] = product of ranges[l] for l < k
	strides := make([]uint64, len(cols))
	stride := uint64(1)
	for k := range cols {
		strides[k] = stride
		stride *= ranges[k]
	}

	h1 := make([]uint64, len(rows))
	for i, row := range rows {
		var acc uint64
		for k, c := range cols {
			v := c.Int64At(int(row))
			acc += uint64(v-mins[k]) * strides[k]
		}
		h1[i] = acc
	}
	return true, h1
}

// canonicalImage appends the canonical byte image of row for the given
// schema onto dst and returns the extended slice: int64 and float64
// columns contribute 8 little-endian bytes each, and byte-string
// columns contribute their bytes, padded with MissingByte up to the
// declared width (longer entries are not truncated).
func canonicalImage(dst []byte, cols []ColumnView, schema Schema, row int) []byte {
	var buf [8]byte
	for k, spec := range schema.Columns {
		switch spec.Kind {
		case KindInt64:
			binary.LittleEndian.PutUint64(buf[:], uint64(cols[k].Int64At(row)))
			dst = append(dst, buf[:]...)
		case KindFloat64:
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(cols[k].Float64At(row)))
			dst = append(dst, buf[:]...)
		case KindBytes:
			b := cols[k].BytesAt(row)
			w := cols[k].Width()
			dst = append(dst, b...)
			for pad := len(b); pad < w; pad++ {
				dst = append(dst, MissingByte)
			}
		}
	}
	return dst
}
