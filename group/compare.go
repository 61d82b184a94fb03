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

import "bytes"

// Compare is a keyed comparator: negative if a<b, zero if equal,
// positive if a>b — the same convention as bytes.Compare and
// sorting.Ordering.Compare in the teacher.
type Compare func(a, b uint64) int

// compareUint64Asc / compareUint64Desc compare two uint64 keys
// directly (used for bijected fingerprints and integer value columns).
func compareUint64Asc(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint64Desc(a, b uint64) int {
	return -compareUint64Asc(a, b)
}

// CompareFloat64 compares two float64 values numerically, with the
// engine's reserved MISSING pattern sorting last in ascending order
// (and therefore first in descending order) and comparing equal only
// to itself. NaN payloads other than MISSING are not ordered: they
// compare equal to every non-missing value.
type CompareFloat64 func(a, b float64) int

func compareFloat64Asc(a, b float64) int {
	am, bm := isMissingFloat64(a), isMissingFloat64(b)
	switch {
	case am && bm:
		return 0
	case am:
		return 1
	case bm:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64Desc(a, b float64) int {
	return -compareFloat64Asc(a, b)
}

// CompareBytes compares two fixed-width byte strings lexicographically.
type CompareBytes func(a, b []byte) int

func compareBytesAsc(a, b []byte) int {
	return bytes.Compare(a, b)
}

func compareBytesDesc(a, b []byte) int {
	return -compareBytesAsc(a, b)
}

// keyedComparator describes a comparator over one field of a composite
// record: its kind and byte offset/width within the record, dispatched
// on kind rather than on a raw pointer+offset cast (spec.md §9,
// "Pointer-offset polymorphism in comparators → keyed comparator
// objects").
type keyedComparator struct {
	Kind    ColumnKind
	Offset  int
	Width   int
	Reverse bool
}

// compareRecords compares two flat byte records at the field described
// by kc.
func (kc keyedComparator) compareRecords(a, b []byte) int {
	af := a[kc.Offset : kc.Offset+kc.Width]
	bf := b[kc.Offset : kc.Offset+kc.Width]
	var r int
	switch kc.Kind {
	case KindInt64:
		var cmp Compare = compareUint64Asc
		r = cmp(leUint64(af), leUint64(bf))
	case KindFloat64:
		var cmp CompareFloat64 = compareFloat64Asc
		r = cmp(leFloat64(af), leFloat64(bf))
	case KindBytes:
		var cmp CompareBytes = compareBytesAsc
		r = cmp(af, bf)
	}
	if kc.Reverse {
		r = -r
	}
	return r
}
