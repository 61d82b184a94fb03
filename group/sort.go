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

// countingSortThreshold is the range below which a counting sort beats
// a radix sort (spec: range < 2^24).
const countingSortThreshold = 1 << 24

// sortHash implements C2: it stable-sorts h1 in place (non-decreasing)
// and permutes perm in lockstep, choosing a counting sort for small
// ranges and a 16-bit/4-pass LSD radix sort otherwise.
func sortHash(h1 []uint64, perm []Idx) {
	n := len(h1)
	if n < 2 {
		return
	}

	lo, hi := minMaxUint64(h1)
	span := hi - lo // range is span+1
	if span < countingSortThreshold-1 {
		sortCounting(h1, perm, lo, span+1)
		return
	}
	sortRadix16(h1, perm)
}

func minMaxUint64(xs []uint64) (lo, hi uint64) {
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return
}

// sortCounting performs a stable counting sort of h1 (whose values all
// lie in [lo, lo+span)) and permutes perm to match. Reads the input
// left to right and increments each bucket's offset after placing the
// element there (spec.md §9: pick one stability direction
// consistently).
func sortCounting(h1 []uint64, perm []Idx, lo uint64, span uint64) {
	n := len(h1)
	counts := make([]int, span)
	for _, v := range h1 {
		counts[v-lo]++
	}
	offsets := prefixSumInt(counts)

	hscratch := make([]uint64, n)
	pscratch := make([]Idx, n)
	for i, v := range h1 {
		b := v - lo
		pos := offsets[b]
		hscratch[pos] = v
		pscratch[pos] = perm[i]
		offsets[b]++
	}
	copy(h1, hscratch)
	copy(perm, pscratch)
}

// prefixSumInt turns a histogram of bucket counts into a histogram of
// bucket starting offsets (exclusive prefix sum), reusing the input
// slice's backing array as scratch-free return is not possible without
// destroying counts, so a new slice is returned.
func prefixSumInt(counts []int) []int {
	offsets := make([]int, len(counts))
	sum := 0
	for i, c := range counts {
		offsets[i] = sum
		sum += c
	}
	return offsets
}
