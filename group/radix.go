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

const (
	radix16Passes  = 4
	radix16BitsPer = 16
	radix16TabSize = 1 << radix16BitsPer
	radix16Mask    = radix16TabSize - 1
)

// sortRadix16 performs a stable LSD radix sort of h1 (and perm in
// lockstep) in 4 passes of 16 bits each. The four per-pass histograms
// only depend on the original (pre-sort) key array, so they are
// computed concurrently by up to 4 workers; the four scatter passes
// that follow are strictly sequential, each consuming the previous
// pass's output, matching spec.md §4.2/§5.
func sortRadix16(h1 []uint64, perm []Idx) {
	n := len(h1)

	histograms := make([][radix16TabSize]int, radix16Passes)
	forkJoin(
		func() { buildHistogram16(h1, 0, &histograms[0]) },
		func() { buildHistogram16(h1, 16, &histograms[1]) },
		func() { buildHistogram16(h1, 32, &histograms[2]) },
		func() { buildHistogram16(h1, 48, &histograms[3]) },
	)

	hbuf, pbuf := h1, perm
	hscratch := make([]uint64, n)
	pscratch := make([]Idx, n)

	for pass := 0; pass < radix16Passes; pass++ {
		shift := uint(pass * radix16BitsPer)
		offsets := prefixSumHistogram16(&histograms[pass])

		for i, v := range hbuf {
			b := (v >> shift) & radix16Mask
			pos := offsets[b]
			hscratch[pos] = v
			pscratch[pos] = pbuf[i]
			offsets[b]++
		}
		hbuf, hscratch = hscratch, hbuf
		pbuf, pscratch = pscratch, pbuf
	}
	// radix16Passes is even, so hbuf/pbuf have swapped back onto the
	// caller's original h1/perm arrays: nothing further to copy.
	_ = hbuf
	_ = pbuf
}

func buildHistogram16(h1 []uint64, shift uint, counts *[radix16TabSize]int) {
	for _, v := range h1 {
		counts[(v>>shift)&radix16Mask]++
	}
}

func prefixSumHistogram16(counts *[radix16TabSize]int) []int {
	offsets := make([]int, radix16TabSize)
	sum := 0
	for i, c := range counts {
		offsets[i] = sum
		sum += c
	}
	return offsets
}

// sortRadix8 is the 8-bit/8-pass alternative the specification accepts
// when counter memory for 2^16 buckets is tight (spec.md §4.2). It is
// not used by sortHash by default but is exercised directly by tests
// and available to callers that want the smaller working set, grounded
// on the 256-bucket/8-pass shape of radixSortUint64Keys in the pack's
// go-polars dataframe/radix.go.
func sortRadix8(h1 []uint64, perm []Idx) {
	const (
		bitsPerPass = 8
		buckets     = 1 << bitsPerPass
		passes      = 64 / bitsPerPass
	)
	n := len(h1)
	hbuf, pbuf := h1, perm
	hscratch := make([]uint64, n)
	pscratch := make([]Idx, n)
	counts := make([]int, buckets)

	for pass := 0; pass < passes; pass++ {
		for i := range counts {
			counts[i] = 0
		}
		shift := uint(pass * bitsPerPass)
		for _, v := range hbuf {
			counts[(v>>shift)&0xFF]++
		}
		offsets := prefixSumInt(counts)

		for i, v := range hbuf {
			b := (v >> shift) & 0xFF
			pos := offsets[b]
			hscratch[pos] = v
			pscratch[pos] = pbuf[i]
			offsets[b]++
		}
		hbuf, hscratch = hscratch, hbuf
		pbuf, pscratch = pscratch, pbuf
	}
	// passes == 8 is even: hbuf/pbuf are back on the caller's arrays.
}
