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

import "golang.org/x/exp/slices"

// panelSetup implements C3: given a sorted h1 (and, outside BijectMode,
// the matching h2 half), it produces GroupRanges info[] and the number
// of distinct by-tuples J. When two distinct by-tuples collide on h1,
// the colliding range is re-sorted by h2 and perm is updated in
// lockstep so that every final group corresponds to exactly one
// by-tuple. It returns the number of 64-bit collisions it had to
// resolve, which the caller reports via Logf as informational.
func panelSetup(h1 []uint64, h2 []uint64, perm []Idx, mode FingerprintMode) (info []uint64, collisions int) {
	n := len(h1)
	info = make([]uint64, 0, 1)
	info = slices.Grow(info, n+1)
	info = append(info, 0)
	for i := 1; i < n; i++ {
		if h1[i] != h1[i-1] {
			info = append(info, uint64(i))
		}
	}
	info = append(info, uint64(n))

	if mode == BijectMode || h2 == nil {
		return info, 0
	}

	final := make([]uint64, 0, len(info))
	final = append(final, 0)
	for g := 0; g < len(info)-1; g++ {
		s, e := info[g], info[g+1]
		if constantH2(h2[s:e]) {
			final = append(final, e)
			continue
		}
		collisions++
		splitCollidingRange(h1, h2, perm, s, e)
		for i := s + 1; i < e; i++ {
			if h2[i] != h2[i-1] {
				final = append(final, i)
			}
		}
		final = append(final, e)
	}
	return final, collisions
}

func constantH2(h2 []uint64) bool {
	for i := 1; i < len(h2); i++ {
		if h2[i] != h2[0] {
			return false
		}
	}
	return true
}

// splitCollidingRange resolves a 64-bit hash collision across [s, e) by
// sorting h2[s:e) and permuting perm[s:e) in lockstep via the same C2
// sorter used for the primary sort. h1[s:e) is left as it is: it is
// constant on this range.
func splitCollidingRange(h1, h2 []uint64, perm []Idx, s, e uint64) {
	localH2 := append([]uint64(nil), h2[s:e]...)
	localPerm := append([]Idx(nil), perm[s:e]...)
	sortHash(localH2, localPerm)
	copy(h2[s:e], localH2)
	copy(perm[s:e], localPerm)
	// h1 is constant across the range by construction (same 64-bit
	// hash bucket); nothing to reorder there.
	_ = h1
}
