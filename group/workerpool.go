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

import "sync"

// forkJoin runs each of fns concurrently (bounded implicitly by
// len(fns), which callers keep small — at most 4 for the radix
// histogram fan-out) and waits for all of them to finish. A panicking
// worker is recovered and re-raised on the calling goroutine once every
// worker has finished, so one worker's panic can never strand the
// others mid-flight.
//
// This mirrors sorting.ThreadPool's fork_n/join_all shape (see
// sorting/thread_pool.go) but is specialized to the one-shot,
// fixed-fan-out usage the sorter needs: no persistent queue, no
// long-lived goroutines.
func forkJoin(fns ...func()) {
	var wg sync.WaitGroup
	panics := make([]any, len(fns))

	wg.Add(len(fns))
	for i, fn := range fns {
		go func(i int, fn func()) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panics[i] = r
				}
			}()
			fn()
		}(i, fn)
	}
	wg.Wait()

	for _, p := range panics {
		if p != nil {
			panic(p)
		}
	}
}
