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

// Command gtbench drives the grouping engine over synthetic data and
// reports timing. It is a benchmark/demo harness, not a replacement for
// a host application's own command surface: it has no notion of
// collapse/egen/contract/distinct/levelsof/isid syntax.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/sneller-gtools/fastgroup/group"
)

func main() {
	rows := flag.Int("rows", 1_000_000, "number of synthetic rows")
	groups := flag.Int("groups", 10_000, "number of distinct by-tuples to synthesize")
	byCols := flag.Int("bycols", 2, "number of int64 by-columns")
	reduce := flag.Bool("reduce", true, "emit a reduced (one row per group) result instead of a broadcast one")
	seed := flag.Int64("seed", 1, "PRNG seed")
	verbose := flag.Bool("v", false, "enable engine diagnostic logging")
	flag.Parse()

	if *verbose {
		group.Logf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "gtbench: "+format+"\n", args...)
		}
	}

	cols, values, schema := synthesize(*rows, *groups, *byCols, *seed)

	ctx := group.NewEngineContext()
	opts := group.EngineOptions{
		Columns: cols,
		Schema:  schema,
		N:       *rows,
		Specs: []group.AggSpec{
			{Kind: group.FuncCount, Values: values},
			{Kind: group.FuncSum, Values: values},
			{Kind: group.FuncMean, Values: values},
			{Kind: group.FuncSD, Values: values},
			{Kind: group.FuncMedian, Values: values},
		},
		Reduce: *reduce,
	}

	start := time.Now()
	res, err := group.Invoke(ctx, opts)
	elapsed := time.Since(start)
	if err != nil {
		log.Fatalf("invoke %s failed: %s", ctx.ID, err)
	}

	fmt.Printf("invocation %s: %d rows -> %d groups (%d collisions resolved) in %s\n",
		ctx.ID, res.M, res.J, res.Collisions, elapsed)
}

// synthesize builds nCols int64 by-columns and one float64 value column
// over n rows, drawing by-tuples from nGroups distinct combinations so
// the caller can control selectivity.
func synthesize(n, nGroups, nCols int, seed int64) ([]group.ColumnView, []float64, group.Schema) {
	if nCols < 1 {
		nCols = 1
	}
	rng := rand.New(rand.NewSource(seed))

	spread := nGroups
	if nCols > 1 {
		spread = max(2, int(float64(nGroups)*0.5)+1)
	}

	cols := make([]group.Int64Column, nCols)
	for k := range cols {
		cols[k] = make(group.Int64Column, n)
	}
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		// a group id in [0, nGroups) spread over the columns as
		// mixed-radix digits; the last column takes the remainder, so
		// distinct ids always give distinct tuples
		g := rng.Intn(nGroups)
		for k := range cols {
			if k < len(cols)-1 {
				cols[k][i] = int64(g % spread)
				g /= spread
			} else {
				cols[k][i] = int64(g)
			}
		}
		values[i] = rng.NormFloat64() * 100
	}

	views := make([]group.ColumnView, nCols)
	specs := make([]group.ColumnSpec, nCols)
	for k := range cols {
		views[k] = cols[k]
		specs[k] = group.ColumnSpec{Name: fmt.Sprintf("by%d", k), Kind: group.KindInt64}
	}
	return views, values, group.Schema{Columns: specs}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
