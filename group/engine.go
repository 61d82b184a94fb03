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

import "github.com/google/uuid"

// engineState tracks progress through the linear Init → Hashed → Sorted
// → Grouped → Aggregated → Done pipeline. There is no reentrancy: one
// EngineContext drives exactly one Invoke call from Init to Done.
type engineState int

const (
	stateInit engineState = iota
	stateHashed
	stateSorted
	stateGrouped
	stateAggregated
	stateDone
)

// EngineContext carries the identity of a single Invoke call. ID is
// minted once per call the same way cmd/snellerd mints a request UUID
// for every incoming query, so that Logf lines from one invocation can
// be correlated by a caller aggregating logs from many concurrent
// invocations.
type EngineContext struct {
	ID    uuid.UUID
	state engineState
}

// NewEngineContext mints a fresh EngineContext ready for one Invoke
// call.
func NewEngineContext() EngineContext {
	return EngineContext{ID: uuid.New(), state: stateInit}
}

func (c *EngineContext) advance(want engineState) error {
	if c.state+1 != want {
		return newErr(CodeInvariantViolation, "invocation %s: cannot advance from state %d to %d", c.ID, c.state, want)
	}
	c.state = want
	return nil
}

// EngineOptions describes one grouping/aggregation request: the
// by-column schema and data, an optional if/in filter, and the set of
// aggregate functions to apply.
type EngineOptions struct {
	Columns []ColumnView
	Schema  Schema
	N       int
	Filter  RowFilter
	Range   *RowRange
	Specs   []AggSpec

	// Reduce selects output shape: true produces one row per group
	// (length J), false broadcasts every group's result back onto each
	// of its member rows (length M), matching spec.md §6's (a)/(b)
	// output modes.
	Reduce bool
}

// Result is the output of one Invoke call.
type Result struct {
	J          int // number of distinct by-tuples (groups)
	M          int // number of rows that survived filtering
	Collisions int // 64-bit hash collisions resolved during panel setup

	// GroupValues holds one []float64 per requested AggSpec, in request
	// order. FuncTag/FuncGroup specs have a nil entry here; their output
	// lives in Tag/GroupLabel instead. Length J if opts.Reduce, else M.
	GroupValues [][]float64

	// Tag is 1 for the first row (in original order) of each group and
	// 0 otherwise. GroupLabel is each row's dense 1..J group id. Both
	// are always length M, regardless of opts.Reduce, since they are
	// row-native rather than group-native.
	Tag        []uint8
	GroupLabel []uint64

	// Perm maps each position in the sorted/grouped order back to its
	// original row index, for hosts that need to scatter results
	// themselves instead of using Tag/GroupLabel directly.
	Perm []Idx
}

// Invoke runs the full pipeline — hash, sort, panel setup, aggregate —
// for one grouping request and returns either a reduced (length-J) or
// broadcast (length-M) result, per opts.Reduce.
func Invoke(ctx EngineContext, opts EngineOptions) (Result, error) {
	if opts.N == 0 {
		return Result{}, newErr(CodeEmptyInput, "invocation %s: no rows supplied", ctx.ID)
	}
	// A missing/empty by-column schema is a schema-rejection, not an
	// empty-input condition; hashRows surfaces CodeUnsupportedSchema for
	// it below.

	fp, perm, err := hashRows(opts.Columns, opts.Schema, opts.N, opts.Filter, opts.Range)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.advance(stateHashed); err != nil {
		return Result{}, err
	}
	if len(perm) == 0 {
		return Result{}, newErr(CodeEmptyInput, "invocation %s: filter/range excluded every row", ctx.ID)
	}

	// sortHash permutes its second argument in lockstep with h1; passing
	// a position array instead of perm directly lets the same pass also
	// reorder H2 (and perm itself) afterward, since H2 is still indexed
	// by pre-sort position at this point.
	pos := make([]Idx, len(perm))
	for i := range pos {
		pos[i] = Idx(i)
	}
	sortHash(fp.H1, pos)

	sortedPerm := make([]Idx, len(perm))
	var sortedH2 []uint64
	if fp.Mode == HashMode {
		sortedH2 = make([]uint64, len(perm))
	}
	for i, p := range pos {
		sortedPerm[i] = perm[p]
		if sortedH2 != nil {
			sortedH2[i] = fp.H2[p]
		}
	}
	perm = sortedPerm
	fp.H2 = sortedH2
	if err := ctx.advance(stateSorted); err != nil {
		return Result{}, err
	}

	info, collisions := panelSetup(fp.H1, fp.H2, perm, fp.Mode)
	if collisions > 0 {
		logf("invocation %s: resolved %d 64-bit hash collision(s) during panel setup", ctx.ID, collisions)
	}
	if err := ctx.advance(stateGrouped); err != nil {
		return Result{}, err
	}

	agg, err := aggregate(perm, info, opts.Specs)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.advance(stateAggregated); err != nil {
		return Result{}, err
	}

	res := Result{
		J:          len(info) - 1,
		M:          len(perm),
		Collisions: collisions,
		Tag:        agg.Tag,
		GroupLabel: agg.GroupLabel,
		Perm:       perm,
	}

	if opts.Reduce {
		res.GroupValues = agg.GroupValues
	} else {
		res.GroupValues = broadcastAll(agg.GroupValues, agg.GroupLabel)
	}

	if err := ctx.advance(stateDone); err != nil {
		return Result{}, err
	}
	return res, nil
}

// broadcastAll expands every group-level result back onto row order,
// per spec.md §6 output mode (a): row i (in sorted/grouped order) gets
// the value computed for its group.
func broadcastAll(groupValues [][]float64, groupLabel []uint64) [][]float64 {
	out := make([][]float64, len(groupValues))
	for si, gv := range groupValues {
		if gv == nil {
			continue
		}
		row := make([]float64, len(groupLabel))
		for i, g := range groupLabel {
			row[i] = gv[g-1]
		}
		out[si] = row
	}
	return out
}
